package labops

import (
	"net/http"

	"github.com/blutspende/labops/middleware"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type submitOrderTO struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Order Order  `json:"order"`
}

// ParseOrderForm
// @Summary Parse an order form workbook
// @Description Parses an uploaded xlsx order form into families and samples
// @Tags Orders
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Order form workbook"
// @Success 200 {object} OrderForm
// @Failure 400 {object} middleware.ClientError
// @Router /v1/orderforms [POST]
func (api *api) ParseOrderForm(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, middleware.ErrInvalidOrMissingRequestParameter.WithParam("param", "file"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		log.Error().Err(err).Str("file", fileHeader.Filename).Msg("opening uploaded order form failed")
		c.AbortWithStatusJSON(http.StatusBadRequest, middleware.ErrUnableToParseRequestBody)
		return
	}
	defer file.Close()

	orderForm, err := ParseOrderForm(file)
	if err != nil {
		api.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, orderForm)
}

// SubmitOrder
// @Summary Submit an order
// @Description Validates the order and registers it in the LIMS and the status store
// @Tags Orders
// @Accept json
// @Produce json
// @Param type path string true "Order type" Enums(external, fastq, rml, scout)
// @Success 201 {object} SubmissionResult
// @Failure 400 {object} middleware.ClientError
// @Router /v1/orders/{type} [POST]
func (api *api) SubmitOrder(c *gin.Context) {
	orderType := OrderType(c.Param("type"))

	var body submitOrderTO
	err := c.ShouldBindJSON(&body)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, middleware.ErrInvalidRequestBody)
		return
	}

	result, err := api.orderService.Submit(c, orderType, body.Name, body.Email, body.Order)
	if !errors.Is(err, ErrUnsupportedOrderType) {
		api.metrics.ObserveOrder(orderType, err)
	}
	if err != nil {
		api.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}
