package labops

import (
	"net/http"

	"github.com/blutspende/labops/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type invoiceTotalTO struct {
	InvoiceID uuid.UUID       `json:"invoiceId"`
	Total     decimal.Decimal `json:"total"`
	Complete  bool            `json:"complete"`
}

// PrepareInvoice
// @Summary Prepare the billing data of an invoice
// @Description Records that can not be priced and missing contact details answer 422 with one error per problem
// @Tags Invoices
// @Produce json
// @Param invoiceId path string true "Invoice id"
// @Param costcenter query string true "Cost center" Enums(ki, kth)
// @Success 200 {object} InvoiceData
// @Failure 422 {object} middleware.ClientError
// @Router /v1/invoices/{invoiceId} [GET]
func (api *api) PrepareInvoice(c *gin.Context) {
	invoiceID, ok := invoiceIDParam(c)
	if !ok {
		return
	}
	costCenter, err := ParseCostCenter(c.Query("costcenter"))
	if err != nil {
		api.abortWithError(c, err)
		return
	}

	data, diagnostics, err := api.invoiceService.Prepare(c, invoiceID, costCenter)
	if err != nil {
		api.abortWithError(c, err)
		return
	}
	if data == nil {
		response := middleware.ErrInvoiceIncomplete
		for _, diagnostic := range diagnostics {
			response = response.WithDetail(middleware.ClientError{MessageKey: "invoiceDiagnostic", Message: diagnostic})
		}
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, response)
		return
	}

	c.JSON(http.StatusOK, data)
}

func (api *api) GetInvoiceTotal(c *gin.Context) {
	invoiceID, ok := invoiceIDParam(c)
	if !ok {
		return
	}

	total, complete, err := api.invoiceService.TotalPrice(c, invoiceID)
	if err != nil {
		api.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, invoiceTotalTO{InvoiceID: invoiceID, Total: total, Complete: complete})
}

func invoiceIDParam(c *gin.Context) (uuid.UUID, bool) {
	invoiceID, err := uuid.Parse(c.Param("invoiceId"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, middleware.ErrInvalidOrMissingRequestParameter.WithParam("param", "invoiceId"))
		return uuid.Nil, false
	}
	return invoiceID, true
}
