package labops

import (
	"net/http"

	"github.com/blutspende/labops/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type storeAnalysisTO struct {
	ConfigPath string `json:"configPath" binding:"required"`
}

// UploadObservations
// @Summary Upload the variant observations of an analysis
// @Tags Observations
// @Param analysisId path string true "Analysis id"
// @Success 204 "No Content"
// @Failure 409 {object} middleware.ClientError
// @Router /v1/observations/{analysisId} [POST]
func (api *api) UploadObservations(c *gin.Context) {
	analysisID, err := uuid.Parse(c.Param("analysisId"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, middleware.ErrInvalidOrMissingRequestParameter.WithParam("param", "analysisId"))
		return
	}

	err = api.observationService.Process(c, analysisID)
	api.metrics.ObserveObservationUpload(err)
	if err != nil {
		api.abortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (api *api) StoreAnalysis(c *gin.Context) {
	var body storeAnalysisTO
	err := c.ShouldBindJSON(&body)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, middleware.ErrInvalidRequestBody)
		return
	}

	analysis, err := api.analysisService.StoreAnalysis(c, body.ConfigPath)
	if err != nil {
		api.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, analysis)
}
