package labops

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

type transferResponseTO struct {
	TransferReport
	Error string `json:"error,omitempty"`
}

// TransferStage
// @Summary Transfer lifecycle dates from the LIMS
// @Description Copies the LIMS dates of one stage into the status store. A run where some entities
// @Description failed answers 207 together with the counts.
// @Tags Transfers
// @Produce json
// @Param kind path string true "Entity kind" Enums(samples, pools, microbial)
// @Param stage path string true "Stage" Enums(received, prepared, sequenced, delivered)
// @Param include query string false "Candidate selection" Enums(not-invoiced, all)
// @Success 200 {object} transferResponseTO
// @Success 207 {object} transferResponseTO
// @Router /v1/transfers/{kind}/{stage} [POST]
func (api *api) TransferStage(c *gin.Context) {
	include, err := ParseIncludeOption(c.Query("include"))
	if err != nil {
		api.abortWithError(c, err)
		return
	}

	report, err := api.transferService.Transfer(c, EntityKind(c.Param("kind")), Stage(c.Param("stage")), include)
	if errors.Is(err, ErrTransferIncomplete) {
		api.metrics.ObserveTransfer(report)
		c.JSON(http.StatusMultiStatus, transferResponseTO{TransferReport: report, Error: err.Error()})
		return
	}
	if err != nil {
		api.abortWithError(c, err)
		return
	}
	api.metrics.ObserveTransfer(report)

	c.JSON(http.StatusOK, transferResponseTO{TransferReport: report})
}

// TransferFlowcell
// @Summary Transfer a flowcell from the stats database
// @Tags Transfers
// @Produce json
// @Param name path string true "Flowcell name"
// @Success 200 {object} Flowcell
// @Failure 404 {object} middleware.ClientError
// @Failure 503 {object} middleware.ClientError
// @Router /v1/flowcells/{name}/transfer [POST]
func (api *api) TransferFlowcell(c *gin.Context) {
	if api.flowcellService == nil {
		api.abortWithError(c, ErrStatsNotConfigured)
		return
	}

	flowcell, err := api.flowcellService.Transfer(c, c.Param("name"))
	api.metrics.ObserveFlowcell(err)
	if err != nil {
		api.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, flowcell)
}
