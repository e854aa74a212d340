package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ArthurrMrv/graph-project/internal/http/response"
	"github.com/ArthurrMrv/graph-project/internal/ingest"
	"github.com/ArthurrMrv/graph-project/internal/platform/apierr"
	"github.com/ArthurrMrv/graph-project/internal/platform/logger"
	"github.com/ArthurrMrv/graph-project/internal/types"
)

type PipelineHandler struct {
	pipe *ingest.Pipeline
	log  *logger.Logger
}

func NewPipelineHandler(pipe *ingest.Pipeline, baseLog *logger.Logger) *PipelineHandler {
	return &PipelineHandler{
		pipe: pipe,
		log:  baseLog.With("handler", "PipelineHandler"),
	}
}

// DatasetToGraph runs the full price + social ingestion for one ticker.
func (h *PipelineHandler) DatasetToGraph(c *gin.Context) {
	params, ok := h.bindParams(c)
	if !ok {
		return
	}
	report := h.pipe.Run(c.Request.Context(), params)
	respondReport(c, report)
}

// SyncStocks runs the price half of the pipeline only.
func (h *PipelineHandler) SyncStocks(c *gin.Context) {
	params, ok := h.bindParams(c)
	if !ok {
		return
	}
	report := h.pipe.SyncPrices(c.Request.Context(), params)
	respondReport(c, report)
}

// ImportSocial runs the social half of the pipeline only.
func (h *PipelineHandler) ImportSocial(c *gin.Context) {
	params, ok := h.bindParams(c)
	if !ok {
		return
	}
	report := h.pipe.ImportSocial(c.Request.Context(), params)
	respondReport(c, report)
}

func (h *PipelineHandler) bindParams(c *gin.Context) (types.RunParams, bool) {
	var params types.RunParams
	if err := c.ShouldBindJSON(&params); err != nil {
		response.RespondFromError(c, apierr.BadRequest("invalid_body", fmt.Errorf("invalid request body: %w", err)))
		return params, false
	}
	return params, true
}

// respondReport returns the run report under the status code its outcome
// implies: a fatal run is a 500 whose body still carries the full report.
func respondReport(c *gin.Context, report *types.RunReport) {
	if report.Status == types.RunStatusError {
		c.JSON(http.StatusInternalServerError, report)
		return
	}
	response.RespondOK(c, report)
}
