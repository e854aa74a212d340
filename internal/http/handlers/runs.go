package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ArthurrMrv/graph-project/internal/http/response"
	"github.com/ArthurrMrv/graph-project/internal/platform/apierr"
	"github.com/ArthurrMrv/graph-project/internal/platform/logger"
	"github.com/ArthurrMrv/graph-project/internal/repos"
)

type RunsHandler struct {
	runs repos.IngestionRunRepo
	log  *logger.Logger
}

func NewRunsHandler(runs repos.IngestionRunRepo, baseLog *logger.Logger) *RunsHandler {
	return &RunsHandler{
		runs: runs,
		log:  baseLog.With("handler", "RunsHandler"),
	}
}

func (h *RunsHandler) List(c *gin.Context) {
	limit := queryInt(c, "limit", 50)
	runs, err := h.runs.List(c.Request.Context(), nil, c.Query("ticker"), limit)
	if err != nil {
		response.RespondFromError(c, apierr.Internal("runs_list_failed", err))
		return
	}
	response.RespondOK(c, gin.H{"runs": runs})
}

func (h *RunsHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondFromError(c, apierr.BadRequest("invalid_run_id", fmt.Errorf("invalid run id %q", c.Param("id"))))
		return
	}
	run, err := h.runs.GetByID(c.Request.Context(), nil, id)
	if err != nil {
		response.RespondFromError(c, apierr.Internal("run_fetch_failed", err))
		return
	}
	if run == nil {
		response.RespondFromError(c, apierr.NotFound("run_not_found", fmt.Errorf("run %s not found", id)))
		return
	}
	response.RespondOK(c, run)
}
