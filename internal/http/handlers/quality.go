package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ArthurrMrv/graph-project/internal/dataset"
	"github.com/ArthurrMrv/graph-project/internal/http/response"
	"github.com/ArthurrMrv/graph-project/internal/platform/apierr"
	"github.com/ArthurrMrv/graph-project/internal/platform/logger"
)

type QualityHandler struct {
	profile dataset.Profile
	log     *logger.Logger
}

func NewQualityHandler(profile dataset.Profile, baseLog *logger.Logger) *QualityHandler {
	return &QualityHandler{
		profile: profile,
		log:     baseLog.With("handler", "QualityHandler"),
	}
}

type qualityResponse struct {
	Prices *dataset.PriceQualityReport  `json:"prices"`
	Social *dataset.SocialQualityReport `json:"social"`
}

// Check scans both source files end to end and reports structural issues
// without writing anything.
func (h *QualityHandler) Check(c *gin.Context) {
	ctx := c.Request.Context()
	prices, err := dataset.CheckPrices(ctx, h.profile)
	if err != nil {
		response.RespondFromError(c, apierr.Internal("quality_check_failed", err))
		return
	}
	social, err := dataset.CheckSocial(ctx, h.profile)
	if err != nil {
		response.RespondFromError(c, apierr.Internal("quality_check_failed", err))
		return
	}
	response.RespondOK(c, qualityResponse{Prices: prices, Social: social})
}
