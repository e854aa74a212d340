package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ArthurrMrv/graph-project/internal/analytics"
	"github.com/ArthurrMrv/graph-project/internal/http/response"
	"github.com/ArthurrMrv/graph-project/internal/platform/apierr"
	"github.com/ArthurrMrv/graph-project/internal/platform/logger"
)

type AnalyticsHandler struct {
	svc *analytics.Service
	log *logger.Logger
}

func NewAnalyticsHandler(svc *analytics.Service, baseLog *logger.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		svc: svc,
		log: baseLog.With("handler", "AnalyticsHandler"),
	}
}

func (h *AnalyticsHandler) Correlation(c *gin.Context) {
	ticker := c.Param("ticker")
	report, err := h.svc.SentimentPriceCorrelation(
		c.Request.Context(),
		ticker,
		c.Query("start_date"),
		c.Query("end_date"),
	)
	if err != nil {
		response.RespondFromError(c, apierr.Internal("analytics_failed", err))
		return
	}
	response.RespondOK(c, report)
}

func (h *AnalyticsHandler) Trending(c *gin.Context) {
	report, err := h.svc.TrendingStocks(
		c.Request.Context(),
		queryInt(c, "window_days", 7),
		queryInt(c, "limit", 10),
	)
	if err != nil {
		response.RespondFromError(c, apierr.Internal("analytics_failed", err))
		return
	}
	response.RespondOK(c, report)
}

func (h *AnalyticsHandler) Prediction(c *gin.Context) {
	report, err := h.svc.SentimentPrediction(
		c.Request.Context(),
		c.Param("ticker"),
		queryInt(c, "lookback_days", 7),
	)
	if err != nil {
		response.RespondFromError(c, apierr.Internal("analytics_failed", err))
		return
	}
	response.RespondOK(c, report)
}

func (h *AnalyticsHandler) Volatility(c *gin.Context) {
	report, err := h.svc.SocialVolatility(
		c.Request.Context(),
		queryInt(c, "min_posts", 10),
		queryInt(c, "limit", 10),
	)
	if err != nil {
		response.RespondFromError(c, apierr.Internal("analytics_failed", err))
		return
	}
	response.RespondOK(c, report)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
