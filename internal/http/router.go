package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/ArthurrMrv/graph-project/internal/http/handlers"
	httpMW "github.com/ArthurrMrv/graph-project/internal/http/middleware"
	"github.com/ArthurrMrv/graph-project/internal/observability"
	"github.com/ArthurrMrv/graph-project/internal/platform/logger"
)

type RouterConfig struct {
	Log     *logger.Logger
	Metrics *observability.Metrics

	PipelineHandler  *httpH.PipelineHandler
	SentimentHandler *httpH.SentimentHandler
	AnalyticsHandler *httpH.AnalyticsHandler
	QualityHandler   *httpH.QualityHandler
	RunsHandler      *httpH.RunsHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("graph-project"))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Ingestion
		if cfg.PipelineHandler != nil {
			api.POST("/pipeline/dataset_to_graph", cfg.PipelineHandler.DatasetToGraph)
			api.POST("/stocks/sync", cfg.PipelineHandler.SyncStocks)
			api.POST("/social/import", cfg.PipelineHandler.ImportSocial)
		}

		// Sentiment
		if cfg.SentimentHandler != nil {
			api.POST("/sentiment/analyze", cfg.SentimentHandler.Analyze)
			api.POST("/sentiment/process", cfg.SentimentHandler.Process)
		}

		// Analytics (read side)
		if cfg.AnalyticsHandler != nil {
			api.GET("/analytics/correlation/:ticker", cfg.AnalyticsHandler.Correlation)
			api.GET("/analytics/trending", cfg.AnalyticsHandler.Trending)
			api.GET("/analytics/prediction/:ticker", cfg.AnalyticsHandler.Prediction)
			api.GET("/analytics/volatility", cfg.AnalyticsHandler.Volatility)
		}

		// Source file quality precheck
		if cfg.QualityHandler != nil {
			api.GET("/quality", cfg.QualityHandler.Check)
		}

		// Run audit trail
		if cfg.RunsHandler != nil {
			api.GET("/runs", cfg.RunsHandler.List)
			api.GET("/runs/:id", cfg.RunsHandler.GetByID)
		}
	}

	return r
}
