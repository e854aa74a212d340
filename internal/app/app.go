package app

import (
	"context"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/ArthurrMrv/graph-project/internal/analytics"
	"github.com/ArthurrMrv/graph-project/internal/clients/huggingface"
	redisclient "github.com/ArthurrMrv/graph-project/internal/clients/redis"
	"github.com/ArthurrMrv/graph-project/internal/data/graph"
	"github.com/ArthurrMrv/graph-project/internal/dataset"
	"github.com/ArthurrMrv/graph-project/internal/db"
	httpx "github.com/ArthurrMrv/graph-project/internal/http"
	httpH "github.com/ArthurrMrv/graph-project/internal/http/handlers"
	"github.com/ArthurrMrv/graph-project/internal/ingest"
	"github.com/ArthurrMrv/graph-project/internal/observability"
	"github.com/ArthurrMrv/graph-project/internal/platform/logger"
	"github.com/ArthurrMrv/graph-project/internal/platform/neo4jdb"
	"github.com/ArthurrMrv/graph-project/internal/repos"
)

// App owns every long-lived component: the graph driver, the audit store,
// the pipeline and the HTTP router.
type App struct {
	Log      *logger.Logger
	Cfg      Config
	Neo4j    *neo4jdb.Client
	AuditDB  *gorm.DB
	Cache    redisclient.Cache
	Pipeline *ingest.Pipeline
	Server   *httpx.Server

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg := LoadConfig()
	ctx, cancel := context.WithCancel(context.Background())

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "graph-project",
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})
	metrics := observability.Init(log)
	metrics.StartServer(ctx, log, cfg.MetricsAddr)
	metrics.StartRedisCollector(ctx, log, cfg.RedisAddr)

	// Graph database is the system of record; refusing to start without it.
	neo4jClient, err := neo4jdb.NewFromEnv(log)
	if err != nil {
		cancel()
		log.Sync()
		return nil, fmt.Errorf("init neo4j: %w", err)
	}
	store := graph.NewNeo4jStore(neo4jClient, log)

	// Audit store is best-effort: runs still execute without it.
	var auditDB *gorm.DB
	var runsRepo repos.IngestionRunRepo
	sqlite, err := db.NewSQLiteService(log)
	if err != nil {
		log.Warn("sqlite init failed, run audit disabled", "error", err)
	} else {
		if err := sqlite.AutoMigrateAll(); err != nil {
			log.Warn("sqlite automigrate failed", "error", err)
		}
		auditDB = sqlite.DB()
		runsRepo = repos.NewIngestionRunRepo(auditDB, log)
		metrics.StartRunDepthCollector(ctx, log, auditDB)
	}

	profile := dataset.LoadProfile(log)
	priceSource := dataset.NewCSVPriceSource(profile, log)
	socialSource := dataset.NewCSVSocialSource(profile, log)

	classifier, err := huggingface.NewClient(log)
	if err != nil {
		log.Warn("classifier init failed, sentiment scoring disabled", "error", err)
		classifier = nil
	}

	cache, err := redisclient.NewCache(log)
	if err != nil {
		log.Warn("redis init failed, analytics cache disabled", "error", err)
		cache = nil
	}

	pipeline := ingest.NewPipeline(store, priceSource, socialSource, classifier, runsRepo, log, ingest.Config{
		ChunkSize:         cfg.ChunkSize,
		VolatilityWindow:  cfg.VolatilityWindow,
		MaxConcurrentRuns: cfg.MaxConcurrentRuns,
	})

	analyticsSvc, err := analytics.NewService(neo4jClient, cache, log)
	if err != nil {
		cancel()
		log.Sync()
		return nil, fmt.Errorf("init analytics: %w", err)
	}

	routerCfg := httpx.RouterConfig{
		Log:              log,
		Metrics:          metrics,
		PipelineHandler:  httpH.NewPipelineHandler(pipeline, log),
		SentimentHandler: httpH.NewSentimentHandler(classifier, store, log),
		AnalyticsHandler: httpH.NewAnalyticsHandler(analyticsSvc, log),
		QualityHandler:   httpH.NewQualityHandler(profile, log),
		HealthHandler:    httpH.NewHealthHandler(),
	}
	if runsRepo != nil {
		routerCfg.RunsHandler = httpH.NewRunsHandler(runsRepo, log)
	}

	return &App{
		Log:          log,
		Cfg:          cfg,
		Neo4j:        neo4jClient,
		AuditDB:      auditDB,
		Cache:        cache,
		Pipeline:     pipeline,
		Server:       httpx.NewServer(routerCfg),
		otelShutdown: otelShutdown,
		cancel:       cancel,
	}, nil
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("server listening", "port", a.Cfg.Port)
	return a.Server.Run(":" + a.Cfg.Port)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
	}
	ctx := context.Background()
	if a.otelShutdown != nil {
		_ = a.otelShutdown(ctx)
	}
	if a.Cache != nil {
		_ = a.Cache.Close()
	}
	if a.Neo4j != nil {
		_ = a.Neo4j.Close(ctx)
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
