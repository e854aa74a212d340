package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/ArthurrMrv/graph-project/internal/clients/huggingface"
	"github.com/ArthurrMrv/graph-project/internal/data/graph"
	"github.com/ArthurrMrv/graph-project/internal/observability"
	"github.com/ArthurrMrv/graph-project/internal/platform/logger"
	"github.com/ArthurrMrv/graph-project/internal/repos"
	"github.com/ArthurrMrv/graph-project/internal/types"
)

// Stage names one step of the ingestion state machine. Stages run strictly
// in order; Failed is reachable from any of them on a fatal error.
type Stage string

const (
	StageValidating        Stage = "validating"
	StageLoadingPrices     Stage = "loading_prices"
	StageUpsertingPrices   Stage = "upserting_prices"
	StageLoadingSocial     Stage = "loading_social"
	StageNegotiatingSchema Stage = "negotiating_schema"
	StageScoringSentiment  Stage = "scoring_sentiment"
	StageUpsertingSocial   Stage = "upserting_social"
	StageSummarizing       Stage = "summarizing"
	StageDone              Stage = "done"
	StageFailed            Stage = "failed"
)

// PriceSource loads raw daily price rows for one ticker and date range.
type PriceSource interface {
	LoadPrices(ctx context.Context, ticker, start, end string) ([]types.PriceRow, error)
}

// SocialSource loads the full social batch for one ticker and date range.
// The batch must be complete before schema negotiation runs.
type SocialSource interface {
	LoadSocial(ctx context.Context, ticker, start, end string) (types.SocialBatch, error)
}

type Config struct {
	ChunkSize         int // fallback when run params omit one; default 2000
	VolatilityWindow  int // trailing observations for rolling volatility
	MaxConcurrentRuns int64
}

// Pipeline sequences one ingestion run: load prices, upsert the price
// graph, load social rows, negotiate optional schema once over the full
// batch, score sentiment, upsert the social graph, and assemble one
// immutable report. All counters are owned here and never mutated
// concurrently; component results come back as values.
type Pipeline struct {
	log       *logger.Logger
	store     graph.Store
	prices    PriceSource
	social    SocialSource
	sentiment *SentimentAdapter
	runs      repos.IngestionRunRepo
	cfg       Config
	runGate   *semaphore.Weighted
}

func NewPipeline(
	store graph.Store,
	prices PriceSource,
	social SocialSource,
	classifier huggingface.Classifier,
	runs repos.IngestionRunRepo,
	baseLog *logger.Logger,
	cfg Config,
) *Pipeline {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.VolatilityWindow < 2 {
		cfg.VolatilityWindow = DefaultVolatilityWindow
	}
	if cfg.MaxConcurrentRuns < 1 {
		cfg.MaxConcurrentRuns = 4
	}
	return &Pipeline{
		log:       baseLog.With("component", "IngestionPipeline"),
		store:     store,
		prices:    prices,
		social:    social,
		sentiment: NewSentimentAdapter(classifier, baseLog),
		runs:      runs,
		cfg:       cfg,
		runGate:   semaphore.NewWeighted(cfg.MaxConcurrentRuns),
	}
}

// Run executes the full dataset-to-graph pipeline for one instrument.
func (p *Pipeline) Run(ctx context.Context, params types.RunParams) *types.RunReport {
	return p.run(ctx, params, true, true)
}

// SyncPrices runs the price half of the pipeline only.
func (p *Pipeline) SyncPrices(ctx context.Context, params types.RunParams) *types.RunReport {
	return p.run(ctx, params, true, false)
}

// ImportSocial runs the social half of the pipeline only.
func (p *Pipeline) ImportSocial(ctx context.Context, params types.RunParams) *types.RunReport {
	return p.run(ctx, params, false, true)
}

func (p *Pipeline) run(ctx context.Context, params types.RunParams, doPrices, doSocial bool) *types.RunReport {
	startedAt := time.Now().UTC()
	report := &types.RunReport{
		RunID:    uuid.New(),
		Status:   types.RunStatusSuccess,
		Ticker:   strings.TrimSpace(params.Ticker),
		Rejected: []types.RejectedRecord{},
	}
	log := p.log.With("run_id", report.RunID, "ticker", report.Ticker)

	fail := func(stage Stage, err error) *types.RunReport {
		report.Status = types.RunStatusError
		report.FailedStage = string(stage)
		report.FailureReason = err.Error()
		log.Error("ingestion run failed", "stage", string(stage), "error", err)
		observability.Current().ObserveStage(string(stage), "failed", time.Since(startedAt))
		observability.Current().IncRun(string(types.RunStatusError))
		p.persist(params, report, startedAt)
		return report
	}

	chunkSize, err := p.validate(&params)
	if err != nil {
		return fail(StageValidating, err)
	}

	if err := p.runGate.Acquire(ctx, 1); err != nil {
		return fail(StageValidating, fmt.Errorf("acquire run slot: %w", err))
	}
	defer p.runGate.Release(1)

	if err := p.store.EnsureSchema(ctx); err != nil {
		return fail(StageValidating, fmt.Errorf("ensure schema: %w", err))
	}

	upserter, err := NewUpserter(p.store, p.log, chunkSize)
	if err != nil {
		return fail(StageValidating, err)
	}

	if doPrices {
		pricesStart := time.Now()
		log.Info("stage start", "stage", string(StageLoadingPrices))
		rows, err := p.prices.LoadPrices(ctx, params.Ticker, params.StartDate, params.EndDate)
		if err != nil {
			return fail(StageLoadingPrices, fmt.Errorf("load prices: %w", err))
		}

		log.Info("stage start", "stage", string(StageUpsertingPrices), "rows", len(rows))
		points, dups := DerivePriceMetrics(rows, p.cfg.VolatilityWindow)
		for _, dup := range dups {
			report.Rejected = append(report.Rejected, types.RejectedRecord{
				RecordRef: dup.Ticker + "@" + dup.Date,
				Reason:    dup.Error(),
			})
		}
		stats, rejected, err := upserter.UpsertPrices(ctx, points)
		report.PricesSynced = stats.Upserted
		report.Chunks.Add(stats)
		report.Rejected = append(report.Rejected, rejected...)
		if err != nil {
			return fail(StageUpsertingPrices, err)
		}
		observability.Current().ObserveStage(string(StageUpsertingPrices), "ok", time.Since(pricesStart))
	}

	if doSocial {
		socialStart := time.Now()
		log.Info("stage start", "stage", string(StageLoadingSocial))
		batch, err := p.social.LoadSocial(ctx, params.Ticker, params.StartDate, params.EndDate)
		if err != nil {
			return fail(StageLoadingSocial, fmt.Errorf("load social: %w", err))
		}

		log.Info("stage start", "stage", string(StageNegotiatingSchema), "rows", len(batch.Posts))
		flags, warnings := NegotiateSchema(batch)
		report.Schema = flags
		report.Warnings = append(report.Warnings, warnings...)

		log.Info("stage start", "stage", string(StageScoringSentiment))
		report.Sentiment = p.sentiment.ScorePosts(ctx, batch.Posts, params.Rescore)

		log.Info("stage start", "stage", string(StageUpsertingSocial))
		stats, rejected, err := upserter.UpsertSocial(ctx, batch.Posts, flags)
		report.TweetsImported = stats.Upserted
		report.Chunks.Add(stats)
		report.Rejected = append(report.Rejected, rejected...)
		if err != nil {
			return fail(StageUpsertingSocial, err)
		}
		observability.Current().ObserveStage(string(StageUpsertingSocial), "ok", time.Since(socialStart))

		report.DailySentiment = AggregateDailySentiment(batch.Posts)
		log.Debug("daily sentiment aggregated", "days", len(report.DailySentiment))
	}

	log.Info("stage start", "stage", string(StageSummarizing))
	if len(report.Rejected) > 0 || report.Sentiment.Failed > 0 {
		report.Status = types.RunStatusPartial
	}
	metrics := observability.Current()
	metrics.IncRun(string(report.Status))
	metrics.AddSentiment("processed", report.Sentiment.Processed)
	metrics.AddSentiment("updated", report.Sentiment.Updated)
	metrics.AddSentiment("skipped", report.Sentiment.Skipped)
	metrics.AddSentiment("failed", report.Sentiment.Failed)
	if len(report.Rejected) > 0 {
		observability.ReportRejectedRecords(ctx, log, "ingestion", report.Rejected, map[string]any{
			"run_id": report.RunID.String(),
			"ticker": report.Ticker,
		})
	}
	p.persist(params, report, startedAt)
	log.Info("ingestion run complete",
		"status", report.Status,
		"prices_synced", report.PricesSynced,
		"tweets_imported", report.TweetsImported,
		"rejected", len(report.Rejected),
	)
	return report
}

// validate applies the fatal parameter checks before any write happens.
func (p *Pipeline) validate(params *types.RunParams) (int, error) {
	if strings.TrimSpace(params.Ticker) == "" {
		return 0, fmt.Errorf("missing instrument ticker")
	}
	var start, end time.Time
	if params.StartDate != "" {
		t, err := time.Parse("2006-01-02", params.StartDate)
		if err != nil {
			return 0, fmt.Errorf("invalid start_date %q", params.StartDate)
		}
		start = t
	}
	if params.EndDate != "" {
		t, err := time.Parse("2006-01-02", params.EndDate)
		if err != nil {
			return 0, fmt.Errorf("invalid end_date %q", params.EndDate)
		}
		end = t
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return 0, fmt.Errorf("invalid date range: %s after %s", params.StartDate, params.EndDate)
	}

	chunkSize := params.ChunkSize
	if chunkSize == 0 {
		chunkSize = p.cfg.ChunkSize
	}
	if chunkSize < 1 {
		return 0, fmt.Errorf("chunk_size must be a positive integer, got %d", params.ChunkSize)
	}
	return chunkSize, nil
}

// persist writes the durable audit record for the run. Audit failures are
// logged and swallowed; the report already exists in memory.
func (p *Pipeline) persist(params types.RunParams, report *types.RunReport, startedAt time.Time) {
	if p.runs == nil {
		return
	}
	rejected, err := json.Marshal(report.Rejected)
	if err != nil {
		rejected = []byte("[]")
	}
	warnings, err := json.Marshal(report.Warnings)
	if err != nil {
		warnings = []byte("[]")
	}
	run := &types.IngestionRun{
		ID:              report.RunID,
		Ticker:          report.Ticker,
		StartDate:       params.StartDate,
		EndDate:         params.EndDate,
		ChunkSize:       params.ChunkSize,
		Status:          report.Status,
		PricesSynced:    report.PricesSynced,
		TweetsImported:  report.TweetsImported,
		TweetsProcessed: report.Sentiment.Processed,
		TweetsUpdated:   report.Sentiment.Updated,
		SentimentFailed: report.Sentiment.Failed,
		AuthorEnabled:   report.Schema.AuthorEnabled,
		TopicEnabled:    report.Schema.TopicEnabled,
		EventEnabled:    report.Schema.EventEnabled,
		RejectedRecords: rejected,
		Warnings:        warnings,
		FailedStage:     report.FailedStage,
		FailureReason:   report.FailureReason,
		StartedAt:       startedAt,
		FinishedAt:      time.Now().UTC(),
	}
	if err := p.runs.Create(context.Background(), nil, run); err != nil {
		p.log.Warn("persist ingestion run failed", "run_id", report.RunID, "error", err)
	}
}
