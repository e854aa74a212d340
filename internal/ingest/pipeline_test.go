package ingest

import (
	"context"
	"fmt"
	"testing"

	"github.com/ArthurrMrv/graph-project/internal/clients/huggingface"
	"github.com/ArthurrMrv/graph-project/internal/data/graph"
	"github.com/ArthurrMrv/graph-project/internal/types"
)

type fakePriceSource struct {
	rows []types.PriceRow
	err  error
}

func (f *fakePriceSource) LoadPrices(ctx context.Context, ticker, start, end string) ([]types.PriceRow, error) {
	return f.rows, f.err
}

type fakeSocialSource struct {
	batch types.SocialBatch
	err   error
}

func (f *fakeSocialSource) LoadSocial(ctx context.Context, ticker, start, end string) (types.SocialBatch, error) {
	return f.batch, f.err
}

func socialBatch() types.SocialBatch {
	author := "elonfan"
	return types.SocialBatch{
		Posts: []*types.SocialPost{
			{ID: "a1", Ticker: "TSLA", Text: "to the moon #tsla", Day: "2021-10-01", Tags: []string{"tsla"}, AuthorID: &author},
			{ID: "a2", Ticker: "TSLA", Text: "selling everything", Day: "2021-10-02"},
		},
		Columns: types.SocialColumns{HasAuthor: true},
	}
}

func newTestPipeline(t *testing.T, store graph.Store, prices PriceSource, social SocialSource, classifier huggingface.Classifier) *Pipeline {
	t.Helper()
	return NewPipeline(store, prices, social, classifier, nil, testLogger(t), Config{
		ChunkSize:        2,
		VolatilityWindow: 3,
	})
}

func TestRunFullSuccess(t *testing.T) {
	t.Parallel()

	store := graph.NewMemoryStore()
	prices := &fakePriceSource{rows: []types.PriceRow{
		priceRow("2021-10-01", 100),
		priceRow("2021-10-02", 110),
		priceRow("2021-10-03", 99),
	}}
	classifier := &stubClassifier{result: huggingface.Result{Sentiment: 0.8, Confidence: 0.9}}
	pipe := newTestPipeline(t, store, prices, &fakeSocialSource{batch: socialBatch()}, classifier)

	report := pipe.Run(context.Background(), types.RunParams{Ticker: "TSLA"})
	if report.Status != types.RunStatusSuccess {
		t.Fatalf("status = %s (%s: %s)", report.Status, report.FailedStage, report.FailureReason)
	}
	if report.PricesSynced != 3 || report.TweetsImported != 2 {
		t.Fatalf("counts = %d prices, %d tweets", report.PricesSynced, report.TweetsImported)
	}
	if report.Sentiment.Processed != 2 || report.Sentiment.Failed != 0 {
		t.Fatalf("sentiment = %+v", report.Sentiment)
	}
	if !report.Schema.AuthorEnabled || report.Schema.TopicEnabled || report.Schema.EventEnabled {
		t.Fatalf("schema = %+v", report.Schema)
	}
	if len(report.Rejected) != 0 {
		t.Fatalf("unexpected rejections: %+v", report.Rejected)
	}
	// Chunk size 2: prices land in 2 chunks, social in 1.
	if report.Chunks.ChunksCommitted != 3 || report.Chunks.Upserted != 5 || report.Chunks.Attempted != 5 {
		t.Fatalf("chunk stats = %+v", report.Chunks)
	}
	if len(report.DailySentiment) != 2 {
		t.Fatalf("daily sentiment = %+v", report.DailySentiment)
	}
	if d := report.DailySentiment[0]; d.Day != "2021-10-01" || d.MeanSentiment != 0.8 || d.PostCount != 1 {
		t.Fatalf("first daily aggregate = %+v", d)
	}
	if got := store.NodeCount("Stock"); got != 1 {
		t.Fatalf("Stock nodes = %d", got)
	}
	if got := store.NodeCount("Author"); got != 1 {
		t.Fatalf("Author nodes = %d", got)
	}
	if got := store.RelCount("PRICED_ON"); got != 3 {
		t.Fatalf("PRICED_ON rels = %d", got)
	}
	if props := store.Node("Post", "a1"); props["sentiment"] != 0.8 {
		t.Fatalf("post a1 sentiment = %v", props["sentiment"])
	}
}

func TestRunValidationFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		params types.RunParams
	}{
		{"missing ticker", types.RunParams{}},
		{"bad start date", types.RunParams{Ticker: "TSLA", StartDate: "01/10/2021"}},
		{"bad end date", types.RunParams{Ticker: "TSLA", EndDate: "yesterday"}},
		{"inverted range", types.RunParams{Ticker: "TSLA", StartDate: "2021-10-05", EndDate: "2021-10-01"}},
		{"negative chunk size", types.RunParams{Ticker: "TSLA", ChunkSize: -3}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			store := graph.NewMemoryStore()
			pipe := newTestPipeline(t, store, &fakePriceSource{}, &fakeSocialSource{}, nil)
			report := pipe.Run(context.Background(), tc.params)
			if report.Status != types.RunStatusError {
				t.Fatalf("status = %s, want error", report.Status)
			}
			if report.FailedStage != string(StageValidating) {
				t.Fatalf("failed_stage = %s, want %s", report.FailedStage, StageValidating)
			}
			if got := store.NodeCount("Stock"); got != 0 {
				t.Fatalf("validation failure must not write: %d Stock nodes", got)
			}
		})
	}
}

func TestRunDuplicateDatesArePartial(t *testing.T) {
	t.Parallel()

	store := graph.NewMemoryStore()
	prices := &fakePriceSource{rows: []types.PriceRow{
		priceRow("2021-10-01", 100),
		priceRow("2021-10-01", 105),
		priceRow("2021-10-02", 110),
	}}
	pipe := newTestPipeline(t, store, prices, &fakeSocialSource{}, nil)

	report := pipe.SyncPrices(context.Background(), types.RunParams{Ticker: "TSLA"})
	if report.Status != types.RunStatusPartial {
		t.Fatalf("status = %s, want partial", report.Status)
	}
	if report.PricesSynced != 2 || len(report.Rejected) != 1 {
		t.Fatalf("synced = %d, rejected = %+v", report.PricesSynced, report.Rejected)
	}
	if report.Rejected[0].RecordRef != "TSLA@2021-10-01" {
		t.Fatalf("rejected ref = %s", report.Rejected[0].RecordRef)
	}
}

func TestRunStoreFailureIsFatal(t *testing.T) {
	t.Parallel()

	store := graph.NewMemoryStore()
	store.ErrHook = func(op string) error {
		if op == "UpsertPriceChunk" {
			return fmt.Errorf("connection reset")
		}
		return nil
	}
	prices := &fakePriceSource{rows: []types.PriceRow{priceRow("2021-10-01", 100)}}
	pipe := newTestPipeline(t, store, prices, &fakeSocialSource{}, nil)

	report := pipe.SyncPrices(context.Background(), types.RunParams{Ticker: "TSLA"})
	if report.Status != types.RunStatusError {
		t.Fatalf("status = %s, want error", report.Status)
	}
	if report.FailedStage != string(StageUpsertingPrices) {
		t.Fatalf("failed_stage = %s", report.FailedStage)
	}
}

func TestRunSourceFailureIsFatal(t *testing.T) {
	t.Parallel()

	pipe := newTestPipeline(t, graph.NewMemoryStore(),
		&fakePriceSource{err: fmt.Errorf("file not found")}, &fakeSocialSource{}, nil)
	report := pipe.SyncPrices(context.Background(), types.RunParams{Ticker: "TSLA"})
	if report.Status != types.RunStatusError || report.FailedStage != string(StageLoadingPrices) {
		t.Fatalf("report = %s/%s", report.Status, report.FailedStage)
	}
}

func TestRunClassifierFailuresArePartial(t *testing.T) {
	t.Parallel()

	store := graph.NewMemoryStore()
	classifier := &stubClassifier{
		result: huggingface.Result{Sentiment: 0.8, Confidence: 0.9},
		failOn: map[string]bool{"selling everything": true},
	}
	pipe := newTestPipeline(t, store, &fakePriceSource{}, &fakeSocialSource{batch: socialBatch()}, classifier)

	report := pipe.ImportSocial(context.Background(), types.RunParams{Ticker: "TSLA"})
	if report.Status != types.RunStatusPartial {
		t.Fatalf("status = %s, want partial", report.Status)
	}
	if report.Sentiment.Processed != 1 || report.Sentiment.Failed != 1 {
		t.Fatalf("sentiment = %+v", report.Sentiment)
	}
	// A failed classification never blocks the upsert itself.
	if report.TweetsImported != 2 {
		t.Fatalf("tweets_imported = %d", report.TweetsImported)
	}
}

func TestRunDeclaredEmptyColumnDisablesEntity(t *testing.T) {
	t.Parallel()

	store := graph.NewMemoryStore()
	batch := socialBatch()
	batch.Posts[0].AuthorID = nil
	pipe := newTestPipeline(t, store, &fakePriceSource{}, &fakeSocialSource{batch: batch}, nil)

	report := pipe.ImportSocial(context.Background(), types.RunParams{Ticker: "TSLA"})
	if report.Schema.AuthorEnabled {
		t.Fatalf("author entity must be disabled when the declared column is empty")
	}
	if len(report.Warnings) == 0 {
		t.Fatalf("declared-but-empty column must warn")
	}
	if got := store.NodeCount("Author"); got != 0 {
		t.Fatalf("Author nodes = %d, want 0", got)
	}
}

func TestSyncPricesSkipsSocial(t *testing.T) {
	t.Parallel()

	store := graph.NewMemoryStore()
	social := &fakeSocialSource{err: fmt.Errorf("must not be called")}
	prices := &fakePriceSource{rows: []types.PriceRow{priceRow("2021-10-01", 100)}}
	pipe := newTestPipeline(t, store, prices, social, nil)

	report := pipe.SyncPrices(context.Background(), types.RunParams{Ticker: "TSLA"})
	if report.Status != types.RunStatusSuccess {
		t.Fatalf("status = %s (%s)", report.Status, report.FailureReason)
	}
	if report.TweetsImported != 0 || store.NodeCount("Post") != 0 {
		t.Fatalf("price-only sync touched the social graph")
	}
}

func TestImportSocialSkipsPrices(t *testing.T) {
	t.Parallel()

	store := graph.NewMemoryStore()
	prices := &fakePriceSource{err: fmt.Errorf("must not be called")}
	pipe := newTestPipeline(t, store, prices, &fakeSocialSource{batch: socialBatch()}, nil)

	report := pipe.ImportSocial(context.Background(), types.RunParams{Ticker: "TSLA"})
	if report.Status != types.RunStatusSuccess {
		t.Fatalf("status = %s (%s)", report.Status, report.FailureReason)
	}
	if report.PricesSynced != 0 || store.RelCount("PRICED_ON") != 0 {
		t.Fatalf("social-only import touched the price graph")
	}
}
