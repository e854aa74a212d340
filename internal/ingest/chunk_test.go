package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ArthurrMrv/graph-project/internal/data/graph"
	"github.com/ArthurrMrv/graph-project/internal/platform/logger"
	"github.com/ArthurrMrv/graph-project/internal/types"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func pricePoints(n int) []*types.PricePoint {
	out := make([]*types.PricePoint, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &types.PricePoint{PriceRow: types.PriceRow{
			Ticker: "TSLA",
			Date:   fmt.Sprintf("2021-10-%02d", i+1),
			Close:  100 + float64(i),
			Volume: 1000,
		}})
	}
	return out
}

func TestNewUpserterChunkSize(t *testing.T) {
	t.Parallel()

	u, err := NewUpserter(graph.NewMemoryStore(), testLogger(t), 0)
	if err != nil {
		t.Fatalf("zero chunk size should fall back to default: %v", err)
	}
	if u.chunkSize != DefaultChunkSize {
		t.Fatalf("unexpected default: got=%d want=%d", u.chunkSize, DefaultChunkSize)
	}

	if _, err := NewUpserter(graph.NewMemoryStore(), testLogger(t), -5); err == nil {
		t.Fatalf("negative chunk size must be rejected")
	}
}

func TestUpsertPricesChunkPartitioning(t *testing.T) {
	t.Parallel()

	store := graph.NewMemoryStore()
	calls := 0
	store.ErrHook = func(op string) error {
		if op == "UpsertPriceChunk" {
			calls++
		}
		return nil
	}
	u, err := NewUpserter(store, testLogger(t), 2)
	if err != nil {
		t.Fatalf("new upserter: %v", err)
	}

	stats, rejected, err := u.UpsertPrices(context.Background(), pricePoints(5))
	if err != nil {
		t.Fatalf("upsert prices: %v", err)
	}
	if len(rejected) != 0 {
		t.Fatalf("unexpected rejections: %v", rejected)
	}
	if calls != 3 {
		t.Fatalf("unexpected chunk count: got=%d want=3", calls)
	}
	if stats.ChunksCommitted != 3 || stats.Upserted != 5 || stats.Attempted != 5 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if got := store.NodeCount("TradingDay"); got != 5 {
		t.Fatalf("unexpected trading day count: got=%d want=5", got)
	}
}

func TestUpsertPricesRejectsInvalidRecords(t *testing.T) {
	t.Parallel()

	points := pricePoints(2)
	points = append(points,
		&types.PricePoint{PriceRow: types.PriceRow{Ticker: "TSLA", Date: "2021-10-09", Close: -3, Volume: 10}},
		&types.PricePoint{PriceRow: types.PriceRow{Ticker: "TSLA", Date: "not-a-date", Close: 100, Volume: 10}},
	)

	store := graph.NewMemoryStore()
	u, err := NewUpserter(store, testLogger(t), 10)
	if err != nil {
		t.Fatalf("new upserter: %v", err)
	}
	stats, rejected, err := u.UpsertPrices(context.Background(), points)
	if err != nil {
		t.Fatalf("upsert prices: %v", err)
	}
	if stats.Upserted != 2 || stats.Rejected != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(rejected) != 2 {
		t.Fatalf("unexpected rejection count: %d", len(rejected))
	}
	if rejected[0].RecordRef != "TSLA@2021-10-09" {
		t.Fatalf("unexpected record ref: %q", rejected[0].RecordRef)
	}
}

func TestUpsertPricesIdempotent(t *testing.T) {
	t.Parallel()

	store := graph.NewMemoryStore()
	u, err := NewUpserter(store, testLogger(t), 2)
	if err != nil {
		t.Fatalf("new upserter: %v", err)
	}
	points := pricePoints(5)

	for i := 0; i < 2; i++ {
		if _, _, err := u.UpsertPrices(context.Background(), points); err != nil {
			t.Fatalf("upsert prices pass %d: %v", i+1, err)
		}
	}
	if got := store.NodeCount("Stock"); got != 1 {
		t.Fatalf("stock nodes duplicated: got=%d want=1", got)
	}
	if got := store.NodeCount("TradingDay"); got != 5 {
		t.Fatalf("trading day nodes duplicated: got=%d want=5", got)
	}
	if got := store.RelCount("PRICED_ON"); got != 5 {
		t.Fatalf("priced_on rels duplicated: got=%d want=5", got)
	}
}

func TestUpsertPricesOverwritesAttributes(t *testing.T) {
	t.Parallel()

	store := graph.NewMemoryStore()
	u, err := NewUpserter(store, testLogger(t), 10)
	if err != nil {
		t.Fatalf("new upserter: %v", err)
	}

	points := pricePoints(1)
	if _, _, err := u.UpsertPrices(context.Background(), points); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	points[0].Close = 250
	if _, _, err := u.UpsertPrices(context.Background(), points); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if got := store.RelCount("PRICED_ON"); got != 1 {
		t.Fatalf("re-ingest duplicated the relationship: got=%d want=1", got)
	}
	props := store.Rel("PRICED_ON", "TSLA", "2021-10-01")
	if props["close"] != 250.0 {
		t.Fatalf("close not overwritten on re-ingest: %v", props["close"])
	}
}

func TestUpsertPricesChunkSizeInvariance(t *testing.T) {
	t.Parallel()

	counts := map[int][2]int{}
	for _, size := range []int{2, 100} {
		store := graph.NewMemoryStore()
		u, err := NewUpserter(store, testLogger(t), size)
		if err != nil {
			t.Fatalf("new upserter: %v", err)
		}
		if _, _, err := u.UpsertPrices(context.Background(), pricePoints(7)); err != nil {
			t.Fatalf("upsert prices: %v", err)
		}
		counts[size] = [2]int{store.NodeCount("TradingDay"), store.RelCount("PRICED_ON")}
	}
	if counts[2] != counts[100] {
		t.Fatalf("graph state depends on chunk size: %v vs %v", counts[2], counts[100])
	}
}

func TestUpsertPricesStoreFailureIsFatal(t *testing.T) {
	t.Parallel()

	store := graph.NewMemoryStore()
	calls := 0
	store.ErrHook = func(op string) error {
		if op != "UpsertPriceChunk" {
			return nil
		}
		calls++
		if calls == 2 {
			return fmt.Errorf("connection reset")
		}
		return nil
	}
	u, err := NewUpserter(store, testLogger(t), 2)
	if err != nil {
		t.Fatalf("new upserter: %v", err)
	}

	stats, _, err := u.UpsertPrices(context.Background(), pricePoints(6))
	if err == nil {
		t.Fatalf("store failure must abort the upsert")
	}
	if stats.ChunksCommitted != 1 || stats.Upserted != 2 {
		t.Fatalf("stats must reflect committed work only: %+v", stats)
	}
	if stats.ChunksFailed != 1 {
		t.Fatalf("unexpected failed chunk count: %+v", stats)
	}
}

func TestUpsertPricesStopsBetweenChunksOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := graph.NewMemoryStore()
	store.ErrHook = func(op string) error {
		if op == "UpsertPriceChunk" {
			// The in-flight chunk still commits; only the next one is cut off.
			cancel()
		}
		return nil
	}
	u, err := NewUpserter(store, testLogger(t), 2)
	if err != nil {
		t.Fatalf("new upserter: %v", err)
	}

	stats, rejected, err := u.UpsertPrices(ctx, pricePoints(4))
	if err == nil {
		t.Fatalf("cancellation must surface as a fatal error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error must wrap context.Canceled: %v", err)
	}
	if len(rejected) != 0 {
		t.Fatalf("unexpected rejections: %v", rejected)
	}
	if stats.ChunksCommitted != 1 || stats.Upserted != 2 {
		t.Fatalf("stats must reflect the committed chunk only: %+v", stats)
	}
	if got := store.RelCount("PRICED_ON"); got != 2 {
		t.Fatalf("committed chunk must stay in the graph: got=%d want=2", got)
	}
}

func TestUpsertSocialRespectsSchemaFlags(t *testing.T) {
	t.Parallel()

	store := graph.NewMemoryStore()
	u, err := NewUpserter(store, testLogger(t), 10)
	if err != nil {
		t.Fatalf("new upserter: %v", err)
	}

	author := "elon"
	posts := []*types.SocialPost{
		{ID: "p1", Ticker: "TSLA", Text: "to the moon #tsla", Day: "2021-10-01", Tags: []string{"tsla"}, AuthorID: &author, Topics: []string{"ev"}},
	}

	stats, rejected, err := u.UpsertSocial(context.Background(), posts, types.SchemaFlags{TopicEnabled: true})
	if err != nil {
		t.Fatalf("upsert social: %v", err)
	}
	if stats.Upserted != 1 || len(rejected) != 0 {
		t.Fatalf("unexpected stats: %+v rejected=%v", stats, rejected)
	}
	if got := store.NodeCount("Topic"); got != 1 {
		t.Fatalf("enabled topic kind not written: got=%d want=1", got)
	}
	if got := store.NodeCount("Author"); got != 0 {
		t.Fatalf("disabled author kind must not be written: got=%d", got)
	}
	if got := store.RelCount("TAGGED_WITH"); got != 1 {
		t.Fatalf("tag rel missing: got=%d want=1", got)
	}
}

func TestUpsertSocialRejectsInvalidRecords(t *testing.T) {
	t.Parallel()

	store := graph.NewMemoryStore()
	u, err := NewUpserter(store, testLogger(t), 10)
	if err != nil {
		t.Fatalf("new upserter: %v", err)
	}
	posts := []*types.SocialPost{
		{ID: "p1", Ticker: "TSLA", Text: "fine", Day: "2021-10-01"},
		{ID: "", Ticker: "TSLA", Text: "no id", Day: "2021-10-01"},
		{ID: "p3", Ticker: "TSLA", Text: "", Day: "2021-10-01"},
	}
	stats, rejected, err := u.UpsertSocial(context.Background(), posts, types.SchemaFlags{})
	if err != nil {
		t.Fatalf("upsert social: %v", err)
	}
	if stats.Upserted != 1 || stats.Rejected != 2 || len(rejected) != 2 {
		t.Fatalf("unexpected stats: %+v rejected=%v", stats, rejected)
	}
}
