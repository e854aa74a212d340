package ingest

import (
	"context"
	"fmt"
	"testing"

	"github.com/ArthurrMrv/graph-project/internal/clients/huggingface"
	"github.com/ArthurrMrv/graph-project/internal/data/graph"
	"github.com/ArthurrMrv/graph-project/internal/types"
)

// stubClassifier scores every text with a fixed result, optionally failing
// for texts listed in failOn.
type stubClassifier struct {
	result huggingface.Result
	failOn map[string]bool
	calls  int
}

func (s *stubClassifier) Classify(ctx context.Context, text string) (huggingface.Result, error) {
	s.calls++
	if s.failOn[text] {
		return huggingface.Result{}, fmt.Errorf("model overloaded")
	}
	return s.result, nil
}

func TestScorePostsBuckets(t *testing.T) {
	t.Parallel()

	prior := 0.9
	posts := []*types.SocialPost{
		{ID: "fresh", Text: "new post"},
		{ID: "scored", Text: "old post", Sentiment: &prior},
		{ID: "broken", Text: "bad post"},
	}
	stub := &stubClassifier{
		result: huggingface.Result{Sentiment: 0.7, Confidence: 0.8},
		failOn: map[string]bool{"bad post": true},
	}
	adapter := NewSentimentAdapter(stub, testLogger(t))

	stats := adapter.ScorePosts(context.Background(), posts, false)
	if stats.Processed != 1 || stats.Updated != 0 || stats.Skipped != 1 || stats.Failed != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if posts[0].Sentiment == nil || *posts[0].Sentiment != 0.7 {
		t.Fatalf("fresh post not scored: %+v", posts[0])
	}
	if *posts[1].Sentiment != prior {
		t.Fatalf("skipped post must keep its prior score")
	}
	if posts[2].Sentiment != nil {
		t.Fatalf("failed post must stay unscored")
	}
}

func TestScorePostsRescore(t *testing.T) {
	t.Parallel()

	prior := 0.9
	posts := []*types.SocialPost{
		{ID: "fresh", Text: "new post"},
		{ID: "scored", Text: "old post", Sentiment: &prior},
	}
	stub := &stubClassifier{result: huggingface.Result{Sentiment: 0.3, Confidence: 0.6}}
	adapter := NewSentimentAdapter(stub, testLogger(t))

	stats := adapter.ScorePosts(context.Background(), posts, true)
	// A first-time score is processed even under rescore; only a post that
	// already carried one counts as updated.
	if stats.Processed != 1 || stats.Updated != 1 || stats.Skipped != 0 || stats.Failed != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if *posts[1].Sentiment != 0.3 {
		t.Fatalf("rescored post not overwritten: %v", *posts[1].Sentiment)
	}
}

func TestScorePostsWithoutClassifier(t *testing.T) {
	t.Parallel()

	adapter := NewSentimentAdapter(nil, testLogger(t))
	posts := []*types.SocialPost{{ID: "a", Text: "x"}, {ID: "b", Text: "y"}}
	stats := adapter.ScorePosts(context.Background(), posts, true)
	if stats.Skipped != 2 || stats.Processed != 0 {
		t.Fatalf("nil classifier must skip everything: %+v", stats)
	}
}

func TestProcessStoredBackfillsMissingScores(t *testing.T) {
	t.Parallel()

	store := graph.NewMemoryStore()
	prior := 0.9
	seed := []*types.SocialPost{
		{ID: "p1", Ticker: "TSLA", Text: "unscored", Day: "2021-10-01"},
		{ID: "p2", Ticker: "TSLA", Text: "scored", Day: "2021-10-01", Sentiment: &prior, Confidence: &prior},
	}
	if err := store.UpsertSocialChunk(context.Background(), seed, types.SchemaFlags{}); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	stub := &stubClassifier{result: huggingface.Result{Sentiment: 0.65, Confidence: 0.7}}
	adapter := NewSentimentAdapter(stub, testLogger(t))

	stats, err := adapter.ProcessStored(context.Background(), store, graph.ScoringQuery{Ticker: "TSLA"})
	if err != nil {
		t.Fatalf("process stored: %v", err)
	}
	if stats.Processed != 1 || stats.Updated != 0 {
		t.Fatalf("only the unscored post should be processed: %+v", stats)
	}
	if stub.calls != 1 {
		t.Fatalf("classifier called for already-scored post: calls=%d", stub.calls)
	}
	props := store.Node("Post", "p1")
	if props["sentiment"] != 0.65 {
		t.Fatalf("score not written back: %v", props["sentiment"])
	}
}

func TestProcessStoredWithoutClassifier(t *testing.T) {
	t.Parallel()

	adapter := NewSentimentAdapter(nil, testLogger(t))
	if _, err := adapter.ProcessStored(context.Background(), graph.NewMemoryStore(), graph.ScoringQuery{}); err == nil {
		t.Fatalf("backfill without a classifier must fail")
	}
}
