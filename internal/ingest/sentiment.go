package ingest

import (
	"context"
	"fmt"

	"github.com/ArthurrMrv/graph-project/internal/clients/huggingface"
	"github.com/ArthurrMrv/graph-project/internal/data/graph"
	"github.com/ArthurrMrv/graph-project/internal/platform/logger"
	"github.com/ArthurrMrv/graph-project/internal/types"
)

// defaultWritebackBatch bounds one sentiment write-back transaction during
// the stored-post backfill.
const defaultWritebackBatch = 100

// SentimentAdapter invokes the external classifier for posts that need a
// score. Classifier failures are local to the record: the post keeps its
// prior value and lands in the failed bucket, never aborting the run.
type SentimentAdapter struct {
	classifier huggingface.Classifier
	log        *logger.Logger
}

func NewSentimentAdapter(classifier huggingface.Classifier, baseLog *logger.Logger) *SentimentAdapter {
	return &SentimentAdapter{
		classifier: classifier,
		log:        baseLog.With("component", "SentimentAdapter"),
	}
}

// ScorePosts classifies the in-memory posts of one pipeline run before the
// social upsert. Each post counts in exactly one bucket: a post without a
// sentiment is processed on first scoring (even when a re-score was also
// requested); a post that already carries one is updated when rescore is
// set and skipped otherwise.
func (a *SentimentAdapter) ScorePosts(ctx context.Context, posts []*types.SocialPost, rescore bool) types.SentimentStats {
	var stats types.SentimentStats
	if a.classifier == nil {
		stats.Skipped = len(posts)
		return stats
	}

	for _, p := range posts {
		if p == nil {
			continue
		}
		hadScore := p.Sentiment != nil
		if hadScore && !rescore {
			stats.Skipped++
			continue
		}

		res, err := a.classifier.Classify(ctx, p.Text)
		if err != nil {
			stats.Failed++
			a.log.Warn("classifier call failed, keeping prior sentiment", "post_id", p.ID, "error", err)
			continue
		}
		sentiment := res.Sentiment
		confidence := res.Confidence
		p.Sentiment = &sentiment
		p.Confidence = &confidence
		if hadScore {
			stats.Updated++
		} else {
			stats.Processed++
		}
	}
	return stats
}

// ProcessStored backfills sentiment for posts already in the graph: fetch
// the candidates, classify each, and write scores back in bounded batches.
// Store failures are fatal; classifier failures stay per-record.
func (a *SentimentAdapter) ProcessStored(ctx context.Context, store graph.Store, q graph.ScoringQuery) (types.SentimentStats, error) {
	var stats types.SentimentStats
	if a.classifier == nil {
		return stats, fmt.Errorf("sentiment classifier not configured")
	}

	posts, err := store.FetchPostsForScoring(ctx, q)
	if err != nil {
		return stats, fmt.Errorf("fetch posts: %w", err)
	}

	var pending []graph.SentimentUpdate
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		if _, err := store.UpdatePostSentiments(ctx, pending); err != nil {
			return fmt.Errorf("write back sentiments: %w", err)
		}
		pending = pending[:0]
		return nil
	}

	for _, p := range posts {
		if p.Text == "" {
			stats.Failed++
			continue
		}
		res, err := a.classifier.Classify(ctx, p.Text)
		if err != nil {
			stats.Failed++
			a.log.Warn("classifier call failed, keeping prior sentiment", "post_id", p.ID, "error", err)
			continue
		}
		pending = append(pending, graph.SentimentUpdate{
			PostID:     p.ID,
			Sentiment:  res.Sentiment,
			Confidence: res.Confidence,
		})
		if p.HasSentiment {
			stats.Updated++
		} else {
			stats.Processed++
		}
		if len(pending) >= defaultWritebackBatch {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}
	if err := flush(); err != nil {
		return stats, err
	}
	return stats, nil
}
