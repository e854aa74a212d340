package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ArthurrMrv/graph-project/internal/observability"
	"github.com/ArthurrMrv/graph-project/internal/platform/logger"
)

// Result is one classifier verdict: sentiment is the probability of a
// positive reading in [0,1], confidence the top label score in [0,1].
type Result struct {
	Sentiment  float64 `json:"sentiment"`
	Confidence float64 `json:"confidence"`
}

// Classifier scores a piece of text. Calls are fallible and bounded by the
// client timeout; callers apply their own per-record failure policy.
type Classifier interface {
	Classify(ctx context.Context, text string) (Result, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
	maxRetries int
}

// NewClient builds a classifier against a Hugging Face style inference API
// (FinBERT by default). Configuration comes from HF_TOKEN, HF_BASE_URL,
// HF_MODEL, HF_TIMEOUT_SECONDS and HF_MAX_RETRIES.
func NewClient(log *logger.Logger) (Classifier, error) {
	apiKey := strings.TrimSpace(os.Getenv("HF_TOKEN"))
	if apiKey == "" {
		return nil, fmt.Errorf("missing HF_TOKEN")
	}

	baseURL := strings.TrimSpace(os.Getenv("HF_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://api-inference.huggingface.co"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	model := strings.TrimSpace(os.Getenv("HF_MODEL"))
	if model == "" {
		model = "ProsusAI/finbert"
	}

	timeoutSec := 30
	if v := strings.TrimSpace(os.Getenv("HF_TIMEOUT_SECONDS")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	maxRetries := 2
	if v := strings.TrimSpace(os.Getenv("HF_MAX_RETRIES")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			maxRetries = parsed
		}
	}

	return &client{
		log:        log.With("client", "HuggingFace"),
		baseURL:    baseURL,
		model:      model,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries: maxRetries,
	}, nil
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

func (c *client) Classify(ctx context.Context, text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, fmt.Errorf("empty text")
	}

	payload, err := json.Marshal(map[string]any{"inputs": text})
	if err != nil {
		return Result{}, err
	}

	backoff := 500 * time.Millisecond
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Result{}, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		start := time.Now()
		res, retryable, err := c.classifyOnce(ctx, payload)
		if err == nil {
			observability.Current().ObserveClassifier("ok", time.Since(start))
			return res, nil
		}
		observability.Current().ObserveClassifier("error", time.Since(start))
		lastErr = err
		if !retryable {
			return Result{}, err
		}
		c.log.Warn("classifier request retrying", "attempt", attempt+1, "error", err)
	}
	return Result{}, fmt.Errorf("classify after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *client) classifyOnce(ctx context.Context, payload []byte) (Result, bool, error) {
	url := c.baseURL + "/models/" + c.model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Result{}, false, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, true, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, true, err
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return Result{}, true, fmt.Errorf("classifier status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, false, fmt.Errorf("classifier status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	// The inference API wraps one input's scores in a nested array.
	var nested [][]labelScore
	if err := json.Unmarshal(body, &nested); err != nil {
		var flat []labelScore
		if err2 := json.Unmarshal(body, &flat); err2 != nil {
			return Result{}, false, fmt.Errorf("malformed classifier response: %w", err)
		}
		nested = [][]labelScore{flat}
	}
	if len(nested) == 0 || len(nested[0]) == 0 {
		return Result{}, false, fmt.Errorf("empty classifier response")
	}
	return mapScores(nested[0]), false, nil
}

// mapScores reduces per-label scores to a single sentiment in [0,1]:
// the positive probability when positive wins, its complement when
// negative wins, 0.5 for a neutral verdict.
func mapScores(scores []labelScore) Result {
	top := scores[0]
	for _, s := range scores[1:] {
		if s.Score > top.Score {
			top = s
		}
	}
	res := Result{Confidence: clamp01(top.Score)}
	switch strings.ToLower(top.Label) {
	case "positive":
		res.Sentiment = clamp01(top.Score)
	case "negative":
		res.Sentiment = clamp01(1 - top.Score)
	default:
		res.Sentiment = 0.5
	}
	return res
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
