package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/ArthurrMrv/graph-project/internal/clients/huggingface"
	"github.com/ArthurrMrv/graph-project/internal/http/response"
	"github.com/ArthurrMrv/graph-project/internal/platform/logger"
)

type noopClassifier struct{}

func (noopClassifier) Classify(ctx context.Context, text string) (huggingface.Result, error) {
	return huggingface.Result{Sentiment: 0.5, Confidence: 0.5}, nil
}

func handlerLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func analyze(t *testing.T, h *SentimentHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/sentiment/analyze", h.Analyze)

	req := httptest.NewRequest(http.MethodPost, "/api/sentiment/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.ErrorEnvelope {
	t.Helper()
	var body response.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return body
}

func TestAnalyzeWithoutClassifierIsUnavailable(t *testing.T) {
	h := NewSentimentHandler(nil, nil, handlerLogger(t))

	rec := analyze(t, h, `{"text":"TSLA to the moon"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	if got := decodeError(t, rec).Error.Code; got != "sentiment_disabled" {
		t.Fatalf("code = %q, want sentiment_disabled", got)
	}
}

func TestAnalyzeRejectsMissingText(t *testing.T) {
	h := NewSentimentHandler(noopClassifier{}, nil, handlerLogger(t))

	rec := analyze(t, h, `{"text":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if got := decodeError(t, rec).Error.Code; got != "missing_text" {
		t.Fatalf("code = %q, want missing_text", got)
	}
}
