package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/ArthurrMrv/graph-project/internal/clients/huggingface"
	"github.com/ArthurrMrv/graph-project/internal/data/graph"
	"github.com/ArthurrMrv/graph-project/internal/http/response"
	"github.com/ArthurrMrv/graph-project/internal/ingest"
	"github.com/ArthurrMrv/graph-project/internal/platform/apierr"
	"github.com/ArthurrMrv/graph-project/internal/platform/logger"
)

type SentimentHandler struct {
	classifier huggingface.Classifier
	adapter    *ingest.SentimentAdapter
	store      graph.Store
	log        *logger.Logger
}

func NewSentimentHandler(
	classifier huggingface.Classifier,
	store graph.Store,
	baseLog *logger.Logger,
) *SentimentHandler {
	return &SentimentHandler{
		classifier: classifier,
		adapter:    ingest.NewSentimentAdapter(classifier, baseLog),
		store:      store,
		log:        baseLog.With("handler", "SentimentHandler"),
	}
}

type analyzeRequest struct {
	Text string `json:"text"`
}

type analyzeResponse struct {
	Text       string  `json:"text"`
	Sentiment  float64 `json:"sentiment"`
	Confidence float64 `json:"confidence"`
}

// Analyze scores a single piece of text without touching the graph.
func (h *SentimentHandler) Analyze(c *gin.Context) {
	if h.classifier == nil {
		response.RespondFromError(c, apierr.Unavailable("sentiment_disabled", fmt.Errorf("no classifier configured")))
		return
	}
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondFromError(c, apierr.BadRequest("invalid_body", fmt.Errorf("invalid request body: %w", err)))
		return
	}
	if req.Text == "" {
		response.RespondFromError(c, apierr.BadRequest("missing_text", fmt.Errorf("text is required")))
		return
	}
	res, err := h.classifier.Classify(c.Request.Context(), req.Text)
	if err != nil {
		response.RespondFromError(c, apierr.Upstream("classifier_failed", err))
		return
	}
	response.RespondOK(c, analyzeResponse{
		Text:       req.Text,
		Sentiment:  res.Sentiment,
		Confidence: res.Confidence,
	})
}

type processRequest struct {
	Ticker    string `json:"stock"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Rescore   bool   `json:"rescore,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// Process backfills sentiment for stored posts missing a score (all posts in
// range when rescore is set).
func (h *SentimentHandler) Process(c *gin.Context) {
	if h.classifier == nil {
		response.RespondFromError(c, apierr.Unavailable("sentiment_disabled", fmt.Errorf("no classifier configured")))
		return
	}
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondFromError(c, apierr.BadRequest("invalid_body", fmt.Errorf("invalid request body: %w", err)))
		return
	}
	stats, err := h.adapter.ProcessStored(c.Request.Context(), h.store, graph.ScoringQuery{
		Ticker:    req.Ticker,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Rescore:   req.Rescore,
		Limit:     req.Limit,
	})
	if err != nil {
		response.RespondFromError(c, apierr.Internal("sentiment_process_failed", err))
		return
	}
	response.RespondOK(c, stats)
}
