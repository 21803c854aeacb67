package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/RichardoC/pad-agent/internal/config"
	"github.com/RichardoC/pad-agent/internal/models"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const maxRequestBodyBytes = 1 << 20

// Runner is satisfied by *llm.Service.
type Runner interface {
	RunAgentQuery(ctx context.Context, req models.AgentRequest) (models.AgentResponse, error)
}

// ExchangeStore is satisfied by *db.Database.
type ExchangeStore interface {
	SaveExchange(ex *models.Exchange) error
	RecentExchanges(limit int) ([]models.Exchange, error)
}

type Handler struct {
	runner    Runner
	exchanges ExchangeStore
	catalog   config.Catalog
	timeout   time.Duration
	logger    *zap.Logger
}

// NewHandler wires the backend. exchanges may be nil to disable the
// exchange log; a zero timeout leaves requests without a deadline.
func NewHandler(runner Runner, exchanges ExchangeStore, catalog config.Catalog, timeout time.Duration, logger *zap.Logger) *Handler {
	return &Handler{
		runner:    runner,
		exchanges: exchanges,
		catalog:   catalog,
		timeout:   timeout,
		logger:    logger,
	}
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ChatResponse{Error: "Invalid request body"})
		return
	}

	if len(req.Messages) > 1 {
		h.logger.Warn("ignoring earlier messages; only the last one is used",
			zap.Int("messages", len(req.Messages)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	}
	var query string
	if n := len(req.Messages); n > 0 {
		query = req.Messages[n-1]
	}
	if strings.TrimSpace(query) == "" {
		writeJSON(w, http.StatusBadRequest, models.ChatResponse{Error: "Query must not be empty"})
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	agentReq := models.AgentRequest{
		Provider:     models.Provider(req.ModelProvider),
		ModelID:      req.ModelName,
		SystemPrompt: req.SystemPrompt,
		UserQuery:    query,
		AllowSearch:  req.AllowSearch,
	}

	start := time.Now()
	resp, err := h.runner.RunAgentQuery(ctx, agentReq)
	elapsed := time.Since(start)

	ex := &models.Exchange{
		Provider:    req.ModelProvider,
		Model:       req.ModelName,
		Query:       query,
		AllowSearch: req.AllowSearch,
		Duration:    elapsed.Milliseconds(),
	}

	if err != nil {
		h.logger.Error("Failed to run agent query",
			zap.Error(err),
			zap.String("provider", req.ModelProvider),
			zap.String("model", req.ModelName),
			zap.String("request_id", middleware.GetReqID(r.Context())))
		ex.Error = err.Error()
		h.record(ex)
		writeJSON(w, http.StatusOK, models.ChatResponse{Error: err.Error()})
		return
	}

	ex.Reply = resp.Reply
	h.record(ex)
	writeJSON(w, http.StatusOK, models.ChatResponse{Response: resp.Reply})
}

func (h *Handler) record(ex *models.Exchange) {
	if h.exchanges == nil {
		return
	}
	if err := h.exchanges.SaveExchange(ex); err != nil {
		h.logger.Warn("Failed to save exchange", zap.Error(err))
	}
}

func (h *Handler) Models(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog)
}

func (h *Handler) Exchanges(w http.ResponseWriter, r *http.Request) {
	if h.exchanges == nil {
		writeJSON(w, http.StatusNotFound, models.ChatResponse{Error: "Exchange log is disabled"})
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, models.ChatResponse{Error: "Invalid limit"})
			return
		}
		limit = min(n, 200)
	}

	exchanges, err := h.exchanges.RecentExchanges(limit)
	if err != nil {
		h.logger.Error("Failed to get exchanges", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.ChatResponse{Error: "Internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, exchanges)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
