// Package handlers provides read-only HTTP handlers for trade records.
package handlers

import (
	"context"
	"net/http"

	"github.com/aristath/aitrader/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// TradeReader is the subset of the trading service the handlers need
type TradeReader interface {
	GetAllTradeInfo(ctx context.Context) ([]domain.TradeRecord, error)
	GetTradeByUserID(ctx context.Context, userID string) (*domain.TradeRecord, error)
}

// TradeSummary is a trade record without its session history
type TradeSummary struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	Model        string `json:"model"`
	CronTime     string `json:"cron_time"`
	HistorySteps int    `json:"history_steps"`
	UpdatedAt    string `json:"updated_at"`
}

// TradingHandlers contains HTTP handlers for the trades API
type TradingHandlers struct {
	trades TradeReader
	log    zerolog.Logger
}

// NewTradingHandlers creates a new trading handlers instance
func NewTradingHandlers(trades TradeReader, log zerolog.Logger) *TradingHandlers {
	return &TradingHandlers{
		trades: trades,
		log:    log.With().Str("handler", "trading").Logger(),
	}
}

// RegisterRoutes registers all trading routes
func (h *TradingHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/trades", func(r chi.Router) {
		r.Get("/", h.HandleGetTrades)
		r.Get("/{userID}", h.HandleGetTrade)
	})
}

// HandleGetTrades lists every trade record
func (h *TradingHandlers) HandleGetTrades(w http.ResponseWriter, r *http.Request) {
	records, err := h.trades.GetAllTradeInfo(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list trades")
		h.writeError(w, http.StatusInternalServerError, "failed to list trades")
		return
	}

	summaries := make([]TradeSummary, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, TradeSummary{
			ID:           rec.ID,
			UserID:       rec.UserID,
			Model:        rec.Model,
			CronTime:     rec.CronTime,
			HistorySteps: len(rec.LastMessages),
			UpdatedAt:    rec.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"trades": summaries,
		"count":  len(summaries),
	})
}

// HandleGetTrade returns one user's record including the last session history
func (h *TradingHandlers) HandleGetTrade(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	rec, err := h.trades.GetTradeByUserID(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to load trade")
		h.writeError(w, http.StatusInternalServerError, "failed to load trade")
		return
	}
	if rec == nil {
		h.writeError(w, http.StatusNotFound, "trade not found")
		return
	}

	h.writeJSON(w, http.StatusOK, rec)
}

// writeJSON writes a JSON response
func (h *TradingHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *TradingHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
