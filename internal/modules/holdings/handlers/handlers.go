// Package handlers provides HTTP handlers for portfolio and watchlist operations.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/holdwatch/holdwatch/internal/apierr"
	"github.com/holdwatch/holdwatch/internal/auth"
	"github.com/holdwatch/holdwatch/internal/clients/finnhub"
	"github.com/holdwatch/holdwatch/internal/modules/holdings"
)

// HistoryProvider supplies daily closing prices for the watchlist history view
type HistoryProvider interface {
	GetDailyHistory(ctx context.Context, ticker string) ([]finnhub.PricePoint, error)
}

// Handler handles portfolio and watchlist HTTP requests
type Handler struct {
	service *holdings.Service
	history HistoryProvider
	log     zerolog.Logger
}

// NewHandler creates a new holdings handler
func NewHandler(service *holdings.Service, history HistoryProvider, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		history: history,
		log:     log.With().Str("handler", "holdings").Logger(),
	}
}

// HandleListPortfolio handles GET /api/stocks
func (h *Handler) HandleListPortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	positions, err := h.service.ListPortfolio(r.Context(), userID)
	if err != nil {
		h.writeError(w, err, "Failed to list portfolio")
		return
	}

	h.writeData(w, http.StatusOK, positions)
}

// HandleGetSummary handles GET /api/stocks/summary
func (h *Handler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	summary, err := h.service.Summary(r.Context(), userID)
	if err != nil {
		h.writeError(w, err, "Failed to compute summary")
		return
	}

	h.writeData(w, http.StatusOK, summary)
}

// HandleAddPosition handles POST /api/stocks
func (h *Handler) HandleAddPosition(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var input holdings.AddPositionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeError(w, apierr.Validation("Invalid request body"), "")
		return
	}

	holding, err := h.service.AddPosition(r.Context(), userID, input)
	if err != nil {
		h.writeError(w, err, "Failed to add position")
		return
	}

	h.writeData(w, http.StatusCreated, holding)
}

// HandleUpdatePosition handles PUT /api/stocks/{id}
func (h *Handler) HandleUpdatePosition(w http.ResponseWriter, r *http.Request, id string) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var input holdings.UpdatePositionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeError(w, apierr.Validation("Invalid request body"), "")
		return
	}

	holding, err := h.service.UpdatePosition(r.Context(), userID, id, input)
	if err != nil {
		h.writeError(w, err, "Failed to update position")
		return
	}

	h.writeData(w, http.StatusOK, holding)
}

// HandleDeletePosition handles DELETE /api/stocks/{id}
func (h *Handler) HandleDeletePosition(w http.ResponseWriter, r *http.Request, id string) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeletePosition(r.Context(), userID, id); err != nil {
		h.writeError(w, err, "Failed to delete position")
		return
	}

	h.writeData(w, http.StatusOK, map[string]string{"message": "Stock deleted successfully"})
}

// HandleListWatchlist handles GET /api/watchlist
func (h *Handler) HandleListWatchlist(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	entries, err := h.service.ListWatchlist(r.Context(), userID)
	if err != nil {
		h.writeError(w, err, "Failed to list watchlist")
		return
	}

	h.writeData(w, http.StatusOK, entries)
}

// HandleAddToWatchlist handles POST /api/watchlist
func (h *Handler) HandleAddToWatchlist(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var input holdings.AddWatchlistInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeError(w, apierr.Validation("Invalid request body"), "")
		return
	}

	holding, err := h.service.AddToWatchlist(r.Context(), userID, input)
	if err != nil {
		h.writeError(w, err, "Failed to add watchlist entry")
		return
	}

	h.writeData(w, http.StatusCreated, holding)
}

// HandleRemoveFromWatchlist handles DELETE /api/watchlist/{id}
func (h *Handler) HandleRemoveFromWatchlist(w http.ResponseWriter, r *http.Request, id string) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	if err := h.service.RemoveFromWatchlist(r.Context(), userID, id); err != nil {
		h.writeError(w, err, "Failed to remove watchlist entry")
		return
	}

	h.writeData(w, http.StatusOK, map[string]string{"message": "Removed from watchlist"})
}

// HandleUpdateTargetPrice handles PUT /api/watchlist/{id}
func (h *Handler) HandleUpdateTargetPrice(w http.ResponseWriter, r *http.Request, id string) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var input struct {
		TargetPrice float64 `json:"target_price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeError(w, apierr.Validation("Invalid request body"), "")
		return
	}

	holding, err := h.service.UpdateTargetPrice(r.Context(), userID, id, input.TargetPrice)
	if err != nil {
		h.writeError(w, err, "Failed to update target price")
		return
	}

	h.writeData(w, http.StatusOK, holding)
}

// HandleSyncPortfolio handles POST /api/watchlist/sync-portfolio
func (h *Handler) HandleSyncPortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	count, err := h.service.SyncPortfolioToWatchlist(r.Context(), userID)
	if err != nil {
		h.writeError(w, err, "Failed to sync portfolio to watchlist")
		return
	}

	h.writeData(w, http.StatusOK, map[string]interface{}{
		"message": "Portfolio synced to watchlist",
		"synced":  count,
	})
}

// HandleGetHistory handles GET /api/watchlist/{id}/history
// Returns the trailing 30 days of daily closing prices for the entry's ticker
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request, id string) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	holding, err := h.service.GetHolding(r.Context(), userID, id)
	if err != nil {
		h.writeError(w, err, "Failed to load watchlist entry")
		return
	}

	points, err := h.history.GetDailyHistory(r.Context(), holding.Ticker)
	if err != nil {
		h.writeError(w, apierr.Upstream("Unable to fetch price history", err), "")
		return
	}

	h.writeData(w, http.StatusOK, map[string]interface{}{
		"ticker":  holding.Ticker,
		"history": points,
	})
}

// HandleDiagnoseOverlap handles GET /api/watchlist/diagnose-overlap
func (h *Handler) HandleDiagnoseOverlap(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.userID(w, r); !ok {
		return
	}

	report, err := h.service.DiagnoseOverlap(r.Context())
	if err != nil {
		h.writeError(w, err, "Failed to diagnose overlap")
		return
	}

	h.writeData(w, http.StatusOK, report)
}

// HandleFixOverlap handles POST /api/watchlist/fix-overlap
func (h *Handler) HandleFixOverlap(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.userID(w, r); !ok {
		return
	}

	fixed, err := h.service.FixOverlap(r.Context())
	if err != nil {
		h.writeError(w, err, "Failed to fix overlap")
		return
	}

	h.writeData(w, http.StatusOK, map[string]interface{}{
		"message": "Overlap cleared",
		"tickers": fixed,
	})
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		h.writeError(w, apierr.Auth("Unauthorized"), "")
		return "", false
	}
	return userID, true
}

func (h *Handler) writeData(w http.ResponseWriter, status int, data interface{}) {
	h.writeJSON(w, status, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error, logMsg string) {
	status := apierr.StatusFor(err)
	if status >= http.StatusInternalServerError && logMsg != "" {
		h.log.Error().Err(err).Msg(logMsg)
	}
	h.writeJSON(w, status, map[string]string{"error": apierr.MessageFor(err)})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
