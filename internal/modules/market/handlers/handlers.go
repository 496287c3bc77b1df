// Package handlers provides HTTP handlers proxying the market-data providers.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/holdwatch/holdwatch/internal/apierr"
	"github.com/holdwatch/holdwatch/internal/clients/finnhub"
	"github.com/holdwatch/holdwatch/internal/modules/market"
)

// MarketData is the subset of the quote provider used by the proxy endpoints
type MarketData interface {
	GetQuote(ctx context.Context, ticker string) (*finnhub.Quote, error)
	GetDailyHistory(ctx context.Context, ticker string) ([]finnhub.PricePoint, error)
	Search(ctx context.Context, q string) (*finnhub.SearchResponse, error)
	Profile(ctx context.Context, ticker string) (json.RawMessage, error)
	Metrics(ctx context.Context, ticker string) (json.RawMessage, error)
	CompanyNews(ctx context.Context, ticker, from, to string) (json.RawMessage, error)
	Recommendations(ctx context.Context, ticker string) (json.RawMessage, error)
	EarningsCalendar(ctx context.Context, ticker, from, to string) (json.RawMessage, error)
	IPOCalendar(ctx context.Context, from, to string) (json.RawMessage, error)
	Peers(ctx context.Context, ticker string) (json.RawMessage, error)
	Dividends(ctx context.Context, ticker, from, to string) (json.RawMessage, error)
	MarketStatus(ctx context.Context, exchange string) (json.RawMessage, error)
}

// NewsProvider supplies general market news headlines
type NewsProvider interface {
	LatestNews(ctx context.Context, symbols string) (json.RawMessage, error)
}

// Handler handles market-data HTTP requests
type Handler struct {
	data MarketData
	news NewsProvider
	log  zerolog.Logger
}

// NewHandler creates a new market handler
func NewHandler(data MarketData, news NewsProvider, log zerolog.Logger) *Handler {
	return &Handler{
		data: data,
		news: news,
		log:  log.With().Str("handler", "market").Logger(),
	}
}

// HandleSearch handles GET /api/market/search?q=
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		h.writeError(w, apierr.Validation("Missing search query"), "")
		return
	}

	response, err := h.data.Search(r.Context(), query)
	if err != nil {
		h.writeError(w, apierr.Upstream("Symbol search failed", err), "Symbol search failed")
		return
	}

	h.writeData(w, http.StatusOK, market.FilterSearchResults(response.Result))
}

// HandleQuote handles GET /api/market/{ticker}/quote
func (h *Handler) HandleQuote(w http.ResponseWriter, r *http.Request, ticker string) {
	quote, err := h.data.GetQuote(r.Context(), ticker)
	if err != nil {
		h.writeError(w, apierr.Upstream("Unable to fetch quote", err), "Quote proxy failed")
		return
	}
	h.writeData(w, http.StatusOK, quote)
}

// HandleHistory handles GET /api/market/{ticker}/history
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request, ticker string) {
	points, err := h.data.GetDailyHistory(r.Context(), ticker)
	if err != nil {
		h.writeError(w, apierr.Upstream("Unable to fetch price history", err), "History proxy failed")
		return
	}
	h.writeData(w, http.StatusOK, points)
}

// HandleProfile handles GET /api/market/{ticker}/profile
func (h *Handler) HandleProfile(w http.ResponseWriter, r *http.Request, ticker string) {
	h.proxy(w, r, "profile", func(ctx context.Context) (json.RawMessage, error) {
		return h.data.Profile(ctx, ticker)
	})
}

// HandleMetrics handles GET /api/market/{ticker}/metrics
func (h *Handler) HandleMetrics(w http.ResponseWriter, r *http.Request, ticker string) {
	h.proxy(w, r, "metrics", func(ctx context.Context) (json.RawMessage, error) {
		return h.data.Metrics(ctx, ticker)
	})
}

// HandleCompanyNews handles GET /api/market/{ticker}/news
// Defaults to the trailing seven days when no range is given
func (h *Handler) HandleCompanyNews(w http.ResponseWriter, r *http.Request, ticker string) {
	from, to := dateRange(r, 7)
	h.proxy(w, r, "company news", func(ctx context.Context) (json.RawMessage, error) {
		return h.data.CompanyNews(ctx, ticker, from, to)
	})
}

// HandleRecommendations handles GET /api/market/{ticker}/recommendations
func (h *Handler) HandleRecommendations(w http.ResponseWriter, r *http.Request, ticker string) {
	h.proxy(w, r, "recommendations", func(ctx context.Context) (json.RawMessage, error) {
		return h.data.Recommendations(ctx, ticker)
	})
}

// HandleEarnings handles GET /api/market/{ticker}/earnings
func (h *Handler) HandleEarnings(w http.ResponseWriter, r *http.Request, ticker string) {
	from, to := dateRange(r, 90)
	h.proxy(w, r, "earnings", func(ctx context.Context) (json.RawMessage, error) {
		return h.data.EarningsCalendar(ctx, ticker, from, to)
	})
}

// HandlePeers handles GET /api/market/{ticker}/peers
func (h *Handler) HandlePeers(w http.ResponseWriter, r *http.Request, ticker string) {
	h.proxy(w, r, "peers", func(ctx context.Context) (json.RawMessage, error) {
		return h.data.Peers(ctx, ticker)
	})
}

// HandleDividends handles GET /api/market/{ticker}/dividends
func (h *Handler) HandleDividends(w http.ResponseWriter, r *http.Request, ticker string) {
	from, to := dateRange(r, 365)
	h.proxy(w, r, "dividends", func(ctx context.Context) (json.RawMessage, error) {
		return h.data.Dividends(ctx, ticker, from, to)
	})
}

// HandleMarketStatus handles GET /api/market/status?exchange=
func (h *Handler) HandleMarketStatus(w http.ResponseWriter, r *http.Request) {
	exchange := r.URL.Query().Get("exchange")
	if exchange == "" {
		exchange = "US"
	}
	h.proxy(w, r, "market status", func(ctx context.Context) (json.RawMessage, error) {
		return h.data.MarketStatus(ctx, exchange)
	})
}

// HandleIPOCalendar handles GET /api/market/ipo
func (h *Handler) HandleIPOCalendar(w http.ResponseWriter, r *http.Request) {
	from, to := dateRange(r, 30)
	h.proxy(w, r, "IPO calendar", func(ctx context.Context) (json.RawMessage, error) {
		return h.data.IPOCalendar(ctx, from, to)
	})
}

// HandleEarningsCalendar handles GET /api/market/earnings
func (h *Handler) HandleEarningsCalendar(w http.ResponseWriter, r *http.Request) {
	from, to := dateRange(r, 30)
	h.proxy(w, r, "earnings calendar", func(ctx context.Context) (json.RawMessage, error) {
		return h.data.EarningsCalendar(ctx, "", from, to)
	})
}

// HandleNews handles GET /api/market/news?symbols=
func (h *Handler) HandleNews(w http.ResponseWriter, r *http.Request) {
	symbols := r.URL.Query().Get("symbols")
	h.proxy(w, r, "news", func(ctx context.Context) (json.RawMessage, error) {
		return h.news.LatestNews(ctx, symbols)
	})
}

func (h *Handler) proxy(w http.ResponseWriter, r *http.Request, what string,
	fetch func(ctx context.Context) (json.RawMessage, error)) {
	raw, err := fetch(r.Context())
	if err != nil {
		h.writeError(w, apierr.Upstream("Unable to fetch "+what, err), "Proxy request failed")
		return
	}
	h.writeData(w, http.StatusOK, raw)
}

// dateRange reads from/to query params, defaulting to a trailing window of
// days ending today (YYYY-MM-DD, matching the provider's expected format)
func dateRange(r *http.Request, days int) (string, string) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if to == "" {
		to = time.Now().Format("2006-01-02")
	}
	if from == "" {
		from = time.Now().AddDate(0, 0, -days).Format("2006-01-02")
	}
	return from, to
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
