package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all market-data proxy routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/market", func(r chi.Router) {
		r.Get("/search", h.HandleSearch)
		r.Get("/news", h.HandleNews)
		r.Get("/status", h.HandleMarketStatus)
		r.Get("/ipo", h.HandleIPOCalendar)
		r.Get("/earnings", h.HandleEarningsCalendar)

		r.Route("/{ticker}", func(r chi.Router) {
			r.Get("/quote", h.tickerHandler(h.HandleQuote))
			r.Get("/history", h.tickerHandler(h.HandleHistory))
			r.Get("/profile", h.tickerHandler(h.HandleProfile))
			r.Get("/metrics", h.tickerHandler(h.HandleMetrics))
			r.Get("/news", h.tickerHandler(h.HandleCompanyNews))
			r.Get("/recommendations", h.tickerHandler(h.HandleRecommendations))
			r.Get("/earnings", h.tickerHandler(h.HandleEarnings))
			r.Get("/peers", h.tickerHandler(h.HandlePeers))
			r.Get("/dividends", h.tickerHandler(h.HandleDividends))
		})
	})
}

func (h *Handler) tickerHandler(fn func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fn(w, r, chi.URLParam(r, "ticker"))
	}
}
