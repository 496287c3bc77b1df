package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all portfolio and watchlist routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/stocks", func(r chi.Router) {
		r.Get("/", h.HandleListPortfolio)
		r.Get("/summary", h.HandleGetSummary)
		r.Post("/", h.HandleAddPosition)
		r.Put("/{id}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleUpdatePosition(w, r, chi.URLParam(r, "id"))
		})
		r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleDeletePosition(w, r, chi.URLParam(r, "id"))
		})
	})

	r.Route("/watchlist", func(r chi.Router) {
		r.Get("/", h.HandleListWatchlist)
		r.Post("/", h.HandleAddToWatchlist)
		r.Post("/sync-portfolio", h.HandleSyncPortfolio)
		r.Get("/diagnose-overlap", h.HandleDiagnoseOverlap)
		r.Post("/fix-overlap", h.HandleFixOverlap)
		r.Put("/{id}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleUpdateTargetPrice(w, r, chi.URLParam(r, "id"))
		})
		r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleRemoveFromWatchlist(w, r, chi.URLParam(r, "id"))
		})
		r.Get("/{id}/history", func(w http.ResponseWriter, r *http.Request) {
			h.HandleGetHistory(w, r, chi.URLParam(r, "id"))
		})
	})
}
