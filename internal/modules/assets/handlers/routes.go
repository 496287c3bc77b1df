package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all asset routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/assets", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleAdd)
		r.Put("/{id}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleUpdate(w, r, chi.URLParam(r, "id"))
		})
		r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleDelete(w, r, chi.URLParam(r, "id"))
		})
	})
}
