// Package handlers provides HTTP handlers for commodity asset operations.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/holdwatch/holdwatch/internal/apierr"
	"github.com/holdwatch/holdwatch/internal/auth"
	"github.com/holdwatch/holdwatch/internal/modules/assets"
)

// Handler handles asset HTTP requests
type Handler struct {
	service *assets.Service
	log     zerolog.Logger
}

// NewHandler creates a new assets handler
func NewHandler(service *assets.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "assets").Logger(),
	}
}

// HandleList handles GET /api/assets
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	rows, err := h.service.List(r.Context(), userID)
	if err != nil {
		h.writeError(w, err, "Failed to list assets")
		return
	}

	h.writeData(w, http.StatusOK, rows)
}

// HandleAdd handles POST /api/assets
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var input assets.AddAssetInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeError(w, apierr.Validation("Invalid request body"), "")
		return
	}

	asset, err := h.service.Add(r.Context(), userID, input)
	if err != nil {
		h.writeError(w, err, "Failed to add asset")
		return
	}

	h.writeData(w, http.StatusCreated, asset)
}

// HandleUpdate handles PUT /api/assets/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var input assets.UpdateAssetInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeError(w, apierr.Validation("Invalid request body"), "")
		return
	}

	asset, err := h.service.Update(r.Context(), userID, id, input)
	if err != nil {
		h.writeError(w, err, "Failed to update asset")
		return
	}

	h.writeData(w, http.StatusOK, asset)
}

// HandleDelete handles DELETE /api/assets/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request, id string) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		h.writeError(w, err, "Failed to delete asset")
		return
	}

	h.writeData(w, http.StatusOK, map[string]string{"message": "Asset deleted successfully"})
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
