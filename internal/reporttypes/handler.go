package reporttypes

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/paperstudio/backend/internal/apperr"
)

// Handler serves the read-only report-type lookups.
type Handler struct {
	registry *Registry
}

func NewHandler(registry *Registry) *Handler {
	return &Handler{registry: registry}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// List returns the enabled report types.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.Enabled())
}

// Full returns every report type, including disabled ones.
func (h *Handler) Full(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.All())
}

func (h *Handler) lookup(r *http.Request) (ReportType, error) {
	id := chi.URLParam(r, "id")
	if !ValidID(id) {
		return ReportType{}, apperr.Validation("malformed report type id %q", id)
	}
	t, ok := h.registry.Get(id)
	if !ok {
		return ReportType{}, apperr.NotFound("report type %s not found", id)
	}
	return t, nil
}

// Get returns a single enabled report type.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.lookup(r)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Template returns just the LaTeX template for a report type.
func (h *Handler) Template(w http.ResponseWriter, r *http.Request) {
	t, err := h.lookup(r)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": t.ID, "template": t.Template})
}
