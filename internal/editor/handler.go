package editor

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/paperstudio/backend/internal/apperr"
	"github.com/paperstudio/backend/internal/auth"
	"github.com/paperstudio/backend/internal/models"
	"github.com/paperstudio/backend/internal/suggest"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Handler holds section editing HTTP handlers.
type Handler struct {
	svc            *Service
	suggestions    *suggest.Debouncer
	suggestClient  suggest.Fetcher
	maxUploadBytes int64
}

func NewHandler(svc *Service, deb *suggest.Debouncer, client suggest.Fetcher, maxUploadBytes int64) *Handler {
	return &Handler{svc: svc, suggestions: deb, suggestClient: client, maxUploadBytes: maxUploadBytes}
}

// List returns the report's sections in position order.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	secs, err := h.svc.List(r.Context(), chi.URLParam(r, "reportID"))
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, secs)
}

// Create appends a new section to the report.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.Write(w, apperr.Validation("invalid request body"))
		return
	}

	sec, err := h.svc.Create(r.Context(), chi.URLParam(r, "reportID"), req)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sec)
}

// Update fully replaces a section's content and records the change for
// debounced suggestion prefetch.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateSectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.Write(w, apperr.Validation("invalid request body"))
		return
	}

	reportID := chi.URLParam(r, "reportID")
	sectionID := chi.URLParam(r, "sectionID")
	sec, err := h.svc.UpdateContent(r.Context(), reportID, sectionID, req.Content)
	if err != nil {
		apperr.Write(w, err)
		return
	}

	h.suggestions.Change(sectionID, sec.Content, string(sec.Type))
	writeJSON(w, http.StatusOK, sec)
}

// Delete removes a section; remaining positions are re-compacted.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.svc.Delete(r.Context(), chi.URLParam(r, "reportID"), chi.URLParam(r, "sectionID"))
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

// Reorder atomically applies a full permutation of the report's
// section ids.
func (h *Handler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req models.ReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.Write(w, apperr.Validation("invalid request body"))
		return
	}

	reportID := chi.URLParam(r, "reportID")
	if err := h.svc.Reorder(r.Context(), reportID, req.IDs); err != nil {
		apperr.Write(w, err)
		return
	}

	secs, err := h.svc.List(r.Context(), reportID)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, secs)
}

// Select marks the active section for this editing session.
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(auth.SessionCookie)
	if err != nil {
		apperr.Write(w, apperr.Validation("missing session cookie"))
		return
	}
	h.svc.Select(cookie.Value, chi.URLParam(r, "sectionID"))
	writeJSON(w, http.StatusOK, map[string]string{"selected": chi.URLParam(r, "sectionID")})
}

// Import parses an uploaded spreadsheet into a new TABLE section.
// Uploads are capped at the configured size (10MB by default).
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		apperr.Write(w, apperr.Validation("upload too large or unreadable"))
		return
	}

	sec, err := h.svc.ImportTable(r.Context(), chi.URLParam(r, "reportID"), data)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sec)
}

// Suggestions returns ranked content suggestions for the section's
// current content: the debounced prefetch result when available,
// otherwise a direct fetch.
func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "reportID")
	sectionID := chi.URLParam(r, "sectionID")

	sec, err := h.svc.store.Get(r.Context(), reportID, sectionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apperr.Write(w, apperr.NotFound("section %s not found in report %s", sectionID, reportID))
			return
		}
		apperr.Write(w, err)
		return
	}

	if cached, ok := h.suggestions.Latest(sectionID); ok {
		writeJSON(w, http.StatusOK, map[string]any{"suggestions": cached})
		return
	}

	fresh, err := h.suggestClient.Suggest(r.Context(), sec.Content, string(sec.Type))
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": fresh})
}
