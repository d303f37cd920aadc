package cite

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/paperstudio/backend/internal/apperr"
	"github.com/paperstudio/backend/internal/models"
)

// CitationStore defines the interface for citation persistence.
type CitationStore interface {
	InsertCitation(ctx context.Context, c *models.Citation) error
	ListCitations(ctx context.Context, projectID string) ([]models.Citation, error)
}

// Handler holds citation HTTP handlers.
type Handler struct {
	store CitationStore
}

func NewHandler(store CitationStore) *Handler {
	return &Handler{store: store}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Create adds a citation to a project. The four style strings are
// computed here, once.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.Write(w, apperr.Validation("invalid request body"))
		return
	}
	if req.Title == "" {
		apperr.Write(w, apperr.Validation("title is required"))
		return
	}
	switch req.Type {
	case models.CiteWebsite, models.CiteJournal, models.CiteBook, models.CiteNews, models.CiteReport:
	case "":
		req.Type = models.CiteWebsite
	default:
		apperr.Write(w, apperr.Validation("unknown citation type %q", req.Type))
		return
	}

	apa, mla, chicago, ieee := All(req)
	c := &models.Citation{
		ID:        uuid.New().String(),
		ProjectID: chi.URLParam(r, "id"),
		Type:      req.Type,
		Title:     req.Title,
		Authors:   req.Authors,
		URL:       req.URL,
		Date:      req.Date,
		Publisher: req.Publisher,
		DOI:       req.DOI,
		APA:       apa,
		MLA:       mla,
		Chicago:   chicago,
		IEEE:      ieee,
		CreatedAt: time.Now(),
	}
	if err := h.store.InsertCitation(r.Context(), c); err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// List returns a project's citations.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	cites, err := h.store.ListCitations(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		apperr.Write(w, err)
		return
	}
	if cites == nil {
		cites = []models.Citation{}
	}
	writeJSON(w, http.StatusOK, cites)
}
