// Package project exposes project CRUD, generation kickoff, and
// artifact download over HTTP.
package project

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/paperstudio/backend/internal/apperr"
	"github.com/paperstudio/backend/internal/models"
	"github.com/paperstudio/backend/internal/relay"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ProjectStore defines the interface for project persistence.
type ProjectStore interface {
	InsertProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, id string) (*models.Project, error)
	ListProjects(ctx context.Context, userID string) ([]models.Project, error)
	DeleteProject(ctx context.Context, id string) error
	UpdateProjectStatus(ctx context.Context, id string, status models.ProjectStatus) error
	UpdateProjectOutline(ctx context.Context, id, outline string) error
	UpdateProjectContent(ctx context.Context, id, latexContent string) error
	UpdateProjectArtifacts(ctx context.Context, id, pdfKey, texKey string) error
}

// SessionStore defines the interface for generation session persistence.
type SessionStore interface {
	InsertSession(ctx context.Context, s *models.ResearchSession) error
	GetSession(ctx context.Context, id string) (*models.ResearchSession, error)
	UpdateSessionProgress(ctx context.Context, id string, progress int, step string) error
	SetSessionMemory(ctx context.Context, id, memory string) error
	FinalizeSession(ctx context.Context, id string, status models.SessionStatus) error
	AppendLog(ctx context.Context, entry *models.AgentLog) error
	ListLogs(ctx context.Context, sessionID string) ([]models.AgentLog, error)
}

// FileStore defines the interface for artifact storage.
type FileStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, string, error)
	Remove(ctx context.Context, key string) error
}

// Handler holds project HTTP handlers.
type Handler struct {
	projects ProjectStore
	sessions SessionStore
	files    FileStore
	registry *relay.Registry
	runner   *Runner
	latex    Renderer
}

func NewHandler(projects ProjectStore, sessions SessionStore, files FileStore, registry *relay.Registry, runner *Runner, latex Renderer) *Handler {
	return &Handler{
		projects: projects,
		sessions: sessions,
		files:    files,
		registry: registry,
		runner:   runner,
		latex:    latex,
	}
}

// Create makes a new DRAFT project.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("user_id").(string)

	var req models.CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.Write(w, apperr.Validation("invalid request body"))
		return
	}
	if req.Title == "" || req.Topic == "" {
		apperr.Write(w, apperr.Validation("title and topic are required"))
		return
	}

	now := time.Now()
	proj := &models.Project{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       req.Title,
		Topic:       req.Topic,
		Preferences: req.Preferences,
		Status:      models.StatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.projects.InsertProject(r.Context(), proj); err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, proj)
}

// List returns all projects for the current user.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("user_id").(string)
	projects, err := h.projects.ListProjects(r.Context(), userID)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

func (h *Handler) load(r *http.Request) (*models.Project, error) {
	id := chi.URLParam(r, "id")
	proj, err := h.projects.GetProject(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("project %s not found", id)
		}
		return nil, err
	}
	return proj, nil
}

// Get returns a single project.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	proj, err := h.load(r)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

// Delete removes a project and its stored artifacts.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	proj, err := h.load(r)
	if err != nil {
		apperr.Write(w, err)
		return
	}

	if proj.PDFObjectKey != "" {
		h.files.Remove(r.Context(), proj.PDFObjectKey)
	}
	if proj.TexObjectKey != "" {
		h.files.Remove(r.Context(), proj.TexObjectKey)
	}
	if err := h.projects.DeleteProject(r.Context(), proj.ID); err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

// Generate starts a generation run and returns its session id. A
// project can have at most one active run; a second request while one
// is in flight returns a conflict.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	proj, err := h.load(r)
	if err != nil {
		apperr.Write(w, err)
		return
	}

	sessionID, err := h.registry.Start(proj.ID)
	if err != nil {
		apperr.Write(w, err)
		return
	}

	now := time.Now()
	session := &models.ResearchSession{
		ID:          sessionID,
		ProjectID:   proj.ID,
		Status:      models.SessionActive,
		Progress:    0,
		CurrentStep: "Starting",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.sessions.InsertSession(r.Context(), session); err != nil {
		h.registry.End(sessionID, models.SessionFailed)
		apperr.Write(w, err)
		return
	}

	// The run outlives the request; clients follow it over the relay.
	go h.runner.Run(context.Background(), proj, sessionID)

	writeJSON(w, http.StatusAccepted, map[string]string{"session_id": sessionID})
}

// GetSession returns a generation session with its agent log.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	session, err := h.sessions.GetSession(r.Context(), id)
	if err != nil {
		apperr.Write(w, apperr.NotFound("session %s not found", id))
		return
	}

	logs, err := h.sessions.ListLogs(r.Context(), id)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	if logs == nil {
		logs = []models.AgentLog{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": session, "logs": logs})
}

// Compile re-renders the stored LaTeX content without re-running the
// research workflow.
func (h *Handler) Compile(w http.ResponseWriter, r *http.Request) {
	proj, err := h.load(r)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	if proj.LatexContent == "" {
		apperr.Write(w, apperr.Validation("project has no content to compile"))
		return
	}

	pdf, err := h.latex.CompilePDF(r.Context(), proj.LatexContent, proj.Title)
	if err != nil {
		apperr.Write(w, apperr.Upstream(err, "pdf compilation failed"))
		return
	}
	pdfKey := proj.ID + "/paper.pdf"
	if err := h.files.Upload(r.Context(), pdfKey, pdf, "application/pdf"); err != nil {
		apperr.Write(w, apperr.Upstream(err, "artifact upload failed"))
		return
	}

	texKey := proj.TexObjectKey
	if tex, err := h.latex.CompileTex(r.Context(), proj.LatexContent, proj.Title); err != nil {
		log.Printf("compile-tex for project %s (non-fatal): %v", proj.ID, err)
	} else if tex != "" {
		texKey = proj.ID + "/paper.tex"
		if err := h.files.Upload(r.Context(), texKey, []byte(tex), "application/x-tex"); err != nil {
			log.Printf("tex upload for project %s: %v", proj.ID, err)
		}
	}

	if err := h.projects.UpdateProjectArtifacts(r.Context(), proj.ID, pdfKey, texKey); err != nil {
		apperr.Write(w, err)
		return
	}
	proj.PDFObjectKey = pdfKey
	proj.TexObjectKey = texKey
	writeJSON(w, http.StatusOK, proj)
}

// Download streams the rendered PDF. ?view=true serves it inline for
// in-browser preview instead of as an attachment.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	proj, err := h.load(r)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	if proj.PDFObjectKey == "" {
		apperr.Write(w, apperr.NotFound("pdf not yet generated for project %s", proj.ID))
		return
	}

	data, ct, err := h.files.Download(r.Context(), proj.PDFObjectKey)
	if err != nil {
		apperr.Write(w, apperr.Upstream(err, "artifact download failed"))
		return
	}

	disposition := `attachment; filename="paper.pdf"`
	if r.URL.Query().Get("view") == "true" {
		disposition = "inline"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition", disposition)
	w.Write(data)
}

// DownloadTex streams the .tex source.
func (h *Handler) DownloadTex(w http.ResponseWriter, r *http.Request) {
	proj, err := h.load(r)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	if proj.TexObjectKey == "" {
		apperr.Write(w, apperr.NotFound("tex source not yet generated for project %s", proj.ID))
		return
	}

	data, _, err := h.files.Download(r.Context(), proj.TexObjectKey)
	if err != nil {
		apperr.Write(w, apperr.Upstream(err, "artifact download failed"))
		return
	}
	w.Header().Set("Content-Type", "application/x-tex")
	w.Header().Set("Content-Disposition", `attachment; filename="paper.tex"`)
	w.Write(data)
}
