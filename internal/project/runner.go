package project

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/paperstudio/backend/internal/models"
	"github.com/paperstudio/backend/internal/orchestrator"
	"github.com/paperstudio/backend/internal/relay"
)

// AIWorkflow is the slice of the orchestrator client the runner needs.
type AIWorkflow interface {
	Research(ctx context.Context, topic, preferences string) (*orchestrator.ResearchResult, error)
	Outline(ctx context.Context, topic string, sources []models.Source) (string, error)
	Write(ctx context.Context, topic, outline string, sources []models.Source) (*orchestrator.WriteResult, error)
	Format(ctx context.Context, latexBody string) (string, error)
}

// Renderer is the slice of the LaTeX client the runner needs.
type Renderer interface {
	CompilePDF(ctx context.Context, latexBody, title string) ([]byte, error)
	CompileTex(ctx context.Context, latexBody, title string) (string, error)
}

// SectionWriter is how the runner persists generated sections.
type SectionWriter interface {
	Insert(ctx context.Context, sec *models.Section) error
}

// Runner drives one generation run: research, outline, writing,
// formatting, then render and upload. It appends agent logs, keeps
// session progress monotonically non-decreasing, and publishes typed
// events to the relay as it goes. There is no cancellation protocol:
// a client that disconnects stops listening, the run finishes anyway.
type Runner struct {
	registry *relay.Registry
	projects ProjectStore
	sessions SessionStore
	sections SectionWriter
	files    FileStore
	ai       AIWorkflow
	latex    Renderer
	newID    func() string
}

func NewRunner(registry *relay.Registry, projects ProjectStore, sessions SessionStore, sections SectionWriter, files FileStore, ai AIWorkflow, latex Renderer, newID func() string) *Runner {
	return &Runner{
		registry: registry,
		projects: projects,
		sessions: sessions,
		sections: sections,
		files:    files,
		ai:       ai,
		latex:    latex,
		newID:    newID,
	}
}

// Run executes the full workflow for one session. Meant to be called
// in its own goroutine with a background context.
func (r *Runner) Run(ctx context.Context, proj *models.Project, sessionID string) {
	r.setStatus(ctx, proj.ID, sessionID, models.StatusResearching)
	r.progress(ctx, sessionID, 5, "Gathering sources")

	research, err := r.step(ctx, sessionID, models.AgentResearch, "research",
		map[string]any{"topic": proj.Topic},
		func(ctx context.Context) (map[string]any, error) {
			res, err := r.ai.Research(ctx, proj.Topic, proj.Preferences)
			if err != nil {
				return nil, err
			}
			r.publish(sessionID, models.MsgToolUsage, models.ToolUsagePayload{
				Tool:   "web_search",
				Detail: fmt.Sprintf("%d sources found", len(res.Sources)),
			})
			if res.Memory != "" {
				if err := r.sessions.SetSessionMemory(ctx, sessionID, res.Memory); err != nil {
					log.Printf("runner: save memory for session %s: %v", sessionID, err)
				}
			}
			return map[string]any{"result": res}, nil
		})
	if err != nil {
		r.fail(ctx, proj.ID, sessionID, err)
		return
	}
	sources := research["result"].(*orchestrator.ResearchResult).Sources
	r.progress(ctx, sessionID, 30, "Sources gathered")

	outlineOut, err := r.step(ctx, sessionID, models.AgentOutline, "outline",
		map[string]any{"topic": proj.Topic},
		func(ctx context.Context) (map[string]any, error) {
			outline, err := r.ai.Outline(ctx, proj.Topic, sources)
			if err != nil {
				return nil, err
			}
			if err := r.projects.UpdateProjectOutline(ctx, proj.ID, outline); err != nil {
				return nil, err
			}
			return map[string]any{"outline": outline}, nil
		})
	if err != nil {
		r.fail(ctx, proj.ID, sessionID, err)
		return
	}
	outline := outlineOut["outline"].(string)
	r.progress(ctx, sessionID, 45, "Outline ready")

	r.setStatus(ctx, proj.ID, sessionID, models.StatusWriting)
	writeOut, err := r.step(ctx, sessionID, models.AgentWriter, "write",
		map[string]any{"topic": proj.Topic},
		func(ctx context.Context) (map[string]any, error) {
			wr, err := r.ai.Write(ctx, proj.Topic, outline, sources)
			if err != nil {
				return nil, err
			}
			if wr.LatexBody == "" {
				return nil, fmt.Errorf("ai-service returned an empty draft")
			}
			return map[string]any{"result": wr}, nil
		})
	if err != nil {
		r.fail(ctx, proj.ID, sessionID, err)
		return
	}
	draft := writeOut["result"].(*orchestrator.WriteResult)

	now := time.Now()
	for i, gs := range draft.Sections {
		sec := &models.Section{
			ID:        r.newID(),
			ReportID:  proj.ID,
			Position:  i + 1,
			Type:      gs.Type,
			Content:   gs.Content,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := r.sections.Insert(ctx, sec); err != nil {
			log.Printf("runner: insert section %d for project %s: %v", i+1, proj.ID, err)
		}
	}
	if err := r.projects.UpdateProjectContent(ctx, proj.ID, draft.LatexBody); err != nil {
		log.Printf("runner: save draft for project %s: %v", proj.ID, err)
	}
	r.progress(ctx, sessionID, 75, "Draft written")

	formatted := draft.LatexBody
	_, err = r.step(ctx, sessionID, models.AgentFormatter, "format", nil,
		func(ctx context.Context) (map[string]any, error) {
			out, err := r.ai.Format(ctx, draft.LatexBody)
			if err != nil {
				return nil, err
			}
			formatted = out
			return nil, r.projects.UpdateProjectContent(ctx, proj.ID, out)
		})
	if err != nil {
		r.fail(ctx, proj.ID, sessionID, err)
		return
	}
	r.progress(ctx, sessionID, 85, "Formatting complete")

	// Rendering failures are non-fatal: the paper text exists, the
	// artifacts just stay unavailable.
	pdfKey, texKey := r.render(ctx, proj, formatted)
	if err := r.projects.UpdateProjectArtifacts(ctx, proj.ID, pdfKey, texKey); err != nil {
		log.Printf("runner: save artifact keys for project %s: %v", proj.ID, err)
	}
	r.progress(ctx, sessionID, 95, "Artifacts rendered")

	r.setStatus(ctx, proj.ID, sessionID, models.StatusCompleted)
	r.progress(ctx, sessionID, 100, "Done")
	r.publish(sessionID, models.MsgCompletion, models.CompletionPayload{
		ProjectID:    proj.ID,
		PDFAvailable: pdfKey != "",
	})

	if err := r.sessions.FinalizeSession(ctx, sessionID, models.SessionCompleted); err != nil {
		log.Printf("runner: finalize session %s: %v", sessionID, err)
	}
	r.registry.End(sessionID, models.SessionCompleted)
}

// step runs one workflow action, timing it and appending its agent log
// before returning.
func (r *Runner) step(ctx context.Context, sessionID string, agent models.AgentType, action string, input map[string]any, fn func(context.Context) (map[string]any, error)) (map[string]any, error) {
	start := time.Now()
	output, err := fn(ctx)

	entry := &models.AgentLog{
		SessionID:  sessionID,
		Timestamp:  start,
		Agent:      agent,
		Action:     action,
		Input:      input,
		Output:     output,
		Success:    err == nil,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		entry.Error = err.Error()
		entry.Output = nil
	}
	if logErr := r.sessions.AppendLog(ctx, entry); logErr != nil {
		log.Printf("runner: append log for session %s: %v", sessionID, logErr)
	}

	r.publish(sessionID, models.MsgAgentLog, map[string]any{
		"agent": agent, "action": action, "success": err == nil,
	})
	return output, err
}

func (r *Runner) render(ctx context.Context, proj *models.Project, latexBody string) (pdfKey, texKey string) {
	pdf, err := r.latex.CompilePDF(ctx, latexBody, proj.Title)
	if err != nil {
		log.Printf("runner: compile-pdf for project %s (non-fatal): %v", proj.ID, err)
	} else {
		pdfKey = proj.ID + "/paper.pdf"
		if err := r.files.Upload(ctx, pdfKey, pdf, "application/pdf"); err != nil {
			log.Printf("runner: pdf upload for project %s: %v", proj.ID, err)
			pdfKey = ""
		}
	}

	tex, err := r.latex.CompileTex(ctx, latexBody, proj.Title)
	if err != nil {
		log.Printf("runner: compile-tex for project %s (non-fatal): %v", proj.ID, err)
	} else if tex != "" {
		texKey = proj.ID + "/paper.tex"
		if err := r.files.Upload(ctx, texKey, []byte(tex), "application/x-tex"); err != nil {
			log.Printf("runner: tex upload for project %s: %v", proj.ID, err)
			texKey = ""
		}
	}
	return pdfKey, texKey
}

func (r *Runner) progress(ctx context.Context, sessionID string, pct int, step string) {
	if err := r.sessions.UpdateSessionProgress(ctx, sessionID, pct, step); err != nil {
		log.Printf("runner: update progress for session %s: %v", sessionID, err)
	}
	r.publish(sessionID, models.MsgProgressUpdate, models.ProgressPayload{Progress: pct, Step: step})
}

func (r *Runner) setStatus(ctx context.Context, projectID, sessionID string, status models.ProjectStatus) {
	if err := r.projects.UpdateProjectStatus(ctx, projectID, status); err != nil {
		log.Printf("runner: set status %s on project %s: %v", status, projectID, err)
	}
	r.publish(sessionID, models.MsgStatusChange, models.StatusChangePayload{Status: status})
}

func (r *Runner) publish(sessionID string, t models.MessageType, payload any) {
	r.registry.Publish(sessionID, models.NewMessage(t, sessionID, payload))
}

// fail surfaces the error as an ERROR event and finalizes both the
// session and the project as FAILED. Generation is never retried
// automatically; the user must resubmit.
func (r *Runner) fail(ctx context.Context, projectID, sessionID string, err error) {
	log.Printf("runner: session %s failed: %v", sessionID, err)
	r.publish(sessionID, models.MsgError, models.ErrorPayload{Message: err.Error()})

	if dbErr := r.projects.UpdateProjectStatus(ctx, projectID, models.StatusFailed); dbErr != nil {
		log.Printf("runner: mark project %s failed: %v", projectID, dbErr)
	}
	if dbErr := r.sessions.FinalizeSession(ctx, sessionID, models.SessionFailed); dbErr != nil {
		log.Printf("runner: finalize session %s: %v", sessionID, dbErr)
	}
	r.registry.End(sessionID, models.SessionFailed)
}
