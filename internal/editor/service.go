// Package editor maintains the ordered section list of a report and
// applies atomic mutations to it.
package editor

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/paperstudio/backend/internal/apperr"
	"github.com/paperstudio/backend/internal/models"
)

// SectionStore defines the interface for section persistence.
type SectionStore interface {
	ListByReport(ctx context.Context, reportID string) ([]models.Section, error)
	Get(ctx context.Context, reportID, sectionID string) (*models.Section, error)
	Insert(ctx context.Context, sec *models.Section) error
	UpdateContent(ctx context.Context, reportID, sectionID, content string) (*models.Section, error)
	Reorder(ctx context.Context, reportID string, positions map[string]int) error
	Delete(ctx context.Context, reportID, sectionID string) error
}

// Service applies editor mutations. Section writes for one report
// follow last-write-wins; the system assumes a single editor at a time
// per report.
type Service struct {
	store SectionStore

	// selected tracks which section each editing session is focused
	// on. Client-local concern, never persisted.
	mu       sync.Mutex
	selected map[string]string
}

func NewService(store SectionStore) *Service {
	return &Service{store: store, selected: make(map[string]string)}
}

// List returns the report's sections in position order.
func (s *Service) List(ctx context.Context, reportID string) ([]models.Section, error) {
	secs, err := s.store.ListByReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if secs == nil {
		secs = []models.Section{}
	}
	return secs, nil
}

// Create appends a new section at position N+1.
func (s *Service) Create(ctx context.Context, reportID string, req models.CreateSectionRequest) (*models.Section, error) {
	if req.Type == "" {
		req.Type = models.SectionText
	}
	switch req.Type {
	case models.SectionText, models.SectionTable, models.SectionChart, models.SectionFigure, models.SectionCode:
	default:
		return nil, apperr.Validation("unknown section type %q", req.Type)
	}

	existing, err := s.store.ListByReport(ctx, reportID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sec := &models.Section{
		ID:        uuid.New().String(),
		ReportID:  reportID,
		Position:  len(existing) + 1,
		Type:      req.Type,
		Content:   req.Content,
		Metadata:  req.Metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Insert(ctx, sec); err != nil {
		return nil, err
	}
	return sec, nil
}

// UpdateContent replaces a section's content in full.
func (s *Service) UpdateContent(ctx context.Context, reportID, sectionID, content string) (*models.Section, error) {
	sec, err := s.store.UpdateContent(ctx, reportID, sectionID, content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("section %s not found in report %s", sectionID, reportID)
		}
		return nil, err
	}
	return sec, nil
}

// Reorder atomically assigns new 1-based positions following ids. The
// id list must be exactly the report's current section id set; anything
// else fails validation and leaves the prior ordering untouched.
func (s *Service) Reorder(ctx context.Context, reportID string, ids []string) error {
	current, err := s.store.ListByReport(ctx, reportID)
	if err != nil {
		return err
	}
	if len(ids) != len(current) {
		return apperr.Validation("reorder list has %d ids, report has %d sections", len(ids), len(current))
	}

	known := make(map[string]bool, len(current))
	for _, sec := range current {
		known[sec.ID] = true
	}

	positions := make(map[string]int, len(ids))
	for i, id := range ids {
		if !known[id] {
			return apperr.Validation("unknown section id %s in reorder list", id)
		}
		if _, dup := positions[id]; dup {
			return apperr.Validation("duplicate section id %s in reorder list", id)
		}
		positions[id] = i + 1
	}

	return s.store.Reorder(ctx, reportID, positions)
}

// Delete removes a section and re-compacts the remaining positions to
// a dense 1..N sequence.
func (s *Service) Delete(ctx context.Context, reportID, sectionID string) error {
	if err := s.store.Delete(ctx, reportID, sectionID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("section %s not found in report %s", sectionID, reportID)
		}
		return err
	}
	return nil
}

// Select marks the section an editing session is focused on. Read-side
// only; not persisted.
func (s *Service) Select(editSessionID, sectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected[editSessionID] = sectionID
}

// Selected returns the focused section for an editing session.
func (s *Service) Selected(editSessionID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.selected[editSessionID]
	return id, ok
}

// ImportTable parses spreadsheet (CSV) data into a new TABLE section.
func (s *Service) ImportTable(ctx context.Context, reportID string, data []byte) (*models.Section, error) {
	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		return nil, apperr.Validation("invalid spreadsheet data: %v", err)
	}
	if len(rows) == 0 {
		return nil, apperr.Validation("spreadsheet is empty")
	}

	var b strings.Builder
	w := csv.NewWriter(&b)
	w.WriteAll(rows)
	w.Flush()

	meta, _ := json.Marshal(map[string]int{"rows": len(rows), "columns": len(rows[0])})
	return s.Create(ctx, reportID, models.CreateSectionRequest{
		Type:     models.SectionTable,
		Content:  b.String(),
		Metadata: string(meta),
	})
}
