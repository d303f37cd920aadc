package editor

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperstudio/backend/internal/apperr"
	"github.com/paperstudio/backend/internal/models"
)

// memStore is an in-memory SectionStore mirroring the PostgreSQL
// store's contract, including pgx.ErrNoRows on misses.
type memStore struct {
	sections map[string]*models.Section
}

func newMemStore() *memStore {
	return &memStore{sections: make(map[string]*models.Section)}
}

func (m *memStore) ListByReport(ctx context.Context, reportID string) ([]models.Section, error) {
	var out []models.Section
	for _, s := range m.sections {
		if s.ReportID == reportID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *memStore) Get(ctx context.Context, reportID, sectionID string) (*models.Section, error) {
	s, ok := m.sections[sectionID]
	if !ok || s.ReportID != reportID {
		return nil, pgx.ErrNoRows
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) Insert(ctx context.Context, sec *models.Section) error {
	cp := *sec
	m.sections[sec.ID] = &cp
	return nil
}

func (m *memStore) UpdateContent(ctx context.Context, reportID, sectionID, content string) (*models.Section, error) {
	s, ok := m.sections[sectionID]
	if !ok || s.ReportID != reportID {
		return nil, pgx.ErrNoRows
	}
	s.Content = content
	s.UpdatedAt = time.Now()
	cp := *s
	return &cp, nil
}

func (m *memStore) Reorder(ctx context.Context, reportID string, positions map[string]int) error {
	for id, pos := range positions {
		s, ok := m.sections[id]
		if !ok || s.ReportID != reportID {
			return pgx.ErrNoRows
		}
		s.Position = pos
	}
	return nil
}

func (m *memStore) Delete(ctx context.Context, reportID, sectionID string) error {
	s, ok := m.sections[sectionID]
	if !ok || s.ReportID != reportID {
		return pgx.ErrNoRows
	}
	removed := s.Position
	delete(m.sections, sectionID)
	for _, other := range m.sections {
		if other.ReportID == reportID && other.Position > removed {
			other.Position--
		}
	}
	return nil
}

func seedReport(t *testing.T, store *memStore, reportID string, n int) []string {
	t.Helper()
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		id := uuid.New().String()
		ids[i] = id
		store.sections[id] = &models.Section{
			ID:       id,
			ReportID: reportID,
			Position: i + 1,
			Type:     models.SectionText,
			Content:  fmt.Sprintf("content-%d", i+1),
		}
	}
	return ids
}

func TestReorderChangesOnlyPositions(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ids := seedReport(t, store, "rep-1", 4)

	before, err := svc.List(context.Background(), "rep-1")
	require.NoError(t, err)
	contentByID := make(map[string]string)
	for _, s := range before {
		contentByID[s.ID] = s.Content
	}

	// Reverse the order.
	reversed := []string{ids[3], ids[2], ids[1], ids[0]}
	require.NoError(t, svc.Reorder(context.Background(), "rep-1", reversed))

	after, err := svc.List(context.Background(), "rep-1")
	require.NoError(t, err)
	require.Len(t, after, 4)

	seen := make(map[int]bool)
	for i, s := range after {
		assert.Equal(t, i+1, s.Position, "positions must be dense 1..N")
		assert.False(t, seen[s.Position], "duplicate position")
		seen[s.Position] = true
		assert.Equal(t, contentByID[s.ID], s.Content, "reorder must not touch content")
		assert.Equal(t, reversed[i], s.ID)
	}
}

func TestReorderRejectsMissingID(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ids := seedReport(t, store, "rep-1", 3)

	before, err := svc.List(context.Background(), "rep-1")
	require.NoError(t, err)

	// Drop one id from the permutation.
	err = svc.Reorder(context.Background(), "rep-1", ids[:2])
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	after, err := svc.List(context.Background(), "rep-1")
	require.NoError(t, err)
	assert.Equal(t, before, after, "failed reorder must leave ordering unchanged")
}

func TestReorderRejectsInjectedID(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ids := seedReport(t, store, "rep-1", 3)

	bad := []string{ids[0], ids[1], uuid.New().String()}
	err := svc.Reorder(context.Background(), "rep-1", bad)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestReorderRejectsDuplicateID(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ids := seedReport(t, store, "rep-1", 3)

	bad := []string{ids[0], ids[1], ids[1]}
	err := svc.Reorder(context.Background(), "rep-1", bad)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestUpdateContentUnknownSection(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	seedReport(t, store, "rep-1", 2)

	before, err := svc.List(context.Background(), "rep-1")
	require.NoError(t, err)

	_, err = svc.UpdateContent(context.Background(), "rep-1", uuid.New().String(), "new")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	after, err := svc.List(context.Background(), "rep-1")
	require.NoError(t, err)
	assert.Equal(t, before, after, "failed update must have no side effect")
}

func TestUpdateContentWrongReport(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ids := seedReport(t, store, "rep-1", 1)

	_, err := svc.UpdateContent(context.Background(), "rep-other", ids[0], "new")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestUpdateContentReplacesInFull(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ids := seedReport(t, store, "rep-1", 1)

	sec, err := svc.UpdateContent(context.Background(), "rep-1", ids[0], "replacement text")
	require.NoError(t, err)
	assert.Equal(t, "replacement text", sec.Content)
}

func TestCreateAppendsAtEnd(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	seedReport(t, store, "rep-1", 2)

	sec, err := svc.Create(context.Background(), "rep-1", models.CreateSectionRequest{
		Type:    models.SectionCode,
		Content: "fmt.Println(\"hi\")",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, sec.Position)
	assert.Equal(t, models.SectionCode, sec.Type)
}

func TestCreateRejectsUnknownType(t *testing.T) {
	svc := NewService(newMemStore())

	_, err := svc.Create(context.Background(), "rep-1", models.CreateSectionRequest{Type: "VIDEO"})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestDeleteCompactsPositions(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ids := seedReport(t, store, "rep-1", 3)

	require.NoError(t, svc.Delete(context.Background(), "rep-1", ids[1]))

	after, err := svc.List(context.Background(), "rep-1")
	require.NoError(t, err)
	require.Len(t, after, 2)
	assert.Equal(t, 1, after[0].Position)
	assert.Equal(t, 2, after[1].Position)
}

func TestSelectIsPerEditingSession(t *testing.T) {
	svc := NewService(newMemStore())

	svc.Select("edit-a", "sec-1")
	svc.Select("edit-b", "sec-2")

	got, ok := svc.Selected("edit-a")
	require.True(t, ok)
	assert.Equal(t, "sec-1", got)

	got, ok = svc.Selected("edit-b")
	require.True(t, ok)
	assert.Equal(t, "sec-2", got)

	_, ok = svc.Selected("edit-c")
	assert.False(t, ok)
}

func TestImportTableParsesCSV(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)

	csvData := []byte("name,score\nalpha,1\nbeta,2\n")
	sec, err := svc.ImportTable(context.Background(), "rep-1", csvData)
	require.NoError(t, err)

	assert.Equal(t, models.SectionTable, sec.Type)
	assert.Contains(t, sec.Content, "alpha,1")
	assert.JSONEq(t, `{"rows":3,"columns":2}`, sec.Metadata)
}

func TestImportTableRejectsGarbage(t *testing.T) {
	svc := NewService(newMemStore())

	_, err := svc.ImportTable(context.Background(), "rep-1", []byte("a,b\n\"unterminated"))
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}
