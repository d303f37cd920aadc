package reporttypes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRouter(t *testing.T) *chi.Mux {
	t.Helper()
	reg, err := Load("")
	require.NoError(t, err)
	h := NewHandler(reg)

	r := chi.NewRouter()
	r.Get("/api/report-types", h.List)
	r.Get("/api/report-types/full", h.Full)
	r.Get("/api/report-types/{id}", h.Get)
	r.Get("/api/report-types/{id}/template", h.Template)
	return r
}

func doGet(t *testing.T, r http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestListReturnsOnlyEnabled(t *testing.T) {
	rec := doGet(t, testRouter(t), "/api/report-types")
	require.Equal(t, http.StatusOK, rec.Code)

	var types []ReportType
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &types))
	require.NotEmpty(t, types)
	for _, rt := range types {
		assert.True(t, rt.Enabled)
	}
}

func TestFullIncludesDisabled(t *testing.T) {
	router := testRouter(t)

	var all, enabled []ReportType
	require.NoError(t, json.Unmarshal(doGet(t, router, "/api/report-types/full").Body.Bytes(), &all))
	require.NoError(t, json.Unmarshal(doGet(t, router, "/api/report-types").Body.Bytes(), &enabled))

	assert.Greater(t, len(all), len(enabled))
}

func TestGetKnownType(t *testing.T) {
	rec := doGet(t, testRouter(t), "/api/report-types/research-paper")
	require.Equal(t, http.StatusOK, rec.Code)

	var rt ReportType
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rt))
	assert.Equal(t, "research-paper", rt.ID)
	assert.Contains(t, rt.Sections, "Abstract")
}

func TestGetMalformedIDIs400(t *testing.T) {
	rec := doGet(t, testRouter(t), "/api/report-types/Not%20A%20Slug!")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestGetUnknownIDIs404(t *testing.T) {
	rec := doGet(t, testRouter(t), "/api/report-types/ransom-note")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetDisabledTypeIs404(t *testing.T) {
	// thesis-chapter ships disabled in the defaults.
	rec := doGet(t, testRouter(t), "/api/report-types/thesis-chapter")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTemplateEndpoint(t *testing.T) {
	rec := doGet(t, testRouter(t), "/api/report-types/case-study/template")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "case-study", body["id"])
	assert.Contains(t, body["template"], `\documentclass`)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "types.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"id":"memo","name":"Memo","enabled":true,"sections":["Body"],"template":"t"}
	]`), 0o644))

	reg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, reg.All(), 1)

	rt, ok := reg.Get("memo")
	require.True(t, ok)
	assert.Equal(t, "Memo", rt.Name)
}

func TestLoadRejectsDuplicateIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "types.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"id":"memo","name":"A","enabled":true},
		{"id":"memo","name":"B","enabled":true}
	]`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
