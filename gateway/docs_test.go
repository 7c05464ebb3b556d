package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocsListsMarkdownSortedByTitle(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Getting_Started.md"), []byte("# Start here"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "api-reference.md"), []byte("# API"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	router := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}), WithDocsDir(dir))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/docs", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var docs []Doc
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
	require.Len(t, docs, 2)

	assert.Equal(t, "Api Reference", docs[0].Title)
	assert.Equal(t, "api-reference", docs[0].ID)
	assert.Equal(t, "# API", docs[0].Content)

	assert.Equal(t, "Getting Started", docs[1].Title)
	assert.Equal(t, "getting-started", docs[1].ID)
	assert.Equal(t, "Getting_Started.md", docs[1].Filename)
}

func TestDocsMissingDirectoryIs404(t *testing.T) {
	router := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
		WithDocsDir(filepath.Join(t.TempDir(), "nope")))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/docs", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"documentation directory not found"}`, rec.Body.String())
}

func TestDocTitleHandlesMultibyteRunes(t *testing.T) {
	assert.Equal(t, "Über Uns", docTitle("über_uns"))
	assert.Equal(t, "Étude Notes", docTitle("étude-NOTES"))
	assert.Equal(t, "Api Reference", docTitle("api-reference"))
}
