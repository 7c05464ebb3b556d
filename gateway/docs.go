package gateway

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
)

// Doc is one markdown document served to the dashboard docs page. ID and
// Title are derived from the filename: "Getting_Started.md" becomes id
// "getting-started", title "Getting Started".
type Doc struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// Docs lists the markdown files in the configured docs directory, sorted by
// title. A missing directory is a 404, not an empty list.
func (s *Server) Docs(c *gin.Context) {
	entries, err := os.ReadDir(s.docsDir)
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "documentation directory not found"})
			return
		}
		s.log.Error().Err(err).Str("dir", s.docsDir).Msg("reading docs directory")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load documentation"})
		return
	}

	docs := []Doc{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".md") {
			continue
		}
		content, err := os.ReadFile(filepath.Join(s.docsDir, name))
		if err != nil {
			s.log.Error().Err(err).Str("file", name).Msg("reading doc file")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load documentation"})
			return
		}

		base := strings.TrimSuffix(name, ".md")
		docs = append(docs, Doc{
			ID:       strings.ToLower(strings.ReplaceAll(base, "_", "-")),
			Title:    docTitle(base),
			Filename: name,
			Content:  string(content),
		})
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Title < docs[j].Title })
	c.JSON(http.StatusOK, docs)
}

func docTitle(base string) string {
	words := strings.FieldsFunc(base, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	for i, word := range words {
		first, size := utf8.DecodeRuneInString(word)
		words[i] = string(unicode.ToUpper(first)) + strings.ToLower(word[size:])
	}
	return strings.Join(words, " ")
}
