package providers

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/runger/burrow/internal/result"
)

// FileProvider matches file names in the configured search directories.
// Matching is a flat, case-insensitive substring scan per directory; the
// deep content search lives in the vector provider.
type FileProvider struct {
	dirs  func() []string
	limit int
}

// NewFileProvider creates a provider over the directories returned by
// dirs, capped at limit results per search.
func NewFileProvider(dirs func() []string, limit int) *FileProvider {
	return &FileProvider{dirs: dirs, limit: limit}
}

// Search returns files whose names contain the query. Unreadable
// directories are skipped; an empty query yields no results.
func (p *FileProvider) Search(query string) []result.SearchResult {
	if query == "" {
		return nil
	}
	q := strings.ToLower(query)
	var out []result.SearchResult
	for _, dir := range p.dirs() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			name := entry.Name()
			if !strings.Contains(strings.ToLower(name), q) {
				continue
			}
			path := filepath.Join(dir, name)
			out = append(out, result.SearchResult{
				// Exec stays empty: the dispatcher opens the file via
				// the id path with argument passing, never a shell.
				ID:          path,
				Name:        name,
				Description: dir,
				Category:    result.CategoryFile,
			})
			if p.limit > 0 && len(out) >= p.limit {
				return out
			}
		}
	}
	return out
}
