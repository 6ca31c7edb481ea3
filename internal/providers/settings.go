package providers

import (
	"strings"

	"github.com/runger/burrow/internal/result"
)

// settingDef is one entry of the : settings menu. The id doubles as the
// dispatch key the daemon acts on.
type settingDef struct {
	ID          string
	Name        string
	Description string
}

var settingDefs = []settingDef{
	{ID: "reindex", Name: ":reindex", Description: "Reindex all files (full rebuild)"},
	{ID: "update", Name: ":update", Description: "Update index (incremental)"},
	{ID: "config", Name: ":config", Description: "Open config file"},
	{ID: "stats", Name: ":stats", Description: "Index statistics"},
	{ID: "progress", Name: ":progress", Description: "Show indexer progress"},
	{ID: "clear-history", Name: ":clear-history", Description: "Clear launch history"},
}

// SettingsProvider matches the settings menu by id, name, or
// description substring.
type SettingsProvider struct{}

// NewSettingsProvider creates the settings menu provider.
func NewSettingsProvider() *SettingsProvider {
	return &SettingsProvider{}
}

// Search filters menu entries case-insensitively. An empty query lists
// the whole menu.
func (p *SettingsProvider) Search(query string) []result.SearchResult {
	q := strings.ToLower(query)
	var out []result.SearchResult
	for _, s := range settingDefs {
		if q != "" &&
			!strings.Contains(strings.ToLower(s.ID), q) &&
			!strings.Contains(strings.ToLower(s.Name), q) &&
			!strings.Contains(strings.ToLower(s.Description), q) {
			continue
		}
		out = append(out, result.SearchResult{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			Category:    result.CategoryAction,
		})
	}
	return out
}
