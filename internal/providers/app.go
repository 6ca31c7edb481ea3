package providers

import (
	"context"
	"log/slog"

	"github.com/runger/burrow/internal/apps"
	"github.com/runger/burrow/internal/result"
	"github.com/runger/burrow/internal/storage"
)

// AppProvider serves installed-application matches and the empty-query
// home view of frecent history followed by the remaining apps.
type AppProvider struct {
	scanner    *apps.Scanner
	store      storage.Store
	maxHits    int
	historyCap int
	logger     *slog.Logger
}

// NewAppProvider wires the desktop-entry scanner to the launch ledger.
// historyCap bounds the frecent segment of the home view; 0 means
// unbounded.
func NewAppProvider(scanner *apps.Scanner, store storage.Store, maxHits, historyCap int, logger *slog.Logger) *AppProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &AppProvider{
		scanner:    scanner,
		store:      store,
		maxHits:    maxHits,
		historyCap: historyCap,
		logger:     logger.With("component", "apps-provider"),
	}
}

// Search fuzzy-matches installed applications by name.
func (p *AppProvider) Search(query string) []result.SearchResult {
	var out []result.SearchResult
	for _, e := range p.scanner.Search(query, p.maxHits) {
		out = append(out, entryToResult(e, result.CategoryApp))
	}
	return out
}

// Home returns the empty-query view: previously launched apps ordered
// by frecency, then every other app alphabetically. A ledger failure
// degrades to the plain alphabetical list instead of an error.
func (p *AppProvider) Home(ctx context.Context) []result.SearchResult {
	scores, err := p.store.FrecencyScores(ctx)
	if err != nil {
		p.logger.Warn("failed to load frecency scores, falling back to alphabetical", "err", err)
		scores = nil
	}

	withHistory, withoutHistory := apps.SortByFrecency(p.scanner.All(), scores)
	// The frecent segment is capped; overflow entries rejoin the
	// alphabetical app section.
	if p.historyCap > 0 && len(withHistory) > p.historyCap {
		withoutHistory = append(withoutHistory, withHistory[p.historyCap:]...)
		apps.SortAlphabetical(withoutHistory)
		withHistory = withHistory[:p.historyCap]
	}
	out := make([]result.SearchResult, 0, len(withHistory)+len(withoutHistory))
	for _, e := range withHistory {
		out = append(out, entryToResult(e, result.CategoryHistory))
	}
	for _, e := range withoutHistory {
		out = append(out, entryToResult(e, result.CategoryApp))
	}
	return out
}

func entryToResult(e apps.Entry, category result.Category) result.SearchResult {
	return result.SearchResult{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Comment,
		Icon:        e.Icon,
		Category:    category,
		Exec:        e.Exec,
	}
}
