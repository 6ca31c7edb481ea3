package providers

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/runger/burrow/internal/embed"
	"github.com/runger/burrow/internal/result"
	"github.com/runger/burrow/internal/storage"
)

// VectorProvider ranks indexed files by embedding similarity against
// the query. The candidate set is small enough that a brute-force scan
// over all stored vectors stays well inside the latency budget.
type VectorProvider struct {
	store    storage.Store
	embedder embed.Embedder
	enabled  bool
	topK     int
	minScore float64
	logger   *slog.Logger
}

// NewVectorProvider wires the embedding backend to the vector store.
func NewVectorProvider(store storage.Store, embedder embed.Embedder, enabled bool, topK int, minScore float64, logger *slog.Logger) *VectorProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &VectorProvider{
		store:    store,
		embedder: embedder,
		enabled:  enabled,
		topK:     topK,
		minScore: minScore,
		logger:   logger.With("component", "vector-provider"),
	}
}

// Search embeds the query and returns the top matches above the score
// floor, best first. An empty query yields no results.
func (p *VectorProvider) Search(ctx context.Context, query string) ([]result.SearchResult, error) {
	if !p.enabled {
		return []result.SearchResult{{
			ID:          "vector-disabled",
			Name:        "Vector search is disabled",
			Description: "Enable it in the config file",
			Category:    result.CategoryInfo,
		}}, nil
	}
	if query == "" {
		return nil, nil
	}

	queryVec, err := p.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	records, err := p.store.AllVectors(ctx)
	if err != nil {
		return nil, err
	}

	type scored struct {
		score   float64
		path    string
		preview string
	}
	var matches []scored
	for _, rec := range records {
		score := embed.CosineSimilarity(queryVec, rec.Embedding)
		if score < p.minScore {
			continue
		}
		matches = append(matches, scored{score: score, path: rec.FilePath, preview: rec.Preview})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })
	if p.topK > 0 && len(matches) > p.topK {
		matches = matches[:p.topK]
	}

	out := make([]result.SearchResult, 0, len(matches))
	for _, m := range matches {
		out = append(out, result.SearchResult{
			// Exec stays empty; the dispatcher opens the id path
			// directly, the same as file results.
			ID:          m.path,
			Name:        filepath.Base(m.path),
			Description: fmt.Sprintf("%.0f%% — %s", m.score*100, m.preview),
			Category:    result.CategoryVector,
		})
	}
	return out, nil
}

// Context returns the best-matching previews for retrieval-augmented
// chat. Any failure degrades to no context so chat keeps working.
func (p *VectorProvider) Context(ctx context.Context, query string) []ContextSnippet {
	if !p.enabled {
		return nil
	}
	queryVec, err := p.embedder.EmbedText(ctx, query)
	if err != nil {
		p.logger.Debug("failed to embed chat context query", "err", err)
		return nil
	}
	records, err := p.store.AllVectors(ctx)
	if err != nil {
		p.logger.Debug("failed to load vectors for chat context", "err", err)
		return nil
	}

	type scored struct {
		score float64
		snip  ContextSnippet
	}
	var matches []scored
	for _, rec := range records {
		score := embed.CosineSimilarity(queryVec, rec.Embedding)
		if score < p.minScore {
			continue
		}
		matches = append(matches, scored{score: score, snip: ContextSnippet{Path: rec.FilePath, Preview: rec.Preview}})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })
	if p.topK > 0 && len(matches) > p.topK {
		matches = matches[:p.topK]
	}

	snippets := make([]ContextSnippet, 0, len(matches))
	for _, m := range matches {
		snippets = append(snippets, m.snip)
	}
	return snippets
}
