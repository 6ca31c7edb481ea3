package router

import (
	"context"
	"log/slog"
	"strings"

	"github.com/runger/burrow/internal/providers"
	"github.com/runger/burrow/internal/result"
)

// Engine owns every provider and serves the single search entry point.
type Engine struct {
	Apps     *providers.AppProvider
	Files    *providers.FileProvider
	SSH      *providers.SSHProvider
	Vault    *providers.VaultProvider
	Settings *providers.SettingsProvider
	Special  *providers.SpecialProvider
	Vector   *providers.VectorProvider
	Chat     *providers.ChatProvider

	MaxResults int
	logger     *slog.Logger
}

// NewEngine assembles the search engine from its providers.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger.With("component", "router")}
}

// Search routes the query to its provider and returns ranked results.
// Provider failures degrade to an empty result set rather than a query
// error; an unreachable embedding backend is logged and reported by the
// health probe.
func (e *Engine) Search(ctx context.Context, query string) ([]result.SearchResult, error) {
	route := Classify(query, func(q string) bool {
		_, ok := providers.Calculate(q)
		return ok
	})

	var results []result.SearchResult
	switch route {
	case RouteHistory:
		results = e.Apps.Home(ctx)
	case RouteSpecial:
		results = e.Special.Search(strings.TrimSpace(strings.TrimPrefix(query, "#")))
	case RouteChat:
		results = e.Chat.Search(strings.TrimPrefix(query, "?"))
	case RouteSettings:
		results = e.Settings.Search(strings.TrimSpace(strings.TrimPrefix(query, ":")))
	case RouteVector:
		q := strings.TrimSpace(strings.TrimPrefix(strings.TrimLeft(query, " "), "*"))
		var err error
		results, err = e.Vector.Search(ctx, q)
		if err != nil {
			e.logger.Warn("vector search degraded", "error", err)
			results = nil
		}
	case RouteFile:
		results = e.Files.Search(strings.TrimLeft(query, " "))
	case RouteVault:
		results = e.Vault.Search(strings.TrimSpace(strings.TrimPrefix(query, "!")))
	case RouteSSH:
		results = e.SSH.Search(strings.TrimSpace(strings.TrimPrefix(query, "ssh")))
	case RouteMath:
		if r, ok := providers.Calculate(query); ok {
			results = []result.SearchResult{r}
		}
	default:
		results = e.Apps.Search(query)
	}

	if e.MaxResults > 0 && len(results) > e.MaxResults && route != RouteHistory {
		results = results[:e.MaxResults]
	}
	e.logger.Debug("search served", "route", string(route), "results", len(results))
	return results, nil
}
