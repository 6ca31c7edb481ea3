package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sys/execabs"

	"github.com/runger/burrow/internal/action"
	"github.com/runger/burrow/internal/apps"
	"github.com/runger/burrow/internal/config"
	"github.com/runger/burrow/internal/embed"
	"github.com/runger/burrow/internal/extract"
	"github.com/runger/burrow/internal/index"
	"github.com/runger/burrow/internal/providers"
	"github.com/runger/burrow/internal/router"
	"github.com/runger/burrow/internal/storage"
	"github.com/runger/burrow/internal/vault"
)

// Build wires the full daemon from configuration: store, providers,
// engine, indexer, dispatcher, server. The returned cleanup closes the
// store and must run after the server stops.
func Build(cfg *config.Config, paths *config.Paths, logger *slog.Logger) (*Server, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}

	store, err := storage.NewSQLiteStore(paths.DBFile(), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	cleanup := func() { _ = store.Close() }

	embedder, err := embed.NewClient(cfg.Embedding.BaseURL, cfg.Embedding.Model, cfg.EmbedTimeout(), logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	extractor := extract.NewExtractor(cfg.Indexer.MaxContentChars, cfg.ExtractTimeout(), logger)
	ix := index.New(store, embedder, extractor, index.Options{
		Dirs:        cfg.IndexDirs,
		Extensions:  cfg.Indexer.Extensions,
		MaxFileSize: cfg.Indexer.MaxFileSizeBytes,
		Workers:     cfg.Indexer.Workers,
		Interval:    time.Duration(cfg.Indexer.IntervalHours) * time.Hour,
	}, logger)

	scanner := apps.NewScanner(logger)
	vlt := vault.New(time.Duration(cfg.Vault.IdleTimeoutMins) * time.Minute)
	vaultClient := vault.NewClient(cfg.Vault.Command,
		time.Duration(cfg.Vault.LookupTimeoutSecs)*time.Second, logger)

	vectors := providers.NewVectorProvider(store, embedder,
		cfg.Vector.Enabled, cfg.Vector.TopK, float64(cfg.Vector.MinScore), logger)

	engine := router.NewEngine(logger)
	engine.Apps = providers.NewAppProvider(scanner, store, cfg.Search.MaxAppHits, cfg.History.MaxResults, logger)
	engine.Files = providers.NewFileProvider(cfg.IndexDirs, cfg.Search.MaxResults)
	engine.SSH = providers.NewSSHProvider("", cfg.Actions.Terminal, cfg.Search.MaxResults)
	engine.Vault = providers.NewVaultProvider(vlt, cfg.Search.MaxResults)
	engine.Settings = providers.NewSettingsProvider()
	engine.Special = providers.NewSpecialProvider(nil)
	engine.Vector = vectors
	engine.MaxResults = cfg.Search.MaxResults

	chat, err := providers.NewChatProvider(cfg.Chat.BaseURL, cfg.Chat.Model,
		time.Duration(cfg.Chat.TimeoutSecs)*time.Second, vectors, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	engine.Chat = chat

	var exec action.Executor = action.NewSystemExecutor(action.Tools{
		Terminal:  cfg.Actions.Terminal,
		Editor:    cfg.Actions.Editor,
		Opener:    cfg.Actions.Opener,
		Clipboard: cfg.Actions.Clipboard,
		Typer:     cfg.Actions.Typer,
	}, cfg.ExecTimeout(), logger)
	if cfg.Actions.DryRun {
		logger.Warn("dry-run mode: actions are recorded, not executed")
		exec = &action.DryRunExecutor{}
	}

	server, err := NewServer(&ServerConfig{
		Engine: engine,
		// Placeholder dispatcher; replaced below once the server exists and
		// can serve as the settings runner.
		Dispatcher:  action.NewDispatcher(exec, store, vlt, nil, chat, logger),
		Indexer:     ix,
		Store:       store,
		Exec:        exec,
		Paths:       paths,
		SocketPath:  cfg.Daemon.SocketPath,
		Logger:      logger,
		IdleTimeout: time.Duration(cfg.Daemon.IdleTimeoutMins) * time.Minute,
		HistoryCap:  cfg.History.MaxResults,
		Health:      healthProbe(embedder, cfg.Vault.Command),
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	dispatcher := action.NewDispatcher(exec, store, vlt, server, chat, logger)
	dispatcher.SetUnlocker(&vaultUnlocker{client: vaultClient, vault: vlt})
	server.dispatcher = dispatcher
	return server, cleanup, nil
}

// vaultUnlocker bridges the credential-tool client into the dispatcher's
// unlock flow.
type vaultUnlocker struct {
	client *vault.Client
	vault  *vault.Vault
}

func (u *vaultUnlocker) Unlock(ctx context.Context) (int, error) {
	items, err := u.client.LoadItems(ctx)
	if err != nil {
		return 0, err
	}
	u.vault.Store(items)
	return len(items), nil
}

// healthProbe checks the embedding backend and the credential tool.
// Each dependency degrades independently.
func healthProbe(embedder embed.Embedder, vaultCommand string) func(ctx context.Context) map[string]bool {
	return func(ctx context.Context) map[string]bool {
		health := make(map[string]bool, 2)

		probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		_, err := embedder.EmbedText(probeCtx, "ping")
		health["embedding"] = err == nil

		_, err = execabs.LookPath(vaultCommand)
		health["vault"] = err == nil

		return health
	}
}
