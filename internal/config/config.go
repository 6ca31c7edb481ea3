package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the burrow configuration.
type Config struct {
	Daemon    DaemonConfig    `yaml:"daemon"`
	Search    SearchConfig    `yaml:"search"`
	History   HistoryConfig   `yaml:"history"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Vector    VectorConfig    `yaml:"vector"`
	Indexer   IndexerConfig   `yaml:"indexer"`
	Chat      ChatConfig      `yaml:"chat"`
	Vault     VaultConfig     `yaml:"vault"`
	Actions   ActionsConfig   `yaml:"actions"`
}

// DaemonConfig holds daemon-related settings.
type DaemonConfig struct {
	IdleTimeoutMins int    `yaml:"idle_timeout_mins"` // Auto-shutdown after idle (0 = never)
	SocketPath      string `yaml:"socket_path"`       // Unix socket path (overrides default)
	LogLevel        string `yaml:"log_level"`         // debug, info, warn, error
	AutoStart       bool   `yaml:"auto_start"`        // CLI spawns the daemon if not running
}

// SearchConfig holds query-side settings.
type SearchConfig struct {
	MaxResults  int `yaml:"max_results"` // Cap on file search results
	DebounceMs  int `yaml:"debounce_ms"` // Suggested UI debounce interval
	MaxAppHits  int `yaml:"max_app_hits"`
}

// HistoryConfig holds launch-history settings.
type HistoryConfig struct {
	MaxResults int `yaml:"max_results"` // Frecency list cap on empty query
}

// EmbeddingConfig holds embedding backend settings.
type EmbeddingConfig struct {
	BaseURL       string `yaml:"base_url"`       // OpenAI-compatible endpoint (Ollama works)
	Model         string `yaml:"model"`          // Embedding model name
	TimeoutSecs   int    `yaml:"timeout_secs"`   // Per-request timeout
}

// VectorConfig holds semantic search settings.
type VectorConfig struct {
	Enabled  bool    `yaml:"enabled"`
	TopK     int     `yaml:"top_k"`
	MinScore float32 `yaml:"min_score"` // Cosine similarity floor
}

// IndexerConfig holds content-indexing settings.
type IndexerConfig struct {
	Dirs               []string `yaml:"dirs"`                 // Directories to index (tilde expanded)
	Extensions         []string `yaml:"extensions"`           // Lowercase extension allowlist, no dot
	MaxFileSizeBytes   int64    `yaml:"max_file_size_bytes"`
	MaxContentChars    int      `yaml:"max_content_chars"`    // Extracted text ceiling per file
	IntervalHours      int      `yaml:"interval_hours"`       // Background incremental interval
	Workers            int      `yaml:"workers"`              // Embedding worker pool size
	ExtractTimeoutSecs int      `yaml:"extract_timeout_secs"`
}

// ChatConfig holds AI chat settings.
type ChatConfig struct {
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// VaultConfig holds credential-tool settings.
type VaultConfig struct {
	Command           string `yaml:"command"`             // Credential CLI binary, e.g. "op"
	IdleTimeoutMins   int    `yaml:"idle_timeout_mins"`   // Session cache expiry (0 = never)
	LookupTimeoutSecs int    `yaml:"lookup_timeout_secs"`
}

// ActionsConfig names the external programs used as the terminal step of
// action dispatch.
type ActionsConfig struct {
	Terminal        string `yaml:"terminal"`  // e.g. "kitty"
	Editor          string `yaml:"editor"`    // e.g. "code"
	Opener          string `yaml:"opener"`    // e.g. "xdg-open"
	Clipboard       string `yaml:"clipboard"` // e.g. "wl-copy"
	Typer           string `yaml:"typer"`     // e.g. "wtype"
	ExecTimeoutSecs int    `yaml:"exec_timeout_secs"`

	// DryRun records actions instead of executing them.
	DryRun bool `yaml:"dry_run"`
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() *Config {
	return &Config{
		Daemon: DaemonConfig{
			IdleTimeoutMins: 0,
			LogLevel:        "info",
			AutoStart:       true,
		},
		Search: SearchConfig{
			MaxResults: 15,
			DebounceMs: 120,
			MaxAppHits: 10,
		},
		History: HistoryConfig{
			MaxResults: 6,
		},
		Embedding: EmbeddingConfig{
			BaseURL:     "http://localhost:11434/v1",
			Model:       "nomic-embed-text",
			TimeoutSecs: 30,
		},
		Vector: VectorConfig{
			Enabled:  true,
			TopK:     10,
			MinScore: 0.3,
		},
		Indexer: IndexerConfig{
			Dirs: []string{"~/Documents", "~/Projects", "~/Downloads"},
			Extensions: []string{
				"txt", "md", "rs", "go", "ts", "tsx", "js", "py", "toml",
				"yaml", "yml", "json", "sh", "css", "html", "csv", "rtf", "pdf",
			},
			MaxFileSizeBytes:   1_000_000,
			MaxContentChars:    8000,
			IntervalHours:      6,
			Workers:            2,
			ExtractTimeoutSecs: 20,
		},
		Chat: ChatConfig{
			BaseURL:     "http://localhost:11434/v1",
			Model:       "llama3.1",
			TimeoutSecs: 120,
		},
		Vault: VaultConfig{
			Command:           "op",
			IdleTimeoutMins:   10,
			LookupTimeoutSecs: 10,
		},
		Actions: ActionsConfig{
			Terminal:        "kitty",
			Editor:          "code",
			Opener:          "xdg-open",
			Clipboard:       "wl-copy",
			Typer:           "wtype",
			ExecTimeoutSecs: 15,
		},
	}
}

// Load reads the config file from the default location. A missing file is
// not an error: defaults are returned.
func Load() (*Config, error) {
	return LoadFromFile(DefaultPaths().ConfigFile())
}

// LoadFromFile reads a config file, overlaying it on the defaults.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveToFile writes the config as YAML, creating parent directories.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks invariants that would otherwise surface as confusing
// runtime behavior.
func (c *Config) Validate() error {
	if !isValidLogLevel(c.Daemon.LogLevel) {
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", c.Daemon.LogLevel)
	}
	if c.Vector.TopK <= 0 {
		return fmt.Errorf("invalid vector.top_k: must be positive")
	}
	if c.Vector.MinScore < -1 || c.Vector.MinScore > 1 {
		return fmt.Errorf("invalid vector.min_score: must be in [-1, 1]")
	}
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("invalid search.max_results: must be positive")
	}
	if c.History.MaxResults <= 0 {
		return fmt.Errorf("invalid history.max_results: must be positive")
	}
	if c.Indexer.MaxFileSizeBytes <= 0 {
		return fmt.Errorf("invalid indexer.max_file_size_bytes: must be positive")
	}
	if c.Indexer.Workers <= 0 {
		return fmt.Errorf("invalid indexer.workers: must be positive")
	}
	return nil
}

// IndexDirs returns the configured index directories with tildes expanded.
// Directories that do not exist are kept; the indexer skips them at walk time.
func (c *Config) IndexDirs() []string {
	dirs := make([]string, 0, len(c.Indexer.Dirs))
	for _, d := range c.Indexer.Dirs {
		dirs = append(dirs, ExpandTilde(d))
	}
	return dirs
}

// EmbedTimeout returns the embedding request timeout as a duration.
func (c *Config) EmbedTimeout() time.Duration {
	return time.Duration(c.Embedding.TimeoutSecs) * time.Second
}

// ExtractTimeout returns the per-file extraction timeout.
func (c *Config) ExtractTimeout() time.Duration {
	return time.Duration(c.Indexer.ExtractTimeoutSecs) * time.Second
}

// ExecTimeout returns the external action execution timeout.
func (c *Config) ExecTimeout() time.Duration {
	return time.Duration(c.Actions.ExecTimeoutSecs) * time.Second
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
