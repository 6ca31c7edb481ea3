// Package extract turns files on disk into plain text suitable for
// embedding. Text formats are read directly; binary document formats go
// through an external converter.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sys/execabs"
)

// textExtensions are read as-is. Everything else needs an entry in
// converters.
var textExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".org":  true,
	".rst":  true,
	".csv":  true,
	".json": true,
	".yaml": true,
	".yml":  true,
	".toml": true,
	".ini":  true,
	".log":  true,
}

// converter describes an external conversion command. Args receive the
// source path; the converted text arrives on stdout.
type converter struct {
	command string
	args    func(path string) []string
}

var converters = map[string]converter{
	".pdf": {
		command: "pdftotext",
		args:    func(path string) []string { return []string{path, "-"} },
	},
	".docx": {
		command: "pandoc",
		args:    func(path string) []string { return []string{"-t", "plain", path} },
	},
	".odt": {
		command: "pandoc",
		args:    func(path string) []string { return []string{"-t", "plain", path} },
	},
}

// Extractor reads file content for indexing.
type Extractor struct {
	maxChars int
	timeout  time.Duration
	logger   *slog.Logger
}

// NewExtractor builds an Extractor. maxChars caps extracted content in
// runes; timeout bounds each external converter run.
func NewExtractor(maxChars int, timeout time.Duration, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		maxChars: maxChars,
		timeout:  timeout,
		logger:   logger.With("component", "extract"),
	}
}

// Supported reports whether the extractor can handle a file extension.
func Supported(ext string) bool {
	ext = strings.ToLower(ext)
	if textExtensions[ext] {
		return true
	}
	_, ok := converters[ext]
	return ok
}

// Text extracts the plain-text content of a file, truncated to the
// configured rune cap. The cut never splits a UTF-8 sequence.
func (e *Extractor) Text(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if textExtensions[ext] {
		return e.readText(path)
	}
	conv, ok := converters[ext]
	if !ok {
		return "", fmt.Errorf("unsupported file type %q", ext)
	}
	return e.convert(ctx, conv, path)
}

func (e *Extractor) readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("file %s is not valid UTF-8", filepath.Base(path))
	}
	return e.truncate(string(data)), nil
}

func (e *Extractor) convert(ctx context.Context, conv converter, path string) (string, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	// execabs prevents executing binaries resolved to relative paths.
	cmd := execabs.CommandContext(ctx, conv.command, conv.args(path)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("%s timed out converting %s", conv.command, filepath.Base(path))
		}
		e.logger.Debug("converter failed",
			"command", conv.command,
			"path", path,
			"stderr", strings.TrimSpace(stderr.String()))
		return "", fmt.Errorf("%s failed: %w", conv.command, err)
	}
	return e.truncate(stdout.String()), nil
}

func (e *Extractor) truncate(s string) string {
	s = strings.TrimSpace(s)
	if e.maxChars <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= e.maxChars {
		return s
	}
	return string(runes[:e.maxChars])
}
