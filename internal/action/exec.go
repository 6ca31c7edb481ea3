// Package action resolves a selected search result and modifier key into
// the category-specific action and executes it.
package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/shlex"
	"golang.org/x/sys/execabs"
)

// Executor abstracts the OS-level primitives a dispatched action ends in.
// Text passed to Copy and Type may be secret and must never be logged.
type Executor interface {
	// Spawn starts the command line detached; it does not wait for exit.
	Spawn(ctx context.Context, commandLine string) error
	// Copy places text on the clipboard.
	Copy(ctx context.Context, text string) error
	// Type injects text as synthetic keystrokes.
	Type(ctx context.Context, text string) error
	// Open opens a file or directory with the desktop default handler.
	Open(ctx context.Context, path string) error
	// Terminal opens a terminal in the given directory.
	Terminal(ctx context.Context, dir string) error
	// Edit opens a file in the configured editor.
	Edit(ctx context.Context, path string) error
}

// Tools names the external programs behind each primitive. Zero values
// fall back to the usual Wayland desktop tools.
type Tools struct {
	Terminal  string
	Editor    string
	Opener    string
	Clipboard string
	Typer     string
}

// SystemExecutor runs actions against the real desktop: a clipboard
// tool for Copy, a keystroke injector for Type, a desktop opener for
// Open.
type SystemExecutor struct {
	tools   Tools
	timeout time.Duration
	logger  *slog.Logger
}

// NewSystemExecutor builds a SystemExecutor. An empty editor falls back
// to $EDITOR and then to the desktop default handler.
func NewSystemExecutor(tools Tools, timeout time.Duration, logger *slog.Logger) *SystemExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if tools.Editor == "" {
		tools.Editor = os.Getenv("EDITOR")
	}
	if tools.Opener == "" {
		tools.Opener = "xdg-open"
	}
	if tools.Clipboard == "" {
		tools.Clipboard = "wl-copy"
	}
	if tools.Typer == "" {
		tools.Typer = "wtype"
	}
	return &SystemExecutor{
		tools:   tools,
		timeout: timeout,
		logger:  logger.With("component", "executor"),
	}
}

func (e *SystemExecutor) Spawn(ctx context.Context, commandLine string) error {
	argv, err := shlex.Split(commandLine)
	if err != nil {
		return fmt.Errorf("failed to parse command line: %w", err)
	}
	if len(argv) == 0 {
		return errors.New("empty command line")
	}
	return e.spawnDetached(argv)
}

// spawnDetached starts argv and leaves it running. A goroutine reaps the
// child so finished processes do not linger as zombies.
// execabs prevents executing binaries resolved to relative paths.
func (e *SystemExecutor) spawnDetached(argv []string) error {
	cmd := execabs.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", argv[0], err)
	}
	go func() { _ = cmd.Wait() }()
	e.logger.Debug("spawned process", "command", argv[0])
	return nil
}

// runWithTimeout runs argv to completion under the executor timeout.
// stdin may be nil. Output is discarded; only the exit status matters.
func (e *SystemExecutor) runWithTimeout(ctx context.Context, argv []string, stdin string) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	cmd := execabs.CommandContext(ctx, argv[0], argv[1:]...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%s timed out", argv[0])
		}
		return fmt.Errorf("%s failed: %w", argv[0], err)
	}
	return nil
}

func (e *SystemExecutor) Copy(ctx context.Context, text string) error {
	// Secret values travel via stdin so they never appear in the process list.
	return e.runWithTimeout(ctx, []string{e.tools.Clipboard}, text)
}

// typeDelay gives the launcher window time to close and focus to return
// to the target field before keystrokes are injected.
const typeDelay = 150 * time.Millisecond

func (e *SystemExecutor) Type(ctx context.Context, text string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(typeDelay):
	}
	return e.runWithTimeout(ctx, []string{e.tools.Typer, "-"}, text)
}

func (e *SystemExecutor) Open(ctx context.Context, path string) error {
	return e.spawnDetached([]string{e.tools.Opener, path})
}

func (e *SystemExecutor) Terminal(ctx context.Context, dir string) error {
	argv, err := shlex.Split(e.tools.Terminal)
	if err != nil || len(argv) == 0 {
		return errors.New("no terminal configured")
	}
	return e.spawnDetached(append(argv, "--directory", dir))
}

func (e *SystemExecutor) Edit(ctx context.Context, path string) error {
	if e.tools.Editor == "" {
		return e.Open(ctx, path)
	}
	argv, err := shlex.Split(e.tools.Editor)
	if err != nil || len(argv) == 0 {
		return errors.New("invalid editor command")
	}
	return e.spawnDetached(append(argv, path))
}

// Op records one executed primitive for dry runs.
type Op struct {
	Kind string // spawn, copy, type, open, terminal, edit
	Arg  string
}

// DryRunExecutor records every primitive instead of executing it. The
// daemon uses it behind a dry-run flag; tests use it to assert dispatch
// behavior without touching the desktop.
type DryRunExecutor struct {
	mu  sync.Mutex
	Err error
	ops []Op
}

func (e *DryRunExecutor) record(kind, arg string) error {
	e.mu.Lock()
	e.ops = append(e.ops, Op{Kind: kind, Arg: arg})
	e.mu.Unlock()
	return e.Err
}

// Ops returns a copy of the recorded operations.
func (e *DryRunExecutor) Ops() []Op {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Op, len(e.ops))
	copy(out, e.ops)
	return out
}

func (e *DryRunExecutor) Spawn(ctx context.Context, commandLine string) error {
	if _, err := shlex.Split(commandLine); err != nil {
		return fmt.Errorf("failed to parse command line: %w", err)
	}
	return e.record("spawn", commandLine)
}

func (e *DryRunExecutor) Copy(ctx context.Context, text string) error {
	return e.record("copy", text)
}

func (e *DryRunExecutor) Type(ctx context.Context, text string) error {
	return e.record("type", text)
}

func (e *DryRunExecutor) Open(ctx context.Context, path string) error {
	return e.record("open", path)
}

func (e *DryRunExecutor) Terminal(ctx context.Context, dir string) error {
	return e.record("terminal", dir)
}

func (e *DryRunExecutor) Edit(ctx context.Context, path string) error {
	return e.record("edit", path)
}
