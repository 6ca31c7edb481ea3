package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/runger/burrow/internal/providers"
	"github.com/runger/burrow/internal/result"
	"github.com/runger/burrow/internal/storage"
	"github.com/runger/burrow/internal/vault"
)

// SessionState is the two-phase secondary-input state. It is owned by
// the caller and threaded through Dispatch; the dispatcher never stores
// it. The zero value is the inactive state.
type SessionState struct {
	Active       bool                 `json:"active"`
	Pending      *result.SearchResult `json:"pending,omitempty"`
	RestoreQuery string               `json:"restore_query,omitempty"`
}

// Request is one dispatch attempt from the UI.
type Request struct {
	Result   result.SearchResult
	Modifier result.Modifier
	// Query is the search field content, preserved for restoration when a
	// secondary-input phase is cancelled.
	Query string
	// Secondary is the captured secondary input. Only consulted when the
	// session is already in secondary-input mode; may be empty.
	Secondary string
}

// Outcome describes what a dispatch did.
type Outcome struct {
	// Action is a short machine-readable verb: launched, copied, typed,
	// opened, connected, answered, ran, unlock, input, noop.
	Action string `json:"action"`
	// Message is optional human-readable detail (a chat answer, a
	// settings-action summary). Never contains secret material.
	Message string `json:"message,omitempty"`
	// Placeholder is set when Action is "input" and the UI must capture
	// secondary text.
	Placeholder string `json:"placeholder,omitempty"`
}

// SettingsRunner executes a named settings action (reindex, update,
// clear-history and friends). The daemon supplies the implementation.
type SettingsRunner interface {
	RunSetting(ctx context.Context, name string) (string, error)
}

// Asker produces an AI answer for a chat result.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// Unlocker loads vault items from the external credential tool into the
// session cache. The returned count is the number of items loaded.
type Unlocker interface {
	Unlock(ctx context.Context) (int, error)
}

// Dispatcher resolves (result, modifier) pairs into actions. All
// execution funnels through the Executor so a dry-run executor makes
// dispatch side-effect free.
type Dispatcher struct {
	exec     Executor
	store    storage.Store
	vault    *vault.Vault
	unlocker Unlocker
	settings SettingsRunner
	asker    Asker
	logger   *slog.Logger
}

// NewDispatcher builds a Dispatcher. settings and asker may be nil, in
// which case the corresponding categories report an unavailable error.
func NewDispatcher(exec Executor, store storage.Store, vlt *vault.Vault, settings SettingsRunner, asker Asker, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		exec:     exec,
		store:    store,
		vault:    vlt,
		settings: settings,
		asker:    asker,
		logger:   logger.With("component", "dispatcher"),
	}
}

// SetUnlocker wires the credential-tool unlock flow. Without one, the
// unlock row only signals the UI.
func (d *Dispatcher) SetUnlocker(u Unlocker) {
	d.unlocker = u
}

// Dispatch is a pure state transition over the secondary-input session.
// A result carrying an InputSpec never executes on the first call; the
// returned state asks the caller to capture secondary text. The second
// call executes and always leaves secondary-input mode, even on failure.
func (d *Dispatcher) Dispatch(ctx context.Context, state SessionState, req Request) (SessionState, Outcome, error) {
	if state.Active {
		res := req.Result
		if state.Pending != nil {
			res = *state.Pending
			if res.InputSpec != nil {
				res.Exec = strings.ReplaceAll(res.InputSpec.Template, "{input}", req.Secondary)
			}
		}
		out, err := d.execute(ctx, res, req.Modifier)
		return SessionState{}, out, err
	}

	if req.Result.InputSpec != nil {
		pending := req.Result
		return SessionState{
				Active:       true,
				Pending:      &pending,
				RestoreQuery: req.Query,
			}, Outcome{
				Action:      "input",
				Placeholder: req.Result.InputSpec.Placeholder,
			}, nil
	}

	out, err := d.execute(ctx, req.Result, req.Modifier)
	return SessionState{}, out, err
}

// normalizeModifier collapses the reserved modifiers onto the plain
// Enter action.
func normalizeModifier(m result.Modifier) result.Modifier {
	switch m {
	case result.ModShift, result.ModCtrl:
		return m
	default:
		return result.ModNone
	}
}

func (d *Dispatcher) execute(ctx context.Context, res result.SearchResult, mod result.Modifier) (Outcome, error) {
	if !res.Category.Valid() {
		return Outcome{}, fmt.Errorf("unknown result category %q", res.Category)
	}
	mod = normalizeModifier(mod)

	// Launch intent is recorded before the action runs; an action failure
	// does not roll the history entry back.
	if !res.Category.Ephemeral() {
		d.recordLaunch(ctx, res)
	}

	switch res.Category {
	case result.CategoryApp, result.CategoryHistory, result.CategorySpecial:
		return d.launch(ctx, res)
	case result.CategoryFile, result.CategoryVector:
		return d.dispatchFile(ctx, res, mod)
	case result.CategorySSH:
		return d.dispatchSSH(ctx, res, mod)
	case result.CategoryVault:
		return d.dispatchVault(ctx, res, mod)
	case result.CategoryMath:
		return d.dispatchMath(ctx, res, mod)
	case result.CategoryAction:
		return d.dispatchSetting(ctx, res)
	case result.CategoryChat:
		return d.dispatchChat(ctx, res)
	case result.CategoryInfo:
		// The locked-vault hint row is the one info result that reacts to
		// Enter.
		if res.Exec == "vault-unlock" {
			return d.unlock(ctx)
		}
		return Outcome{Action: "noop"}, nil
	}
	return Outcome{}, fmt.Errorf("no action for category %q", res.Category)
}

func (d *Dispatcher) recordLaunch(ctx context.Context, res result.SearchResult) {
	if d.store == nil {
		return
	}
	err := d.store.RecordLaunch(ctx, &storage.Launch{
		ID:          res.ID,
		Name:        res.Name,
		Exec:        res.Exec,
		Icon:        res.Icon,
		Description: res.Description,
	})
	if err != nil {
		d.logger.Warn("failed to record launch", "id", res.ID, "err", err)
	}
}

func (d *Dispatcher) launch(ctx context.Context, res result.SearchResult) (Outcome, error) {
	if res.Exec == "" {
		return Outcome{}, fmt.Errorf("result %q has no command", res.ID)
	}
	if err := d.exec.Spawn(ctx, res.Exec); err != nil {
		return Outcome{}, err
	}
	return Outcome{Action: "launched"}, nil
}

// File and vector results carry the absolute path in the id and an empty
// exec payload; the path reaches the process boundary only as an
// argument, never through a shell.
func (d *Dispatcher) dispatchFile(ctx context.Context, res result.SearchResult, mod result.Modifier) (Outcome, error) {
	path := res.ID
	switch mod {
	case result.ModShift:
		if err := d.exec.Terminal(ctx, filepath.Dir(path)); err != nil {
			return Outcome{}, err
		}
		return Outcome{Action: "opened"}, nil
	case result.ModCtrl:
		if err := d.exec.Edit(ctx, path); err != nil {
			return Outcome{}, err
		}
		return Outcome{Action: "opened"}, nil
	default:
		if err := d.exec.Open(ctx, path); err != nil {
			return Outcome{}, err
		}
		return Outcome{Action: "opened"}, nil
	}
}

func (d *Dispatcher) dispatchSSH(ctx context.Context, res result.SearchResult, mod result.Modifier) (Outcome, error) {
	if mod == result.ModCtrl {
		if err := d.exec.Copy(ctx, res.Description); err != nil {
			return Outcome{}, err
		}
		return Outcome{Action: "copied"}, nil
	}
	if err := d.exec.Spawn(ctx, res.Exec); err != nil {
		return Outcome{}, err
	}
	return Outcome{Action: "connected"}, nil
}

func (d *Dispatcher) dispatchVault(ctx context.Context, res result.SearchResult, mod result.Modifier) (Outcome, error) {
	if res.Exec == "vault-unlock" {
		return d.unlock(ctx)
	}
	id, ok := strings.CutPrefix(res.Exec, providers.VaultExecPrefix)
	if !ok {
		return Outcome{}, fmt.Errorf("unrecognized vault payload for %q", res.ID)
	}

	switch mod {
	case result.ModCtrl:
		user, err := d.vault.Username(id)
		if err != nil {
			return Outcome{}, vaultErr(err)
		}
		if err := d.exec.Copy(ctx, user); err != nil {
			return Outcome{}, err
		}
		return Outcome{Action: "copied"}, nil
	case result.ModShift:
		pw, err := d.vault.Password(id)
		if err != nil {
			return Outcome{}, vaultErr(err)
		}
		if err := d.exec.Copy(ctx, pw); err != nil {
			return Outcome{}, err
		}
		return Outcome{Action: "copied"}, nil
	default:
		pw, err := d.vault.Password(id)
		if err != nil {
			return Outcome{}, vaultErr(err)
		}
		if err := d.exec.Type(ctx, pw); err != nil {
			return Outcome{}, err
		}
		return Outcome{Action: "typed"}, nil
	}
}

// unlock runs the credential-tool load when one is wired; otherwise the
// outcome just signals the UI to start its own unlock flow.
func (d *Dispatcher) unlock(ctx context.Context) (Outcome, error) {
	if d.unlocker == nil {
		return Outcome{Action: "unlock"}, nil
	}
	n, err := d.unlocker.Unlock(ctx)
	if err != nil {
		d.logger.Warn("vault unlock failed", "err", err)
		return Outcome{}, errors.New("vault unlock failed")
	}
	return Outcome{Action: "unlock", Message: fmt.Sprintf("%d vault items loaded", n)}, nil
}

// vaultErr keeps the message generic so nothing about the item reaches
// logs or the UI beyond the failure itself.
func vaultErr(err error) error {
	if errors.Is(err, vault.ErrNotLoaded) {
		return errors.New("vault is locked")
	}
	return errors.New("vault item unavailable")
}

func (d *Dispatcher) dispatchMath(ctx context.Context, res result.SearchResult, mod result.Modifier) (Outcome, error) {
	if mod == result.ModNone {
		return Outcome{Action: "noop"}, nil
	}
	value := strings.TrimPrefix(res.Name, "= ")
	if err := d.exec.Copy(ctx, value); err != nil {
		return Outcome{}, err
	}
	return Outcome{Action: "copied"}, nil
}

func (d *Dispatcher) dispatchSetting(ctx context.Context, res result.SearchResult) (Outcome, error) {
	if d.settings == nil {
		return Outcome{}, errors.New("settings actions unavailable")
	}
	msg, err := d.settings.RunSetting(ctx, res.ID)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Action: "ran", Message: msg}, nil
}

func (d *Dispatcher) dispatchChat(ctx context.Context, res result.SearchResult) (Outcome, error) {
	if d.asker == nil {
		return Outcome{}, errors.New("chat unavailable")
	}
	question := strings.TrimPrefix(res.Name, "Ask: ")
	answer, err := d.asker.Ask(ctx, question)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Action: "answered", Message: answer}, nil
}
