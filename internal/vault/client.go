package vault

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/execabs"
)

// Client drives an external password manager CLI that speaks the `op`
// command set: account list, signin, item list, item get. Session
// tokens are cached per account and refreshed on expiry.
type Client struct {
	command string
	timeout time.Duration
	logger  *slog.Logger

	mu       sync.Mutex
	sessions map[string]string
}

// NewClient builds a Client for the given CLI command name.
func NewClient(command string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		command:  command,
		timeout:  timeout,
		logger:   logger.With("component", "vault-client"),
		sessions: make(map[string]string),
	}
}

func (c *Client) session(accountID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tok, ok := c.sessions[accountID]
	return tok, ok
}

func (c *Client) setSession(accountID, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[accountID] = token
}

func (c *Client) clearSession(accountID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, accountID)
}

// run executes the CLI with a bounded context. Stderr is summarized in
// the error; stdout of secret-bearing commands is never logged.
func (c *Client) run(ctx context.Context, args ...string) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	cmd := execabs.CommandContext(ctx, c.command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%s timed out", c.command)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("%s failed: %s", c.command, msg)
	}
	return stdout.Bytes(), nil
}

// signin acquires a fresh session token for an account.
func (c *Client) signin(ctx context.Context, accountID string) (string, error) {
	c.logger.Debug("signing in", "account", accountID)
	out, err := c.run(ctx, "signin", "--account", accountID, "--raw")
	if err != nil {
		return "", err
	}
	token := strings.TrimSpace(string(out))
	if token == "" {
		return "", fmt.Errorf("signin returned empty token for account %s", accountID)
	}
	c.setSession(accountID, token)
	return token, nil
}

// runWithSession runs a CLI command with the cached session for an
// account, re-authenticating once if the session has expired.
func (c *Client) runWithSession(ctx context.Context, accountID string, args ...string) ([]byte, error) {
	if token, ok := c.session(accountID); ok {
		out, err := c.run(ctx, append(args, "--session="+token)...)
		if err == nil {
			return out, nil
		}
		c.logger.Debug("cached session rejected, re-authenticating", "account", accountID)
		c.clearSession(accountID)
	}
	token, err := c.signin(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return c.run(ctx, append(args, "--session="+token)...)
}

// Accounts lists the configured account IDs. Account listing needs no
// session.
func (c *Client) Accounts(ctx context.Context) ([]string, error) {
	out, err := c.run(ctx, "account", "list", "--format=json")
	if err != nil {
		return nil, err
	}
	var accounts []struct {
		AccountUUID string `json:"account_uuid"`
		UserUUID    string `json:"user_uuid"`
	}
	if err := json.Unmarshal(out, &accounts); err != nil {
		return nil, fmt.Errorf("failed to parse account list: %w", err)
	}
	ids := make([]string, 0, len(accounts))
	for _, a := range accounts {
		id := a.AccountUUID
		if id == "" {
			id = a.UserUUID
		}
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// itemSummary is the item-list JSON shape.
type itemSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
}

// itemDetail is the item-get JSON shape. Only the fields array matters.
type itemDetail struct {
	Fields []struct {
		ID    string `json:"id"`
		Label string `json:"label"`
		Value string `json:"value"`
	} `json:"fields"`
}

func (d *itemDetail) field(name string) string {
	for _, f := range d.Fields {
		if strings.EqualFold(f.ID, name) || strings.EqualFold(f.Label, name) {
			return f.Value
		}
	}
	return ""
}

// LoadItems fetches every login item across all accounts, including
// credential fields. The returned slice is ready for Vault.Store.
func (c *Client) LoadItems(ctx context.Context) ([]Item, error) {
	accounts, err := c.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("%s reported no accounts", c.command)
	}

	var items []Item
	for _, account := range accounts {
		out, err := c.runWithSession(ctx, account, "item", "list", "--categories", "Login", "--format=json")
		if err != nil {
			return nil, err
		}
		var summaries []itemSummary
		if err := json.Unmarshal(out, &summaries); err != nil {
			return nil, fmt.Errorf("failed to parse item list: %w", err)
		}

		for _, s := range summaries {
			detail, err := c.runWithSession(ctx, account, "item", "get", s.ID, "--format=json")
			if err != nil {
				c.logger.Warn("skipping unreadable item", "item", s.ID, "err", err)
				continue
			}
			var d itemDetail
			if err := json.Unmarshal(detail, &d); err != nil {
				c.logger.Warn("skipping malformed item", "item", s.ID)
				continue
			}
			items = append(items, Item{
				ID:        s.ID,
				Title:     s.Title,
				Category:  s.Category,
				AccountID: account,
				Username:  d.field("username"),
				Password:  d.field("password"),
			})
		}
	}
	c.logger.Info("vault items loaded", "count", len(items))
	return items, nil
}
