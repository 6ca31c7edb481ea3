// Package vault holds secret items loaded from an external password
// manager CLI. Items stay in memory only, expire after an idle timeout,
// and secret values never appear in logs or error text.
package vault

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// ErrNotLoaded is returned when the vault is empty or has expired.
var ErrNotLoaded = errors.New("vault not loaded")

// Item is one unlocked vault entry. Username and Password are secret
// and must never be logged or embedded in errors.
type Item struct {
	ID        string
	Title     string
	Category  string
	AccountID string
	Username  string
	Password  string
}

// Meta is the non-secret projection of an Item returned by searches.
type Meta struct {
	ID        string
	Title     string
	Category  string
	AccountID string
}

// Vault caches unlocked items with an idle expiry. Every successful
// access refreshes the expiry clock; once it lapses the items are
// dropped and the vault reports not loaded.
type Vault struct {
	mu         sync.Mutex
	items      []Item
	lastAccess time.Time
	timeout    time.Duration
	now        func() time.Time
}

// New creates an empty vault with the given idle timeout.
func New(timeout time.Duration) *Vault {
	return &Vault{timeout: timeout, now: time.Now}
}

// Store replaces the vault contents and resets the expiry clock.
func (v *Vault) Store(items []Item) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.items = items
	v.lastAccess = v.now()
}

// Loaded reports whether the vault holds unexpired items. A positive
// answer also touches the expiry clock, so checking and then reading
// cannot race against expiry.
func (v *Vault) Loaded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.touch()
}

// touch expires stale items and refreshes the clock otherwise.
// Callers must hold mu.
func (v *Vault) touch() bool {
	if v.items == nil {
		return false
	}
	if v.now().Sub(v.lastAccess) >= v.timeout {
		v.items = nil
		return false
	}
	v.lastAccess = v.now()
	return true
}

// Search returns non-secret metadata for items whose title contains the
// query, case-insensitively, capped at limit. An empty query matches
// every item. An unloaded vault yields no results.
func (v *Vault) Search(query string, limit int) []Meta {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.touch() {
		return nil
	}
	q := strings.ToLower(query)
	var out []Meta
	for _, item := range v.items {
		if limit > 0 && len(out) >= limit {
			break
		}
		if q != "" && !strings.Contains(strings.ToLower(item.Title), q) {
			continue
		}
		out = append(out, Meta{
			ID:        item.ID,
			Title:     item.Title,
			Category:  item.Category,
			AccountID: item.AccountID,
		})
	}
	return out
}

// Password returns the password of the item with the given id.
func (v *Vault) Password(id string) (string, error) {
	return v.field(id, func(i *Item) string { return i.Password })
}

// Username returns the username of the item with the given id.
func (v *Vault) Username(id string) (string, error) {
	return v.field(id, func(i *Item) string { return i.Username })
}

func (v *Vault) field(id string, get func(*Item) string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.touch() {
		return "", ErrNotLoaded
	}
	for i := range v.items {
		if v.items[i].ID == id {
			return get(&v.items[i]), nil
		}
	}
	return "", fmt.Errorf("item %s not found in vault", id)
}

// Count returns the number of unexpired items.
func (v *Vault) Count() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.touch() {
		return 0
	}
	return len(v.items)
}

// Clear drops every item immediately.
func (v *Vault) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.items = nil
}
