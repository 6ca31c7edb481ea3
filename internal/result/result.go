// Package result defines the shared search result and category types
// exchanged between the router, providers, and the action dispatcher.
package result

// Category identifies which provider produced a result and which action
// table applies when it is dispatched. The set is closed: adding a value
// requires a matching provider and dispatcher handler.
type Category string

const (
	CategoryApp     Category = "app"
	CategoryHistory Category = "history"
	CategoryFile    Category = "file"
	CategorySSH     Category = "ssh"
	CategoryVault   Category = "vault"
	CategoryMath    Category = "math"
	CategoryVector  Category = "vector"
	CategoryChat    Category = "chat"
	CategoryInfo    Category = "info"
	CategoryAction  Category = "action"
	CategorySpecial Category = "special"
)

// Valid reports whether c is one of the closed category set.
func (c Category) Valid() bool {
	switch c {
	case CategoryApp, CategoryHistory, CategoryFile, CategorySSH, CategoryVault,
		CategoryMath, CategoryVector, CategoryChat, CategoryInfo, CategoryAction,
		CategorySpecial:
		return true
	}
	return false
}

// Ephemeral reports whether dispatching a result of this category must be
// kept out of the launch history.
func (c Category) Ephemeral() bool {
	return c == CategoryMath || c == CategoryInfo
}

// InputSpec marks a result that needs a secondary input step before it can
// execute. Placeholder is shown to the user while capturing the input;
// Template receives the captured text via expansion of "{input}".
type InputSpec struct {
	Placeholder string `json:"placeholder"`
	Template    string `json:"template"`
}

// SearchResult is a single ranked entry returned to the UI. Results are
// immutable once produced and regenerated on every query.
type SearchResult struct {
	// ID is stable within a provider. For file and vector results it is the
	// absolute path; history lookups share the same id space.
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	// Icon is an opaque reference; empty means the UI falls back to the
	// category default.
	Icon     string   `json:"icon"`
	Category Category `json:"category"`
	// Exec is the provider-specific invocation payload, opaque to the router.
	Exec      string     `json:"exec"`
	InputSpec *InputSpec `json:"input_spec,omitempty"`
}
