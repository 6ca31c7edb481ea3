package providers

import (
	"strings"

	"github.com/runger/burrow/internal/result"
)

// SpecialCommand is a hardcoded shortcut reachable under the # prefix.
// A non-nil Input marks a two-phase command: the {input} placeholder in
// Exec is filled from a secondary prompt before launch.
type SpecialCommand struct {
	Name        string
	Description string
	Icon        string
	Exec        string
	Input       *result.InputSpec
}

// defaultSpecials are the built-in shortcuts.
var defaultSpecials = []SpecialCommand{
	{
		Name:        "cowork",
		Description: "Open a terminal in ~/cowork and start the session",
		Exec:        "kitty sh -c 'cd ~/cowork && cc'",
	},
	{
		Name:        "timer",
		Description: "Start a countdown timer",
		Exec:        "systemd-run --user --on-active={input} notify-send 'Timer done'",
		Input: &result.InputSpec{
			Placeholder: "duration, e.g. 10m",
			Template:    "systemd-run --user --on-active={input} notify-send 'Timer done'",
		},
	},
}

// SpecialProvider matches the special-command table by name substring.
type SpecialProvider struct {
	commands []SpecialCommand
}

// NewSpecialProvider creates a provider over the given commands, or the
// built-in set when none are supplied.
func NewSpecialProvider(commands []SpecialCommand) *SpecialProvider {
	if len(commands) == 0 {
		commands = defaultSpecials
	}
	return &SpecialProvider{commands: commands}
}

// Search filters commands case-insensitively by name. An empty query
// lists them all.
func (p *SpecialProvider) Search(query string) []result.SearchResult {
	q := strings.ToLower(query)
	var out []result.SearchResult
	for _, cmd := range p.commands {
		if q != "" && !strings.Contains(strings.ToLower(cmd.Name), q) {
			continue
		}
		out = append(out, result.SearchResult{
			ID:          "special-" + cmd.Name,
			Name:        cmd.Name,
			Description: cmd.Description,
			Icon:        cmd.Icon,
			Category:    result.CategorySpecial,
			Exec:        cmd.Exec,
			InputSpec:   cmd.Input,
		})
	}
	return out
}
