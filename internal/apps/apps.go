// Package apps discovers installed desktop applications from
// freedesktop .desktop entries and matches them against queries.
package apps

import (
	"bufio"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"
)

// Entry is one installed application parsed from a .desktop file.
type Entry struct {
	ID      string
	Name    string
	Exec    string
	Icon    string
	Comment string
}

// Scanner loads and caches the installed-application list. The cache is
// filled on first use and refreshed on demand.
type Scanner struct {
	mu      sync.RWMutex
	entries []Entry
	loaded  bool
	dirs    []string
	logger  *slog.Logger
}

// NewScanner builds a Scanner over the standard desktop-entry
// directories. Pass extra dirs to extend the search path, mainly for
// tests.
func NewScanner(logger *slog.Logger, extraDirs ...string) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		dirs:   append(desktopDirs(), extraDirs...),
		logger: logger.With("component", "apps"),
	}
}

// NewScannerForDirs builds a Scanner over exactly the given directories,
// skipping the system search path.
func NewScannerForDirs(logger *slog.Logger, dirs ...string) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		dirs:   dirs,
		logger: logger.With("component", "apps"),
	}
}

// desktopDirs returns every directory that may hold .desktop files.
// Flatpak and Snap dirs are listed explicitly because XDG_DATA_DIRS
// does not always include them; dedup by entry id handles the overlap.
func desktopDirs() []string {
	var dirs []string
	if dataDirs := os.Getenv("XDG_DATA_DIRS"); dataDirs != "" {
		for _, d := range strings.Split(dataDirs, ":") {
			if d != "" {
				dirs = append(dirs, filepath.Join(d, "applications"))
			}
		}
	} else {
		dirs = append(dirs,
			"/usr/share/applications",
			"/usr/local/share/applications",
		)
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs,
			filepath.Join(home, ".local/share/applications"),
			filepath.Join(home, ".local/share/flatpak/exports/share/applications"),
		)
	}
	dirs = append(dirs,
		"/var/lib/flatpak/exports/share/applications",
		"/var/lib/snapd/desktop/applications",
	)
	return dirs
}

// All returns the cached application list, loading it on first call.
func (s *Scanner) All() []Entry {
	s.mu.RLock()
	if s.loaded {
		defer s.mu.RUnlock()
		return s.entries
	}
	s.mu.RUnlock()
	s.Refresh()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries
}

// Refresh rescans the desktop directories and replaces the cache.
func (s *Scanner) Refresh() {
	entries := s.load()
	s.mu.Lock()
	s.entries = entries
	s.loaded = true
	s.mu.Unlock()
	s.logger.Debug("scanned desktop entries", "count", len(entries))
}

func (s *Scanner) load() []Entry {
	var entries []Entry
	seen := make(map[string]bool)
	for _, dir := range s.dirs {
		paths, err := filepath.Glob(filepath.Join(dir, "*.desktop"))
		if err != nil {
			continue
		}
		for _, path := range paths {
			entry, ok := parseDesktopFile(path)
			if !ok || seen[entry.ID] {
				continue
			}
			seen[entry.ID] = true
			entries = append(entries, entry)
		}
	}
	return entries
}

// parseDesktopFile reads the [Desktop Entry] section of a .desktop
// file. Entries that are not Type=Application, carry NoDisplay=true, or
// lack a Name are skipped.
func parseDesktopFile(path string) (Entry, bool) {
	f, err := os.Open(path)
	if err != nil {
		return Entry{}, false
	}
	defer f.Close()

	fields := make(map[string]string)
	inSection := false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			inSection = line == "[Desktop Entry]"
			continue
		}
		if !inSection {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		// First occurrence wins; localized keys like Name[de] keep
		// their suffix and never collide with the plain key.
		if _, exists := fields[key]; !exists {
			fields[key] = strings.TrimSpace(value)
		}
	}
	if err := scanner.Err(); err != nil {
		return Entry{}, false
	}

	if t, ok := fields["Type"]; ok && t != "Application" {
		return Entry{}, false
	}
	if fields["NoDisplay"] == "true" {
		return Entry{}, false
	}
	name := fields["Name"]
	if name == "" {
		return Entry{}, false
	}

	id := strings.TrimSuffix(filepath.Base(path), ".desktop")
	return Entry{
		ID:      id,
		Name:    name,
		Exec:    StripFieldCodes(fields["Exec"]),
		Icon:    fields["Icon"],
		Comment: fields["Comment"],
	}, true
}

// StripFieldCodes removes freedesktop field codes (%f, %F, %u, %U and
// the rest) from an Exec string. A literal %% collapses to a single %.
func StripFieldCodes(exec string) string {
	var out []string
	for _, tok := range strings.Fields(exec) {
		if strings.HasPrefix(tok, "%") && len(tok) == 2 {
			continue
		}
		if !strings.Contains(tok, "%") {
			out = append(out, tok)
			continue
		}
		var b strings.Builder
		runes := []rune(tok)
		for i := 0; i < len(runes); i++ {
			if runes[i] != '%' {
				b.WriteRune(runes[i])
				continue
			}
			if i+1 < len(runes) && runes[i+1] == '%' {
				b.WriteRune('%')
			}
			i++ // skip the field code letter
		}
		if b.Len() > 0 {
			out = append(out, b.String())
		}
	}
	return strings.Join(out, " ")
}

// entryNames adapts []Entry to the fuzzy matcher's source interface.
type entryNames []Entry

func (e entryNames) String(i int) string { return e[i].Name }
func (e entryNames) Len() int            { return len(e) }

// Search fuzzy-matches the cached applications by name and returns up
// to limit entries, best match first. An empty query matches nothing.
func (s *Scanner) Search(query string, limit int) []Entry {
	if strings.TrimSpace(query) == "" || limit <= 0 {
		return nil
	}
	entries := s.All()
	matches := fuzzy.FindFrom(query, entryNames(entries))
	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]Entry, 0, len(matches))
	for _, m := range matches {
		out = append(out, entries[m.Index])
	}
	return out
}

// SortByFrecency splits entries into those with a frecency score and
// those without: scored entries first ordered by score descending, the
// rest alphabetically by name.
func SortByFrecency(entries []Entry, scores map[string]float64) (withHistory, withoutHistory []Entry) {
	for _, e := range entries {
		if _, ok := scores[e.ID]; ok {
			withHistory = append(withHistory, e)
		} else {
			withoutHistory = append(withoutHistory, e)
		}
	}
	sort.SliceStable(withHistory, func(i, j int) bool {
		return scores[withHistory[i].ID] > scores[withHistory[j].ID]
	})
	SortAlphabetical(withoutHistory)
	return withHistory, withoutHistory
}

// SortAlphabetical orders entries in place by case-insensitive name.
func SortAlphabetical(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})
}
