package providers

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/runger/burrow/internal/result"
)

// SSHHost is one Host block from an ssh client config.
type SSHHost struct {
	Name     string
	HostName string
	User     string
}

// SSHProvider lists connection targets parsed from ~/.ssh/config.
type SSHProvider struct {
	configPath string
	terminal   string
	limit      int
}

// NewSSHProvider creates a provider reading the given ssh config file.
// Matches launch in the given terminal emulator.
func NewSSHProvider(configPath, terminal string, limit int) *SSHProvider {
	if configPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			configPath = filepath.Join(home, ".ssh", "config")
		}
	}
	return &SSHProvider{configPath: configPath, terminal: terminal, limit: limit}
}

// Hosts parses the ssh config. A missing or unreadable file yields an
// empty list, never an error. Wildcard Host blocks are skipped.
func (p *SSHProvider) Hosts() []SSHHost {
	f, err := os.Open(p.configPath)
	if err != nil {
		return nil
	}
	defer f.Close()

	var hosts []SSHHost
	var cur SSHHost
	flush := func() {
		if cur.Name == "" || strings.ContainsAny(cur.Name, "*?") {
			return
		}
		if cur.HostName == "" {
			cur.HostName = cur.Name
		}
		hosts = append(hosts, cur)
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		switch strings.ToLower(fields[0]) {
		case "host":
			flush()
			cur = SSHHost{Name: fields[1]}
		case "hostname":
			cur.HostName = fields[1]
		case "user":
			cur.User = fields[1]
		}
	}
	flush()
	return hosts
}

// Search filters hosts by name or hostname substring, case-insensitive.
// An empty query lists every host.
func (p *SSHProvider) Search(query string) []result.SearchResult {
	q := strings.ToLower(query)
	var out []result.SearchResult
	for _, h := range p.Hosts() {
		if p.limit > 0 && len(out) >= p.limit {
			break
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(h.Name), q) &&
			!strings.Contains(strings.ToLower(h.HostName), q) {
			continue
		}
		userPrefix := ""
		if h.User != "" {
			userPrefix = h.User + "@"
		}
		out = append(out, result.SearchResult{
			ID:          "ssh-" + h.Name,
			Name:        h.Name,
			Description: userPrefix + h.HostName,
			Category:    result.CategorySSH,
			Exec:        fmt.Sprintf("%s ssh %s%s", p.terminal, userPrefix, h.Name),
		})
	}
	return out
}
