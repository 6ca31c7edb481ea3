package providers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/runger/burrow/internal/result"
)

func writeSSHConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

const sampleSSHConfig = `
# personal hosts
Host dev
    HostName dev.example.com
    User deploy

Host prod
    Hostname prod.example.com

Host bastion
    User root

Host *
    ForwardAgent yes
`

func TestHostsParsing(t *testing.T) {
	t.Parallel()
	p := NewSSHProvider(writeSSHConfig(t, sampleSSHConfig), "kitty", 10)

	hosts := p.Hosts()
	if len(hosts) != 3 {
		t.Fatalf("expected 3 hosts, got %d: %+v", len(hosts), hosts)
	}
	if hosts[0].Name != "dev" || hosts[0].HostName != "dev.example.com" || hosts[0].User != "deploy" {
		t.Errorf("dev host parsed wrong: %+v", hosts[0])
	}
	// Hostname with lowercase n still parses.
	if hosts[1].Name != "prod" || hosts[1].HostName != "prod.example.com" {
		t.Errorf("prod host parsed wrong: %+v", hosts[1])
	}
	// Missing HostName falls back to the alias.
	if hosts[2].Name != "bastion" || hosts[2].HostName != "bastion" || hosts[2].User != "root" {
		t.Errorf("bastion host parsed wrong: %+v", hosts[2])
	}
}

func TestHostsMissingConfig(t *testing.T) {
	t.Parallel()
	p := NewSSHProvider(filepath.Join(t.TempDir(), "nope"), "kitty", 10)

	if got := p.Hosts(); len(got) != 0 {
		t.Errorf("expected no hosts for missing config, got %d", len(got))
	}
}

func TestSSHSearch(t *testing.T) {
	t.Parallel()
	p := NewSSHProvider(writeSSHConfig(t, sampleSSHConfig), "kitty", 10)

	results := p.Search("dev")
	if len(results) != 1 {
		t.Fatalf("expected 1 match, got %d", len(results))
	}
	r := results[0]
	if r.ID != "ssh-dev" || r.Name != "dev" {
		t.Errorf("unexpected result: %+v", r)
	}
	if r.Description != "deploy@dev.example.com" {
		t.Errorf("unexpected description %q", r.Description)
	}
	if r.Exec != "kitty ssh deploy@dev" {
		t.Errorf("unexpected exec %q", r.Exec)
	}
	if r.Category != result.CategorySSH {
		t.Errorf("unexpected category %q", r.Category)
	}
}

func TestSSHSearchEmptyQueryListsAll(t *testing.T) {
	t.Parallel()
	p := NewSSHProvider(writeSSHConfig(t, sampleSSHConfig), "kitty", 10)

	if got := p.Search(""); len(got) != 3 {
		t.Errorf("expected 3 results, got %d", len(got))
	}
}

func TestSSHSearchMatchesHostname(t *testing.T) {
	t.Parallel()
	p := NewSSHProvider(writeSSHConfig(t, sampleSSHConfig), "kitty", 10)

	results := p.Search("example.com")
	if len(results) != 2 {
		t.Errorf("expected 2 hostname matches, got %d", len(results))
	}
}

func TestSSHSearchLimit(t *testing.T) {
	t.Parallel()
	p := NewSSHProvider(writeSSHConfig(t, sampleSSHConfig), "kitty", 2)

	if got := p.Search(""); len(got) != 2 {
		t.Errorf("expected limit of 2, got %d", len(got))
	}
}
