package providers

import (
	"github.com/runger/burrow/internal/result"
	"github.com/runger/burrow/internal/vault"
)

// VaultExecPrefix marks a result exec as a vault item reference. The
// dispatcher resolves the item id behind it; the secret itself never
// appears in a result.
const VaultExecPrefix = "vault-item:"

// VaultProvider searches the unlocked vault. When the vault is locked
// or expired it returns a single unlock hint instead of matches.
type VaultProvider struct {
	vault *vault.Vault
	limit int
}

// NewVaultProvider creates a provider over the shared vault.
func NewVaultProvider(v *vault.Vault, limit int) *VaultProvider {
	return &VaultProvider{vault: v, limit: limit}
}

// Search returns vault item matches carrying only non-secret metadata.
func (p *VaultProvider) Search(query string) []result.SearchResult {
	if !p.vault.Loaded() {
		return []result.SearchResult{{
			ID:          "vault-locked",
			Name:        "Vault locked",
			Description: "Press Enter to unlock the password vault",
			Category:    result.CategoryInfo,
			Exec:        "vault-unlock",
		}}
	}

	var out []result.SearchResult
	for _, m := range p.vault.Search(query, p.limit) {
		out = append(out, result.SearchResult{
			ID:          "vault-" + m.ID,
			Name:        m.Title,
			Description: m.Category + " · ⏎ type pw · ⇧ copy pw · ^C copy user",
			Category:    result.CategoryVault,
			Exec:        VaultExecPrefix + m.ID,
		})
	}
	return out
}
