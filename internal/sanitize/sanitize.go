// Package sanitize scrubs secret-looking values from text before it
// leaves the machine. Indexed files can contain credentials (dotfiles,
// notes, shell history pasted into documents), and retrieval snippets
// from those files are embedded into chat prompts sent to a remote
// model.
package sanitize

import "regexp"

// Pattern pairs a secret-detection regex with its replacement.
type Pattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
}

var secretPatterns = []Pattern{
	{
		Name:        "PEM block",
		Regex:       regexp.MustCompile(`-----BEGIN [A-Z ]+-----[\s\S]+?-----END [A-Z ]+-----`),
		Replacement: "[KEY_REDACTED]",
	},
	{
		Name:        "AWS access key",
		Regex:       regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
		Replacement: "[AWS_KEY_REDACTED]",
	},
	{
		Name:        "GitHub token",
		Regex:       regexp.MustCompile(`gh[pos]_[A-Za-z0-9]{36}`),
		Replacement: "[GITHUB_TOKEN_REDACTED]",
	},
	{
		Name:        "JWT",
		Regex:       regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`),
		Replacement: "[JWT_REDACTED]",
	},
	{
		Name:        "Slack token",
		Regex:       regexp.MustCompile(`xox[baprs]-[0-9a-zA-Z-]+`),
		Replacement: "[SLACK_TOKEN_REDACTED]",
	},
	{
		Name:        "Bearer header",
		Regex:       regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._-]{20,}`),
		Replacement: "Bearer [TOKEN_REDACTED]",
	},
	{
		Name:        "Basic auth header",
		Regex:       regexp.MustCompile(`(?i)basic\s+[A-Za-z0-9+/=]{20,}`),
		Replacement: "Basic [CREDENTIALS_REDACTED]",
	},
	{
		Name:        "Key-value secret",
		Regex:       regexp.MustCompile(`(?i)(password|passwd|token|secret|api[_-]?key|private[_-]?key)\s*[=:]\s*\S+`),
		Replacement: "$1=[REDACTED]",
	},
}

// Scrub replaces secret-looking values in text with placeholders.
// Detection is best effort; callers must still avoid logging raw
// credential material.
func Scrub(text string) string {
	if text == "" {
		return text
	}
	for _, p := range secretPatterns {
		text = p.Regex.ReplaceAllString(text, p.Replacement)
	}
	return text
}

// Patterns returns a copy of the detection pattern list.
func Patterns() []Pattern {
	out := make([]Pattern, len(secretPatterns))
	copy(out, secretPatterns)
	return out
}
