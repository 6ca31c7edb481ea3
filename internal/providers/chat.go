package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/runger/burrow/internal/result"
	"github.com/runger/burrow/internal/sanitize"
)

// ContextSnippet is one indexed-file excerpt handed to the chat model
// as retrieval context.
type ContextSnippet struct {
	Path    string
	Preview string
}

// ContextFetcher supplies retrieval context for a chat question. The
// vector provider implements it; a nil fetcher means no context.
type ContextFetcher interface {
	Context(ctx context.Context, query string) []ContextSnippet
}

// ChatProvider answers free-form questions through an OpenAI-compatible
// chat endpoint, optionally grounded in indexed file snippets.
type ChatProvider struct {
	model   llms.Model
	fetcher ContextFetcher
	timeout time.Duration
	logger  *slog.Logger
}

// NewChatProvider creates a chat provider against the given endpoint.
func NewChatProvider(baseURL, modelName string, timeout time.Duration, fetcher ContextFetcher, logger *slog.Logger) (*ChatProvider, error) {
	if baseURL == "" {
		return nil, errors.New("chat base URL is required")
	}
	if modelName == "" {
		return nil, errors.New("chat model is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	model, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithToken("none"),
		openai.WithModel(modelName),
	)
	if err != nil {
		return nil, err
	}
	return &ChatProvider{
		model:   model,
		fetcher: fetcher,
		timeout: timeout,
		logger:  logger.With("component", "chat"),
	}, nil
}

// Search returns the inline chat affordance for a ? query: a hint when
// the question is still empty, otherwise an ask row to dispatch.
func (p *ChatProvider) Search(query string) []result.SearchResult {
	q := strings.TrimSpace(query)
	if q == "" {
		return []result.SearchResult{{
			ID:          "chat-hint",
			Name:        "Type a question after ?",
			Description: "Press Enter to ask",
			Category:    result.CategoryInfo,
		}}
	}
	return []result.SearchResult{{
		ID:          "chat-ask",
		Name:        "Ask: " + q,
		Description: "Press Enter to get an answer",
		Category:    result.CategoryChat,
	}}
}

// Ask answers a question, grounding it in retrieval context when a
// fetcher is wired.
func (p *ChatProvider) Ask(ctx context.Context, question string) (string, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return "", errors.New("empty question")
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	var snippets []ContextSnippet
	if p.fetcher != nil {
		snippets = p.fetcher.Context(ctx, q)
	}

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(buildSystemPrompt(snippets))},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(q)},
		},
	}

	response, err := p.model.GenerateContent(ctx, content)
	if err != nil {
		p.logger.Error("chat generation failed", "err", err)
		return "", fmt.Errorf("chat generation failed: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", errors.New("chat backend returned no choices")
	}
	return strings.TrimSpace(response.Choices[0].Content), nil
}

func buildSystemPrompt(snippets []ContextSnippet) string {
	if len(snippets) == 0 {
		return "You are a helpful assistant integrated into a desktop application launcher. Answer the user's question concisely."
	}
	var b strings.Builder
	b.WriteString("You are a helpful assistant integrated into a desktop application launcher. ")
	b.WriteString("Answer the user's question using the following file context. Be concise.\n\n")
	b.WriteString("--- Context ---\n")
	for _, s := range snippets {
		// Indexed files may hold credentials; excerpts are scrubbed
		// before they reach the remote model.
		fmt.Fprintf(&b, "\n[%s]\n%s\n", s.Path, sanitize.Scrub(s.Preview))
	}
	b.WriteString("\n--- End Context ---\n")
	return b.String()
}
