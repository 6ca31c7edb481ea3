// Package embed generates vector embeddings for text via an
// OpenAI-compatible endpoint and provides the similarity math used to
// rank them.
package embed

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder produces vector embeddings for text.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)
	// EmbedTexts generates vector embeddings for multiple texts in a batch.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	// Model reports the model name embeddings are generated with.
	Model() string
}

// Client implements Embedder against an OpenAI-compatible embeddings API,
// which covers both hosted endpoints and a local Ollama instance.
type Client struct {
	embedder embeddings.Embedder
	model    string
	timeout  time.Duration
	logger   *slog.Logger
}

// NewClient creates an embedding client for the given endpoint and model.
// The token "none" satisfies local services that skip authentication.
func NewClient(baseURL, model string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("embedding base URL is required")
	}
	if model == "" {
		return nil, errors.New("embedding model is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	llm, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(llm, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Client{
		embedder: embedder,
		model:    model,
		timeout:  timeout,
		logger:   logger.With("component", "embedder"),
	}, nil
}

// EmbedText generates a vector embedding for a single text string.
func (c *Client) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		c.logger.Warn("embedder returned empty result")
		return nil, errors.New("embedding backend returned no vectors")
	}
	return vecs[0], nil
}

// EmbedTexts generates vector embeddings for multiple texts in a batch.
func (c *Client) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	c.logger.Debug("generating embeddings", "count", len(texts))
	vecs, err := c.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		c.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}
	return vecs, nil
}

// Model reports the configured embedding model name.
func (c *Client) Model() string {
	return c.model
}

// CosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched lengths or a zero-magnitude vector yield 0 rather than an
// error, so a degenerate candidate simply ranks below the score floor.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
