package embed

import (
	"context"
	"sync"
)

// Mock is an in-memory Embedder for tests. Texts map to fixed vectors;
// unknown texts fall back to Default, and a non-nil Err fails every call.
type Mock struct {
	mu      sync.Mutex
	Vectors map[string][]float32
	Default []float32
	Err     error
	Calls   []string
}

// NewMock returns a Mock with an empty vector table.
func NewMock() *Mock {
	return &Mock{Vectors: make(map[string][]float32)}
}

func (m *Mock) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vecs, err := m.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (m *Mock) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		m.Calls = append(m.Calls, t)
		if v, ok := m.Vectors[t]; ok {
			out[i] = v
		} else {
			out[i] = m.Default
		}
	}
	return out, nil
}

func (m *Mock) Model() string {
	return "mock-embed"
}
