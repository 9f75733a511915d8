package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// Mock is a scriptable Client for tests. Call counters let tests assert
// which capabilities were (or were not) invoked.
type Mock struct {
	mu sync.Mutex

	CompleteFn     func(system, user string) (string, error)
	ClassifyJSONFn func(system, user string) (string, error)
	EmbedFn        func(texts []string) ([][]float32, error)

	CompleteCalls int
	ClassifyCalls int
	EmbedCalls    int

	// LastClassifySystem records the rubric of the most recent
	// classification call, for ordering assertions.
	LastClassifySystem string
}

func (m *Mock) Complete(_ context.Context, system, user string) (string, error) {
	m.mu.Lock()
	m.CompleteCalls++
	m.mu.Unlock()
	if m.CompleteFn != nil {
		return m.CompleteFn(system, user)
	}
	return "", nil
}

func (m *Mock) ClassifyJSON(_ context.Context, system, user string, out any) error {
	m.mu.Lock()
	m.ClassifyCalls++
	m.LastClassifySystem = system
	m.mu.Unlock()
	if m.ClassifyJSONFn == nil {
		return nil
	}
	raw, err := m.ClassifyJSONFn(system, user)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), out)
}

func (m *Mock) Embed(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.EmbedCalls++
	m.mu.Unlock()
	if m.EmbedFn != nil {
		return m.EmbedFn(texts)
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, 0, 0}
	}
	return vectors, nil
}
