package narrative

import (
	"context"
	"sync"
)

// MockNarrator is a mock implementation of Narrator for testing.
type MockNarrator struct {
	NarrateFn func(ctx context.Context, facts Facts) (string, error)
	Calls     []Facts
	mu        sync.Mutex
}

// Narrate implements Narrator.
func (m *MockNarrator) Narrate(ctx context.Context, facts Facts) (string, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, facts)
	m.mu.Unlock()

	if m.NarrateFn != nil {
		return m.NarrateFn(ctx, facts)
	}
	return "narrated " + string(facts.Kind), nil
}

var _ Narrator = (*MockNarrator)(nil)
