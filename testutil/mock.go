// Package testutil provides test helpers for reservy tools and registries.
package testutil

import (
	"context"
	"sync"

	"github.com/skosovsky/reservy"
)

// MockTool is a configurable Tool that records the arguments of every call.
type MockTool struct {
	NameVal   string
	DescVal   string
	ParamsVal map[string]any
	ExecuteFn func(ctx context.Context, args []byte) ([]byte, error)

	mu    sync.Mutex
	calls [][]byte
}

func (m *MockTool) Name() string {
	if m.NameVal != "" {
		return m.NameVal
	}
	return "mock"
}

func (m *MockTool) Description() string { return m.DescVal }

func (m *MockTool) Parameters() map[string]any {
	if m.ParamsVal != nil {
		return m.ParamsVal
	}
	return map[string]any{"type": "object"}
}

// Execute records args and runs ExecuteFn; without ExecuteFn it returns {}.
func (m *MockTool) Execute(ctx context.Context, args []byte) ([]byte, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]byte(nil), args...))
	m.mu.Unlock()
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, args)
	}
	return []byte(`{}`), nil
}

// Calls returns the raw arguments of every Execute call so far.
func (m *MockTool) Calls() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.calls...)
}

var _ reservy.Tool = (*MockTool)(nil)
