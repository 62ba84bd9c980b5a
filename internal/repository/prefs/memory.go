package prefs

import (
	"context"
	"sync"
)

// Memory is a process-local preference store.
type Memory struct {
	mu     sync.RWMutex
	fields map[string]bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{fields: make(map[string]bool)}
}

// Visible returns the stored visibility of field, or def.
func (m *Memory) Visible(_ context.Context, field string, def bool) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.fields[field]; ok {
		return v
	}
	return def
}

// SetVisible stores the visibility of field.
func (m *Memory) SetVisible(_ context.Context, field string, visible bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fields[field] = visible
	return nil
}
