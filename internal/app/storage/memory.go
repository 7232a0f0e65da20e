package storage

import "sync"

// Memory is an in-process Store. It is the fallback when durable storage is
// unavailable and the fake used by tests.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// Get implements Store.
func (m *Memory) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	return v, ok
}

// Set implements Store.
func (m *Memory) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
}

// Remove implements Store.
func (m *Memory) Remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.values)
}

// snapshot returns a copy of all values.
func (m *Memory) snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}
