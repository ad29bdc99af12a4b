package kv

import (
	"context"
	"sync"
)

// Memory is an in-process Store. Watchers are called synchronously on the
// writing goroutine after the write is visible.
type Memory struct {
	mu       sync.Mutex
	records  map[string][]byte
	watchers map[string]map[int]WatchFunc
	nextID   int
}

func NewMemory() *Memory {
	return &Memory{
		records:  map[string][]byte{},
		watchers: map[string]map[int]WatchFunc{},
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.records[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	m.records[key] = append([]byte(nil), value...)
	watchers := m.watchersLocked(key)
	m.mu.Unlock()

	for _, fn := range watchers {
		fn(append([]byte(nil), value...), true, nil)
	}
	return nil
}

// Delete removes a record and notifies watchers that it no longer exists.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.records, key)
	watchers := m.watchersLocked(key)
	m.mu.Unlock()

	for _, fn := range watchers {
		fn(nil, false, nil)
	}
	return nil
}

func (m *Memory) Watch(_ context.Context, key string, fn WatchFunc) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	if m.watchers[key] == nil {
		m.watchers[key] = map[int]WatchFunc{}
	}
	m.watchers[key][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.watchers[key], id)
			if len(m.watchers[key]) == 0 {
				delete(m.watchers, key)
			}
		})
	}, nil
}

func (m *Memory) watchersLocked(key string) []WatchFunc {
	out := make([]WatchFunc, 0, len(m.watchers[key]))
	for _, fn := range m.watchers[key] {
		out = append(out, fn)
	}
	return out
}
