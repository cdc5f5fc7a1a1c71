package backend

import (
	"sync"

	"innerfs/internal/core"
)

// MemoryBackend is an in-memory Backend, safe for concurrent use. Used by
// tests; no storage_backend setting selects it.
type MemoryBackend struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{objects: make(map[string][]byte)}
}

func (m *MemoryBackend) Put(name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.objects[name] = cp
	return nil
}

func (m *MemoryBackend) Get(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[name]
	if !ok {
		return nil, core.NewError(core.KindNoEntry, "memory.get", name, nil)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (m *MemoryBackend) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, name)
	return nil
}

func (m *MemoryBackend) Exists(name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[name]
	return ok, nil
}

func (m *MemoryBackend) List() (core.NameIterator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.objects))
	for name := range m.objects {
		names = append(names, name)
	}
	return core.NewSliceNameIterator(names), nil
}

func (m *MemoryBackend) FreeBytes() (int64, bool) { return 0, false }
