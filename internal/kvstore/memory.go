package kvstore

import "sync"

// Memory – хранилище в памяти процесса. Лимит в байтах (0 – без лимита)
// позволяет воспроизвести переполнение квоты браузерного хранилища.
type Memory struct {
	mu    sync.RWMutex
	data  map[string]string
	limit int
	used  int
}

// NewMemory создаёт пустое хранилище с лимитом limit байт
func NewMemory(limit int) *Memory {
	return &Memory{
		data:  make(map[string]string),
		limit: limit,
	}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	used := m.used + entrySize(key, value)
	if old, ok := m.data[key]; ok {
		used -= entrySize(key, old)
	}
	if m.limit > 0 && used > m.limit {
		return ErrQuotaExceeded
	}

	m.data[key] = value
	m.used = used
	return nil
}

func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok := m.data[key]; ok {
		m.used -= entrySize(key, v)
		delete(m.data, key)
	}
	return nil
}

// Len возвращает количество ключей
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.data)
}

func entrySize(key, value string) int {
	return len(key) + len(value)
}
