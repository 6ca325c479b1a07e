package storage

import "sync"

// MemStore is an in-memory Store. It backs tests and any session that should
// not touch disk, and supports the same quota semantics as FileStore.
type MemStore struct {
	quota   int64
	records map[string]string

	mu sync.RWMutex
}

func NewMemStore() *MemStore {
	return &MemStore{
		records: map[string]string{},
	}
}

// SetQuota caps the total bytes of stored values. Zero means unlimited.
func (s *MemStore) SetQuota(bytes int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.quota = bytes
}

func (s *MemStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.records[key]
	return val, ok
}

func (s *MemStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.quota > 0 {
		used := int64(0)
		for k, v := range s.records {
			if k == key {
				continue
			}
			used += int64(len(v))
		}
		if used+int64(len(value)) > s.quota {
			return ErrQuotaExceeded
		}
	}

	s.records[key] = value
	return nil
}

func (s *MemStore) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)
}

// Len returns the number of stored keys.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}
