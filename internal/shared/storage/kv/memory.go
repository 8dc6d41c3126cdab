package kv

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps collections in process memory. A positive quota caps the
// total bytes held across all keys.
type MemoryStore struct {
	mu     sync.RWMutex
	items  map[string][]byte
	quota  int64
	used   int64
	failOn func(key string) error
}

// NewMemoryStore creates an empty store. quota <= 0 disables the cap.
func NewMemoryStore(quota int64) *MemoryStore {
	return &MemoryStore{items: make(map[string][]byte), quota: quota}
}

// FailWith makes every subsequent Set consult fn first. Tests use it to
// simulate backend outages.
func (s *MemoryStore) FailWith(fn func(key string) error) {
	s.mu.Lock()
	s.failOn = fn
	s.mu.Unlock()
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.items[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, true, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn != nil {
		if err := s.failOn(key); err != nil {
			return err
		}
	}
	next := s.used - int64(len(s.items[key])) + int64(len(value))
	if s.quota > 0 && next > s.quota {
		return fmt.Errorf("set %s (%d bytes): %w", key, len(value), ErrQuotaExceeded)
	}
	buf := make([]byte, len(value))
	copy(buf, value)
	s.items[key] = buf
	s.used = next
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	_ = ctx
	return nil
}

// Used reports the bytes currently held.
func (s *MemoryStore) Used() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.used
}
