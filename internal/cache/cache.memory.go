package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// MemoryStore keeps entries in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates a MemoryStore. A ttl of zero keeps entries until invalidated.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string, dst any) error {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return ErrMiss
	}
	if !entry.expires.IsZero() && !s.now().Before(entry.expires) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return ErrMiss
	}
	if err := decode(entry.data, dst); err != nil {
		return fmt.Errorf("decoding cache entry %s: %w", key, err)
	}
	return nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value any) error {
	data, err := encode(value)
	if err != nil {
		return fmt.Errorf("encoding cache entry %s: %w", key, err)
	}
	entry := memoryEntry{data: data}
	if s.ttl > 0 {
		entry.expires = s.now().Add(s.ttl)
	}
	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) DeletePrefix(ctx context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
		}
	}
	return nil
}
