package session

import (
	"context"
	"sync"
	"time"

	"tourchat/internal/common/metrics"
	"tourchat/internal/models"
)

type memoryEntry struct {
	conv      *models.Conversation
	expiresAt time.Time
}

// MemoryStore is the default single-process backend. A background sweeper
// evicts expired conversations so the gauge stays honest.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	ttl     time.Duration

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	stopSweep chan struct{}
	sweepOnce sync.Once
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries:   make(map[string]*memoryEntry),
		ttl:       ttl,
		locks:     make(map[string]*sync.Mutex),
		stopSweep: make(chan struct{}),
	}
	go s.sweep()
	return s
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*models.Conversation, error) {
	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return nil, ErrNotFound
	}
	return entry.conv, nil
}

func (s *MemoryStore) Save(ctx context.Context, conv *models.Conversation) error {
	s.mu.Lock()
	_, existed := s.entries[conv.ID]
	s.entries[conv.ID] = &memoryEntry{
		conv:      conv,
		expiresAt: time.Now().Add(s.ttl),
	}
	s.mu.Unlock()

	if !existed {
		metrics.ActiveConversations.Inc()
	}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	_, existed := s.entries[id]
	delete(s.entries, id)
	s.mu.Unlock()

	if existed {
		metrics.ActiveConversations.Dec()
	}
	return nil
}

func (s *MemoryStore) Lock(id string) func() {
	s.locksMu.Lock()
	m, ok := s.locks[id]
	if !ok {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	s.locksMu.Unlock()

	m.Lock()
	return m.Unlock
}

func (s *MemoryStore) Close() error {
	s.sweepOnce.Do(func() { close(s.stopSweep) })
	return nil
}

func (s *MemoryStore) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopSweep:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for id, entry := range s.entries {
				if now.After(entry.expiresAt) {
					delete(s.entries, id)
					metrics.ActiveConversations.Dec()
				}
			}
			s.mu.Unlock()
		}
	}
}
