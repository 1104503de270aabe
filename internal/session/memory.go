package session

import (
	"context"
	"hash/fnv"
	"sync"
)

// shardCount must be a power of two so the hash can be masked.
const shardCount = 32

type shard struct {
	mu sync.RWMutex
	m  map[string]Context
}

// MemoryStore is an in-process Store sharded by call identifier, so
// simultaneous calls do not contend on a single lock.
type MemoryStore struct {
	shards [shardCount]*shard
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	for i := range s.shards {
		s.shards[i] = &shard{m: make(map[string]Context)}
	}
	return s
}

func (s *MemoryStore) shardFor(callID string) *shard {
	h := fnv.New32a()
	h.Write([]byte(callID)) //nolint:errcheck
	return s.shards[h.Sum32()&(shardCount-1)]
}

// Get returns the context for callID, or the zero Context if none exists.
func (s *MemoryStore) Get(_ context.Context, callID string) (Context, error) {
	sh := s.shardFor(callID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return sh.m[callID], nil
}

// Put stores the context for callID, replacing any existing record.
func (s *MemoryStore) Put(_ context.Context, callID string, c Context) error {
	sh := s.shardFor(callID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.m[callID] = c
	return nil
}

// Remove deletes the context for callID. Removing an absent record is a no-op.
func (s *MemoryStore) Remove(_ context.Context, callID string) error {
	sh := s.shardFor(callID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	delete(sh.m, callID)
	return nil
}

// ActiveSessions returns the number of stored contexts, for metrics.
func (s *MemoryStore) ActiveSessions() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.m)
		sh.mu.RUnlock()
	}
	return n
}

var _ Store = (*MemoryStore)(nil)
