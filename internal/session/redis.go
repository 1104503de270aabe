package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces session keys so the store can share a Redis database
// with other services.
const keyPrefix = "railvoice:session:"

// RedisStore is a Store backed by Redis, for deployments where webhook turns
// for the same call may land on different instances. Contexts are stored as
// JSON. If ttl is non-zero, each Put refreshes the key's expiry; a zero ttl
// keeps contexts until explicitly removed, matching the in-memory store.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store. The client must already be
// configured; ownership stays with the caller.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func key(callID string) string {
	return keyPrefix + callID
}

// Get returns the context for callID, or the zero Context if none exists.
func (s *RedisStore) Get(ctx context.Context, callID string) (Context, error) {
	b, err := s.client.Get(ctx, key(callID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Context{}, nil
	}
	if err != nil {
		return Context{}, fmt.Errorf("getting session %s: %w", callID, err)
	}
	var c Context
	if err := json.Unmarshal(b, &c); err != nil {
		return Context{}, fmt.Errorf("decoding session %s: %w", callID, err)
	}
	return c, nil
}

// Put stores the context for callID, replacing any existing record.
func (s *RedisStore) Put(ctx context.Context, callID string, c Context) error {
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", callID, err)
	}
	if err := s.client.Set(ctx, key(callID), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("putting session %s: %w", callID, err)
	}
	return nil
}

// Remove deletes the context for callID. Removing an absent record is a no-op.
func (s *RedisStore) Remove(ctx context.Context, callID string) error {
	if err := s.client.Del(ctx, key(callID)).Err(); err != nil {
		return fmt.Errorf("removing session %s: %w", callID, err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
