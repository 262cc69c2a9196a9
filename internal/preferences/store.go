// Package preferences persists small per-user settings behind an opaque
// key/value interface.
package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/studio-pulse/internal/analysis"
)

// KeyTimelineRange stores the chosen timeline window as a JSON [start, end] pair.
const KeyTimelineRange = "timelineRange"

// Store is a get/set persisted preference interface.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// RedisStore keeps preferences for one owner in Redis.
type RedisStore struct {
	redis *redis.Client
	owner string
}

// NewRedisStore creates a store scoped to owner.
func NewRedisStore(client *redis.Client, owner string) *RedisStore {
	if client == nil {
		panic("preferences: redis client required")
	}
	return &RedisStore{redis: client, owner: owner}
}

func (s *RedisStore) key(k string) string {
	return fmt.Sprintf("prefs:%s:%s", s.owner, k)
}

// Get returns the stored value and whether it exists.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.redis.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("preferences: get %s: %w", key, err)
	}
	return v, true, nil
}

// Set stores value under key without expiry.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.redis.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("preferences: set %s: %w", key, err)
	}
	return nil
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set implements Store.
func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// LoadWindow reads the persisted timeline window. It returns ok=false when
// nothing is stored or the stored pair is not a valid window.
func LoadWindow(ctx context.Context, s Store) (analysis.Window, bool, error) {
	raw, found, err := s.Get(ctx, KeyTimelineRange)
	if err != nil || !found {
		return analysis.Window{}, false, err
	}
	var pair [2]int
	if err := json.Unmarshal([]byte(raw), &pair); err != nil {
		return analysis.Window{}, false, nil
	}
	w := analysis.Window{StartHour: pair[0], EndHour: pair[1]}
	if w.Validate() != nil {
		return analysis.Window{}, false, nil
	}
	return w, true, nil
}

// SaveWindow persists w as a JSON [start, end] pair.
func SaveWindow(ctx context.Context, s Store, w analysis.Window) error {
	if err := w.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal([2]int{w.StartHour, w.EndHour})
	if err != nil {
		return fmt.Errorf("preferences: marshal window: %w", err)
	}
	return s.Set(ctx, KeyTimelineRange, string(data))
}
