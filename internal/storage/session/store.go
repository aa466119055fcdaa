// Package session persists short-lived interactive state in Redis.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned when a session id has no live record.
var ErrSessionNotFound = errors.New("session: not found")

// Config configures a Store.
type Config struct {
	Client redis.UniversalClient
	// Prefix namespaces keys, e.g. "lootable:draft:".
	Prefix string
	// TTL bounds how long an untouched session survives. Zero disables
	// expiry.
	TTL time.Duration
}

// Validate checks cfg.
func (cfg *Config) Validate() error {
	if cfg == nil {
		return errors.New("session: config cannot be nil")
	}
	if cfg.Client == nil {
		return errors.New("session: client cannot be nil")
	}
	if cfg.Prefix == "" {
		return errors.New("session: prefix cannot be empty")
	}
	if cfg.TTL < 0 {
		return fmt.Errorf("session: ttl must be >= 0, got %s", cfg.TTL)
	}
	return nil
}

// Store saves JSON-encoded values of type T under a key prefix. Every save
// refreshes the TTL.
type Store[T any] struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewStore builds a Store from cfg.
func NewStore[T any](cfg *Config) (*Store[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Store[T]{client: cfg.Client, prefix: cfg.Prefix, ttl: cfg.TTL}, nil
}

func (s *Store[T]) key(id string) string { return s.prefix + id }

// Save writes v under id.
func (s *Store[T]) Save(ctx context.Context, id string, v *T) error {
	if id == "" {
		return errors.New("session: id cannot be empty")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("session: marshal %q: %w", id, err)
	}
	if err := s.client.Set(ctx, s.key(id), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: save %q: %w", id, err)
	}
	return nil
}

// Load reads the value under id.
//
// Postcondition: returns ErrSessionNotFound when the key is absent or
// expired.
func (s *Store[T]) Load(ctx context.Context, id string) (*T, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
		}
		return nil, fmt.Errorf("session: load %q: %w", id, err)
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("session: unmarshal %q: %w", id, err)
	}
	return &v, nil
}

// Delete removes id. Deleting a missing id is not an error.
func (s *Store[T]) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("session: delete %q: %w", id, err)
	}
	return nil
}
