// Package cache holds the Redis copy of the public aggregate document.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	SectionsKey   = "portfolio:sections"
	GenerationKey = SectionsKey + ":gen"
)

// Sections caches the serialized aggregate document. Each copy is stored
// under the generation it was built in; Invalidate bumps the generation, so a
// copy built from rows read before a mutation can never become current.
type Sections struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSections(client *redis.Client, ttl time.Duration) *Sections {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Sections{client: client, ttl: ttl}
}

// Get returns the current generation and, when present, its cached document.
// The generation is valid even on a miss and is what Set expects back.
func (c *Sections) Get(ctx context.Context) ([]byte, int64, bool, error) {
	gen, err := c.client.Get(ctx, GenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		gen, err = 0, nil
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("read sections generation: %w", err)
	}

	payload, err := c.client.Get(ctx, EntryKey(gen)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, gen, false, fmt.Errorf("read sections cache: %w", err)
	}
	return payload, gen, true, nil
}

// Set stores payload for generation gen. A payload for a generation that has
// since been invalidated lands on a key nobody reads and expires with the TTL.
func (c *Sections) Set(ctx context.Context, gen int64, payload []byte) error {
	if err := c.client.Set(ctx, EntryKey(gen), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("write sections cache: %w", err)
	}
	return nil
}

func (c *Sections) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, GenerationKey).Err(); err != nil {
		return fmt.Errorf("invalidate sections cache: %w", err)
	}
	return nil
}

func EntryKey(gen int64) string {
	return SectionsKey + ":" + strconv.FormatInt(gen, 10)
}
