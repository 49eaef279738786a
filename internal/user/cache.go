package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const profileCacheTTL = 5 * time.Minute

// ErrCacheMiss is returned when no cached profile exists for the id.
var ErrCacheMiss = errors.New("user not in cache")

// Cache is a Redis-backed read-through cache for profile lookups by id.
// Profiles are immutable after registration, so a short TTL entry can
// never serve stale data.
type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Get returns the cached profile for id, or ErrCacheMiss.
func (c *Cache) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	data, err := c.client.Get(ctx, profileKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached user: %w", err)
	}

	var cached User
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("failed to decode cached user: %w", err)
	}

	return &cached, nil
}

// Set stores the profile under its id with a TTL.
func (c *Cache) Set(ctx context.Context, u *User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to encode user for cache: %w", err)
	}

	if err := c.client.Set(ctx, profileKey(u.ID), data, profileCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache user: %w", err)
	}

	return nil
}

// profileKey generates the Redis key for a user profile
func profileKey(id uuid.UUID) string {
	return fmt.Sprintf("user_profile:%s", id)
}
