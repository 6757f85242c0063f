// Copyright (c) 2026 PixShare. All rights reserved.
// Author: pixshare.dev@gmail.com

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pixshare/pixshare/internal/platform/apperr"
	"github.com/pixshare/pixshare/internal/platform/constants"
)

// RedisUserCache implements [UserCache] with JSON-serialized principal
// projections keyed by email.
type RedisUserCache struct {
	client *redis.Client
}

// NewUserCache creates a new Redis-backed [UserCache].
func NewUserCache(client *redis.Client) *RedisUserCache {
	return &RedisUserCache{client: client}
}

func cacheKey(email string) string {
	return constants.RedisPrefixUser + email
}

/*
Get retrieves the cached principal projection for an email.

Description: Returns apperr.NotFound on a miss or expired entry. A corrupt
payload is treated as a miss after deleting the bad key, never as an error
that would block authentication.

Parameters:
  - ctx: context.Context
  - email: string

Returns:
  - *User: Cached projection
  - error: apperr.NotFound or connectivity errors
*/
func (cache *RedisUserCache) Get(ctx context.Context, email string) (*User, error) {
	payload, err := cache.client.Get(ctx, cacheKey(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperr.NotFound("Cached user")
		}
		return nil, fmt.Errorf("redis_user_cache_get_failed: %w", err)
	}

	cached := cachedUser{}
	if err := json.Unmarshal(payload, &cached); err != nil {
		// Self-heal: drop the unreadable entry and report a miss.
		_ = cache.client.Del(ctx, cacheKey(email)).Err()
		return nil, apperr.NotFound("Cached user")
	}

	return cached.toUser(), nil
}

/*
Set stores the principal projection with a bounded lifetime.

Parameters:
  - ctx: context.Context
  - user: *User
  - ttl: time.Duration

Returns:
  - error: Serialization or execution errors
*/
func (cache *RedisUserCache) Set(ctx context.Context, user *User, ttl time.Duration) error {
	payload, err := json.Marshal(cacheUser(user))
	if err != nil {
		return fmt.Errorf("redis_user_cache_marshal_failed: %w", err)
	}

	if err := cache.client.Set(ctx, cacheKey(user.Email), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis_user_cache_set_failed: %w", err)
	}

	return nil
}

/*
Invalidate drops the cached projection for the email, if any.

Parameters:
  - ctx: context.Context
  - email: string

Returns:
  - error: Deletion failures
*/
func (cache *RedisUserCache) Invalidate(ctx context.Context, email string) error {
	if err := cache.client.Del(ctx, cacheKey(email)).Err(); err != nil {
		return fmt.Errorf("redis_user_cache_invalidate_failed: %w", err)
	}

	return nil
}

// cachedUser is the wire shape of the cached projection. Unlike the public
// JSON view of [User], the cache must round-trip the fields the entity hides
// from clients, because [Service.PrincipalFromToken] serves cache hits as
// full principals.
type cachedUser struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	AvatarURL    string    `json:"avatar_url"`
	Role         Role      `json:"role"`
	Confirmed    bool      `json:"confirmed"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

func (cached cachedUser) toUser() *User {
	return &User{
		ID:           cached.ID,
		Username:     cached.Username,
		Email:        cached.Email,
		PasswordHash: cached.PasswordHash,
		AvatarURL:    cached.AvatarURL,
		Role:         cached.Role,
		Confirmed:    cached.Confirmed,
		Active:       cached.Active,
		CreatedAt:    cached.CreatedAt,
	}
}

func cacheUser(user *User) cachedUser {
	return cachedUser{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		AvatarURL:    user.AvatarURL,
		Role:         user.Role,
		Confirmed:    user.Confirmed,
		Active:       user.Active,
		CreatedAt:    user.CreatedAt,
	}
}
