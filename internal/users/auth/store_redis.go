// Copyright (c) 2026 Miru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/miru/internal/platform/constants"
)

// RedisSessionStore implements SessionStore using Redis.
//
// Each binding is a plain string key ("auth:session:<token>" -> userID) with
// a TTL, so expiry is enforced by Redis itself and SET gives the upsert
// semantics session issuance requires.
type RedisSessionStore struct {
	client *redis.Client
}

// NewSessionStore creates a new Redis-backed SessionStore.
func NewSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

/*
Bind associates a session token with a userID for the given TTL.

Description: SET semantics — re-binding an existing token overwrites the
previous userID and refreshes the TTL.

Parameters:
  - context: context.Context
  - token: string
  - userID: string
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (store *RedisSessionStore) Bind(context context.Context, token string, userID string, ttl time.Duration) error {

	// Use constants for key prefix
	key := fmt.Sprintf("%s%s", constants.RedisPrefixSession, token)

	// Set the binding with TTL
	if err := store.client.Set(context, key, userID, ttl).Err(); err != nil {
		return fmt.Errorf("redis_session_bind_failed: %w", err)
	}

	// Return nil on success
	return nil
}

/*
Lookup resolves the userID bound to a session token.

Description: Returns [ErrSessionNotFound] if the token is absent or expired.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - string: Bound UserID
  - error: [ErrSessionNotFound] or connectivity errors
*/
func (store *RedisSessionStore) Lookup(context context.Context, token string) (string, error) {

	// Use constants for key prefix
	key := fmt.Sprintf("%s%s", constants.RedisPrefixSession, token)

	// Get the binding from Redis
	userID, err := store.client.Get(context, key).Result()

	// Handle errors
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrSessionNotFound
		}
		return "", fmt.Errorf("redis_session_lookup_failed: %w", err)
	}

	// Return the userID
	return userID, nil
}

/*
Delete removes the session binding from Redis.

Description: Deleting a token that is already gone is a successful no-op,
which keeps logout idempotent.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - error: Deletion failures
*/
func (store *RedisSessionStore) Delete(context context.Context, token string) error {

	// Use constants for key prefix
	key := fmt.Sprintf("%s%s", constants.RedisPrefixSession, token)

	// Delete the binding from Redis
	if err := store.client.Del(context, key).Err(); err != nil {
		return fmt.Errorf("redis_session_delete_failed: %w", err)
	}

	// Return nil on success
	return nil
}
