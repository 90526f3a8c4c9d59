// Copyright (c) 2026 Miru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"

	"github.com/taibuivan/miru/internal/platform/apperr"
)

// # Store Sentinels
//
// Stores classify their own failures into these typed values so the service
// layer never inspects driver-specific codes or matches on error strings.

var (
	// ErrUserNotFound is returned when no user matches the queried id/username.
	ErrUserNotFound = apperr.NotFound("User")

	// ErrUsernameTaken is returned by [UserStore.Create] when the username
	// uniqueness constraint is violated. The store detects this atomically,
	// so concurrent registrations for the same username yield exactly one
	// created row and one ErrUsernameTaken.
	ErrUsernameTaken = apperr.Conflict("user already exists")

	// ErrSessionNotFound is returned when a session token has no live binding.
	ErrSessionNotFound = apperr.NotFound("Session")
)

// # User Data Access

// UserStore defines the data access contract for user accounts.
type UserStore interface {

	/*
		Create persists a brand-new user account to the storage.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: [ErrUsernameTaken] on a username collision, or any other
		    persistence failure
	*/
	Create(context context.Context, user *User) error

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity
		  - error: [ErrUserNotFound] or database retrieval failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByUsername returns the account with the given username.

		Parameters:
		  - context: context.Context
		  - username: string

		Returns:
		  - *User: Hydrated entity
		  - error: [ErrUserNotFound] or database retrieval failures
	*/
	FindByUsername(context context.Context, username string) (*User, error)
}

// # Session Data Access

// SessionStore defines the contract for the volatile token -> userID mapping.
//
// Token generation and transport belong to the caller; this store only binds,
// resolves, and releases opaque tokens.
type SessionStore interface {

	/*
		Bind associates a session token with a userID for a limited duration.

		Binding an already-bound token overwrites the previous association
		(upsert semantics, no cross-request coordination required).

		Parameters:
		  - context: context.Context
		  - token: string
		  - userID: string
		  - ttl: time.Duration

		Returns:
		  - error: Persistence failures
	*/
	Bind(context context.Context, token string, userID string, ttl time.Duration) error

	/*
		Lookup resolves the userID bound to a session token.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - string: UserID
		  - error: [ErrSessionNotFound] if the token is absent or expired
	*/
	Lookup(context context.Context, token string) (string, error)

	/*
		Delete removes a session binding. Deleting an absent token is a no-op.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - error: Persistence failures
	*/
	Delete(context context.Context, token string) error
}

// # Cryptographic Contracts

// CredentialHasher defines the one-way password hashing contract.
//
// Hash output embeds a random salt, so equal inputs produce different hashes;
// hashes must only be compared through Verify.
type CredentialHasher interface {
	// Hash derives an opaque, salted hash of the plaintext password.
	Hash(plainTextPassword string) (string, error)

	// Verify reports whether the plaintext matches the stored hash.
	// A malformed stored hash yields an error, never a silent mismatch.
	Verify(plainTextPassword, encodedHash string) (bool, error)
}
