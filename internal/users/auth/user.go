// Copyright (c) 2026 Miru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the user identity and session management layer.

It defines the core domain entities (User, Session, Credentials) and the logic
for registration, authentication, and session resolution.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no external
dependencies and encapsulate all business rules related to user identity.
*/
package auth

import "time"

// # Domain Entities

// User represents a registered member of the Miru platform.
//
// A User row never exists without a non-empty PasswordHash, and is never
// mutated or deleted by this package after creation.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Explicitly omitted from JSON for security.
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Credentials is the transient registration/login input.
//
// The plaintext Password is held only for the duration of a single hash or
// verify call and is never persisted or logged.
type Credentials struct {
	Username string
	Password string
}

// Session represents an established opaque-token session.
//
// The token itself is unguessable random material; the only way to resolve
// it is through the [SessionStore].
type Session struct {
	Token     string    `json:"-"` // Never serialized. Transported via cookie only.
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldUsername = "username"
	FieldPassword = "password"
)
