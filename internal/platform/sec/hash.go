// Copyright (c) 2026 Miru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package sec provides the cryptographic primitives for the Miru identity core.

It isolates security-sensitive code (password hashing, token generation) from
the domain logic. Implementations are injected into the application layer via
domain-defined interfaces (e.g. the auth package's CredentialHasher).

Algorithm:

  - Hashing: argon2id, the memory-hard OWASP-recommended KDF for passwords.
  - Encoding: PHC string format, so the parameters travel with each hash and
    can be tuned without invalidating existing credentials.
*/
package sec

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// OWASP-recommended argon2id parameters.
const (
	argon2Time    = 1         // iterations
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4         // parallelism
	argon2SaltLen = 16        // salt length in bytes
	argon2KeyLen  = 32        // output length in bytes
)

// ErrMalformedHash is returned by [Argon2Hasher.Verify] when the stored hash
// cannot be parsed. Callers must treat this as a corrupt credential, never as
// an ordinary password mismatch.
var ErrMalformedHash = errors.New("sec: malformed password hash")

// Argon2Hasher hashes and verifies passwords using argon2id.
//
// # Determinism
//
// Each call to [Argon2Hasher.Hash] draws a fresh random salt, so hashing the
// same password twice yields different strings. Hashes must only ever be
// compared through [Argon2Hasher.Verify].
type Argon2Hasher struct{}

// NewArgon2Hasher constructs a new [Argon2Hasher].
func NewArgon2Hasher() *Argon2Hasher {
	return &Argon2Hasher{}
}

/*
Hash derives an argon2id hash of the plaintext password.

Parameters:
  - plainTextPassword: string

Returns:
  - string: PHC-encoded hash ($argon2id$v=19$m=...,t=...,p=...$salt$hash)
  - error: Entropy failures only
*/
func (hasher *Argon2Hasher) Hash(plainTextPassword string) (string, error) {

	// Draw a fresh random salt for every hash
	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("sec: failed to generate salt: %w", err)
	}

	// Derive the key with the configured cost parameters
	key := argon2.IDKey([]byte(plainTextPassword), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	// Encode as a PHC string so parameters are self-describing
	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)

	return encoded, nil
}

/*
Verify reports whether the plaintext password matches the stored hash.

Description: Re-derives the key using the parameters embedded in the hash
and compares in constant time.

Parameters:
  - plainTextPassword: string
  - encodedHash: string (PHC format)

Returns:
  - bool: true iff the password matches
  - error: [ErrMalformedHash] when the stored hash cannot be parsed
*/
func (hasher *Argon2Hasher) Verify(plainTextPassword, encodedHash string) (bool, error) {

	// A PHC argon2id string has exactly six $-separated segments
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, ErrMalformedHash
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, ErrMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, ErrMalformedHash
	}

	expectedKey, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, ErrMalformedHash
	}

	// Guard the narrowing conversions below against hostile parameter values
	if threads == 0 || threads > 255 || len(expectedKey) == 0 || len(expectedKey) > 1<<10 {
		return false, ErrMalformedHash
	}

	// Re-derive with the parameters embedded in the stored hash
	computedKey := argon2.IDKey([]byte(plainTextPassword), salt, time, memory, uint8(threads), uint32(len(expectedKey)))

	// Constant-time comparison to avoid leaking match prefixes
	return subtle.ConstantTimeCompare(computedKey, expectedKey) == 1, nil
}
