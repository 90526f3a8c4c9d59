// Copyright (c) 2026 Miru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "time"

// # Authentication Constraints

const (
	// MinCredentialLength is the exclusive lower bound for username and
	// password length: both must be strictly longer than this.
	MinCredentialLength = 2

	// SessionTokenLength is the byte length of the random session token.
	SessionTokenLength = 32

	// SessionTTL is the duration a session binding remains valid.
	// Long-lived (30 days) to provide a good user experience.
	SessionTTL = 30 * 24 * time.Hour

	// OperationTimeout bounds a single auth operation end to end. Hashing is
	// deliberately slow (memory-hard), so this must comfortably exceed one
	// argon2id derivation plus two store round trips.
	OperationTimeout = 10 * time.Second
)
