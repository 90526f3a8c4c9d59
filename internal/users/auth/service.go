// Copyright (c) 2026 Miru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the core identity system.

It handles user registration with secure password hashing, credential
authentication, and opaque-token session issuance (stored in Redis).

Architecture:

  - Service: Orchestrates business logic (Register, Login, Me, Logout).
  - Stores: Abstracted interfaces for Postgres (Users) and Redis (Sessions).
  - Security: Leverages argon2id hashing behind the CredentialHasher contract.

The package ensures that identity data remains consistent and secure throughout
the platform's lifecycle.
*/
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/miru/internal/platform/apperr"
	"github.com/taibuivan/miru/internal/platform/sec"
	"github.com/taibuivan/miru/pkg/uuid"
)

// # Service Definition

// Service implements user authentication use cases.
//
// All collaborators are injected explicitly — there is no ambient store or
// session lookup anywhere in this package.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, registration,
// or login logic must be reviewed by the security team.
type Service struct {
	userStore    UserStore
	sessionStore SessionStore
	hasher       CredentialHasher
	logger       *slog.Logger
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	userStore UserStore,
	sessionStore SessionStore,
	hasher CredentialHasher,
	logger *slog.Logger,
) *Service {
	return &Service{
		userStore:    userStore,
		sessionStore: sessionStore,
		hasher:       hasher,
		logger:       logger,
	}
}

// # Registration Flow

/*
Register validates, hashes, and persists a brand new user account.

Description: Validation failures and the username conflict come back as
field-level errors; every other failure (store down, hasher failure) is a
distinct INTERNAL_ERROR so callers can never mistake it for success.
Registration establishes no session — login is a separate call.

Parameters:
  - context: context.Context
  - credentials: Credentials

Returns:
  - *User: Created entity (never alongside field errors)
  - error: VALIDATION_ERROR, CONFLICT, or INTERNAL_ERROR
*/
func (service *Service) Register(context context.Context, credentials Credentials) (*User, error) {
	context, cancel := withOperationTimeout(context)
	defer cancel()

	// Field rules run before any hashing or store access.
	if err := ValidateCredentials(credentials); err != nil {
		return nil, err
	}

	// Prevent storing plain-text passwords. The plaintext is not retained
	// beyond this call.
	hashedPassword, err := service.hasher.Hash(credentials.Password)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth_service_hash_failed: %w", err))
	}

	// Construct the new User entity. Time-sortable ID to prevent PG index fragmentation.
	user := &User{
		ID:           uuid.New(),
		Username:     credentials.Username,
		PasswordHash: hashedPassword,
	}

	// Persist the user. The store enforces username uniqueness atomically,
	// so concurrent registrations for the same name yield exactly one row.
	if err := service.userStore.Create(context, user); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return nil, apperr.Conflict("user already exists").WithDetails(apperr.FieldError{
				Field:   FieldUsername,
				Message: "user already exists",
			})
		}
		return nil, apperr.Internal(fmt.Errorf("auth_service_register_failed: %w", err))
	}

	service.logger.Info("user_registered", slog.String("user_id", user.ID))

	return user, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Username string
	Password string

	// SessionToken is the caller's existing session token, if any. When set,
	// login re-binds that token to the authenticated user (overwrite); when
	// empty, a fresh token is generated.
	SessionToken string
}

/*
Login validates user credentials and establishes a session.

Description: Looks up the account, verifies the password in constant time,
and upserts the caller's session binding. The store and session are only
touched after both checks pass; a failed login mutates nothing.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *User: The authenticated user
  - *Session: The established session (token + expiry)
  - error: UNAUTHORIZED with field details, or INTERNAL_ERROR
*/
func (service *Service) Login(context context.Context, input LoginInput) (*User, *Session, error) {
	context, cancel := withOperationTimeout(context)
	defer cancel()

	// Look up by username. The distinct per-field messages mirror the
	// historical client contract; see DESIGN.md for the enumeration tradeoff.
	user, err := service.userStore.FindByUsername(context, input.Username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil, apperr.Unauthorized("Invalid login credentials").WithDetails(apperr.FieldError{
				Field:   FieldUsername,
				Message: "username doesn't exists",
			})
		}
		return nil, nil, apperr.Internal(fmt.Errorf("auth_service_login_lookup_failed: %w", err))
	}

	// Verify the password against the stored hash.
	matches, err := service.hasher.Verify(input.Password, user.PasswordHash)
	if err != nil {
		// A hash we cannot parse is corrupt stored data, not a wrong
		// password. Log it loudly — it means the row was tampered with or
		// written by an incompatible version.
		service.logger.Error("corrupt_password_hash",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
		return nil, nil, apperr.Internal(fmt.Errorf("auth_service_verify_failed: %w", err))
	}

	if !matches {
		return nil, nil, apperr.Unauthorized("Invalid login credentials").WithDetails(apperr.FieldError{
			Field:   FieldPassword,
			Message: "invalid password",
		})
	}

	// Reuse the caller's token when present so a re-login overwrites the
	// existing binding instead of leaking a stale one.
	token := input.SessionToken
	if token == "" {
		token, err = sec.GenerateSecureToken(SessionTokenLength)
		if err != nil {
			return nil, nil, apperr.Internal(fmt.Errorf("auth_service_token_failed: %w", err))
		}
	}

	expiresAt := time.Now().Add(SessionTTL)
	if err := service.sessionStore.Bind(context, token, user.ID, SessionTTL); err != nil {
		return nil, nil, apperr.Internal(fmt.Errorf("auth_service_session_bind_failed: %w", err))
	}

	service.logger.Info("user_logged_in", slog.String("user_id", user.ID))

	return user, &Session{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: expiresAt,
	}, nil
}

// # Session Projection

/*
Me resolves the caller's session to their user record.

Description: Read-only, side-effect-free projection of session state onto the
user store. Absence — no token, unknown token, or a stale binding whose user
is gone — is a nil result, not an error. Only infrastructure failures error.

Parameters:
  - context: context.Context
  - sessionToken: string

Returns:
  - *User: The bound user, or nil when the session resolves to nobody
  - error: INTERNAL_ERROR only
*/
func (service *Service) Me(context context.Context, sessionToken string) (*User, error) {
	context, cancel := withOperationTimeout(context)
	defer cancel()

	// Anonymous caller
	if sessionToken == "" {
		return nil, nil
	}

	userID, err := service.sessionStore.Lookup(context, sessionToken)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, nil
		}
		return nil, apperr.Internal(fmt.Errorf("auth_service_me_lookup_failed: %w", err))
	}

	user, err := service.userStore.FindByID(context, userID)
	if err != nil {
		// Stale session: the binding outlived the user record.
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil
		}
		return nil, apperr.Internal(fmt.Errorf("auth_service_me_resolve_failed: %w", err))
	}

	return user, nil
}

/*
Logout releases the caller's session binding.

Description: Idempotent — logging out an anonymous or already-expired session
is a successful no-op.

Parameters:
  - context: context.Context
  - sessionToken: string

Returns:
  - error: INTERNAL_ERROR on store failures
*/
func (service *Service) Logout(context context.Context, sessionToken string) error {
	context, cancel := withOperationTimeout(context)
	defer cancel()

	if sessionToken == "" {
		return nil
	}

	if err := service.sessionStore.Delete(context, sessionToken); err != nil {
		return apperr.Internal(fmt.Errorf("auth_service_logout_failed: %w", err))
	}

	return nil
}

// withOperationTimeout bounds one auth operation so a stalled store or an
// oversubscribed hasher cannot block a request indefinitely.
func withOperationTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, OperationTimeout)
}
