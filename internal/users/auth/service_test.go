// Copyright (c) 2026 Miru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/miru/internal/platform/apperr"
	"github.com/taibuivan/miru/internal/platform/sec"
	"github.com/taibuivan/miru/internal/users/auth"
)

// # Test Doubles

// memoryUserStore is an in-memory UserStore that enforces username
// uniqueness under a mutex, mirroring the database's unique index.
type memoryUserStore struct {
	mu      sync.Mutex
	byID    map[string]*auth.User
	byName  map[string]*auth.User
	failure error
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{
		byID:   make(map[string]*auth.User),
		byName: make(map[string]*auth.User),
	}
}

func (store *memoryUserStore) Create(_ context.Context, user *auth.User) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.failure != nil {
		return store.failure
	}
	if _, exists := store.byName[user.Username]; exists {
		return auth.ErrUsernameTaken
	}

	clone := *user
	store.byID[user.ID] = &clone
	store.byName[user.Username] = &clone
	return nil
}

func (store *memoryUserStore) FindByID(_ context.Context, id string) (*auth.User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	user, ok := store.byID[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (store *memoryUserStore) FindByUsername(_ context.Context, username string) (*auth.User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	user, ok := store.byName[username]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (store *memoryUserStore) delete(id string) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if user, ok := store.byID[id]; ok {
		delete(store.byName, user.Username)
		delete(store.byID, id)
	}
}

// memorySessionStore is an in-memory token -> userID map.
type memorySessionStore struct {
	mu       sync.Mutex
	bindings map[string]string
	failure  error
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{bindings: make(map[string]string)}
}

func (store *memorySessionStore) Bind(_ context.Context, token, userID string, _ time.Duration) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.failure != nil {
		return store.failure
	}
	store.bindings[token] = userID
	return nil
}

func (store *memorySessionStore) Lookup(_ context.Context, token string) (string, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	userID, ok := store.bindings[token]
	if !ok {
		return "", auth.ErrSessionNotFound
	}
	return userID, nil
}

func (store *memorySessionStore) Delete(_ context.Context, token string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	delete(store.bindings, token)
	return nil
}

func (store *memorySessionStore) count() int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return len(store.bindings)
}

// fakeHasher is a transparent stand-in for argon2id so tests stay fast.
type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) {
	return "hashed::" + password, nil
}

func (fakeHasher) Verify(password, encodedHash string) (bool, error) {
	if encodedHash == "corrupt" {
		return false, errors.New("malformed hash")
	}
	return encodedHash == "hashed::"+password, nil
}

func newTestService(users auth.UserStore, sessions auth.SessionStore, hasher auth.CredentialHasher) *auth.Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return auth.NewService(users, sessions, hasher, logger)
}

// # Registration

func TestService_Register_Success(t *testing.T) {
	users := newMemoryUserStore()
	service := newTestService(users, newMemorySessionStore(), fakeHasher{})

	user, err := service.Register(context.Background(), auth.Credentials{
		Username: "ben",
		Password: "secret",
	})

	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "ben", user.Username)
	// The plaintext must never be stored.
	assert.NotEqual(t, "secret", user.PasswordHash)

	stored, err := users.FindByUsername(context.Background(), "ben")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)
}

func TestService_Register_ValidationFailures(t *testing.T) {
	service := newTestService(newMemoryUserStore(), newMemorySessionStore(), fakeHasher{})

	user, err := service.Register(context.Background(), auth.Credentials{
		Username: "ab",
		Password: "x",
	})

	assert.Nil(t, user)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "VALIDATION_ERROR", ae.Code)
	// Both rules fail independently and both are reported.
	require.Len(t, ae.Details, 2)
	assert.Equal(t, "username", ae.Details[0].Field)
	assert.Equal(t, "password", ae.Details[1].Field)
}

func TestService_Register_DuplicateUsername(t *testing.T) {
	service := newTestService(newMemoryUserStore(), newMemorySessionStore(), fakeHasher{})
	credentials := auth.Credentials{Username: "ben", Password: "secret"}

	_, err := service.Register(context.Background(), credentials)
	require.NoError(t, err)

	user, err := service.Register(context.Background(), credentials)
	assert.Nil(t, user)

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "CONFLICT", ae.Code)
	assert.Equal(t, http.StatusConflict, ae.HTTPStatus)
	require.Len(t, ae.Details, 1)
	assert.Equal(t, "username", ae.Details[0].Field)
	assert.Equal(t, "user already exists", ae.Details[0].Message)
}

// Concurrent registrations for the same username must yield exactly one
// created account; every loser sees the conflict, never a silent success.
func TestService_Register_ConcurrentSameUsername(t *testing.T) {
	users := newMemoryUserStore()
	service := newTestService(users, newMemorySessionStore(), fakeHasher{})

	const attempts = 16
	results := make(chan error, attempts)

	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < attempts; i++ {
		go func() {
			start.Wait()
			_, err := service.Register(context.Background(), auth.Credentials{
				Username: "ben",
				Password: "secret",
			})
			results <- err
		}()
	}
	start.Done()

	var successes, conflicts int
	for i := 0; i < attempts; i++ {
		err := <-results
		switch {
		case err == nil:
			successes++
		case apperr.As(err) != nil && apperr.As(err).Code == "CONFLICT":
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)
}

func TestService_Register_StoreFailureIsInternal(t *testing.T) {
	users := newMemoryUserStore()
	users.failure = errors.New("connection reset")
	service := newTestService(users, newMemorySessionStore(), fakeHasher{})

	user, err := service.Register(context.Background(), auth.Credentials{
		Username: "ben",
		Password: "secret",
	})

	assert.Nil(t, user)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "INTERNAL_ERROR", ae.Code)
}

// # Login

func registerTestUser(t *testing.T, service *auth.Service, username, password string) *auth.User {
	t.Helper()
	user, err := service.Register(context.Background(), auth.Credentials{
		Username: username,
		Password: password,
	})
	require.NoError(t, err)
	return user
}

func TestService_Login_Success(t *testing.T) {
	users := newMemoryUserStore()
	sessions := newMemorySessionStore()
	service := newTestService(users, sessions, fakeHasher{})
	registered := registerTestUser(t, service, "ben", "secret")

	user, session, err := service.Login(context.Background(), auth.LoginInput{
		Username: "ben",
		Password: "secret",
	})

	require.NoError(t, err)
	require.NotNil(t, user)
	require.NotNil(t, session)
	assert.Equal(t, registered.ID, user.ID)
	assert.Equal(t, registered.ID, session.UserID)
	// 32 random bytes in base64url.
	assert.Len(t, session.Token, 43)
	assert.WithinDuration(t, time.Now().Add(auth.SessionTTL), session.ExpiresAt, time.Minute)

	boundID, err := sessions.Lookup(context.Background(), session.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, boundID)
}

func TestService_Login_UnknownUsername(t *testing.T) {
	sessions := newMemorySessionStore()
	service := newTestService(newMemoryUserStore(), sessions, fakeHasher{})

	user, session, err := service.Login(context.Background(), auth.LoginInput{
		Username: "ghost",
		Password: "secret",
	})

	assert.Nil(t, user)
	assert.Nil(t, session)

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "UNAUTHORIZED", ae.Code)
	require.Len(t, ae.Details, 1)
	assert.Equal(t, "username", ae.Details[0].Field)
	assert.Equal(t, "username doesn't exists", ae.Details[0].Message)

	// A failed login must not establish a session.
	assert.Zero(t, sessions.count())
}

func TestService_Login_WrongPassword(t *testing.T) {
	sessions := newMemorySessionStore()
	service := newTestService(newMemoryUserStore(), sessions, fakeHasher{})
	registerTestUser(t, service, "ben", "secret")

	user, session, err := service.Login(context.Background(), auth.LoginInput{
		Username: "ben",
		Password: "wrong",
	})

	assert.Nil(t, user)
	assert.Nil(t, session)

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "UNAUTHORIZED", ae.Code)
	require.Len(t, ae.Details, 1)
	assert.Equal(t, "password", ae.Details[0].Field)
	assert.Equal(t, "invalid password", ae.Details[0].Message)
	assert.Zero(t, sessions.count())
}

func TestService_Login_ReusesCallerToken(t *testing.T) {
	sessions := newMemorySessionStore()
	service := newTestService(newMemoryUserStore(), sessions, fakeHasher{})
	registered := registerTestUser(t, service, "ben", "secret")

	_, session, err := service.Login(context.Background(), auth.LoginInput{
		Username:     "ben",
		Password:     "secret",
		SessionToken: "existing-token",
	})

	require.NoError(t, err)
	// Re-login overwrites the existing binding instead of minting a new one.
	assert.Equal(t, "existing-token", session.Token)
	assert.Equal(t, 1, sessions.count())

	boundID, err := sessions.Lookup(context.Background(), "existing-token")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, boundID)
}

func TestService_Login_CorruptStoredHash(t *testing.T) {
	users := newMemoryUserStore()
	service := newTestService(users, newMemorySessionStore(), fakeHasher{})
	registered := registerTestUser(t, service, "ben", "secret")

	// Simulate a tampered row.
	users.mu.Lock()
	users.byID[registered.ID].PasswordHash = "corrupt"
	users.mu.Unlock()

	user, session, err := service.Login(context.Background(), auth.LoginInput{
		Username: "ben",
		Password: "secret",
	})

	assert.Nil(t, user)
	assert.Nil(t, session)

	// Unreadable stored data is a server fault, not a wrong password.
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "INTERNAL_ERROR", ae.Code)
}

// # Session Projection

func TestService_Me(t *testing.T) {
	users := newMemoryUserStore()
	sessions := newMemorySessionStore()
	service := newTestService(users, sessions, fakeHasher{})
	registered := registerTestUser(t, service, "ben", "secret")

	_, session, err := service.Login(context.Background(), auth.LoginInput{
		Username: "ben",
		Password: "secret",
	})
	require.NoError(t, err)

	t.Run("anonymous_caller", func(t *testing.T) {
		user, err := service.Me(context.Background(), "")
		assert.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("unknown_token", func(t *testing.T) {
		user, err := service.Me(context.Background(), "never-issued")
		assert.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("valid_session", func(t *testing.T) {
		user, err := service.Me(context.Background(), session.Token)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, registered.ID, user.ID)
		assert.Equal(t, "ben", user.Username)
	})

	t.Run("stale_binding_user_gone", func(t *testing.T) {
		users.delete(registered.ID)

		user, err := service.Me(context.Background(), session.Token)
		assert.NoError(t, err)
		assert.Nil(t, user)
	})
}

// # Logout

func TestService_Logout(t *testing.T) {
	users := newMemoryUserStore()
	sessions := newMemorySessionStore()
	service := newTestService(users, sessions, fakeHasher{})
	registerTestUser(t, service, "ben", "secret")

	_, session, err := service.Login(context.Background(), auth.LoginInput{
		Username: "ben",
		Password: "secret",
	})
	require.NoError(t, err)

	require.NoError(t, service.Logout(context.Background(), session.Token))
	assert.Zero(t, sessions.count())

	// Idempotent: repeating and anonymous logouts both succeed.
	assert.NoError(t, service.Logout(context.Background(), session.Token))
	assert.NoError(t, service.Logout(context.Background(), ""))

	user, err := service.Me(context.Background(), session.Token)
	assert.NoError(t, err)
	assert.Nil(t, user)
}

// # End-To-End Hashing

// Exercises the real argon2id hasher through the full register/login cycle.
func TestService_RegisterThenLogin_Argon2(t *testing.T) {
	service := newTestService(newMemoryUserStore(), newMemorySessionStore(), sec.NewArgon2Hasher())

	registered, err := service.Register(context.Background(), auth.Credentials{
		Username: "ben",
		Password: "correct horse battery staple",
	})
	require.NoError(t, err)
	assert.Contains(t, registered.PasswordHash, "$argon2id$")

	user, session, err := service.Login(context.Background(), auth.LoginInput{
		Username: "ben",
		Password: "correct horse battery staple",
	})
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.NotEmpty(t, session.Token)

	_, _, err = service.Login(context.Background(), auth.LoginInput{
		Username: "ben",
		Password: "wrong password",
	})
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "UNAUTHORIZED", ae.Code)
}
