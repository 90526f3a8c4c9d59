// Copyright (c) 2026 Miru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/miru/internal/platform/database/schema"
)

// # User Store
//
// Storage-specific errors (pgx.ErrNoRows, SQLSTATE 23505) are mapped to the
// domain sentinels declared in store.go so no pgx detail leaks upward.

// PostgresUserStore implements the UserStore interface using pgx.
type PostgresUserStore struct {
	pool *pgxpool.Pool
}

// NewUserStore creates a new PostgreSQL implementation of the UserStore.
func NewUserStore(pool *pgxpool.Pool) *PostgresUserStore {
	return &PostgresUserStore{pool: pool}
}

/*
Create persists a new user record into the users.account table.

Description: Relies on the UNIQUE index on username for collision detection —
the database is the single authority on uniqueness, so two concurrent creates
for the same username can never both succeed.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: [ErrUsernameTaken] on a unique-constraint violation, or wrapped
    connectivity/execution errors
*/
func (store *PostgresUserStore) Create(context context.Context, user *User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5)`,
		schema.UserAccount.Table,
		schema.UserAccount.ID, schema.UserAccount.Username, schema.UserAccount.Password,
		schema.UserAccount.CreatedAt, schema.UserAccount.UpdatedAt,
	)

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := store.pool.Exec(context, query,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		// Classify by SQLSTATE, never by matching the error text.
		var pgError *pgconn.PgError
		if errors.As(err, &pgError) && pgError.Code == pgerrcode.UniqueViolation {
			return ErrUsernameTaken
		}
		return fmt.Errorf("postgres_user_store_create_failed: %w", err)
	}

	return nil
}

/*
FindByUsername retrieves a user record by their unique username.

Description: Standard lookup by username for authentication.

Parameters:
  - context: context.Context
  - username: string

Returns:
  - *User: Hydrated account entity
  - error: [ErrUserNotFound] or database errors
*/
func (store *PostgresUserStore) FindByUsername(context context.Context, username string) (*User, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1`,
		schema.UserAccount.ID, schema.UserAccount.Username, schema.UserAccount.Password,
		schema.UserAccount.CreatedAt, schema.UserAccount.UpdatedAt,
		schema.UserAccount.Table,
		schema.UserAccount.Username,
	)

	return store.scanOne(store.pool.QueryRow(context, query, username), "find_by_username")
}

/*
FindByID retrieves a user record by their unique ID.

Description: Primary key resolution for session -> user projection.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *User: Hydrated account entity
  - error: [ErrUserNotFound] or execution errors
*/
func (store *PostgresUserStore) FindByID(context context.Context, id string) (*User, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1`,
		schema.UserAccount.ID, schema.UserAccount.Username, schema.UserAccount.Password,
		schema.UserAccount.CreatedAt, schema.UserAccount.UpdatedAt,
		schema.UserAccount.Table,
		schema.UserAccount.ID,
	)

	return store.scanOne(store.pool.QueryRow(context, query, id), "find_by_id")
}

// scanOne hydrates a single account row, mapping pgx.ErrNoRows to the
// domain sentinel.
func (store *PostgresUserStore) scanOne(row pgx.Row, operation string) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("postgres_user_store_%s_failed: %w", operation, err)
	}

	return user, nil
}
