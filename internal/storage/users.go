package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/meltforce/liftlog/internal/models"
)

// GetUserByToken resolves an opaque bearer token to a user ID. Tokens are
// stored as SHA-256 hex digests; the plaintext never touches the database.
func (db *DB) GetUserByToken(ctx context.Context, token string) (int, error) {
	var id int
	err := db.Pool.QueryRow(ctx,
		`SELECT id FROM users WHERE token_hash = $1`,
		hashToken(token)).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("token: %w", models.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("querying user by token: %w", err)
	}
	return id, nil
}

// CreateUser inserts a user with the given bearer token and returns the new
// user ID.
func (db *DB) CreateUser(ctx context.Context, name, token string) (int, error) {
	var id int
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO users (name, token_hash) VALUES ($1, $2) RETURNING id`,
		name, hashToken(token)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("creating user: %w", err)
	}
	return id, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
