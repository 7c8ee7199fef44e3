package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	read_row := `select id, email, COALESCE(name, '') as name, access_token, refresh_token,
		token_expires_at, created_at, updated_at
		FROM users
		WHERE email = $1`
	var user User
	err := s.db.GetContext(ctx, &user, read_row, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", email, err)
	}
	return &user, nil
}

// SaveUserTokens creates the user on first sign-in or refreshes the stored
// credential on later ones. An empty refresh token keeps the stored one.
func (s *Store) SaveUserTokens(ctx context.Context, email string, name string, accessToken string, refreshToken string, expiresAt time.Time) (int, error) {
	upsert_row := `insert into users
			(email, name, access_token, refresh_token, token_expires_at, created_at, updated_at)
		values
			($1, $2, $3, NULLIF($4, ''), $5, current_timestamp, current_timestamp)
		ON CONFLICT (email) DO UPDATE SET
			name = COALESCE(NULLIF(EXCLUDED.name, ''), users.name),
			access_token = EXCLUDED.access_token,
			refresh_token = COALESCE(EXCLUDED.refresh_token, users.refresh_token),
			token_expires_at = EXCLUDED.token_expires_at,
			updated_at = current_timestamp
		RETURNING id`
	userId := 0
	err := s.db.QueryRowContext(ctx, upsert_row, email, name, accessToken, refreshToken, expiresAt.UTC()).Scan(&userId)
	if err != nil {
		return 0, fmt.Errorf("failed to save tokens for user %s: %w", email, err)
	}
	return userId, nil
}

// UpdateUserTokens overwrites the credential of an existing user.
func (s *Store) UpdateUserTokens(ctx context.Context, email string, accessToken string, refreshToken string, expiresAt time.Time) error {
	update_row := `update users
		set access_token = $2, refresh_token = $3, token_expires_at = $4, updated_at = current_timestamp
		where email = $1`
	res, err := s.db.ExecContext(ctx, update_row, email, accessToken, refreshToken, expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to update tokens for user %s: %w", email, err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for user %s: %w", email, err)
	}
	if count == 0 {
		return ErrNotFound
	}
	if count != 1 {
		slog.Warn("Unexpected rows affected when updating tokens",
			"email", email,
			"expected", 1,
			"actual", count)
	}
	return nil
}
