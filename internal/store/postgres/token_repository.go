// Copyright 2026 The PraxHub Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/praxhub/praxhub/internal/session"
)

// RefreshTokenRepository implements session.RefreshTokenRepository
type RefreshTokenRepository struct {
	db *DB
}

// NewRefreshTokenRepository creates a new refresh token repository
func NewRefreshTokenRepository(db *DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// Create creates a new refresh token
func (r *RefreshTokenRepository) Create(ctx context.Context, token *session.RefreshToken) error {
	var revokedAt sql.NullTime
	if token.RevokedAt != nil {
		revokedAt = sql.NullTime{Time: *token.RevokedAt, Valid: true}
	}

	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO refresh_tokens (
			id, user_id, token_hash, expires_at, created_at, is_revoked, revoked_at, revocation_reason
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		token.ID, token.UserID, token.TokenHash, token.ExpiresAt, token.CreatedAt,
		token.IsRevoked, revokedAt, string(token.Reason),
	)

	if err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}

	return nil
}

// GetByTokenHash retrieves a refresh token by its hash
func (r *RefreshTokenRepository) GetByTokenHash(ctx context.Context, hash string) (*session.RefreshToken, error) {
	var token session.RefreshToken
	var revokedAt sql.NullTime
	var reason sql.NullString

	err := r.db.pool.QueryRow(ctx, `
		SELECT id, user_id, token_hash, expires_at, created_at, is_revoked, revoked_at, revocation_reason
		FROM refresh_tokens
		WHERE token_hash = $1
	`, hash).Scan(
		&token.ID, &token.UserID, &token.TokenHash, &token.ExpiresAt, &token.CreatedAt,
		&token.IsRevoked, &revokedAt, &reason,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, session.ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	if revokedAt.Valid {
		token.RevokedAt = &revokedAt.Time
	}
	if reason.Valid {
		token.Reason = session.RevocationReason(reason.String)
	}

	return &token, nil
}

// ListActiveByUser retrieves all unrevoked, unexpired tokens for a user
func (r *RefreshTokenRepository) ListActiveByUser(ctx context.Context, userID string) ([]*session.RefreshToken, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, user_id, token_hash, expires_at, created_at, is_revoked, revoked_at, revocation_reason
		FROM refresh_tokens
		WHERE user_id = $1 AND is_revoked = false AND expires_at > $2
	`, userID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to list refresh tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*session.RefreshToken
	for rows.Next() {
		var token session.RefreshToken
		var revokedAt sql.NullTime
		var reason sql.NullString
		if err := rows.Scan(
			&token.ID, &token.UserID, &token.TokenHash, &token.ExpiresAt, &token.CreatedAt,
			&token.IsRevoked, &revokedAt, &reason,
		); err != nil {
			return nil, fmt.Errorf("failed to scan refresh token: %w", err)
		}
		if revokedAt.Valid {
			token.RevokedAt = &revokedAt.Time
		}
		if reason.Valid {
			token.Reason = session.RevocationReason(reason.String)
		}
		tokens = append(tokens, &token)
	}

	return tokens, rows.Err()
}

// Revoke marks a token revoked with a reason
func (r *RefreshTokenRepository) Revoke(ctx context.Context, tokenID string, reason session.RevocationReason) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE refresh_tokens
		SET is_revoked = true, revoked_at = $2, revocation_reason = $3
		WHERE id = $1
	`, tokenID, time.Now(), string(reason))

	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	if result.RowsAffected() == 0 {
		return session.ErrTokenNotFound
	}

	return nil
}

// DeleteExpired deletes all expired tokens
func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context) error {
	_, err := r.db.pool.Exec(ctx, `
		DELETE FROM refresh_tokens WHERE expires_at < $1
	`, time.Now())

	if err != nil {
		return fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}

	return nil
}
