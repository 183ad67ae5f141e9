package session

import (
	"context"
	"errors"
	"time"
)

// Domain errors
var (
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenRevoked  = errors.New("token revoked")
	ErrTokenInvalid  = errors.New("token invalid")
)

// RevocationReason is the closed set of reasons a token can be revoked with.
type RevocationReason string

const (
	ReasonSecurity    RevocationReason = "security"
	ReasonAdminAction RevocationReason = "admin_action"
	ReasonLogout      RevocationReason = "logout"
)

// RefreshToken is a long-lived opaque credential, stored only as a hash.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	IsRevoked bool
	RevokedAt *time.Time
	Reason    RevocationReason
}

// IsExpired checks if the token has expired
func (t *RefreshToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// RefreshTokenRepository defines the interface for refresh token persistence
type RefreshTokenRepository interface {
	// Create creates a new refresh token
	Create(ctx context.Context, token *RefreshToken) error

	// GetByTokenHash retrieves a refresh token by its hash
	GetByTokenHash(ctx context.Context, hash string) (*RefreshToken, error)

	// ListActiveByUser retrieves all unrevoked, unexpired tokens for a user
	ListActiveByUser(ctx context.Context, userID string) ([]*RefreshToken, error)

	// Revoke marks a token revoked with a reason
	Revoke(ctx context.Context, tokenID string, reason RevocationReason) error

	// DeleteExpired deletes all expired tokens
	DeleteExpired(ctx context.Context) error
}

// Blacklist is the fast deny-list consulted on every authenticated request.
// Entries are keyed by user and expire with the longest outstanding access
// token, covering the window between revocation and token expiry.
type Blacklist interface {
	// Add blacklists a user's outstanding tokens with a reason
	Add(ctx context.Context, userID string, reason RevocationReason, ttl time.Duration) error

	// Contains reports whether the user is blacklisted
	Contains(ctx context.Context, userID string) (bool, error)
}
