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

package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// AccessClaims are the claims carried by a short-lived access token.
type AccessClaims struct {
	UserID         string
	OrganizationID *string
	jwt.RegisteredClaims
}

// Manager issues and verifies token pairs: an HS256 access token carrying
// the user and current-organization claims, and an opaque refresh token
// stored only as a BLAKE2b hash.
type Manager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	tokens     RefreshTokenRepository
	blacklist  Blacklist
}

// NewManager creates a new token manager
func NewManager(secret []byte, issuer string, accessTTL, refreshTTL time.Duration, tokens RefreshTokenRepository, blacklist Blacklist) *Manager {
	return &Manager{
		secret:     secret,
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		tokens:     tokens,
		blacklist:  blacklist,
	}
}

// AccessTTL returns the configured access token lifetime.
func (m *Manager) AccessTTL() time.Duration {
	return m.accessTTL
}

// IssueAccessToken mints a signed access token for a user.
func (m *Manager) IssueAccessToken(userID string, organizationID *string) (string, error) {
	now := time.Now()

	claims := jwt.MapClaims{
		"iss": m.issuer,
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(m.accessTTL).Unix(),
		"jti": uuid.NewString(),
	}
	if organizationID != nil {
		claims["org"] = *organizationID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// VerifyAccessToken parses and validates an access token, then checks the
// blacklist so revocation takes effect before the token's natural expiry.
func (m *Manager) VerifyAccessToken(ctx context.Context, tokenString string) (*AccessClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}

	sub, _ := mapClaims["sub"].(string)
	if sub == "" {
		return nil, ErrTokenInvalid
	}

	blacklisted, err := m.blacklist.Contains(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("failed to check blacklist: %w", err)
	}
	if blacklisted {
		return nil, ErrTokenRevoked
	}

	claims := &AccessClaims{UserID: sub}
	if org, ok := mapClaims["org"].(string); ok && org != "" {
		claims.OrganizationID = &org
	}

	return claims, nil
}

// IssueRefreshToken mints an opaque refresh token and persists its hash.
// The raw token is returned once and never stored.
func (m *Manager) IssueRefreshToken(ctx context.Context, userID string) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	opaque := base64.RawURLEncoding.EncodeToString(raw)

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate token id: %w", err)
	}

	now := time.Now()
	token := &RefreshToken{
		ID:        id.String(),
		UserID:    userID,
		TokenHash: HashToken(opaque),
		ExpiresAt: now.Add(m.refreshTTL),
		CreatedAt: now,
	}

	if err := m.tokens.Create(ctx, token); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return opaque, nil
}

// Redeem validates an opaque refresh token and returns its record.
func (m *Manager) Redeem(ctx context.Context, opaque string) (*RefreshToken, error) {
	token, err := m.tokens.GetByTokenHash(ctx, HashToken(opaque))
	if err != nil {
		return nil, err
	}
	if token.IsRevoked {
		return nil, ErrTokenRevoked
	}
	if token.IsExpired() {
		return nil, ErrTokenExpired
	}
	return token, nil
}

// HashToken derives the storage/lookup hash for an opaque token.
func HashToken(opaque string) string {
	sum := blake2b.Sum256([]byte(opaque))
	return hex.EncodeToString(sum[:])
}
