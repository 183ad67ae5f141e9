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

package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/praxhub/praxhub/internal/session"
)

const blacklistPrefix = "blacklist:user"

// Blacklist implements session.Blacklist on Redis. Entries carry the
// revocation reason as the value and expire with the access-token window,
// keeping the per-request check off the Postgres hot path.
type Blacklist struct {
	client *redis.Client
}

// NewBlacklist creates a new redis-backed blacklist
func NewBlacklist(client *redis.Client) *Blacklist {
	return &Blacklist{client: client}
}

// Add blacklists a user's outstanding tokens with a reason
func (b *Blacklist) Add(ctx context.Context, userID string, reason session.RevocationReason, ttl time.Duration) error {
	key := fmt.Sprintf("%s:%s", blacklistPrefix, userID)
	if err := b.client.Set(ctx, key, string(reason), ttl).Err(); err != nil {
		return fmt.Errorf("failed to blacklist user: %w", err)
	}
	return nil
}

// Contains reports whether the user is blacklisted
func (b *Blacklist) Contains(ctx context.Context, userID string) (bool, error) {
	key := fmt.Sprintf("%s:%s", blacklistPrefix, userID)
	_, err := b.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}
	return true, nil
}

// Reason returns the stored revocation reason for a blacklisted user.
func (b *Blacklist) Reason(ctx context.Context, userID string) (session.RevocationReason, bool, error) {
	key := fmt.Sprintf("%s:%s", blacklistPrefix, userID)
	value, err := b.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read blacklist: %w", err)
	}
	return session.RevocationReason(value), true, nil
}
