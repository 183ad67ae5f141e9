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
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxhub/praxhub/internal/session"
)

func newTestBlacklist(t *testing.T) (*Blacklist, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewBlacklist(client), mr
}

func TestBlacklist_AddAndContains(t *testing.T) {
	blacklist, _ := newTestBlacklist(t)
	ctx := context.Background()

	found, err := blacklist.Contains(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, blacklist.Add(ctx, "user-1", session.ReasonSecurity, 15*time.Minute))

	found, err = blacklist.Contains(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, found)

	// Other users are unaffected.
	found, err = blacklist.Contains(ctx, "user-2")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBlacklist_Reason(t *testing.T) {
	blacklist, _ := newTestBlacklist(t)
	ctx := context.Background()

	_, found, err := blacklist.Reason(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, blacklist.Add(ctx, "user-1", session.ReasonAdminAction, time.Minute))

	reason, found, err := blacklist.Reason(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, session.ReasonAdminAction, reason)
}

// TestPurpose: blacklist entries expire with the access-token window; once an
// entry lapses every outstanding token has expired on its own.
func TestBlacklist_EntryExpires(t *testing.T) {
	blacklist, mr := newTestBlacklist(t)
	ctx := context.Background()

	require.NoError(t, blacklist.Add(ctx, "user-1", session.ReasonSecurity, 15*time.Minute))
	mr.FastForward(16 * time.Minute)

	found, err := blacklist.Contains(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, found)
}
