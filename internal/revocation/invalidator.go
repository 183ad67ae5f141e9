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

package revocation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/praxhub/praxhub/internal/audit"
	"github.com/praxhub/praxhub/internal/authz"
	"github.com/praxhub/praxhub/internal/observability/logger"
	"github.com/praxhub/praxhub/internal/observability/metrics"
	"github.com/praxhub/praxhub/internal/session"
)

// outcome records the result of one user's revocation inside a fan-out.
type outcome struct {
	userID        string
	tokensRevoked int
	err           error
}

// Invalidator revokes live sessions for every user holding a role whose
// permissions just changed. Each user's revocation is independent: a failure
// for one user is logged and counted, never propagated as a failure of the
// whole cascade.
type Invalidator struct {
	assignments authz.AssignmentRepository
	tokens      session.RefreshTokenRepository
	blacklist   session.Blacklist
	auditLogger audit.Logger
	meter       *metrics.Meter // optional
	cfg         Config
}

// Config bounds the invalidation cascade.
type Config struct {
	// FanoutLimit caps the parallel per-user revocations.
	FanoutLimit int

	// Deadline caps one whole fan-out; zero means the caller's context
	// governs alone.
	Deadline time.Duration

	// BlacklistTTL must cover the longest outstanding access token
	// lifetime.
	BlacklistTTL time.Duration
}

// New creates a new invalidator.
func New(
	assignments authz.AssignmentRepository,
	tokens session.RefreshTokenRepository,
	blacklist session.Blacklist,
	auditLogger audit.Logger,
	meter *metrics.Meter,
	cfg Config,
) *Invalidator {
	if cfg.FanoutLimit < 1 {
		cfg.FanoutLimit = 1
	}
	return &Invalidator{
		assignments: assignments,
		tokens:      tokens,
		blacklist:   blacklist,
		auditLogger: auditLogger,
		meter:       meter,
		cfg:         cfg,
	}
}

// mapReason translates a role mutation into a blacklist revocation reason.
func mapReason(change string) session.RevocationReason {
	switch change {
	case authz.ChangeRoleDeactivated, authz.ChangeRoleDeleted:
		return session.ReasonAdminAction
	default:
		return session.ReasonSecurity
	}
}

// InvalidateUsersWithRole revokes the live sessions of every user holding an
// active assignment of the role. Returns the number of users fully
// processed; a user with zero outstanding tokens still counts as processed.
//
// The fan-out is bounded and best-effort under the context deadline: once
// the context is done, remaining users are skipped and the partial count is
// returned alongside the context error.
func (i *Invalidator) InvalidateUsersWithRole(ctx context.Context, roleID, change string) (int, error) {
	if i.cfg.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.cfg.Deadline)
		defer cancel()
	}

	userIDs, err := i.assignments.ListUserIDsWithRole(ctx, roleID)
	if err != nil {
		return 0, fmt.Errorf("failed to list users with role: %w", err)
	}
	if len(userIDs) == 0 {
		return 0, nil
	}

	reason := mapReason(change)
	outcomes := make([]outcome, len(userIDs))

	g := &errgroup.Group{}
	g.SetLimit(i.cfg.FanoutLimit)
	for idx, userID := range userIDs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			outcomes[idx] = i.revokeUser(ctx, userID, reason)
			return nil
		})
	}
	_ = g.Wait()

	processed := 0
	revoked := 0
	failed := 0
	for _, o := range outcomes {
		if o.userID == "" {
			continue // skipped under deadline
		}
		if o.err != nil {
			failed++
			slog.WarnContext(ctx, "user session revocation failed",
				logger.UserID(o.userID),
				logger.RoleID(roleID),
				logger.Error(o.err),
			)
			continue
		}
		processed++
		revoked += o.tokensRevoked
	}

	if i.meter != nil {
		i.meter.RecordRevocation(ctx, processed, failed)
	}

	i.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeTokensRevoked,
		Resource: roleID,
		Metadata: map[string]any{
			"change":          change,
			"reason":          string(reason),
			"users_affected":  len(userIDs),
			"users_processed": processed,
			"revoked_count":   revoked,
		},
	})

	if err := ctx.Err(); err != nil {
		return processed, err
	}
	return processed, nil
}

// InvalidateUser revokes one user's live sessions.
func (i *Invalidator) InvalidateUser(ctx context.Context, userID, change string) error {
	o := i.revokeUser(ctx, userID, mapReason(change))
	return o.err
}

// revokeUser revokes all of one user's outstanding refresh tokens and
// blacklists the user for the access-token window.
func (i *Invalidator) revokeUser(ctx context.Context, userID string, reason session.RevocationReason) outcome {
	o := outcome{userID: userID}

	tokens, err := i.tokens.ListActiveByUser(ctx, userID)
	if err != nil {
		o.err = fmt.Errorf("failed to list tokens: %w", err)
		return o
	}

	for _, t := range tokens {
		if err := i.tokens.Revoke(ctx, t.ID, reason); err != nil {
			o.err = fmt.Errorf("failed to revoke token %s: %w", t.ID, err)
			return o
		}
		o.tokensRevoked++
	}

	if err := i.blacklist.Add(ctx, userID, reason, i.cfg.BlacklistTTL); err != nil {
		o.err = fmt.Errorf("failed to blacklist user: %w", err)
		return o
	}

	return o
}
