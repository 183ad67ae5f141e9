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

	"github.com/praxhub/praxhub/internal/authz"
)

// AssignmentRepository implements authz.AssignmentRepository
type AssignmentRepository struct {
	db *DB
}

// NewAssignmentRepository creates a new assignment repository
func NewAssignmentRepository(db *DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Grant assigns a role to a user
func (r *AssignmentRepository) Grant(ctx context.Context, a *authz.UserRoleAssignment) error {
	var orgID sql.NullString
	if a.OrganizationID != nil {
		orgID = sql.NullString{String: *a.OrganizationID, Valid: true}
	}

	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO user_roles (
			id, user_id, role_id, organization_id, is_active, granted_by, granted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		a.ID, a.UserID, a.RoleID, orgID, a.IsActive, a.GrantedBy, a.GrantedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to grant role: %w", err)
	}

	return nil
}

// Revoke deactivates a user's assignment of a role
func (r *AssignmentRepository) Revoke(ctx context.Context, userID, roleID string, organizationID *string) error {
	var orgID sql.NullString
	if organizationID != nil {
		orgID = sql.NullString{String: *organizationID, Valid: true}
	}

	result, err := r.db.pool.Exec(ctx, `
		UPDATE user_roles SET is_active = false
		WHERE user_id = $1 AND role_id = $2
		  AND (organization_id = $3 OR ($3 IS NULL AND organization_id IS NULL))
		  AND is_active = true
	`, userID, roleID, orgID)

	if err != nil {
		return fmt.Errorf("failed to revoke role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return authz.ErrAssignmentNotFound
	}

	return nil
}

// ListActiveForUser retrieves all active assignments for a user
func (r *AssignmentRepository) ListActiveForUser(ctx context.Context, userID string) ([]*authz.UserRoleAssignment, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, user_id, role_id, organization_id, is_active, granted_by, granted_at
		FROM user_roles
		WHERE user_id = $1 AND is_active = true
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	var assignments []*authz.UserRoleAssignment
	for rows.Next() {
		var a authz.UserRoleAssignment
		var orgID sql.NullString
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.RoleID, &orgID, &a.IsActive, &a.GrantedBy, &a.GrantedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		if orgID.Valid {
			a.OrganizationID = &orgID.String
		}
		assignments = append(assignments, &a)
	}

	return assignments, rows.Err()
}

// ListUserIDsWithRole retrieves distinct users holding an active assignment
// of the role
func (r *AssignmentRepository) ListUserIDsWithRole(ctx context.Context, roleID string) ([]string, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT DISTINCT user_id
		FROM user_roles
		WHERE role_id = $1 AND is_active = true
	`, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users with role: %w", err)
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		userIDs = append(userIDs, userID)
	}

	return userIDs, rows.Err()
}
