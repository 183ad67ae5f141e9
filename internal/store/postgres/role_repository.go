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

	"github.com/jackc/pgx/v5"
	"github.com/praxhub/praxhub/internal/authz"
)

// RoleRepository implements authz.RoleRepository
type RoleRepository struct {
	db *DB
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// GetByID retrieves a role by ID
func (r *RoleRepository) GetByID(ctx context.Context, id string) (*authz.Role, error) {
	var role authz.Role
	var orgID sql.NullString

	err := r.db.pool.QueryRow(ctx, `
		SELECT id, name, description, is_system_role, is_active, organization_id, created_at, updated_at
		FROM roles
		WHERE id = $1
	`, id).Scan(
		&role.ID, &role.Name, &role.Description, &role.IsSystemRole, &role.IsActive,
		&orgID, &role.CreatedAt, &role.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, authz.ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}

	if orgID.Valid {
		role.OrganizationID = &orgID.String
	}

	return &role, nil
}

// GetByIDs retrieves roles for a set of IDs; missing IDs are skipped
func (r *RoleRepository) GetByIDs(ctx context.Context, ids []string) ([]*authz.Role, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.pool.Query(ctx, `
		SELECT id, name, description, is_system_role, is_active, organization_id, created_at, updated_at
		FROM roles
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get roles: %w", err)
	}
	defer rows.Close()

	var roles []*authz.Role
	for rows.Next() {
		var role authz.Role
		var orgID sql.NullString
		if err := rows.Scan(
			&role.ID, &role.Name, &role.Description, &role.IsSystemRole, &role.IsActive,
			&orgID, &role.CreatedAt, &role.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		if orgID.Valid {
			role.OrganizationID = &orgID.String
		}
		roles = append(roles, &role)
	}

	return roles, rows.Err()
}

// Create creates a new role
func (r *RoleRepository) Create(ctx context.Context, role *authz.Role) error {
	var orgID sql.NullString
	if role.OrganizationID != nil {
		orgID = sql.NullString{String: *role.OrganizationID, Valid: true}
	}

	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO roles (
			id, name, description, is_system_role, is_active, organization_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		role.ID, role.Name, role.Description, role.IsSystemRole, role.IsActive,
		orgID, role.CreatedAt, role.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create role: %w", err)
	}

	return nil
}

// Update updates role information
func (r *RoleRepository) Update(ctx context.Context, role *authz.Role) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE roles
		SET name = $2, description = $3, is_active = $4, updated_at = $5
		WHERE id = $1
	`, role.ID, role.Name, role.Description, role.IsActive, role.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return authz.ErrRoleNotFound
	}

	return nil
}

// Delete deletes a role and its permission links
func (r *RoleRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete role permissions: %w", err)
	}

	result, err := tx.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return authz.ErrRoleNotFound
	}

	return tx.Commit(ctx)
}

// SetPermissions replaces the role's permission links
func (r *RoleRepository) SetPermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
		return fmt.Errorf("failed to clear role permissions: %w", err)
	}

	for _, permissionID := range permissionIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)
		`, roleID, permissionID); err != nil {
			return fmt.Errorf("failed to link permission: %w", err)
		}
	}

	return tx.Commit(ctx)
}
