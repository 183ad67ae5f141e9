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
	"fmt"
)

// PermissionRepository implements authz.PermissionRepository
type PermissionRepository struct {
	db *DB
}

// NewPermissionRepository creates a new permission repository
func NewPermissionRepository(db *DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

// ListNames retrieves every permission name in the catalog
func (r *PermissionRepository) ListNames(ctx context.Context) ([]string, error) {
	rows, err := r.db.pool.Query(ctx, `SELECT name FROM permissions`)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		names = append(names, name)
	}

	return names, rows.Err()
}

// ListNamesForRoles retrieves permission names per role ID
func (r *PermissionRepository) ListNamesForRoles(ctx context.Context, roleIDs []string) (map[string][]string, error) {
	if len(roleIDs) == 0 {
		return map[string][]string{}, nil
	}

	rows, err := r.db.pool.Query(ctx, `
		SELECT rp.role_id, p.name
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = ANY($1)
	`, roleIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list role permissions: %w", err)
	}
	defer rows.Close()

	names := make(map[string][]string, len(roleIDs))
	for rows.Next() {
		var roleID, name string
		if err := rows.Scan(&roleID, &name); err != nil {
			return nil, fmt.Errorf("failed to scan role permission: %w", err)
		}
		names[roleID] = append(names[roleID], name)
	}

	return names, rows.Err()
}

// IDsByName resolves permission names to their IDs
func (r *PermissionRepository) IDsByName(ctx context.Context, names []string) (map[string]string, error) {
	if len(names) == 0 {
		return map[string]string{}, nil
	}

	rows, err := r.db.pool.Query(ctx, `
		SELECT id, name FROM permissions WHERE name = ANY($1)
	`, names)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve permissions: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]string, len(names))
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		ids[name] = id
	}

	return ids, rows.Err()
}
