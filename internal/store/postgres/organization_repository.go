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
	"github.com/praxhub/praxhub/internal/org"
)

// OrganizationRepository implements org.Repository
type OrganizationRepository struct {
	db *DB
}

// NewOrganizationRepository creates a new organization repository
func NewOrganizationRepository(db *DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// Create creates a new organization
func (r *OrganizationRepository) Create(ctx context.Context, o *org.Organization) error {
	var parentID sql.NullString
	if o.ParentID != nil {
		parentID = sql.NullString{String: *o.ParentID, Valid: true}
	}

	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO organizations (
			id, name, parent_organization_id, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`, o.ID, o.Name, parentID, o.IsActive, o.CreatedAt, o.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}

	return nil
}

// GetByID retrieves an organization by ID
func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (*org.Organization, error) {
	var o org.Organization
	var parentID sql.NullString

	err := r.db.pool.QueryRow(ctx, `
		SELECT id, name, parent_organization_id, is_active, created_at, updated_at
		FROM organizations
		WHERE id = $1
	`, id).Scan(&o.ID, &o.Name, &parentID, &o.IsActive, &o.CreatedAt, &o.UpdatedAt)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, org.ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	if parentID.Valid {
		o.ParentID = &parentID.String
	}

	return &o, nil
}

// ListAll retrieves every organization row for a hierarchy snapshot
func (r *OrganizationRepository) ListAll(ctx context.Context) ([]*org.Organization, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, name, parent_organization_id, is_active, created_at, updated_at
		FROM organizations
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []*org.Organization
	for rows.Next() {
		var o org.Organization
		var parentID sql.NullString
		if err := rows.Scan(&o.ID, &o.Name, &parentID, &o.IsActive, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		if parentID.Valid {
			o.ParentID = &parentID.String
		}
		orgs = append(orgs, &o)
	}

	return orgs, rows.Err()
}

// Update updates organization information
func (r *OrganizationRepository) Update(ctx context.Context, o *org.Organization) error {
	var parentID sql.NullString
	if o.ParentID != nil {
		parentID = sql.NullString{String: *o.ParentID, Valid: true}
	}

	result, err := r.db.pool.Exec(ctx, `
		UPDATE organizations
		SET name = $2, parent_organization_id = $3, is_active = $4, updated_at = $5
		WHERE id = $1
	`, o.ID, o.Name, parentID, o.IsActive, o.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to update organization: %w", err)
	}
	if result.RowsAffected() == 0 {
		return org.ErrOrganizationNotFound
	}

	return nil
}
