package org

import (
	"context"
	"errors"
	"time"
)

// Domain errors
var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrHierarchyCycle       = errors.New("organization hierarchy contains a cycle")
)

// Organization is one node of the organization tree. The parent link is
// optional; root organizations have none.
type Organization struct {
	ID        string
	Name      string
	ParentID  *string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository defines the interface for organization persistence
type Repository interface {
	// Create creates a new organization
	Create(ctx context.Context, o *Organization) error

	// GetByID retrieves an organization by ID
	GetByID(ctx context.Context, id string) (*Organization, error)

	// ListAll retrieves every organization row for a hierarchy snapshot
	ListAll(ctx context.Context) ([]*Organization, error)

	// Update updates organization information
	Update(ctx context.Context, o *Organization) error
}
