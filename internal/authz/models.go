package authz

import (
	"context"
	"errors"
	"time"
)

// Domain errors
var (
	ErrRoleNotFound        = errors.New("role not found")
	ErrRoleInactive        = errors.New("role is inactive")
	ErrSystemRoleImmutable = errors.New("system role cannot be modified")
	ErrAssignmentNotFound  = errors.New("assignment not found")
	ErrPermissionNotFound  = errors.New("permission not found")
	ErrMalformedPermission = errors.New("malformed permission")
	ErrPermissionDenied    = errors.New("permission denied")
)

// Role is a named bundle of permissions. A role bound to an organization only
// grants within that organization's scope resolution; a system role has no
// binding and is visible regardless of the caller's current organization.
type Role struct {
	ID             string
	Name           string
	Description    string
	IsSystemRole   bool
	IsActive       bool
	OrganizationID *string // nil for system roles
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// UserRoleAssignment grants a role to a user, optionally within an
// organization. The assignment and the role carry independent active flags;
// the assignment is effective only when both are true.
type UserRoleAssignment struct {
	ID             string
	UserID         string
	RoleID         string
	OrganizationID *string
	IsActive       bool
	GrantedBy      string
	GrantedAt      time.Time
}

// RoleRepository defines the interface for role persistence
type RoleRepository interface {
	// GetByID retrieves a role by ID
	GetByID(ctx context.Context, id string) (*Role, error)

	// GetByIDs retrieves roles for a set of IDs; missing IDs are skipped
	GetByIDs(ctx context.Context, ids []string) ([]*Role, error)

	// Create creates a new role
	Create(ctx context.Context, role *Role) error

	// Update updates role information
	Update(ctx context.Context, role *Role) error

	// Delete deletes a role and its permission links
	Delete(ctx context.Context, id string) error

	// SetPermissions replaces the role's permission links
	SetPermissions(ctx context.Context, roleID string, permissionIDs []string) error
}

// AssignmentRepository defines the interface for user role assignments
type AssignmentRepository interface {
	// Grant assigns a role to a user
	Grant(ctx context.Context, assignment *UserRoleAssignment) error

	// Revoke deactivates a user's assignment of a role
	Revoke(ctx context.Context, userID, roleID string, organizationID *string) error

	// ListActiveForUser retrieves all active assignments for a user
	ListActiveForUser(ctx context.Context, userID string) ([]*UserRoleAssignment, error)

	// ListUserIDsWithRole retrieves distinct users holding an active
	// assignment of the role
	ListUserIDsWithRole(ctx context.Context, roleID string) ([]string, error)
}

// PermissionRepository defines the interface for the permission catalog
type PermissionRepository interface {
	// ListNames retrieves every permission name in the catalog
	ListNames(ctx context.Context) ([]string, error)

	// ListNamesForRoles retrieves permission names per role ID
	ListNamesForRoles(ctx context.Context, roleIDs []string) (map[string][]string, error)

	// IDsByName resolves permission names to their IDs
	IDsByName(ctx context.Context, names []string) (map[string]string, error)
}
