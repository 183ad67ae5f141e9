package authz

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/praxhub/praxhub/internal/audit"
	"github.com/praxhub/praxhub/internal/observability/logger"
)

// Role mutation reasons handed to the session invalidator.
const (
	ChangePermissionsUpdated = "permissions_updated"
	ChangeRoleDeactivated    = "role_deactivated"
	ChangeRoleDeleted        = "role_deleted"
)

// SessionInvalidator revokes live sessions for users affected by a role
// mutation. Implemented by the revocation package; the fan-out runs outside
// the mutation's own transaction and tolerates per-user failures.
type SessionInvalidator interface {
	InvalidateUsersWithRole(ctx context.Context, roleID, change string) (int, error)
	InvalidateUser(ctx context.Context, userID, change string) error
}

// Service provides role administration business logic. Every mutation that
// can shrink a user's effective permissions triggers the invalidator so
// stale tokens stop working as soon as the fan-out completes.
type Service struct {
	roles       RoleRepository
	assignments AssignmentRepository
	permissions PermissionRepository
	catalog     *Catalog
	invalidator SessionInvalidator
	auditLogger audit.Logger
}

// NewService creates a new role administration service
func NewService(
	roles RoleRepository,
	assignments AssignmentRepository,
	permissions PermissionRepository,
	catalog *Catalog,
	invalidator SessionInvalidator,
	auditLogger audit.Logger,
) *Service {
	return &Service{
		roles:       roles,
		assignments: assignments,
		permissions: permissions,
		catalog:     catalog,
		invalidator: invalidator,
		auditLogger: auditLogger,
	}
}

// CreateRole creates a new custom role, optionally bound to an organization.
func (s *Service) CreateRole(ctx context.Context, name, description string, organizationID *string) (*Role, error) {
	if name == "" {
		return nil, fmt.Errorf("role name is required")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate role id: %w", err)
	}

	now := time.Now()
	role := &Role{
		ID:             id.String(),
		Name:           name,
		Description:    description,
		IsSystemRole:   false,
		IsActive:       true,
		OrganizationID: organizationID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.roles.Create(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to create role: %w", err)
	}

	return role, nil
}

// AssignRole grants a role to a user, optionally within an organization.
func (s *Service) AssignRole(ctx context.Context, userID, roleID string, organizationID *string, grantedBy string) (*UserRoleAssignment, error) {
	role, err := s.roles.GetByID(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if !role.IsActive {
		return nil, ErrRoleInactive
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate assignment id: %w", err)
	}

	assignment := &UserRoleAssignment{
		ID:             id.String(),
		UserID:         userID,
		RoleID:         roleID,
		OrganizationID: organizationID,
		IsActive:       true,
		GrantedBy:      grantedBy,
		GrantedAt:      time.Now(),
	}

	if err := s.assignments.Grant(ctx, assignment); err != nil {
		return nil, fmt.Errorf("failed to grant role: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeRoleAssigned,
		ActorID:  grantedBy,
		Resource: role.Name,
		Metadata: map[string]any{"user_id": userID, "role_id": roleID},
	})

	return assignment, nil
}

// RevokeRole removes a role from a user and revokes that user's live
// sessions; their remaining roles take effect on the next token issued.
func (s *Service) RevokeRole(ctx context.Context, userID, roleID string, organizationID *string, revokedBy string) error {
	if err := s.assignments.Revoke(ctx, userID, roleID, organizationID); err != nil {
		return err
	}

	if err := s.invalidator.InvalidateUser(ctx, userID, ChangePermissionsUpdated); err != nil {
		slog.WarnContext(ctx, "failed to invalidate sessions after role revocation",
			logger.UserID(userID), logger.Error(err))
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeRoleRevoked,
		ActorID:  revokedBy,
		Resource: roleID,
		Metadata: map[string]any{"user_id": userID},
	})

	return nil
}

// SetRolePermissions replaces a role's permission set. Every permission name
// must exist in the catalog. All users holding the role have their live
// sessions invalidated once the links are written.
func (s *Service) SetRolePermissions(ctx context.Context, roleID string, permissionNames []string, changedBy string) error {
	role, err := s.roles.GetByID(ctx, roleID)
	if err != nil {
		return err
	}
	if role.IsSystemRole {
		return ErrSystemRoleImmutable
	}

	for _, name := range permissionNames {
		if !s.catalog.Contains(name) {
			return fmt.Errorf("%w: %q", ErrPermissionNotFound, name)
		}
	}

	ids, err := s.permissions.IDsByName(ctx, permissionNames)
	if err != nil {
		return fmt.Errorf("failed to resolve permissions: %w", err)
	}
	permissionIDs := make([]string, 0, len(permissionNames))
	for _, name := range permissionNames {
		id, ok := ids[name]
		if !ok {
			return fmt.Errorf("%w: %q", ErrPermissionNotFound, name)
		}
		permissionIDs = append(permissionIDs, id)
	}

	if err := s.roles.SetPermissions(ctx, roleID, permissionIDs); err != nil {
		return fmt.Errorf("failed to set role permissions: %w", err)
	}

	revoked, err := s.invalidator.InvalidateUsersWithRole(ctx, roleID, ChangePermissionsUpdated)
	if err != nil {
		slog.WarnContext(ctx, "session invalidation incomplete after permission change",
			logger.RoleID(roleID), logger.Error(err))
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeRolePermissionsChanged,
		ActorID:  changedBy,
		Resource: role.Name,
		Metadata: map[string]any{
			"role_id":          roleID,
			"permissions":      permissionNames,
			"sessions_revoked": revoked,
		},
	})

	return nil
}

// DeactivateRole switches a role inactive. The role's assignments survive
// but contribute no permissions; holders' live sessions are revoked.
func (s *Service) DeactivateRole(ctx context.Context, roleID, changedBy string) error {
	role, err := s.roles.GetByID(ctx, roleID)
	if err != nil {
		return err
	}
	if role.IsSystemRole {
		return ErrSystemRoleImmutable
	}

	role.IsActive = false
	role.UpdatedAt = time.Now()
	if err := s.roles.Update(ctx, role); err != nil {
		return fmt.Errorf("failed to deactivate role: %w", err)
	}

	revoked, err := s.invalidator.InvalidateUsersWithRole(ctx, roleID, ChangeRoleDeactivated)
	if err != nil {
		slog.WarnContext(ctx, "session invalidation incomplete after role deactivation",
			logger.RoleID(roleID), logger.Error(err))
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeRoleDeactivated,
		ActorID:  changedBy,
		Resource: role.Name,
		Metadata: map[string]any{"role_id": roleID, "sessions_revoked": revoked},
	})

	return nil
}

// DeleteRole removes a custom role entirely.
func (s *Service) DeleteRole(ctx context.Context, roleID, changedBy string) error {
	role, err := s.roles.GetByID(ctx, roleID)
	if err != nil {
		return err
	}
	if role.IsSystemRole {
		return ErrSystemRoleImmutable
	}

	// Invalidate before the rows disappear; afterwards the holders can no
	// longer be enumerated.
	revoked, err := s.invalidator.InvalidateUsersWithRole(ctx, roleID, ChangeRoleDeleted)
	if err != nil {
		slog.WarnContext(ctx, "session invalidation incomplete before role deletion",
			logger.RoleID(roleID), logger.Error(err))
	}

	if err := s.roles.Delete(ctx, roleID); err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeRoleDeleted,
		ActorID:  changedBy,
		Resource: role.Name,
		Metadata: map[string]any{"role_id": roleID, "sessions_revoked": revoked},
	})

	return nil
}
