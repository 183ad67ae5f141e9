package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxhub/praxhub/internal/audit"
)

type recordingInvalidator struct {
	roleCalls    []struct{ RoleID, Change string }
	userCalls    []struct{ UserID, Change string }
	usersPerRole int
}

func (r *recordingInvalidator) InvalidateUsersWithRole(ctx context.Context, roleID, change string) (int, error) {
	r.roleCalls = append(r.roleCalls, struct{ RoleID, Change string }{roleID, change})
	return r.usersPerRole, nil
}

func (r *recordingInvalidator) InvalidateUser(ctx context.Context, userID, change string) error {
	r.userCalls = append(r.userCalls, struct{ UserID, Change string }{userID, change})
	return nil
}

type recordingAuditLogger struct {
	events []audit.Event
}

func (r *recordingAuditLogger) Log(ctx context.Context, e audit.Event) {
	r.events = append(r.events, e)
}

func newTestService(t *testing.T, roles map[string]*Role) (*Service, *fakeRoleRepo, *recordingInvalidator, *recordingAuditLogger) {
	t.Helper()
	roleRepo := &fakeRoleRepo{roles: roles}
	invalidator := &recordingInvalidator{usersPerRole: 3}
	auditLogger := &recordingAuditLogger{}
	svc := NewService(
		roleRepo,
		&fakeAssignmentRepo{byUser: map[string][]*UserRoleAssignment{}},
		&fakePermissionRepo{perRole: map[string][]string{}},
		testCatalog(t),
		invalidator,
		auditLogger,
	)
	return svc, roleRepo, invalidator, auditLogger
}

func TestService_CreateRole(t *testing.T) {
	svc, roleRepo, _, _ := newTestService(t, map[string]*Role{})

	role, err := svc.CreateRole(context.Background(), "billing_reviewer", "reviews billing reports", strPtr("org-a"))
	require.NoError(t, err)
	assert.NotEmpty(t, role.ID)
	assert.True(t, role.IsActive)
	assert.False(t, role.IsSystemRole)
	require.NotNil(t, role.OrganizationID)
	assert.Equal(t, "org-a", *role.OrganizationID)
	assert.Contains(t, roleRepo.roles, role.ID)

	_, err = svc.CreateRole(context.Background(), "", "", nil)
	assert.Error(t, err)
}

func TestService_AssignRole_RejectsInactiveRole(t *testing.T) {
	svc, _, _, _ := newTestService(t, map[string]*Role{
		"role-1": {ID: "role-1", Name: "retired", IsActive: false},
	})

	_, err := svc.AssignRole(context.Background(), "user-1", "role-1", nil, "admin-1")
	assert.ErrorIs(t, err, ErrRoleInactive)
}

func TestService_AssignRole(t *testing.T) {
	svc, _, _, auditLogger := newTestService(t, map[string]*Role{
		"role-1": {ID: "role-1", Name: "analyst", IsActive: true},
	})

	assignment, err := svc.AssignRole(context.Background(), "user-1", "role-1", strPtr("org-a"), "admin-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", assignment.UserID)
	assert.Equal(t, "admin-1", assignment.GrantedBy)
	assert.True(t, assignment.IsActive)

	require.Len(t, auditLogger.events, 1)
	assert.Equal(t, audit.TypeRoleAssigned, auditLogger.events[0].Type)
}

// TestPurpose: revoking a role invalidates the user's live sessions so the
// narrowed permission set takes effect before any cached token expires.
func TestService_RevokeRole_InvalidatesSessions(t *testing.T) {
	svc, _, invalidator, auditLogger := newTestService(t, map[string]*Role{
		"role-1": {ID: "role-1", Name: "analyst", IsActive: true},
	})

	err := svc.RevokeRole(context.Background(), "user-1", "role-1", nil, "admin-1")
	require.NoError(t, err)

	require.Len(t, invalidator.userCalls, 1)
	assert.Equal(t, "user-1", invalidator.userCalls[0].UserID)
	assert.Equal(t, ChangePermissionsUpdated, invalidator.userCalls[0].Change)

	require.Len(t, auditLogger.events, 1)
	assert.Equal(t, audit.TypeRoleRevoked, auditLogger.events[0].Type)
}

func TestService_SetRolePermissions(t *testing.T) {
	svc, _, invalidator, auditLogger := newTestService(t, map[string]*Role{
		"role-1": {ID: "role-1", Name: "analyst", IsActive: true},
	})

	err := svc.SetRolePermissions(context.Background(), "role-1", []string{PermAnalyticsReadOrg, PermChartsReadOrg}, "admin-1")
	require.NoError(t, err)

	require.Len(t, invalidator.roleCalls, 1)
	assert.Equal(t, "role-1", invalidator.roleCalls[0].RoleID)
	assert.Equal(t, ChangePermissionsUpdated, invalidator.roleCalls[0].Change)

	require.Len(t, auditLogger.events, 1)
	assert.Equal(t, audit.TypeRolePermissionsChanged, auditLogger.events[0].Type)
	assert.Equal(t, 3, auditLogger.events[0].Metadata["sessions_revoked"])
}

func TestService_SetRolePermissions_UnknownNameRejected(t *testing.T) {
	svc, _, invalidator, _ := newTestService(t, map[string]*Role{
		"role-1": {ID: "role-1", Name: "analyst", IsActive: true},
	})

	err := svc.SetRolePermissions(context.Background(), "role-1", []string{"widgets:spin:all"}, "admin-1")
	assert.ErrorIs(t, err, ErrPermissionNotFound)
	assert.Empty(t, invalidator.roleCalls)
}

func TestService_SystemRolesAreImmutable(t *testing.T) {
	svc, roleRepo, invalidator, _ := newTestService(t, map[string]*Role{
		"role-sys": {ID: "role-sys", Name: RolePlatformAdmin, IsSystemRole: true, IsActive: true},
	})

	err := svc.SetRolePermissions(context.Background(), "role-sys", []string{PermAnalyticsReadAll}, "admin-1")
	assert.ErrorIs(t, err, ErrSystemRoleImmutable)

	err = svc.DeactivateRole(context.Background(), "role-sys", "admin-1")
	assert.ErrorIs(t, err, ErrSystemRoleImmutable)

	err = svc.DeleteRole(context.Background(), "role-sys", "admin-1")
	assert.ErrorIs(t, err, ErrSystemRoleImmutable)

	assert.Empty(t, invalidator.roleCalls)
	assert.Contains(t, roleRepo.roles, "role-sys")
}

func TestService_DeactivateRole(t *testing.T) {
	svc, roleRepo, invalidator, _ := newTestService(t, map[string]*Role{
		"role-1": {ID: "role-1", Name: "analyst", IsActive: true},
	})

	err := svc.DeactivateRole(context.Background(), "role-1", "admin-1")
	require.NoError(t, err)

	assert.False(t, roleRepo.roles["role-1"].IsActive)
	require.Len(t, invalidator.roleCalls, 1)
	assert.Equal(t, ChangeRoleDeactivated, invalidator.roleCalls[0].Change)
}

func TestService_DeleteRole_InvalidatesBeforeDelete(t *testing.T) {
	svc, roleRepo, invalidator, _ := newTestService(t, map[string]*Role{
		"role-1": {ID: "role-1", Name: "analyst", IsActive: true},
	})

	err := svc.DeleteRole(context.Background(), "role-1", "admin-1")
	require.NoError(t, err)

	assert.NotContains(t, roleRepo.roles, "role-1")
	require.Len(t, invalidator.roleCalls, 1)
	assert.Equal(t, ChangeRoleDeleted, invalidator.roleCalls[0].Change)
}

func TestService_MutationsOnMissingRoleFail(t *testing.T) {
	svc, _, invalidator, _ := newTestService(t, map[string]*Role{})

	_, err := svc.AssignRole(context.Background(), "user-1", "missing", nil, "admin-1")
	assert.ErrorIs(t, err, ErrRoleNotFound)

	err = svc.DeactivateRole(context.Background(), "missing", "admin-1")
	assert.ErrorIs(t, err, ErrRoleNotFound)

	assert.Empty(t, invalidator.roleCalls)
}
