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

package authz

import (
	"context"
	"fmt"

	"github.com/praxhub/praxhub/internal/org"
)

// Grant is one permission contributed by one of the user's effective roles,
// tagged with the organization the granting role is bound to (nil for
// system roles).
type Grant struct {
	Permission     Permission
	OrganizationID *string
}

// UserContext is the per-operation snapshot of a user's effective roles,
// accessible organizations and current organization binding. It is built
// fresh for every authorization decision and must never be cached across
// requests: role state can change between two calls from the same user.
type UserContext struct {
	UserID                string
	Roles                 []*Role
	CurrentOrganizationID *string

	grants         map[string][]Grant // keyed by resource:action
	accessibleOrgs map[string]struct{}
}

// Grants returns the grants matching a resource:action pair.
func (uc *UserContext) Grants(resource, action string) []Grant {
	return uc.grants[resource+":"+action]
}

// HasPermission reports whether the named permission is present in the
// user's effective set, regardless of scope conditions.
func (uc *UserContext) HasPermission(name string) bool {
	perm, err := ParsePermission(name)
	if err != nil {
		return false
	}
	for _, g := range uc.grants[perm.Key()] {
		if g.Permission.Scope == perm.Scope {
			return true
		}
	}
	return false
}

// CanAccessOrganization reports whether the organization is reachable from
// the user's direct memberships via the hierarchy.
func (uc *UserContext) CanAccessOrganization(orgID string) bool {
	_, ok := uc.accessibleOrgs[orgID]
	return ok
}

// AccessibleOrganizations returns the reachable organization set.
func (uc *UserContext) AccessibleOrganizations() []string {
	ids := make([]string, 0, len(uc.accessibleOrgs))
	for id := range uc.accessibleOrgs {
		ids = append(ids, id)
	}
	return ids
}

// ContextBuilder assembles UserContext values from role, assignment,
// permission and organization state.
type ContextBuilder struct {
	assignments AssignmentRepository
	roles       RoleRepository
	permissions PermissionRepository
	orgs        org.Repository
	catalog     *Catalog
}

// NewContextBuilder creates a new context builder
func NewContextBuilder(
	assignments AssignmentRepository,
	roles RoleRepository,
	permissions PermissionRepository,
	orgs org.Repository,
	catalog *Catalog,
) *ContextBuilder {
	return &ContextBuilder{
		assignments: assignments,
		roles:       roles,
		permissions: permissions,
		orgs:        orgs,
		catalog:     catalog,
	}
}

// Build constructs the UserContext for one operation.
//
// Inactive roles are discarded before the permission union, so a deactivated
// role contributes nothing even while the assignment row itself stays active.
// A user with no active assignments gets an empty permission set, not an
// error; authorization then universally denies.
func (b *ContextBuilder) Build(ctx context.Context, userID string, currentOrgID *string) (*UserContext, error) {
	assignments, err := b.assignments.ListActiveForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}

	roleIDs := make([]string, 0, len(assignments))
	seen := make(map[string]struct{}, len(assignments))
	for _, a := range assignments {
		if _, ok := seen[a.RoleID]; ok {
			continue
		}
		seen[a.RoleID] = struct{}{}
		roleIDs = append(roleIDs, a.RoleID)
	}

	roles, err := b.roles.GetByIDs(ctx, roleIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}

	// Drop inactive roles before touching their permissions.
	active := make([]*Role, 0, len(roles))
	activeIDs := make([]string, 0, len(roles))
	byID := make(map[string]*Role, len(roles))
	for _, r := range roles {
		if !r.IsActive {
			continue
		}
		active = append(active, r)
		activeIDs = append(activeIDs, r.ID)
		byID[r.ID] = r
	}

	grants := make(map[string][]Grant)
	if len(activeIDs) > 0 {
		names, err := b.permissions.ListNamesForRoles(ctx, activeIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load role permissions: %w", err)
		}
		for _, a := range assignments {
			role, ok := byID[a.RoleID]
			if !ok {
				continue
			}
			// Grants inherit the assignment's organization binding when
			// present, falling back to the role's own binding.
			binding := a.OrganizationID
			if binding == nil {
				binding = role.OrganizationID
			}
			for _, name := range names[role.ID] {
				perm, ok := b.catalog.Lookup(name)
				if !ok {
					return nil, fmt.Errorf("%w: %q not in catalog", ErrPermissionNotFound, name)
				}
				grants[perm.Key()] = append(grants[perm.Key()], Grant{
					Permission:     perm,
					OrganizationID: binding,
				})
			}
		}
	}

	accessible, err := b.accessibleOrganizations(ctx, assignments, byID)
	if err != nil {
		return nil, err
	}

	return &UserContext{
		UserID:                userID,
		Roles:                 active,
		CurrentOrganizationID: currentOrgID,
		grants:                grants,
		accessibleOrgs:        accessible,
	}, nil
}

// accessibleOrganizations resolves the transitive closure of the user's
// direct organization bindings over a fresh hierarchy snapshot. The snapshot
// lives only for this build; it is never shared across requests.
func (b *ContextBuilder) accessibleOrganizations(ctx context.Context, assignments []*UserRoleAssignment, roles map[string]*Role) (map[string]struct{}, error) {
	direct := make([]string, 0, len(assignments))
	seen := make(map[string]struct{})
	add := func(id *string) {
		if id == nil {
			return
		}
		if _, ok := seen[*id]; ok {
			return
		}
		seen[*id] = struct{}{}
		direct = append(direct, *id)
	}
	for _, a := range assignments {
		add(a.OrganizationID)
		if role, ok := roles[a.RoleID]; ok {
			add(role.OrganizationID)
		}
	}

	if len(direct) == 0 {
		return map[string]struct{}{}, nil
	}

	rows, err := b.orgs.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load organizations: %w", err)
	}

	return org.NewHierarchy(rows).Accessible(direct), nil
}
