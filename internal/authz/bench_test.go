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
	"testing"
)

// Authorize sits on the hot path of every API request; it must stay
// allocation-light.
func BenchmarkAuthorize(b *testing.B) {
	orgID := "org-a"
	perm := Permission{Resource: "analytics", Action: "read", Scope: ScopeOrganization}
	uc := &UserContext{
		UserID:                "user-1",
		CurrentOrganizationID: &orgID,
		grants: map[string][]Grant{
			"analytics:read": {{Permission: perm, OrganizationID: &orgID}},
		},
		accessibleOrgs: map[string]struct{}{"org-a": {}},
	}
	facts := ResourceFacts{OrganizationID: &orgID}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if d := Authorize(uc, perm, facts); !d.Granted {
			b.Fatal("expected grant")
		}
	}
}

func BenchmarkContextBuilder_Build(b *testing.B) {
	orgID := "org-clinic"
	roles := &fakeRoleRepo{roles: map[string]*Role{
		"role-analyst": {ID: "role-analyst", Name: "analyst", IsActive: true},
	}}
	assignments := &fakeAssignmentRepo{byUser: map[string][]*UserRoleAssignment{
		"user-1": {
			{ID: "a-1", UserID: "user-1", RoleID: "role-analyst", OrganizationID: &orgID, IsActive: true},
		},
	}}
	perms := &fakePermissionRepo{perRole: map[string][]string{
		"role-analyst": AnalystPermissions,
	}}
	catalog, err := NewCatalog(DefaultCatalog)
	if err != nil {
		b.Fatal(err)
	}

	builder := NewContextBuilder(assignments, roles, perms, testOrgRepo(), catalog)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := builder.Build(ctx, "user-1", &orgID); err != nil {
			b.Fatal(err)
		}
	}
}
