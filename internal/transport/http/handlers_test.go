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

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxhub/praxhub/internal/audit"
	"github.com/praxhub/praxhub/internal/authz"
	"github.com/praxhub/praxhub/internal/observability/metrics"
	"github.com/praxhub/praxhub/internal/org"
	"github.com/praxhub/praxhub/internal/revocation"
	"github.com/praxhub/praxhub/internal/session"
)

func strPtr(s string) *string { return &s }

type fakeRoles struct {
	mu    sync.Mutex
	roles map[string]*authz.Role
}

func (f *fakeRoles) GetByID(ctx context.Context, id string) (*authz.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	role, ok := f.roles[id]
	if !ok {
		return nil, authz.ErrRoleNotFound
	}
	return role, nil
}

func (f *fakeRoles) GetByIDs(ctx context.Context, ids []string) ([]*authz.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*authz.Role
	for _, id := range ids {
		if role, ok := f.roles[id]; ok {
			out = append(out, role)
		}
	}
	return out, nil
}

func (f *fakeRoles) Create(ctx context.Context, role *authz.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roles[role.ID] = role
	return nil
}

func (f *fakeRoles) Update(ctx context.Context, role *authz.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roles[role.ID] = role
	return nil
}

func (f *fakeRoles) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.roles, id)
	return nil
}

func (f *fakeRoles) SetPermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	return nil
}

type fakeAssignments struct {
	mu     sync.Mutex
	byUser map[string][]*authz.UserRoleAssignment
}

func (f *fakeAssignments) Grant(ctx context.Context, a *authz.UserRoleAssignment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byUser[a.UserID] = append(f.byUser[a.UserID], a)
	return nil
}

func (f *fakeAssignments) Revoke(ctx context.Context, userID, roleID string, organizationID *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.byUser[userID][:0]
	for _, a := range f.byUser[userID] {
		if a.RoleID != roleID {
			kept = append(kept, a)
		}
	}
	f.byUser[userID] = kept
	return nil
}

func (f *fakeAssignments) ListActiveForUser(ctx context.Context, userID string) ([]*authz.UserRoleAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byUser[userID], nil
}

func (f *fakeAssignments) ListUserIDsWithRole(ctx context.Context, roleID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for userID, assignments := range f.byUser {
		for _, a := range assignments {
			if a.RoleID == roleID && a.IsActive {
				ids = append(ids, userID)
				break
			}
		}
	}
	return ids, nil
}

type fakePerms struct {
	perRole map[string][]string
}

func (f *fakePerms) ListNames(ctx context.Context) ([]string, error) {
	return authz.DefaultCatalog, nil
}

func (f *fakePerms) ListNamesForRoles(ctx context.Context, roleIDs []string) (map[string][]string, error) {
	out := make(map[string][]string)
	for _, id := range roleIDs {
		if names, ok := f.perRole[id]; ok {
			out[id] = names
		}
	}
	return out, nil
}

func (f *fakePerms) IDsByName(ctx context.Context, names []string) (map[string]string, error) {
	out := make(map[string]string, len(names))
	for _, name := range names {
		out[name] = "id-" + name
	}
	return out, nil
}

type fakeOrgs struct {
	rows []*org.Organization
}

func (f *fakeOrgs) Create(ctx context.Context, o *org.Organization) error {
	f.rows = append(f.rows, o)
	return nil
}

func (f *fakeOrgs) GetByID(ctx context.Context, id string) (*org.Organization, error) {
	for _, o := range f.rows {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, org.ErrOrganizationNotFound
}

func (f *fakeOrgs) ListAll(ctx context.Context) ([]*org.Organization, error) {
	return f.rows, nil
}

func (f *fakeOrgs) Update(ctx context.Context, o *org.Organization) error { return nil }

type fakeTokenRepo struct {
	mu     sync.Mutex
	byHash map[string]*session.RefreshToken
}

func (f *fakeTokenRepo) Create(ctx context.Context, token *session.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byHash[token.TokenHash] = token
	return nil
}

func (f *fakeTokenRepo) GetByTokenHash(ctx context.Context, hash string) (*session.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	token, ok := f.byHash[hash]
	if !ok {
		return nil, session.ErrTokenNotFound
	}
	return token, nil
}

func (f *fakeTokenRepo) ListActiveByUser(ctx context.Context, userID string) ([]*session.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*session.RefreshToken
	for _, t := range f.byHash {
		if t.UserID == userID && !t.IsRevoked {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTokenRepo) Revoke(ctx context.Context, tokenID string, reason session.RevocationReason) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.byHash {
		if t.ID == tokenID {
			t.IsRevoked = true
			t.Reason = reason
			return nil
		}
	}
	return session.ErrTokenNotFound
}

func (f *fakeTokenRepo) DeleteExpired(ctx context.Context) error { return nil }

type fakeBlacklist struct {
	mu    sync.Mutex
	users map[string]session.RevocationReason
}

func (f *fakeBlacklist) Add(ctx context.Context, userID string, reason session.RevocationReason, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[userID] = reason
	return nil
}

func (f *fakeBlacklist) Contains(ctx context.Context, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.users[userID]
	return ok, nil
}

type fakeAudit struct {
	mu     sync.Mutex
	events []audit.Event
}

func (f *fakeAudit) Log(ctx context.Context, e audit.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
}

func (f *fakeAudit) byType(eventType string) []audit.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []audit.Event
	for _, e := range f.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// testEnv wires the full request path against in-memory stores:
//
//	organizations: root -> org-a -> org-a1, root -> org-b
//	admin-1: role-admin (roles:manage:all, organizations:read:all)
//	member-1: role-member bound to org-a (organizations:read:organization,
//	          analytics:read:organization)
type testEnv struct {
	server    *httptest.Server
	manager   *session.Manager
	roles     *fakeRoles
	blacklist *fakeBlacklist
	audit     *fakeAudit
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	roles := &fakeRoles{roles: map[string]*authz.Role{
		"role-admin":  {ID: "role-admin", Name: "platform_admin", IsActive: true},
		"role-member": {ID: "role-member", Name: "org_member", IsActive: true},
		"role-sys":    {ID: "role-sys", Name: authz.RoleOrgAdmin, IsSystemRole: true, IsActive: true},
	}}
	assignments := &fakeAssignments{byUser: map[string][]*authz.UserRoleAssignment{
		"admin-1": {
			{ID: "as-1", UserID: "admin-1", RoleID: "role-admin", IsActive: true},
		},
		"member-1": {
			{ID: "as-2", UserID: "member-1", RoleID: "role-member", OrganizationID: strPtr("org-a"), IsActive: true},
		},
	}}
	perms := &fakePerms{perRole: map[string][]string{
		"role-admin":  {authz.PermRolesManageAll, authz.PermOrgsReadAll},
		"role-member": {authz.PermOrgsReadOrg, authz.PermAnalyticsReadOrg},
	}}
	orgs := &fakeOrgs{rows: []*org.Organization{
		{ID: "root", Name: "Root", IsActive: true},
		{ID: "org-a", Name: "Clinic A", ParentID: strPtr("root"), IsActive: true},
		{ID: "org-a1", Name: "Site A1", ParentID: strPtr("org-a"), IsActive: true},
		{ID: "org-b", Name: "Clinic B", ParentID: strPtr("root"), IsActive: true},
	}}

	catalog, err := authz.NewCatalog(authz.DefaultCatalog)
	require.NoError(t, err)

	tokens := &fakeTokenRepo{byHash: make(map[string]*session.RefreshToken)}
	blacklist := &fakeBlacklist{users: make(map[string]session.RevocationReason)}
	manager := session.NewManager([]byte("test-secret-0123456789abcdef"), "praxhub-test", 15*time.Minute, time.Hour, tokens, blacklist)

	auditLogger := &fakeAudit{}
	invalidator := revocation.New(assignments, tokens, blacklist, auditLogger, nil,
		revocation.Config{FanoutLimit: 2, BlacklistTTL: 15 * time.Minute})
	builder := authz.NewContextBuilder(assignments, roles, perms, orgs, catalog)
	service := authz.NewService(roles, assignments, perms, catalog, invalidator, auditLogger)

	meter, err := metrics.New(context.Background(), metrics.Config{}, "test")
	require.NoError(t, err)

	handler := NewHandler(service, builder, orgs, manager, auditLogger, meter)
	server := httptest.NewServer(NewRouter(handler, NewRateLimiter(1000, 1000)))
	t.Cleanup(server.Close)

	return &testEnv{
		server:    server,
		manager:   manager,
		roles:     roles,
		blacklist: blacklist,
		audit:     auditLogger,
	}
}

func (e *testEnv) token(t *testing.T, userID string, orgID *string) string {
	t.Helper()
	raw, err := e.manager.IssueAccessToken(userID, orgID)
	require.NoError(t, err)
	return raw
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv(t)

	t.Run("rejects missing token", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/v1/authz/check", "", map[string]string{"permission": "analytics:read:own"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("rejects garbage token", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/v1/authz/check", "not-a-jwt", map[string]string{"permission": "analytics:read:own"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("rejects organization header spoofing", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/v1/authz/check", bytes.NewBufferString("{}"))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+env.token(t, "member-1", strPtr("org-a")))
		req.Header.Set("X-Organization-ID", "org-b")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestCheckPermission(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "member-1", strPtr("org-a"))

	t.Run("grants inside the bound organization", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/v1/authz/check", token, map[string]any{
			"permission":      "analytics:read:organization",
			"organization_id": "org-a",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decode(t, resp)
		assert.Equal(t, true, body["granted"])
		assert.Equal(t, "organization", body["scope"])
	})

	t.Run("deny reveals nothing", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/v1/authz/check", token, map[string]any{
			"permission":      "analytics:read:organization",
			"organization_id": "org-b",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decode(t, resp)
		assert.Equal(t, false, body["granted"])
		assert.NotContains(t, body, "scope")
		assert.NotContains(t, body, "reason")

		denied := env.audit.byType(audit.TypePermissionDenied)
		require.NotEmpty(t, denied)
		assert.Equal(t, "member-1", denied[len(denied)-1].ActorID)
	})

	t.Run("rejects malformed permission", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/v1/authz/check", token, map[string]string{
			"permission": "analytics:read",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestRoleRoutesRequireManagePermission(t *testing.T) {
	env := newTestEnv(t)

	t.Run("member denied uniformly", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/v1/roles/", env.token(t, "member-1", strPtr("org-a")), map[string]string{"name": "sneaky"})
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, map[string]any{"error": "permission denied"}, decode(t, resp))
	})

	t.Run("admin can create", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/v1/roles/", env.token(t, "admin-1", nil), map[string]string{
			"name":        "billing_reviewer",
			"description": "reviews billing reports",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		body := decode(t, resp)
		assert.NotEmpty(t, body["id"])
	})
}

func TestSetRolePermissions(t *testing.T) {
	env := newTestEnv(t)
	admin := env.token(t, "admin-1", nil)

	t.Run("system role conflicts", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/v1/roles/role-sys/permissions", admin, map[string]any{
			"permissions": []string{authz.PermAnalyticsReadOrg},
		})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("unknown permission rejected", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/v1/roles/role-member/permissions", admin, map[string]any{
			"permissions": []string{"widgets:spin:all"},
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("missing role not found", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/v1/roles/nope/permissions", admin, map[string]any{
			"permissions": []string{authz.PermAnalyticsReadOrg},
		})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestGetOrganization(t *testing.T) {
	env := newTestEnv(t)

	t.Run("member reads own organization", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/v1/organizations/org-a", env.token(t, "member-1", strPtr("org-a")), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Clinic A", decode(t, resp)["name"])
	})

	t.Run("member denied a sibling organization", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/v1/organizations/org-b", env.token(t, "member-1", strPtr("org-a")), nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("member without organization context denied", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/v1/organizations/org-a", env.token(t, "member-1", nil), nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("admin sees not found only after the check passes", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/v1/organizations/org-ghost", env.token(t, "admin-1", nil), nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

// TestPurpose: deactivating a role cuts off its holders mid-session. The
// member's still-unexpired access token stops working on the next request.
func TestRoleDeactivationInvalidatesLiveSessions(t *testing.T) {
	env := newTestEnv(t)
	member := env.token(t, "member-1", strPtr("org-a"))

	resp := env.do(t, http.MethodGet, "/api/v1/organizations/org-a", member, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/v1/roles/role-member/deactivate", env.token(t, "admin-1", nil), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/v1/organizations/org-a", member, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	assert.Equal(t, session.ReasonAdminAction, env.blacklist.users["member-1"])
	assert.NotEmpty(t, env.audit.byType(audit.TypeTokensRevoked))
}

func TestRevokeRoleInvalidatesUser(t *testing.T) {
	env := newTestEnv(t)
	member := env.token(t, "member-1", strPtr("org-a"))

	resp := env.do(t, http.MethodDelete, "/api/v1/roles/role-member/assignments/member-1", env.token(t, "admin-1", nil), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/v1/organizations/org-a", member, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
