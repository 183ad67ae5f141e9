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

// -----------------------------------------------------------------------------
// Permission Name Constants
// These are the canonical permission strings seeded in the database catalog.
// -----------------------------------------------------------------------------

const (
	// Analytics
	PermAnalyticsReadOwn = "analytics:read:own"
	PermAnalyticsReadOrg = "analytics:read:organization"
	PermAnalyticsReadAll = "analytics:read:all"

	// Dashboards
	PermDashboardsReadOwn   = "dashboards:read:own"
	PermDashboardsReadOrg   = "dashboards:read:organization"
	PermDashboardsReadAll   = "dashboards:read:all"
	PermDashboardsManageOwn = "dashboards:manage:own"
	PermDashboardsManageOrg = "dashboards:manage:organization"
	PermDashboardsManageAll = "dashboards:manage:all"

	// Charts
	PermChartsReadOrg   = "charts:read:organization"
	PermChartsReadAll   = "charts:read:all"
	PermChartsManageOrg = "charts:manage:organization"

	// Work items
	PermWorkItemsReadOwn   = "workitems:read:own"
	PermWorkItemsReadOrg   = "workitems:read:organization"
	PermWorkItemsManageOwn = "workitems:manage:own"
	PermWorkItemsManageOrg = "workitems:manage:organization"

	// Practices
	PermPracticesReadOrg   = "practices:read:organization"
	PermPracticesReadAll   = "practices:read:all"
	PermPracticesManageOrg = "practices:manage:organization"
	PermPracticesManageAll = "practices:manage:all"

	// Users
	PermUsersReadOwn   = "users:read:own"
	PermUsersReadOrg   = "users:read:organization"
	PermUsersManageOwn = "users:manage:own"
	PermUsersManageOrg = "users:manage:organization"
	PermUsersManageAll = "users:manage:all"

	// Organizations
	PermOrgsReadOrg   = "organizations:read:organization"
	PermOrgsReadAll   = "organizations:read:all"
	PermOrgsManageAll = "organizations:manage:all"

	// Roles
	PermRolesReadAll   = "roles:read:all"
	PermRolesManageAll = "roles:manage:all"
)

// DefaultCatalog lists every permission seeded at deployment.
// The catalog is validated at load time; see NewCatalog.
var DefaultCatalog = []string{
	PermAnalyticsReadOwn,
	PermAnalyticsReadOrg,
	PermAnalyticsReadAll,
	PermDashboardsReadOwn,
	PermDashboardsReadOrg,
	PermDashboardsReadAll,
	PermDashboardsManageOwn,
	PermDashboardsManageOrg,
	PermDashboardsManageAll,
	PermChartsReadOrg,
	PermChartsReadAll,
	PermChartsManageOrg,
	PermWorkItemsReadOwn,
	PermWorkItemsReadOrg,
	PermWorkItemsManageOwn,
	PermWorkItemsManageOrg,
	PermPracticesReadOrg,
	PermPracticesReadAll,
	PermPracticesManageOrg,
	PermPracticesManageAll,
	PermUsersReadOwn,
	PermUsersReadOrg,
	PermUsersManageOwn,
	PermUsersManageOrg,
	PermUsersManageAll,
	PermOrgsReadOrg,
	PermOrgsReadAll,
	PermOrgsManageAll,
	PermRolesReadAll,
	PermRolesManageAll,
}

// -----------------------------------------------------------------------------
// Role Name Constants
// Canonical names for the roles seeded in the database.
// -----------------------------------------------------------------------------

const (
	// RolePlatformAdmin is the platform-wide administrator role.
	// System role, no organization binding.
	RolePlatformAdmin = "platform_admin"

	// RoleOrgAdmin administers a single organization and its descendants.
	RoleOrgAdmin = "org_admin"

	// RolePractitioner is a clinician working within one organization.
	RolePractitioner = "practitioner"

	// RoleAnalyst has read access to analytics within one organization.
	RoleAnalyst = "analyst"
)

// PlatformAdminPermissions defines permissions for the platform_admin role.
var PlatformAdminPermissions = []string{
	PermAnalyticsReadAll,
	PermDashboardsReadAll,
	PermDashboardsManageAll,
	PermChartsReadAll,
	PermPracticesReadAll,
	PermPracticesManageAll,
	PermUsersManageAll,
	PermOrgsReadAll,
	PermOrgsManageAll,
	PermRolesReadAll,
	PermRolesManageAll,
}

// OrgAdminPermissions defines permissions for the org_admin role.
var OrgAdminPermissions = []string{
	PermAnalyticsReadOrg,
	PermDashboardsReadOrg,
	PermDashboardsManageOrg,
	PermChartsReadOrg,
	PermChartsManageOrg,
	PermWorkItemsReadOrg,
	PermWorkItemsManageOrg,
	PermPracticesReadOrg,
	PermPracticesManageOrg,
	PermUsersReadOrg,
	PermUsersManageOrg,
	PermOrgsReadOrg,
}

// PractitionerPermissions defines permissions for the practitioner role.
var PractitionerPermissions = []string{
	PermAnalyticsReadOwn,
	PermDashboardsReadOwn,
	PermDashboardsManageOwn,
	PermWorkItemsReadOwn,
	PermWorkItemsManageOwn,
	PermUsersReadOwn,
	PermUsersManageOwn,
}

// AnalystPermissions defines permissions for the analyst role.
var AnalystPermissions = []string{
	PermAnalyticsReadOrg,
	PermDashboardsReadOrg,
	PermChartsReadOrg,
}
