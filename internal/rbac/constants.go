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

package rbac

// System-defined Role IDs from the initial schema migration
// (001_initial_schema.up.sql). These UUIDs are seeded during database
// initialization and must remain stable.
const (
	// RoleIDPlatformAdmin grants platform-wide administrative privileges.
	// System role, no organization binding.
	RoleIDPlatformAdmin = "20000000-0000-0000-0000-000000000001"

	// RoleIDOrgAdmin administers one organization subtree.
	RoleIDOrgAdmin = "20000000-0000-0000-0000-000000000002"

	// RoleIDPractitioner is the default clinician role.
	RoleIDPractitioner = "20000000-0000-0000-0000-000000000003"

	// RoleIDAnalyst has organization-scoped analytics read access.
	RoleIDAnalyst = "20000000-0000-0000-0000-000000000004"
)

// RootOrganizationID is the pre-seeded root of the organization tree, used
// for initial platform bootstrap. Created during migration; never deleted.
const RootOrganizationID = "10000000-0000-0000-0000-000000000000"
