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

// ResourceFacts carries the ownership and organization attributes of the
// resource an operation touches. Both fields are optional; an absent fact
// simply fails the scope rules that need it.
type ResourceFacts struct {
	OwnerID        string
	OrganizationID *string
}

// Deny reasons carried in decisions for audit logging.
const (
	DenyNoMatchingGrant    = "no_matching_grant"
	DenyOrgContextMissing  = "organization_context_missing"
	DenyOrgNotAccessible   = "organization_not_accessible"
	DenyOrgContextMismatch = "organization_context_mismatch"
	DenyNotOwner           = "not_owner"
)

// Decision is the structured outcome of an authorization check. A deny is an
// expected result, not an error; the decision carries enough context for the
// caller to audit it without leaking catalog shape to the subject.
type Decision struct {
	Granted      bool
	Permission   Permission
	MatchedScope Scope  // scope of the grant that satisfied the check
	Reason       string // populated on deny
}

// Authorize evaluates a required permission against the user's effective
// grant set. Grants for the same resource:action accumulate across roles and
// each is evaluated under its own scope rule; the check passes if any grant
// passes. There is no explicit deny: absence of a passing grant is the only
// deny path.
//
// Scope rules:
//   - all: unconditional.
//   - organization: the resource's organization must be supplied, must be
//     accessible to the user, and must equal the caller's current
//     organization. Missing organization context always denies, even when
//     the user holds the permission somewhere.
//   - own: the resource's owner must be the user.
func Authorize(uc *UserContext, required Permission, facts ResourceFacts) Decision {
	grants := uc.Grants(required.Resource, required.Action)
	if len(grants) == 0 {
		return deny(required, DenyNoMatchingGrant)
	}

	// Evaluate the widest scopes first so the decision reports the grant
	// that actually carried it.
	reason := DenyNoMatchingGrant
	for _, scope := range []Scope{ScopeAll, ScopeOrganization, ScopeOwn} {
		for _, g := range grants {
			if g.Permission.Scope != scope {
				continue
			}
			ok, r := evaluate(uc, scope, facts)
			if ok {
				return Decision{
					Granted:      true,
					Permission:   required,
					MatchedScope: scope,
				}
			}
			if reason == DenyNoMatchingGrant {
				reason = r
			}
		}
	}

	return deny(required, reason)
}

func evaluate(uc *UserContext, scope Scope, facts ResourceFacts) (bool, string) {
	switch scope {
	case ScopeAll:
		return true, ""

	case ScopeOrganization:
		if facts.OrganizationID == nil {
			return false, DenyOrgContextMissing
		}
		if !uc.CanAccessOrganization(*facts.OrganizationID) {
			return false, DenyOrgNotAccessible
		}
		if uc.CurrentOrganizationID == nil {
			return false, DenyOrgContextMissing
		}
		if *uc.CurrentOrganizationID != *facts.OrganizationID {
			return false, DenyOrgContextMismatch
		}
		return true, ""

	case ScopeOwn:
		if facts.OwnerID == "" || facts.OwnerID != uc.UserID {
			return false, DenyNotOwner
		}
		return true, ""
	}

	return false, DenyNoMatchingGrant
}

func deny(required Permission, reason string) Decision {
	return Decision{
		Granted:    false,
		Permission: required,
		Reason:     reason,
	}
}
