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
	"fmt"
	"strings"
)

// Scope defines the breadth at which a permission applies
type Scope string

const (
	// ScopeOwn requires the caller to own the resource.
	ScopeOwn Scope = "own"

	// ScopeOrganization requires the resource to belong to an organization
	// the caller can act within, with that organization explicitly in context.
	ScopeOrganization Scope = "organization"

	// ScopeAll grants unconditionally.
	ScopeAll Scope = "all"
)

// Valid reports whether the scope is one of the three known levels.
func (s Scope) Valid() bool {
	switch s {
	case ScopeOwn, ScopeOrganization, ScopeAll:
		return true
	}
	return false
}

// Permission is an immutable resource/action/scope triple.
// Permissions form a fixed catalog seeded at deployment; they are never
// created or destroyed at runtime.
type Permission struct {
	Resource string
	Action   string
	Scope    Scope
}

// String renders the permission in its canonical wire form.
func (p Permission) String() string {
	return p.Resource + ":" + p.Action + ":" + string(p.Scope)
}

// Key identifies the resource:action pair the permission applies to,
// independent of scope. Grants for the same key accumulate across roles.
func (p Permission) Key() string {
	return p.Resource + ":" + p.Action
}

// ParsePermission parses a "resource:action:scope" string.
// Any other shape is a configuration error, not an authorization outcome.
func ParsePermission(name string) (Permission, error) {
	parts := strings.Split(name, ":")
	if len(parts) != 3 {
		return Permission{}, fmt.Errorf("%w: %q", ErrMalformedPermission, name)
	}
	for _, part := range parts {
		if part == "" {
			return Permission{}, fmt.Errorf("%w: %q", ErrMalformedPermission, name)
		}
	}

	scope := Scope(parts[2])
	if !scope.Valid() {
		return Permission{}, fmt.Errorf("%w: unknown scope in %q", ErrMalformedPermission, name)
	}

	return Permission{
		Resource: parts[0],
		Action:   parts[1],
		Scope:    scope,
	}, nil
}
