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

package org

// Hierarchy is an in-memory adjacency snapshot of the organization tree,
// built from a single read and scoped to one authorization decision. It is
// never shared across requests.
//
// The tree is assumed acyclic but the store does not enforce that on write,
// so every traversal carries a visited set and terminates regardless.
type Hierarchy struct {
	children map[string][]string
	parent   map[string]*string
	ids      map[string]struct{}
}

// NewHierarchy builds a snapshot from organization rows.
func NewHierarchy(orgs []*Organization) *Hierarchy {
	h := &Hierarchy{
		children: make(map[string][]string, len(orgs)),
		parent:   make(map[string]*string, len(orgs)),
		ids:      make(map[string]struct{}, len(orgs)),
	}
	for _, o := range orgs {
		h.ids[o.ID] = struct{}{}
		h.parent[o.ID] = o.ParentID
		if o.ParentID != nil {
			h.children[*o.ParentID] = append(h.children[*o.ParentID], o.ID)
		}
	}
	return h
}

// Accessible computes the set of organizations reachable from the directly
// assigned ones, following parent→child edges, always including the starting
// set. A node visited once is never re-expanded.
func (h *Hierarchy) Accessible(direct []string) map[string]struct{} {
	visited := make(map[string]struct{}, len(direct))
	queue := make([]string, 0, len(direct))

	for _, id := range direct {
		if _, ok := visited[id]; ok {
			continue
		}
		visited[id] = struct{}{}
		queue = append(queue, id)
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range h.children[current] {
			if _, ok := visited[child]; ok {
				continue
			}
			visited[child] = struct{}{}
			queue = append(queue, child)
		}
	}

	return visited
}

// Validate walks every parent chain and reports a cycle as an integrity
// fault. Loaders that want fail-fast semantics call this once at load time.
func (h *Hierarchy) Validate() error {
	for id := range h.ids {
		seen := map[string]struct{}{id: {}}
		current := h.parent[id]
		for current != nil {
			if _, ok := seen[*current]; ok {
				return ErrHierarchyCycle
			}
			seen[*current] = struct{}{}
			current = h.parent[*current]
		}
	}
	return nil
}

// Contains reports whether the organization exists in the snapshot.
func (h *Hierarchy) Contains(id string) bool {
	_, ok := h.ids[id]
	return ok
}
