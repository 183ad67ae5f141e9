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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

// root -> clinic -> site, with sibling branch root -> other.
func testTree() []*Organization {
	return []*Organization{
		{ID: "root", Name: "Root"},
		{ID: "clinic", Name: "Clinic", ParentID: strPtr("root")},
		{ID: "site", Name: "Site", ParentID: strPtr("clinic")},
		{ID: "other", Name: "Other", ParentID: strPtr("root")},
	}
}

func TestHierarchy_AccessibleIsTransitiveAndIncludesSelf(t *testing.T) {
	h := NewHierarchy(testTree())

	accessible := h.Accessible([]string{"root"})
	assert.Len(t, accessible, 4)
	for _, id := range []string{"root", "clinic", "site", "other"} {
		assert.Contains(t, accessible, id)
	}
}

func TestHierarchy_AccessibleExcludesAncestorsAndSiblings(t *testing.T) {
	h := NewHierarchy(testTree())

	accessible := h.Accessible([]string{"clinic"})
	assert.Contains(t, accessible, "clinic")
	assert.Contains(t, accessible, "site")
	assert.NotContains(t, accessible, "root")
	assert.NotContains(t, accessible, "other")
}

func TestHierarchy_AccessibleLeafIsJustItself(t *testing.T) {
	h := NewHierarchy(testTree())

	accessible := h.Accessible([]string{"site"})
	assert.Equal(t, map[string]struct{}{"site": {}}, accessible)
}

func TestHierarchy_AccessibleMergesMultipleStarts(t *testing.T) {
	h := NewHierarchy(testTree())

	accessible := h.Accessible([]string{"clinic", "other"})
	assert.Len(t, accessible, 3)
	assert.Contains(t, accessible, "other")
	assert.NotContains(t, accessible, "root")
}

func TestHierarchy_AccessibleEmptyStart(t *testing.T) {
	h := NewHierarchy(testTree())
	assert.Empty(t, h.Accessible(nil))
}

// TestPurpose: a corrupted parent chain must not hang the traversal; the
// visited set guarantees termination and Validate reports the fault.
func TestHierarchy_CycleTerminatesAndValidates(t *testing.T) {
	cyclic := []*Organization{
		{ID: "a", ParentID: strPtr("b")},
		{ID: "b", ParentID: strPtr("a")},
		{ID: "c", ParentID: strPtr("a")},
	}
	h := NewHierarchy(cyclic)

	accessible := h.Accessible([]string{"a"})
	assert.Contains(t, accessible, "a")
	assert.Contains(t, accessible, "b")
	assert.Contains(t, accessible, "c")

	assert.ErrorIs(t, h.Validate(), ErrHierarchyCycle)
}

func TestHierarchy_ValidateAcceptsTree(t *testing.T) {
	h := NewHierarchy(testTree())
	assert.NoError(t, h.Validate())
}

func TestHierarchy_Contains(t *testing.T) {
	h := NewHierarchy(testTree())
	assert.True(t, h.Contains("clinic"))
	assert.False(t, h.Contains("nowhere"))
}
