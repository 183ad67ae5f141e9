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

import "fmt"

// Catalog is the fixed table of known permissions, parsed once at load time.
// A permission string that does not match the catalog shape fails the load;
// authorization never degrades silently on malformed data.
type Catalog struct {
	byName map[string]Permission
}

// NewCatalog parses and validates a set of permission names.
func NewCatalog(names []string) (*Catalog, error) {
	byName := make(map[string]Permission, len(names))
	for _, name := range names {
		perm, err := ParsePermission(name)
		if err != nil {
			return nil, fmt.Errorf("invalid catalog entry: %w", err)
		}
		if _, exists := byName[name]; exists {
			return nil, fmt.Errorf("duplicate catalog entry: %q", name)
		}
		byName[name] = perm
	}
	return &Catalog{byName: byName}, nil
}

// Lookup returns the parsed permission for a catalog name.
func (c *Catalog) Lookup(name string) (Permission, bool) {
	perm, ok := c.byName[name]
	return perm, ok
}

// Contains reports whether the name is part of the catalog.
func (c *Catalog) Contains(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// Names returns all catalog entries.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.byName))
	for name := range c.byName {
		names = append(names, name)
	}
	return names
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.byName)
}
