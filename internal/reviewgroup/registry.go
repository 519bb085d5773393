// Copyright 2026 The IFLA Standards Authors
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

package reviewgroup

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrReviewGroupNotFound = errors.New("review group not found")
	ErrDuplicateGroup      = errors.New("duplicate review group")
	ErrSiteOwnedTwice      = errors.New("site belongs to more than one review group")
	ErrInvalidGroup        = errors.New("invalid review group")
)

// Registry is an immutable index of review groups and their sites.
// Lookups are case-insensitive. Safe for concurrent use.
type Registry struct {
	groups []ReviewGroup
	byID   map[string]int
	bySite map[string]int
}

// NewRegistry indexes groups. Every group needs an id, and every site must
// belong to exactly one group.
func NewRegistry(groups ...ReviewGroup) (*Registry, error) {
	r := &Registry{
		groups: make([]ReviewGroup, 0, len(groups)),
		byID:   make(map[string]int, len(groups)),
		bySite: make(map[string]int),
	}
	for _, g := range groups {
		id := strings.TrimSpace(g.ID)
		if id == "" {
			return nil, fmt.Errorf("%w: id is required", ErrInvalidGroup)
		}
		key := strings.ToLower(id)
		if _, dup := r.byID[key]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateGroup, id)
		}

		idx := len(r.groups)
		sites := make([]string, 0, len(g.Sites))
		for _, s := range g.Sites {
			site := strings.ToLower(strings.TrimSpace(s))
			if site == "" {
				continue
			}
			if owner, taken := r.bySite[site]; taken {
				return nil, fmt.Errorf("%w: %s (%s, %s)", ErrSiteOwnedTwice, site, r.groups[owner].ID, id)
			}
			r.bySite[site] = idx
			sites = append(sites, site)
		}

		g.ID = id
		g.Sites = sites
		if g.Status == "" {
			g.Status = StatusActive
		}
		r.byID[key] = idx
		r.groups = append(r.groups, g)
	}
	return r, nil
}

// DefaultRegistry returns a registry of the built-in IFLA review groups.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(Defaults()...)
	if err != nil {
		panic(fmt.Sprintf("reviewgroup: defaults: %v", err))
	}
	return r
}

// Lookup returns the group with the given id.
func (r *Registry) Lookup(id string) (ReviewGroup, bool) {
	if r == nil {
		return ReviewGroup{}, false
	}
	idx, ok := r.byID[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return ReviewGroup{}, false
	}
	return r.groups[idx].clone(), true
}

// GroupForSite returns the group owning site.
func (r *Registry) GroupForSite(site string) (ReviewGroup, bool) {
	if r == nil {
		return ReviewGroup{}, false
	}
	idx, ok := r.bySite[strings.ToLower(strings.TrimSpace(site))]
	if !ok {
		return ReviewGroup{}, false
	}
	return r.groups[idx].clone(), true
}

// Canonical maps a scope string to a review group id. The scope may be a
// group id in any case or a site key owned by a group.
func (r *Registry) Canonical(scope string) (string, bool) {
	if g, ok := r.Lookup(scope); ok {
		return g.ID, true
	}
	if g, ok := r.GroupForSite(scope); ok {
		return g.ID, true
	}
	return "", false
}

// List returns every group in registration order.
func (r *Registry) List() []ReviewGroup {
	if r == nil {
		return nil
	}
	out := make([]ReviewGroup, len(r.groups))
	for i, g := range r.groups {
		out[i] = g.clone()
	}
	return out
}

// Len returns the number of groups.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.groups)
}

func (g ReviewGroup) clone() ReviewGroup {
	g.Sites = append([]string(nil), g.Sites...)
	return g
}
