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

package rbac

import "sort"

// ActionSet is an immutable set of action names.
// The zero value is the empty set.
type ActionSet struct {
	actions map[string]struct{}
}

// NewActionSet builds a set from the given actions. Duplicates collapse.
func NewActionSet(actions ...string) ActionSet {
	if len(actions) == 0 {
		return ActionSet{}
	}
	m := make(map[string]struct{}, len(actions))
	for _, a := range actions {
		m[a] = struct{}{}
	}
	return ActionSet{actions: m}
}

// Has reports whether action is a member of the set.
func (s ActionSet) Has(action string) bool {
	_, ok := s.actions[action]
	return ok
}

// Len returns the number of actions in the set.
func (s ActionSet) Len() int {
	return len(s.actions)
}

// Empty reports whether the set has no members.
func (s ActionSet) Empty() bool {
	return len(s.actions) == 0
}

// Slice returns the members in sorted order.
func (s ActionSet) Slice() []string {
	out := make([]string, 0, len(s.actions))
	for a := range s.actions {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Union returns a new set holding the members of s and o.
func (s ActionSet) Union(o ActionSet) ActionSet {
	if o.Empty() {
		return s
	}
	if s.Empty() {
		return o
	}
	m := make(map[string]struct{}, len(s.actions)+len(o.actions))
	for a := range s.actions {
		m[a] = struct{}{}
	}
	for a := range o.actions {
		m[a] = struct{}{}
	}
	return ActionSet{actions: m}
}

// Intersect returns a new set holding the members present in both s and o.
func (s ActionSet) Intersect(o ActionSet) ActionSet {
	if s.Empty() || o.Empty() {
		return ActionSet{}
	}
	small, large := s, o
	if small.Len() > large.Len() {
		small, large = large, small
	}
	m := make(map[string]struct{})
	for a := range small.actions {
		if large.Has(a) {
			m[a] = struct{}{}
		}
	}
	return ActionSet{actions: m}
}
