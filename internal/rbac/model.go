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

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidPolicy is returned when a policy document fails validation.
var ErrInvalidPolicy = errors.New("invalid policy")

// Model holds the role to action tables and the workflow stage gates.
// A Model is immutable once built and safe for concurrent use.
type Model struct {
	vocab map[ResourceKind]ActionSet
	base  map[ResourceKind]map[Role]ActionSet
	gates map[ResourceKind]map[Status]map[Role]ActionSet
}

// Kinds returns the resource kinds known to the model, sorted.
func (m *Model) Kinds() []ResourceKind {
	out := make([]ResourceKind, 0, len(m.vocab))
	for k := range m.vocab {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Vocabulary returns the action vocabulary of kind.
func (m *Model) Vocabulary(kind ResourceKind) ActionSet {
	return m.vocab[kind]
}

// KnownAction reports whether action belongs to the vocabulary of kind.
func (m *Model) KnownAction(kind ResourceKind, action string) bool {
	return m.vocab[kind].Has(action)
}

// ActionsFor returns the actions role may perform on kind, ignoring
// workflow stage. A missing entry is the empty set.
func (m *Model) ActionsFor(role Role, kind ResourceKind) ActionSet {
	return m.base[kind][role]
}

// Gated reports whether kind is subject to workflow stage gating.
func (m *Model) Gated(kind ResourceKind) bool {
	_, ok := m.gates[kind]
	return ok
}

// GateFor returns the actions role keeps on kind at status. For a kind that
// is not gated it is the same as ActionsFor.
func (m *Model) GateFor(kind ResourceKind, status Status, role Role) ActionSet {
	stages, ok := m.gates[kind]
	if !ok {
		return m.ActionsFor(role, kind)
	}
	return stages[status][role]
}

// StageGate returns the per-role action subsets permitted on kind at status.
// ok is false when kind is not stage gated, in which case ActionsFor applies
// unmodified. The returned map is a copy.
func (m *Model) StageGate(kind ResourceKind, status Status) (gate map[Role]ActionSet, ok bool) {
	stages, ok := m.gates[kind]
	if !ok {
		return nil, false
	}
	gate = make(map[Role]ActionSet, len(stages[status]))
	for r, s := range stages[status] {
		gate[r] = s
	}
	return gate, true
}

// Validate checks the internal consistency of the tables.
func (m *Model) Validate() error {
	for kind, roles := range m.base {
		vocab, ok := m.vocab[kind]
		if !ok {
			return fmt.Errorf("%w: kind %q has no action vocabulary", ErrInvalidPolicy, kind)
		}
		for role, set := range roles {
			if !role.IsScoped() {
				return fmt.Errorf("%w: role %q cannot appear in the role tables", ErrInvalidPolicy, role)
			}
			for _, a := range set.Slice() {
				if !vocab.Has(a) {
					return fmt.Errorf("%w: action %q is not defined for kind %q", ErrInvalidPolicy, a, kind)
				}
				if a == ActionOverrideWorkflow {
					return fmt.Errorf("%w: %s is reserved for system roles", ErrInvalidPolicy, ActionOverrideWorkflow)
				}
			}
		}
	}
	for kind, stages := range m.gates {
		for status, roles := range stages {
			if _, ok := ParseStatus(string(status)); !ok {
				return fmt.Errorf("%w: unknown status %q for kind %q", ErrInvalidPolicy, status, kind)
			}
			for role, set := range roles {
				base := m.ActionsFor(role, kind)
				if set.Intersect(base).Len() != set.Len() {
					return fmt.Errorf("%w: gate for %s/%s/%s exceeds the role's base actions", ErrInvalidPolicy, kind, status, role)
				}
			}
		}
	}
	return nil
}
