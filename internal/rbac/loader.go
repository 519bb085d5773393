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
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed policy.yaml
var defaultPolicy []byte

// Document is the YAML shape of a policy file.
type Document struct {
	Kinds      map[string][]string            `yaml:"kinds"`
	Roles      map[string]map[string][]string `yaml:"roles"`
	StageGates map[string]GateDocument        `yaml:"stage_gates"`
}

// GateDocument describes the stage gate of one resource kind.
type GateDocument struct {
	Always []string                       `yaml:"always"`
	Stages map[string]map[string][]string `yaml:"stages"`
}

// DefaultPolicy returns the raw bytes of the built-in policy document.
func DefaultPolicy() []byte {
	out := make([]byte, len(defaultPolicy))
	copy(out, defaultPolicy)
	return out
}

// DefaultModel returns the built-in policy model. It panics if the embedded
// document is invalid, which is a build defect.
func DefaultModel() *Model {
	m, err := Parse(defaultPolicy)
	if err != nil {
		panic(fmt.Sprintf("rbac: embedded policy: %v", err))
	}
	return m
}

// LoadFile reads and validates a policy document from path.
func LoadFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open policy file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load reads and validates a policy document.
func Load(r io.Reader) (*Model, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a policy document.
func Parse(data []byte) (*Model, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}
	return Compile(doc)
}

// Compile builds a Model from a decoded document.
func Compile(doc Document) (*Model, error) {
	if len(doc.Kinds) == 0 {
		return nil, fmt.Errorf("%w: no resource kinds defined", ErrInvalidPolicy)
	}

	m := &Model{
		vocab: make(map[ResourceKind]ActionSet, len(doc.Kinds)),
		base:  make(map[ResourceKind]map[Role]ActionSet),
		gates: make(map[ResourceKind]map[Status]map[Role]ActionSet),
	}

	for rawKind, actions := range doc.Kinds {
		kind, ok := ParseKind(rawKind)
		if !ok {
			return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidPolicy, rawKind)
		}
		m.vocab[kind] = NewActionSet(actions...)
	}

	for rawRole, kinds := range doc.Roles {
		role, ok := ParseRole(rawRole)
		if !ok {
			return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidPolicy, rawRole)
		}
		if !role.IsScoped() {
			return nil, fmt.Errorf("%w: system role %q cannot be given a table", ErrInvalidPolicy, rawRole)
		}
		for rawKind, actions := range kinds {
			kind, ok := ParseKind(rawKind)
			if !ok {
				return nil, fmt.Errorf("%w: unknown kind %q for role %q", ErrInvalidPolicy, rawKind, rawRole)
			}
			if m.base[kind] == nil {
				m.base[kind] = make(map[Role]ActionSet)
			}
			m.base[kind][role] = m.base[kind][role].Union(NewActionSet(actions...))
		}
	}

	for rawKind, gd := range doc.StageGates {
		kind, ok := ParseKind(rawKind)
		if !ok {
			return nil, fmt.Errorf("%w: unknown gated kind %q", ErrInvalidPolicy, rawKind)
		}
		stages, err := m.compileGate(kind, gd)
		if err != nil {
			return nil, err
		}
		m.gates[kind] = stages
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// compileGate expands a gate document into a table covering every status
// and every scoped role, bounded by each role's base actions.
func (m *Model) compileGate(kind ResourceKind, gd GateDocument) (map[Status]map[Role]ActionSet, error) {
	vocab := m.vocab[kind]
	always := NewActionSet(gd.Always...)
	for _, a := range always.Slice() {
		if !vocab.Has(a) {
			return nil, fmt.Errorf("%w: always-available action %q is not defined for kind %q", ErrInvalidPolicy, a, kind)
		}
	}

	extras := make(map[Status]map[Role]ActionSet, len(gd.Stages))
	for rawStatus, roles := range gd.Stages {
		status, ok := ParseStatus(rawStatus)
		if !ok {
			return nil, fmt.Errorf("%w: unknown status %q for kind %q", ErrInvalidPolicy, rawStatus, kind)
		}
		if extras[status] == nil {
			extras[status] = make(map[Role]ActionSet, len(roles))
		}
		for rawRole, actions := range roles {
			role, ok := ParseRole(rawRole)
			if !ok || !role.IsScoped() {
				return nil, fmt.Errorf("%w: invalid role %q in %s gate", ErrInvalidPolicy, rawRole, kind)
			}
			set := NewActionSet(actions...)
			base := m.ActionsFor(role, kind)
			for _, a := range set.Slice() {
				if !base.Has(a) {
					return nil, fmt.Errorf("%w: %s may not %s on %s at any stage", ErrInvalidPolicy, role, a, kind)
				}
			}
			extras[status][role] = extras[status][role].Union(set)
		}
	}

	stages := make(map[Status]map[Role]ActionSet, len(Statuses))
	for _, status := range Statuses {
		stages[status] = make(map[Role]ActionSet, len(ScopedRoles))
		for _, role := range ScopedRoles {
			allowed := always.Union(extras[status][role])
			stages[status][role] = m.ActionsFor(role, kind).Intersect(allowed)
		}
	}
	return stages, nil
}
