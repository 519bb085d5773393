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

package authz

import (
	"github.com/iflastandards/rgauthz/internal/rbac"
	"github.com/iflastandards/rgauthz/internal/reviewgroup"
)

// Decision reasons
const (
	ReasonSystemOverride = "system_override"
	ReasonUnknownKind    = "unknown_kind"
	ReasonNoScope        = "no_scope"
	ReasonNoMatchingRole = "no_matching_role"
	ReasonUnknownStatus  = "unknown_status"
	ReasonScopedRoles    = "scoped_roles"
)

// Decision is a CheckResult together with how it was reached.
type Decision struct {
	CheckResult
	Reason      string      `json:"reason"`
	ReviewGroup string      `json:"review_group,omitempty"`
	Roles       []rbac.Role `json:"roles,omitempty"`
}

// Engine evaluates authorization requests against an immutable policy
// model and review-group registry. It is safe for concurrent use.
type Engine struct {
	model  *rbac.Model
	groups *reviewgroup.Registry
}

// NewEngine creates a decision engine.
func NewEngine(model *rbac.Model, groups *reviewgroup.Registry) *Engine {
	return &Engine{model: model, groups: groups}
}

// Model returns the policy model used by the engine.
func (e *Engine) Model() *rbac.Model {
	return e.model
}

// Registry returns the review-group registry used by the engine.
func (e *Engine) Registry() *reviewgroup.Registry {
	return e.groups
}

// IsAllowed reports whether p may perform action on r.
func (e *Engine) IsAllowed(p *Principal, r Resource, action string) bool {
	g := e.grant(p, r)
	return g.allows(e.model, action)
}

// CheckResource returns one verdict per requested action.
func (e *Engine) CheckResource(p *Principal, r Resource, actions []string) CheckResult {
	return e.Decide(p, r, actions).CheckResult
}

// Decide is CheckResource with the reason for the outcome.
func (e *Engine) Decide(p *Principal, r Resource, actions []string) Decision {
	g := e.grant(p, r)
	d := Decision{
		CheckResult: CheckResult{
			ResourceID: r.ID,
			Kind:       r.Kind,
			Actions:    make(map[string]Verdict, len(actions)),
		},
		Reason:      g.reason,
		ReviewGroup: g.scope,
		Roles:       g.roles,
	}
	for _, a := range actions {
		d.Actions[a] = verdictOf(g.allows(e.model, a))
	}
	return d
}

// grant is the permitted action set of one principal on one resource.
type grant struct {
	all     bool
	kind    rbac.ResourceKind
	actions rbac.ActionSet
	scope   string
	roles   []rbac.Role
	reason  string
}

func (g grant) allows(m *rbac.Model, action string) bool {
	if g.all {
		return true
	}
	return m.KnownAction(g.kind, action) && g.actions.Has(action)
}

func (e *Engine) grant(p *Principal, r Resource) grant {
	if p.IsSystem() {
		return grant{all: true, reason: ReasonSystemOverride}
	}

	kind, ok := rbac.ParseKind(r.Kind)
	if !ok {
		return grant{reason: ReasonUnknownKind}
	}

	scope := e.scopeOf(kind, r)
	if scope == "" {
		return grant{kind: kind, reason: ReasonNoScope}
	}

	roles := p.RolesIn(scope)
	if len(roles) == 0 {
		return grant{kind: kind, scope: scope, reason: ReasonNoMatchingRole}
	}

	g := grant{kind: kind, scope: scope, roles: roles, reason: ReasonScopedRoles}

	raw, present := r.attr(AttrStatus)
	if present && e.model.Gated(kind) {
		status, ok := rbac.ParseStatus(raw)
		if !ok {
			g.reason = ReasonUnknownStatus
			return g
		}
		for _, role := range roles {
			g.actions = g.actions.Union(e.model.GateFor(kind, status, role))
		}
		return g
	}

	for _, role := range roles {
		g.actions = g.actions.Union(e.model.ActionsFor(role, kind))
	}
	return g
}

// scopeOf returns the canonical review group of r, or "" when it has none
// or names a group the registry does not know. Only a review group is its
// own scope; every other kind must carry the scope as an attribute.
func (e *Engine) scopeOf(kind rbac.ResourceKind, r Resource) string {
	for _, key := range []string{AttrReviewGroup, AttrNamespace} {
		if v, present := r.attr(key); present {
			id, _ := e.groups.Canonical(v)
			return id
		}
	}
	if kind == rbac.KindReviewGroup {
		g, _ := e.groups.Lookup(r.ID)
		return g.ID
	}
	return ""
}
