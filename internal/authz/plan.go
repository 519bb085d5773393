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
	"slices"

	"github.com/iflastandards/rgauthz/internal/rbac"
)

// PlanKind classifies a query plan.
type PlanKind string

const (
	PlanAlwaysAllowed PlanKind = "ALWAYS_ALLOWED"
	PlanAlwaysDenied  PlanKind = "ALWAYS_DENIED"
	PlanConditional   PlanKind = "CONDITIONAL"
)

// PlanCondition is one disjunct of a conditional plan: a resource in
// ReviewGroup satisfies the action when its status qualifies.
type PlanCondition struct {
	ReviewGroup string `json:"review_group"`
	// AnyStatus is set when the status attribute does not matter.
	AnyStatus bool `json:"any_status"`
	// WithoutStatus is set when a resource carrying no status qualifies.
	WithoutStatus bool          `json:"without_status"`
	Statuses      []rbac.Status `json:"statuses,omitempty"`
}

// Plan describes which resources of one kind a principal may perform one
// action on, so callers can filter listings without a check per item.
type Plan struct {
	Kind         PlanKind        `json:"kind"`
	ResourceKind string          `json:"resource_kind"`
	Action       string          `json:"action"`
	Conditions   []PlanCondition `json:"conditions,omitempty"`

	engine *Engine
	target rbac.ResourceKind
}

// Plan computes the filter for action on resources of kind.
func (e *Engine) Plan(p *Principal, kind, action string) *Plan {
	plan := &Plan{ResourceKind: kind, Action: action, engine: e}

	if p.IsSystem() {
		plan.Kind = PlanAlwaysAllowed
		return plan
	}

	target, ok := rbac.ParseKind(kind)
	if !ok || !e.model.KnownAction(target, action) {
		plan.Kind = PlanAlwaysDenied
		return plan
	}
	plan.target = target

	seen := make(map[string]struct{})
	for _, raw := range p.ReviewGroups() {
		group, ok := e.groups.Lookup(raw)
		if !ok {
			continue
		}
		if _, dup := seen[group.ID]; dup {
			continue
		}
		seen[group.ID] = struct{}{}

		if cond, ok := e.condition(target, action, group.ID, p.RolesIn(group.ID)); ok {
			plan.Conditions = append(plan.Conditions, cond)
		}
	}

	if len(plan.Conditions) == 0 {
		plan.Kind = PlanAlwaysDenied
		return plan
	}
	plan.Kind = PlanConditional
	return plan
}

func (e *Engine) condition(kind rbac.ResourceKind, action, group string, roles []rbac.Role) (PlanCondition, bool) {
	cond := PlanCondition{ReviewGroup: group}
	for _, role := range roles {
		if e.model.ActionsFor(role, kind).Has(action) {
			cond.WithoutStatus = true
			break
		}
	}

	if !e.model.Gated(kind) {
		cond.AnyStatus = cond.WithoutStatus
		return cond, cond.WithoutStatus
	}

	for _, st := range rbac.Statuses {
		for _, role := range roles {
			if e.model.GateFor(kind, st, role).Has(action) {
				cond.Statuses = append(cond.Statuses, st)
				break
			}
		}
	}
	cond.AnyStatus = cond.WithoutStatus && len(cond.Statuses) == len(rbac.Statuses)
	return cond, cond.WithoutStatus || len(cond.Statuses) > 0
}

// Allows reports whether r satisfies the plan. For resources of the planned
// kind it agrees with Engine.IsAllowed for the principal the plan was built
// for.
func (pl *Plan) Allows(r Resource) bool {
	switch pl.Kind {
	case PlanAlwaysAllowed:
		return true
	case PlanConditional:
	default:
		return false
	}

	kind, ok := rbac.ParseKind(r.Kind)
	if !ok || kind != pl.target {
		return false
	}
	scope := pl.engine.scopeOf(kind, r)
	if scope == "" {
		return false
	}

	gated := pl.engine.model.Gated(kind)
	for _, cond := range pl.Conditions {
		if cond.ReviewGroup != scope {
			continue
		}
		if !gated {
			return cond.AnyStatus
		}
		raw, present := r.attr(AttrStatus)
		if !present {
			return cond.WithoutStatus
		}
		status, ok := rbac.ParseStatus(raw)
		return ok && slices.Contains(cond.Statuses, status)
	}
	return false
}
