package authz_test

import (
	"testing"

	"github.com/iflastandards/rgauthz/internal/authz"
	"github.com/iflastandards/rgauthz/internal/rbac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPurpose: Validates plan classification.
// Scope: Unit Test
// Security: Listing filters never widen access
// Expected: System roles yield ALWAYS_ALLOWED, unknown kinds/actions and absent roles yield ALWAYS_DENIED.
// Test Case ID: PLAN-01
func TestPlan_Kinds(t *testing.T) {
	e := newEngine()

	sys := authz.NewPrincipal("a", []rbac.Role{rbac.RoleSystemAdmin}, nil)
	assert.Equal(t, authz.PlanAlwaysAllowed, e.Plan(sys, "vocabulary", "publish").Kind)

	p := principal(scoped(rbac.RoleRGEditor, "ISBD"))
	assert.Equal(t, authz.PlanAlwaysDenied, e.Plan(p, "spreadsheet", "view").Kind)
	assert.Equal(t, authz.PlanAlwaysDenied, e.Plan(p, "site", "approve").Kind)
	assert.Equal(t, authz.PlanAlwaysDenied, e.Plan(p, "site", "publish").Kind)
	assert.Equal(t, authz.PlanAlwaysDenied, e.Plan(principal(scoped(rbac.RoleRGEditor, "Nowhere")), "site", "edit").Kind)

	plan := e.Plan(p, "site", "edit")
	require.Equal(t, authz.PlanConditional, plan.Kind)
	require.Len(t, plan.Conditions, 1)
	assert.Equal(t, "ISBD", plan.Conditions[0].ReviewGroup)
	assert.True(t, plan.Conditions[0].AnyStatus)
}

// TestPurpose: Validates the stage conditions of a vocabulary plan.
// Scope: Unit Test
// Security: Workflow gating carried into listing filters
// Expected: Editor edit qualifies only at draft, reviewer approve only at submitted and under_review.
// Test Case ID: PLAN-02
func TestPlan_StageConditions(t *testing.T) {
	e := newEngine()
	p := principal(scoped(rbac.RoleRGEditor, "ISBD"), scoped(rbac.RoleRGReviewer, "LRM"))

	plan := e.Plan(p, "vocabulary", "edit")
	require.Equal(t, authz.PlanConditional, plan.Kind)
	require.Len(t, plan.Conditions, 1)
	c := plan.Conditions[0]
	assert.Equal(t, "ISBD", c.ReviewGroup)
	assert.False(t, c.AnyStatus)
	assert.True(t, c.WithoutStatus)
	assert.Equal(t, []rbac.Status{rbac.StatusDraft}, c.Statuses)

	plan = e.Plan(p, "vocabulary", "approve")
	require.Len(t, plan.Conditions, 1)
	assert.Equal(t, "LRM", plan.Conditions[0].ReviewGroup)
	assert.Equal(t, []rbac.Status{rbac.StatusSubmitted, rbac.StatusUnderReview}, plan.Conditions[0].Statuses)

	plan = e.Plan(p, "vocabulary", "view")
	require.Len(t, plan.Conditions, 2)
	for _, c := range plan.Conditions {
		assert.True(t, c.AnyStatus, c.ReviewGroup)
	}
}

// TestPurpose: Validates that a plan predicate agrees with single-resource decisions.
// Scope: Unit Test
// Security: Consistency between pre-filtering and enforcement
// Expected: Plan.Allows equals Engine.IsAllowed for every resource of the planned kind.
// Test Case ID: PLAN-03
func TestPlan_AllowsMatchesIsAllowed(t *testing.T) {
	e := newEngine()
	principals := []*authz.Principal{
		principal(scoped(rbac.RoleRGEditor, "ISBD")),
		principal(scoped(rbac.RoleRGReviewer, "LRM"), scoped(rbac.RoleRGContributor, "ISBD")),
		principal(scoped(rbac.RoleRGAdmin, "isbd"), scoped(rbac.RoleRGTranslator, "FR")),
		principal(scoped(rbac.RoleRGEditor, "isbdm")),
		principal(),
		authz.NewPrincipal("a", []rbac.Role{rbac.RoleSiteAdmin}, nil),
	}

	var resources []authz.Resource
	for _, group := range []string{"ISBD", "LRM", "FR", "Unknown", ""} {
		for _, st := range []any{nil, "draft", "submitted", "under_review", "approved", "published", "pending_review", "archived", 7} {
			for _, kind := range []string{"vocabulary", "translation", "site", "namespace"} {
				attrs := map[string]any{}
				if group != "" {
					attrs["review_group"] = group
				}
				if st != nil {
					attrs["status"] = st
				}
				resources = append(resources, authz.Resource{Kind: kind, ID: "r", Attributes: attrs})
			}
		}
	}

	for _, p := range principals {
		for _, kind := range rbac.Kinds {
			for _, action := range e.Model().Vocabulary(kind).Slice() {
				plan := e.Plan(p, string(kind), action)
				for _, r := range resources {
					k, _ := rbac.ParseKind(r.Kind)
					if k != kind {
						continue
					}
					assert.Equal(t, e.IsAllowed(p, r, action), plan.Allows(r),
						"principal %v kind %s action %s attrs %v", p.ScopedRoles, kind, action, r.Attributes)
				}
			}
		}
	}
}

func TestPlan_Filter(t *testing.T) {
	e := newEngine()
	p := principal(scoped(rbac.RoleRGEditor, "ISBD"))
	resources := []authz.Resource{
		{Kind: "vocabulary", ID: "a", Attributes: map[string]any{"review_group": "ISBD", "status": "draft"}},
		{Kind: "vocabulary", ID: "b", Attributes: map[string]any{"review_group": "ISBD", "status": "published"}},
		{Kind: "vocabulary", ID: "c", Attributes: map[string]any{"review_group": "LRM", "status": "draft"}},
		{Kind: "site", ID: "isbd", Attributes: map[string]any{"review_group": "ISBD"}},
	}

	got := e.Plan(p, "vocabulary", "edit").Filter(resources)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}
