package authz_test

import (
	"testing"

	"github.com/iflastandards/rgauthz/internal/authz"
	"github.com/iflastandards/rgauthz/internal/rbac"
	"github.com/iflastandards/rgauthz/internal/reviewgroup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResolver() *authz.Resolver {
	return authz.NewResolver(reviewgroup.DefaultRegistry())
}

// TestPurpose: Validates the role token grammar.
// Scope: Unit Test
// Security: Unknown tokens confer no privilege (fail-closed)
// Expected: Scoped tokens split at the first colon, bare system roles are kept, everything else is dropped.
// Test Case ID: PRN-01
func TestPrincipal_Resolve_Grammar(t *testing.T) {
	p := newResolver().Resolve(authz.Claims{
		UserID: "u1",
		Roles: []string{
			"rg_editor:ISBD",
			"RG_Translator:lrm",
			"rg_editor",        // scoped role without group
			"owner:ISBD",       // unknown role
			"site-admin:isbdm", // system roles are never scoped
			"rg_reviewer:",     // missing group
			"",                 // empty
			"ifla-admin",       // bare system role
			"rg_editor:ISBD",   // duplicate
			"rg_admin:Foo:Bar", // splits at the first colon
		},
	})

	assert.Equal(t, "u1", p.ID)
	assert.Equal(t, []rbac.Role{rbac.RoleIFLAAdmin}, p.SystemRoles)
	assert.Equal(t, []authz.ScopedRole{
		{Role: rbac.RoleRGAdmin, ReviewGroup: "Foo:Bar"},
		{Role: rbac.RoleRGEditor, ReviewGroup: "ISBD"},
		{Role: rbac.RoleRGTranslator, ReviewGroup: "LRM"},
	}, p.ScopedRoles)
}

// TestPurpose: Validates the mapping of legacy role names.
// Scope: Unit Test
// Security: Backwards compatible sessions keep exactly their old privileges
// Expected: namespace-* names take their scope from the suffix or the namespace claim; superadmin maps to system-admin.
// Test Case ID: PRN-02
func TestPrincipal_Resolve_LegacyRoles(t *testing.T) {
	r := newResolver()

	p := r.Resolve(authz.Claims{
		Roles:     []string{"namespace-admin", "namespace-reviewer:frbr", "superadmin"},
		Namespace: "isbdm",
	})
	assert.Equal(t, []rbac.Role{rbac.RoleSystemAdmin}, p.SystemRoles)
	assert.Equal(t, []authz.ScopedRole{
		{Role: rbac.RoleRGReviewer, ReviewGroup: "FR"},
		{Role: rbac.RoleRGAdmin, ReviewGroup: "ISBD"},
	}, p.ScopedRoles)

	p = r.Resolve(authz.Claims{Roles: []string{"namespace-editor"}})
	assert.Empty(t, p.ScopedRoles)
	assert.Empty(t, p.SystemRoles)
}

func TestPrincipal_Resolve_SystemRoleList(t *testing.T) {
	p := newResolver().Resolve(authz.Claims{
		SystemRoles: []string{"SYSTEM-ADMIN", "rg_admin:ISBD", "wizard", "site-admin"},
	})
	assert.Equal(t, []rbac.Role{rbac.RoleSiteAdmin, rbac.RoleSystemAdmin}, p.SystemRoles)
	assert.Empty(t, p.ScopedRoles)
	assert.True(t, p.IsSystem())
}

// TestPurpose: Validates that resolution is deterministic.
// Scope: Unit Test
// Security: Reproducible decisions
// Expected: Token order does not change the principal.
// Test Case ID: PRN-03
func TestPrincipal_Resolve_Deterministic(t *testing.T) {
	r := newResolver()
	a := r.Resolve(authz.Claims{UserID: "u", Roles: []string{"rg_editor:LRM", "rg_admin:ISBD", "system-admin"}})
	b := r.Resolve(authz.Claims{UserID: "u", Roles: []string{"system-admin", "rg_admin:isbd", "rg_editor:LRM"}})
	assert.Equal(t, a, b)
}

func TestPrincipal_Explain(t *testing.T) {
	got := newResolver().Explain(authz.Claims{
		Roles:       []string{"rg_editor:frbr", "rg_editor:Nowhere", "bogus"},
		SystemRoles: []string{"rg_admin:ISBD"},
	})
	require.Len(t, got, 4)

	assert.True(t, got[0].Accepted)
	assert.Equal(t, "FR", got[0].ReviewGroup)
	assert.Equal(t, authz.SourceRoles, got[0].Source)

	assert.True(t, got[1].Accepted)
	assert.Equal(t, "Nowhere", got[1].ReviewGroup)
	assert.Equal(t, "unknown review group", got[1].Reason)

	assert.False(t, got[2].Accepted)
	assert.Equal(t, "unknown role", got[2].Reason)

	assert.False(t, got[3].Accepted)
	assert.Equal(t, authz.SourceSystemRoles, got[3].Source)
}

// TestPurpose: Validates parsing of a single scoped role token.
// Scope: Unit Test
// Security: Role grants cannot smuggle unscoped system roles
// Expected: Scoped tokens parse and canonicalize; system roles and unscoped tokens fail with ErrInvalidRoleToken.
// Test Case ID: PRN-04
func TestPrincipal_ParseToken(t *testing.T) {
	r := newResolver()

	sr, err := r.ParseToken("rg_contributor:muldicat", "")
	require.NoError(t, err)
	assert.Equal(t, "rg_contributor:MulDiCat", sr.String())

	sr, err = r.ParseToken("namespace-editor", "lrm")
	require.NoError(t, err)
	assert.Equal(t, "rg_editor:LRM", sr.String())

	for _, tok := range []string{"system-admin", "superadmin", "IFLA-Admin", "site-admin:isbd"} {
		sr, err = r.ParseToken(tok, "")
		assert.ErrorIs(t, err, authz.ErrInvalidRoleToken, tok)
		assert.Equal(t, authz.ScopedRole{}, sr, tok)
	}

	_, err = r.ParseToken("rg_editor", "")
	assert.ErrorIs(t, err, authz.ErrInvalidRoleToken)
}

func TestPrincipal_Helpers(t *testing.T) {
	p := authz.NewPrincipal("u", []rbac.Role{"not-a-role"}, []authz.ScopedRole{
		{Role: rbac.RoleRGEditor, ReviewGroup: "ISBD"},
		{Role: rbac.RoleRGReviewer, ReviewGroup: "ISBD"},
		{Role: rbac.RoleRGTranslator, ReviewGroup: "LRM"},
		{Role: rbac.RoleSystemAdmin, ReviewGroup: "LRM"},
		{Role: rbac.RoleRGAdmin, ReviewGroup: ""},
	})
	assert.False(t, p.IsSystem())
	assert.Equal(t, []string{"ISBD", "LRM"}, p.ReviewGroups())
	assert.Equal(t, []rbac.Role{rbac.RoleRGEditor, rbac.RoleRGReviewer}, p.RolesIn("isbd"))
	assert.Nil(t, p.RolesIn(""))

	var nilP *authz.Principal
	assert.False(t, nilP.IsSystem())
	assert.Nil(t, nilP.ReviewGroups())
}

func TestPrincipal_NilRegistryKeepsScopes(t *testing.T) {
	p := authz.NewResolver(nil).Resolve(authz.Claims{Roles: []string{"rg_editor:isbd"}})
	assert.Equal(t, []authz.ScopedRole{{Role: rbac.RoleRGEditor, ReviewGroup: "isbd"}}, p.ScopedRoles)
}
