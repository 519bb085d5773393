package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/iflastandards/rgauthz/internal/authz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runJSON(t *testing.T, args ...string) output {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, run(args, &buf))

	var out output
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out), buf.String())
	return out
}

// TestPurpose: Validates offline evaluation from command-line flags.
// Scope: Unit Test
// Expected: Verdicts match the built-in policy and the decision names its review group.
// Test Case ID: CLI-01
func TestRun_Check(t *testing.T) {
	out := runJSON(t,
		"--roles", "rg_editor:isbd",
		"--kind", "vocabulary",
		"--id", "isbd-elements",
		"--attr", "review_group=isbd",
		"--attr", "status=draft",
		"--action", "edit",
		"-a", "publish",
	)

	require.NotNil(t, out.Decision)
	assert.Equal(t, "isbd-elements", out.Decision.ResourceID)
	assert.Equal(t, authz.Allow, out.Decision.Actions["edit"])
	assert.Equal(t, authz.Deny, out.Decision.Actions["publish"])
	assert.Equal(t, "ISBD", out.Decision.ReviewGroup)
	assert.Empty(t, out.Tokens)
}

// TestPurpose: Validates token explanations and legacy namespace roles.
// Scope: Unit Test
// Expected: --explain lists every token with its acceptance.
// Test Case ID: CLI-02
func TestRun_Explain(t *testing.T) {
	out := runJSON(t,
		"--roles", "namespace-reviewer,bogus",
		"--namespace", "LRM",
		"--kind", "review_group",
		"--id", "LRM",
		"--action", "view",
		"--explain",
	)

	require.Len(t, out.Tokens, 2)
	assert.True(t, out.Tokens[0].Accepted)
	assert.Equal(t, "LRM", out.Tokens[0].ReviewGroup)
	assert.False(t, out.Tokens[1].Accepted)
	assert.Equal(t, authz.Allow, out.Decision.Actions["view"])
}

func TestRun_Plan(t *testing.T) {
	out := runJSON(t, "--system-roles", "ifla-admin", "--kind", "vocabulary", "--action", "publish", "--plan")

	require.Len(t, out.Plans, 1)
	assert.Equal(t, authz.PlanAlwaysAllowed, out.Plans[0].Kind)
	assert.Nil(t, out.Decision)
}

func TestRun_Errors(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorContains(t, run([]string{"--action", "view"}, &buf), "--kind")
	assert.ErrorContains(t, run([]string{"--kind", "site"}, &buf), "--action")
	assert.ErrorContains(t, run([]string{"--kind", "site", "-a", "view", "--attr", "nokey"}, &buf), "key=value")
	assert.Error(t, run([]string{"--kind", "site", "-a", "view", "--policy", "/does/not/exist.yaml"}, &buf))
	assert.Error(t, run([]string{"--kind", "site", "-a", "view", "extra"}, &buf))
}

func TestRun_PrintDefaultPolicy(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, run([]string{"--print-default-policy"}, &buf))
	assert.Contains(t, buf.String(), "stage_gates")
}
