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

package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPurpose: Validates that sensitive keys are correctly identified as secrets to prevent them from being logged in plaintext.
// Scope: Unit Test
// Security: Data Masking and Leakage Prevention (CWE-532)
// Expected: Returns true for keys containing 'password', 'token', 'secret', etc., and false for non-sensitive keys.
// Test Case ID: AUD-01
func TestAudit_IsSecret(t *testing.T) {
	tests := []struct {
		key      string
		isSecret bool
	}{
		{"password", true},
		{"Password", true},
		{"PASSWORD", true},
		{"token", true},
		{"access_token", true},
		{"secret", true},
		{"api_key", true},
		{"hash", true},
		{"password_hash", true},
		{"credential", true},
		{"private_key", true},
		{"user_id", false},
		{"review_group", false},
		{"email", false},
		{"status", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := isSecret(tt.key); got != tt.isSecret {
				t.Errorf("isSecret(%q) = %v, want %v", tt.key, got, tt.isSecret)
			}
		})
	}
}

// TestPurpose: Validates that audit events carry their structured fields and redact secret metadata.
// Scope: Unit Test
// Security: Audit trail integrity and Leakage Prevention
// Expected: The emitted record contains audit_type, review_group and a redacted token value.
// Test Case ID: AUD-02
func TestAudit_SlogLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLoggerWith(slog.New(slog.NewJSONHandler(&buf, nil)))

	l.Log(context.Background(), Event{
		Type:        TypeDecisionDenied,
		ReviewGroup: "ISBD",
		ActorID:     "user-1",
		Resource:    "site/isbdm",
		Metadata:    map[string]any{"action": "publish", "bearer_token": "abc"},
	})

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "AUDIT_EVENT", rec["msg"])
	assert.Equal(t, TypeDecisionDenied, rec["audit_type"])
	assert.Equal(t, "ISBD", rec["review_group"])
	assert.Equal(t, "audit", rec["component"])

	meta, ok := rec["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "publish", meta["action"])
	assert.Equal(t, "[REDACTED]", meta["bearer_token"])
	assert.NotContains(t, buf.String(), "abc")
}

// TestPurpose: Validates that audit events carry the caller address and user agent from the request context.
// Scope: Unit Test
// Security: Audit trail attribution
// Expected: Context values fill empty fields; explicit event values are kept.
// Test Case ID: AUD-03
func TestAudit_SlogLogger_Client(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLoggerWith(slog.New(slog.NewJSONHandler(&buf, nil)))
	ctx := WithClient(context.Background(), "203.0.113.7", "curl/8.5")

	l.Log(ctx, Event{Type: TypeRoleAssigned, ActorID: "admin-1"})

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "203.0.113.7", rec["ip_address"])
	assert.Equal(t, "curl/8.5", rec["user_agent"])

	buf.Reset()
	l.Log(ctx, Event{Type: TypeRoleAssigned, IPAddress: "198.51.100.1"})
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "198.51.100.1", rec["ip_address"])

	buf.Reset()
	l.Log(context.Background(), Event{Type: TypeRoleRevoked})
	assert.NotContains(t, buf.String(), "ip_address")
}
