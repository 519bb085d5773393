package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/iflastandards/rgauthz/internal/audit"
	"github.com/iflastandards/rgauthz/internal/authz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPurpose: Validates bearer token verification and claim mapping.
// Scope: Unit Test
// Security: Only HS256 tokens with a subject and expiry are accepted
// Expected: Signed claims round-trip; unsigned, subject-less and non-expiring tokens are rejected.
// Test Case ID: AUTH-01
func TestTokenVerifier(t *testing.T) {
	v := NewTokenVerifier("0123456789abcdef0123456789abcdef", "", 0)

	in := authz.Claims{UserID: "u1", Roles: []string{"rg_editor:ISBD"}, SystemRoles: []string{"ifla-admin"}, Namespace: "isbd"}
	tok, err := v.Sign(in, time.Minute)
	require.NoError(t, err)

	claims, err := v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, in, claims.Claims())

	_, err = v.Verify("")
	assert.ErrorIs(t, err, ErrMissingToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = v.Verify(none)
	assert.ErrorIs(t, err, ErrInvalidToken, "alg none")

	noSub, err := v.Sign(authz.Claims{}, time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(noSub)
	assert.ErrorIs(t, err, ErrInvalidToken, "missing subject")

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1"}).
		SignedString([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	_, err = v.Verify(noExp)
	assert.ErrorIs(t, err, ErrInvalidToken, "missing expiry")
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("Authorization", tt.header)
		assert.Equal(t, tt.want, bearerToken(r), tt.header)
	}
}

// TestPurpose: Validates client address resolution behind reverse proxies.
// Scope: Unit Test
// Security: Callers cannot pick their own rate limit bucket through X-Forwarded-For
// Expected: The header is ignored unless the peer is a trusted proxy, and then the rightmost untrusted hop wins.
// Test Case ID: AUTH-02
func TestClientIP(t *testing.T) {
	trusted, err := ParseTrustedProxies([]string{"10.0.0.0/8", "192.168.1.1"})
	require.NoError(t, err)

	tests := []struct {
		name      string
		remote    string
		forwarded string
		trusted   []netip.Prefix
		want      string
	}{
		{"direct peer", "203.0.113.7:5555", "", trusted, "203.0.113.7"},
		{"spoofed header from untrusted peer", "203.0.113.7:5555", "1.2.3.4", trusted, "203.0.113.7"},
		{"no trusted proxies configured", "10.0.0.1:5555", "1.2.3.4", nil, "10.0.0.1"},
		{"trusted proxy", "10.0.0.1:5555", "198.51.100.9", trusted, "198.51.100.9"},
		{"client-prepended hop ignored", "10.0.0.1:5555", "1.2.3.4, 198.51.100.9", trusted, "198.51.100.9"},
		{"proxy chain", "10.0.0.1:5555", "198.51.100.9, 192.168.1.1, 10.2.3.4", trusted, "198.51.100.9"},
		{"garbage hop stops the walk", "10.0.0.1:5555", "198.51.100.9, junk", trusted, "10.0.0.1"},
		{"trusted proxy without header", "192.168.1.1:80", "", trusted, "192.168.1.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			assert.Equal(t, tt.want, clientIP(r, tt.trusted))
		})
	}

	_, err = ParseTrustedProxies([]string{"not-an-ip"})
	assert.Error(t, err)
	_, err = ParseTrustedProxies([]string{"10.0.0.0/33"})
	assert.Error(t, err)
}

func TestClientMiddleware(t *testing.T) {
	trusted, err := ParseTrustedProxies([]string{"10.0.0.1"})
	require.NoError(t, err)

	var buf bytes.Buffer
	auditLogger := audit.NewSlogLoggerWith(slog.New(slog.NewJSONHandler(&buf, nil)))

	var gotIP string
	h := ClientMiddleware(trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIP = GetClientIP(r.Context())
		auditLogger.Log(r.Context(), audit.Event{Type: audit.TypeRoleAssigned})
	}))

	r := httptest.NewRequest("POST", "/", nil)
	r.RemoteAddr = "10.0.0.1:4000"
	r.Header.Set("X-Forwarded-For", "198.51.100.9")
	r.Header.Set("User-Agent", "rgauthz-test")
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "198.51.100.9", gotIP)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "198.51.100.9", rec["ip_address"])
	assert.Equal(t, "rgauthz-test", rec["user_agent"])
}

func TestRateLimiter_Evict(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	rl.GetLimiter("a")
	rl.GetLimiter("b")

	rl.mu.Lock()
	rl.visitors["a"].lastSeen = time.Now().Add(-time.Hour)
	rl.mu.Unlock()

	rl.evict(time.Now())
	assert.Len(t, rl.visitors, 1)
	assert.Contains(t, rl.visitors, "b")
}
