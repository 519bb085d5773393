package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	transportHTTP "github.com/iflastandards/rgauthz/internal/transport/http"
	"github.com/stretchr/testify/assert"
)

// TestRouterRoutes verifies the public route table.
func TestRouterRoutes(t *testing.T) {
	// Route matching never executes handlers, so dependencies stay nil.
	h := &transportHTTP.Handler{}

	tests := []struct {
		name   string
		path   string
		method string
	}{
		{"Health", "/health", "GET"},
		{"Check", "/api/v1/check", "POST"},
		{"Batch check", "/api/v1/check/batch", "POST"},
		{"Plan", "/api/v1/plan", "POST"},
		{"Resolve principal", "/api/v1/principals/resolve", "POST"},
		{"List review groups", "/api/v1/review-groups", "GET"},
		{"List member roles", "/api/v1/review-groups/ISBD/members/u1/roles", "GET"},
		{"Grant member role", "/api/v1/review-groups/ISBD/members/u1/roles", "POST"},
		{"Revoke member role", "/api/v1/review-groups/ISBD/members/u1/roles/rg_editor", "DELETE"},
	}

	r := transportHTTP.NewRouter(h, transportHTTP.RouterConfig{})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)

			rctx := chi.NewRouteContext()
			if !r.Match(rctx, req.Method, req.URL.Path) {
				t.Errorf("Route %s %s SHOULD exist", tt.method, tt.path)
			}
		})
	}
}

// TestRouterRejectsUnknownRoutes sends authenticated requests to routes the
// API does not serve. Mount points match every method, so the status code
// is checked rather than the route table.
func TestRouterRejectsUnknownRoutes(t *testing.T) {
	s := newTestServer(t, nil, nil)
	tok := s.token(t, sysAdmin)

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"Check is POST only", http.MethodGet, "/api/v1/check", http.StatusMethodNotAllowed},
		{"No review group creation", http.MethodPost, "/api/v1/review-groups", http.StatusMethodNotAllowed},
		{"Revoke needs a role", http.MethodDelete, "/api/v1/review-groups/ISBD/members/u1/roles", http.StatusMethodNotAllowed},
		{"No OAuth2 endpoints", http.MethodPost, "/oauth2/token", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, tok, nil)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
