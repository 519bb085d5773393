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

package http

import (
	"context"

	"github.com/iflastandards/rgauthz/internal/authz"
)

type contextKey string

const (
	userIDKey    contextKey = "user_id"
	claimsKey    contextKey = "claims"
	principalKey contextKey = "principal"
	clientIPKey  contextKey = "client_ip"
)

// GetUserID retrieves the authenticated User ID from context.
func GetUserID(ctx context.Context) string {
	if val, ok := ctx.Value(userIDKey).(string); ok {
		return val
	}
	return ""
}

// GetClaims retrieves the verified token claims from context.
func GetClaims(ctx context.Context) (authz.Claims, bool) {
	val, ok := ctx.Value(claimsKey).(authz.Claims)
	return val, ok
}

// GetPrincipal retrieves the resolved principal from context.
func GetPrincipal(ctx context.Context) *authz.Principal {
	if val, ok := ctx.Value(principalKey).(*authz.Principal); ok {
		return val
	}
	return nil
}

// GetClientIP retrieves the caller address resolved by ClientMiddleware.
func GetClientIP(ctx context.Context) string {
	if val, ok := ctx.Value(clientIPKey).(string); ok {
		return val
	}
	return ""
}
