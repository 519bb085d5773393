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
	"fmt"
	"strings"

	"github.com/iflastandards/rgauthz/internal/rbac"
	"github.com/iflastandards/rgauthz/internal/reviewgroup"
)

// Token sources reported by Explain
const (
	SourceRoles       = "roles"
	SourceSystemRoles = "system_roles"
)

// TokenResolution describes how one raw role token was interpreted.
type TokenResolution struct {
	Token       string    `json:"token"`
	Source      string    `json:"source"`
	Accepted    bool      `json:"accepted"`
	Role        rbac.Role `json:"role,omitempty"`
	ReviewGroup string    `json:"review_group,omitempty"`
	Reason      string    `json:"reason,omitempty"`
}

// Resolver turns raw role strings into a Principal. It holds no mutable
// state and is safe for concurrent use.
type Resolver struct {
	groups *reviewgroup.Registry
}

// NewResolver creates a resolver canonicalizing scopes through groups.
// A nil registry keeps every scope verbatim.
func NewResolver(groups *reviewgroup.Registry) *Resolver {
	return &Resolver{groups: groups}
}

// Resolve builds the principal for c. Tokens that cannot be parsed are
// dropped and confer nothing.
func (r *Resolver) Resolve(c Claims) *Principal {
	var system []rbac.Role
	var scoped []ScopedRole
	for _, res := range r.Explain(c) {
		if !res.Accepted {
			continue
		}
		if res.ReviewGroup == "" {
			system = append(system, res.Role)
		} else {
			scoped = append(scoped, ScopedRole{Role: res.Role, ReviewGroup: res.ReviewGroup})
		}
	}
	return NewPrincipal(c.UserID, system, scoped)
}

// Explain reports the interpretation of every token in c, roles first.
func (r *Resolver) Explain(c Claims) []TokenResolution {
	out := make([]TokenResolution, 0, len(c.Roles)+len(c.SystemRoles))
	for _, tok := range c.Roles {
		out = append(out, r.parse(tok, c.Namespace, SourceRoles))
	}
	for _, tok := range c.SystemRoles {
		res := r.parse(tok, "", SourceSystemRoles)
		if res.Accepted && res.ReviewGroup != "" {
			res = rejected(tok, SourceSystemRoles, "scoped role in system role list")
		}
		out = append(out, res)
	}
	return out
}

// ParseToken parses a single scoped role token. namespace scopes legacy
// namespace-* names without a suffix. System roles are rejected since they
// carry no review group.
func (r *Resolver) ParseToken(token, namespace string) (ScopedRole, error) {
	res := r.parse(token, namespace, SourceRoles)
	if !res.Accepted {
		return ScopedRole{}, fmt.Errorf("%w: %q: %s", ErrInvalidRoleToken, token, res.Reason)
	}
	if res.ReviewGroup == "" {
		return ScopedRole{}, fmt.Errorf("%w: %q: system role is not scoped", ErrInvalidRoleToken, token)
	}
	return ScopedRole{Role: res.Role, ReviewGroup: res.ReviewGroup}, nil
}

func (r *Resolver) parse(token, namespace, source string) TokenResolution {
	tok := strings.TrimSpace(token)
	if tok == "" {
		return rejected(token, source, "empty token")
	}

	name, scope, scoped := strings.Cut(tok, ":")
	if !scoped && rbac.IsLegacyNamespaceRole(name) {
		scope, scoped = namespace, true
		if strings.TrimSpace(scope) == "" {
			return rejected(token, source, "legacy role without namespace")
		}
	}

	role, ok := rbac.ParseRole(name)
	if !ok {
		return rejected(token, source, "unknown role")
	}

	if !scoped {
		if !role.IsSystem() {
			return rejected(token, source, "scoped role without review group")
		}
		return TokenResolution{Token: token, Source: source, Accepted: true, Role: role}
	}

	if role.IsSystem() {
		return rejected(token, source, "system roles cannot be scoped")
	}
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return rejected(token, source, "missing review group")
	}

	res := TokenResolution{Token: token, Source: source, Accepted: true, Role: role, ReviewGroup: scope}
	if id, ok := r.groups.Canonical(scope); ok {
		res.ReviewGroup = id
	} else {
		res.Reason = "unknown review group"
	}
	return res
}

func rejected(token, source, reason string) TokenResolution {
	return TokenResolution{Token: token, Source: source, Reason: reason}
}
