package authz

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/iflastandards/rgauthz/internal/rbac"
)

// Domain errors
var (
	ErrInvalidRoleToken        = errors.New("invalid role token")
	ErrUnknownReviewGroup      = errors.New("unknown review group")
	ErrAccessDenied            = errors.New("access denied")
	ErrAssignmentNotFound      = errors.New("assignment not found")
	ErrAssignmentAlreadyExists = errors.New("assignment already exists")
	ErrAssignmentsUnavailable  = errors.New("role assignment storage is not configured")
)

// Verdict is the outcome of one (principal, resource, action) evaluation.
type Verdict string

const (
	Allow Verdict = "ALLOW"
	Deny  Verdict = "DENY"
)

func verdictOf(allowed bool) Verdict {
	if allowed {
		return Allow
	}
	return Deny
}

// Resource attribute keys
const (
	AttrReviewGroup = "review_group"
	AttrNamespace   = "namespace"
	AttrStatus      = "status"
)

// Resource is the target of an authorization check.
type Resource struct {
	Kind       string         `json:"kind"`
	ID         string         `json:"id"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// attr returns a string attribute. present is true when the key exists,
// even if the value is not a string.
func (r Resource) attr(key string) (value string, present bool) {
	v, ok := r.Attributes[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return "", true
	}
	return strings.TrimSpace(s), true
}

// ScopedRole is a role held within one review group.
type ScopedRole struct {
	Role        rbac.Role `json:"role"`
	ReviewGroup string    `json:"review_group"`
}

// String renders the role in token form, e.g. "rg_editor:ISBD".
func (s ScopedRole) String() string {
	return string(s.Role) + ":" + s.ReviewGroup
}

// Principal is a normalized authenticated actor.
type Principal struct {
	ID          string       `json:"id"`
	SystemRoles []rbac.Role  `json:"system_roles"`
	ScopedRoles []ScopedRole `json:"scoped_roles"`
}

// NewPrincipal builds a principal with deduplicated, sorted role lists.
// Roles outside their vocabulary are dropped.
func NewPrincipal(id string, systemRoles []rbac.Role, scopedRoles []ScopedRole) *Principal {
	sys := make(map[rbac.Role]struct{}, len(systemRoles))
	for _, r := range systemRoles {
		if r.IsSystem() {
			sys[r] = struct{}{}
		}
	}
	scoped := make(map[ScopedRole]struct{}, len(scopedRoles))
	for _, sr := range scopedRoles {
		if sr.Role.IsScoped() && sr.ReviewGroup != "" {
			scoped[sr] = struct{}{}
		}
	}

	p := &Principal{
		ID:          id,
		SystemRoles: make([]rbac.Role, 0, len(sys)),
		ScopedRoles: make([]ScopedRole, 0, len(scoped)),
	}
	for r := range sys {
		p.SystemRoles = append(p.SystemRoles, r)
	}
	for sr := range scoped {
		p.ScopedRoles = append(p.ScopedRoles, sr)
	}
	sort.Slice(p.SystemRoles, func(i, j int) bool { return p.SystemRoles[i] < p.SystemRoles[j] })
	sort.Slice(p.ScopedRoles, func(i, j int) bool {
		a, b := p.ScopedRoles[i], p.ScopedRoles[j]
		if a.ReviewGroup != b.ReviewGroup {
			return a.ReviewGroup < b.ReviewGroup
		}
		return a.Role < b.Role
	})
	return p
}

// IsSystem reports whether the principal holds any system role.
func (p *Principal) IsSystem() bool {
	return p != nil && len(p.SystemRoles) > 0
}

// RolesIn returns the scoped roles held in reviewGroup.
func (p *Principal) RolesIn(reviewGroup string) []rbac.Role {
	if p == nil || reviewGroup == "" {
		return nil
	}
	var out []rbac.Role
	for _, sr := range p.ScopedRoles {
		if strings.EqualFold(sr.ReviewGroup, reviewGroup) {
			out = append(out, sr.Role)
		}
	}
	return out
}

// ReviewGroups returns the distinct review groups the principal holds roles in.
func (p *Principal) ReviewGroups() []string {
	if p == nil {
		return nil
	}
	var out []string
	seen := make(map[string]struct{})
	for _, sr := range p.ScopedRoles {
		if _, ok := seen[sr.ReviewGroup]; ok {
			continue
		}
		seen[sr.ReviewGroup] = struct{}{}
		out = append(out, sr.ReviewGroup)
	}
	return out
}

// Claims are the raw identity inputs used to build a Principal.
type Claims struct {
	UserID      string   `json:"sub"`
	Roles       []string `json:"roles,omitempty"`
	SystemRoles []string `json:"system_roles,omitempty"`
	// Namespace scopes legacy namespace-* role names that carry no suffix.
	Namespace string `json:"namespace,omitempty"`
}

// CheckItem pairs a resource with the actions requested on it.
type CheckItem struct {
	Resource Resource `json:"resource"`
	Actions  []string `json:"actions"`
}

// CheckResult holds one verdict per requested action.
type CheckResult struct {
	ResourceID string             `json:"resource_id"`
	Kind       string             `json:"kind"`
	Actions    map[string]Verdict `json:"actions"`
}

// Allowed reports whether every requested action was allowed.
func (r CheckResult) Allowed() bool {
	if len(r.Actions) == 0 {
		return false
	}
	for _, v := range r.Actions {
		if v != Allow {
			return false
		}
	}
	return true
}

// Assignment is a stored scoped role grant.
type Assignment struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Role        rbac.Role `json:"role"`
	ReviewGroup string    `json:"review_group"`
	GrantedAt   time.Time `json:"granted_at"`
	GrantedBy   string    `json:"granted_by"`
}

// Token renders the assignment as a role token.
func (a *Assignment) Token() string {
	return ScopedRole{Role: a.Role, ReviewGroup: a.ReviewGroup}.String()
}

// AssignmentRepository defines the interface for stored role assignments.
type AssignmentRepository interface {
	// Grant stores a new assignment.
	Grant(ctx context.Context, assignment *Assignment) error

	// Revoke removes an assignment.
	Revoke(ctx context.Context, userID string, role rbac.Role, reviewGroup string) error

	// ListForUser retrieves all assignments held by a user.
	ListForUser(ctx context.Context, userID string) ([]*Assignment, error)

	// ListByReviewGroup retrieves all assignments within a review group.
	ListByReviewGroup(ctx context.Context, reviewGroup string) ([]*Assignment, error)
}
