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

package rbac

import "strings"

// Role is one of the closed set of platform roles.
type Role string

// -----------------------------------------------------------------------------
// System Roles
// System roles are never scoped. A principal holding any of them is allowed
// every action on every resource.
// -----------------------------------------------------------------------------

const (
	// RoleSystemAdmin is the platform-wide administrator role.
	RoleSystemAdmin Role = "system-admin"

	// RoleIFLAAdmin is the IFLA headquarters administrator role.
	RoleIFLAAdmin Role = "ifla-admin"

	// RoleSiteAdmin is the global site administrator override.
	// Scoped tokens such as "site-admin:isbdm" are not accepted.
	RoleSiteAdmin Role = "site-admin"
)

// -----------------------------------------------------------------------------
// Review Group Roles
// Scoped to exactly one review group per assignment.
// -----------------------------------------------------------------------------

const (
	RoleRGAdmin       Role = "rg_admin"
	RoleRGEditor      Role = "rg_editor"
	RoleRGReviewer    Role = "rg_reviewer"
	RoleRGTranslator  Role = "rg_translator"
	RoleRGContributor Role = "rg_contributor"
)

// SystemRoles lists the system role vocabulary.
var SystemRoles = []Role{RoleSystemAdmin, RoleIFLAAdmin, RoleSiteAdmin}

// ScopedRoles lists the review-group role vocabulary.
var ScopedRoles = []Role{RoleRGAdmin, RoleRGEditor, RoleRGReviewer, RoleRGTranslator, RoleRGContributor}

// legacyRoles maps historical role names onto the current vocabulary.
// The namespace-* names carried their scope in a separate session field.
var legacyRoles = map[string]Role{
	"namespace-admin":      RoleRGAdmin,
	"namespace-editor":     RoleRGEditor,
	"namespace-reviewer":   RoleRGReviewer,
	"namespace-translator": RoleRGTranslator,
	"superadmin":           RoleSystemAdmin,
}

// IsSystem reports whether r is a system role.
func (r Role) IsSystem() bool {
	switch r {
	case RoleSystemAdmin, RoleIFLAAdmin, RoleSiteAdmin:
		return true
	}
	return false
}

// IsScoped reports whether r is a review-group role.
func (r Role) IsScoped() bool {
	switch r {
	case RoleRGAdmin, RoleRGEditor, RoleRGReviewer, RoleRGTranslator, RoleRGContributor:
		return true
	}
	return false
}

// ParseRole normalizes a raw role name. Matching is case-insensitive and
// legacy names are mapped to their current equivalent.
func ParseRole(s string) (Role, bool) {
	name := strings.ToLower(strings.TrimSpace(s))
	if r, ok := legacyRoles[name]; ok {
		return r, true
	}
	r := Role(name)
	if r.IsSystem() || r.IsScoped() {
		return r, true
	}
	return "", false
}

// IsLegacyNamespaceRole reports whether s is one of the namespace-* role
// names whose scope is supplied next to the token rather than inside it.
func IsLegacyNamespaceRole(s string) bool {
	name := strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(name, "namespace-") && legacyRoles[name] != ""
}

// ResourceKind identifies the type of a protected resource.
type ResourceKind string

const (
	KindReviewGroup ResourceKind = "review_group"
	KindSite        ResourceKind = "site"
	KindVocabulary  ResourceKind = "vocabulary"
	KindTranslation ResourceKind = "translation"
	KindUserAdmin   ResourceKind = "user_admin"
)

// Kinds lists every resource kind.
var Kinds = []ResourceKind{KindReviewGroup, KindSite, KindVocabulary, KindTranslation, KindUserAdmin}

// ParseKind normalizes a raw resource kind. "namespace" is the older name
// for a review group.
func ParseKind(s string) (ResourceKind, bool) {
	switch k := ResourceKind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindReviewGroup, KindSite, KindVocabulary, KindTranslation, KindUserAdmin:
		return k, true
	case "namespace":
		return KindReviewGroup, true
	}
	return "", false
}

// Status is a workflow stage of a vocabulary or translation.
type Status string

const (
	StatusDraft       Status = "draft"
	StatusSubmitted   Status = "submitted"
	StatusUnderReview Status = "under_review"
	StatusApproved    Status = "approved"
	StatusPublished   Status = "published"
)

// Statuses lists the workflow stages in lifecycle order.
var Statuses = []Status{StatusDraft, StatusSubmitted, StatusUnderReview, StatusApproved, StatusPublished}

var statusAliases = map[string]Status{
	"pending_review": StatusSubmitted,
	"in_progress":    StatusDraft,
}

// ParseStatus normalizes a raw workflow status.
func ParseStatus(s string) (Status, bool) {
	name := strings.ToLower(strings.TrimSpace(s))
	if st, ok := statusAliases[name]; ok {
		return st, true
	}
	for _, st := range Statuses {
		if Status(name) == st {
			return st, true
		}
	}
	return "", false
}

// -----------------------------------------------------------------------------
// Actions
// -----------------------------------------------------------------------------

const (
	ActionView             = "view"
	ActionEdit             = "edit"
	ActionAdmin            = "admin"
	ActionPublish          = "publish"
	ActionDelete           = "delete"
	ActionComment          = "comment"
	ActionSuggestEdit      = "suggest_edit"
	ActionOverrideWorkflow = "override_workflow"

	// review_group
	ActionManageMembers     = "manage_members"
	ActionManageSites       = "manage_sites"
	ActionApproveVocabulary = "approve_vocabulary"

	// site
	ActionManageEditors = "manage_editors"

	// vocabulary
	ActionCreateDraft     = "create_draft"
	ActionDeleteDraft     = "delete_draft"
	ActionSubmitForReview = "submit_for_review"
	ActionApprove         = "approve"
	ActionReject          = "reject"
	ActionRequestChanges  = "request_changes"

	// translation
	ActionCreateTranslation  = "create_translation"
	ActionEditTranslation    = "edit_translation"
	ActionSubmitTranslation  = "submit_translation"
	ActionEditSource         = "edit_source"
	ActionApproveTranslation = "approve_translation"

	// user_admin
	ActionViewUsers   = "view_users"
	ActionAssignRoles = "assign_roles"
)
