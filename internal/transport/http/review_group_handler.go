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
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/iflastandards/rgauthz/internal/authz"
	"github.com/iflastandards/rgauthz/internal/observability/logger"
	"github.com/iflastandards/rgauthz/internal/reviewgroup"
)

// GrantRoleRequest represents a role assignment
type GrantRoleRequest struct {
	Role string `json:"role" validate:"required" example:"rg_editor"`
}

// ReviewGroupListResponse wraps the registry listing
type ReviewGroupListResponse struct {
	ReviewGroups []reviewgroup.ReviewGroup `json:"review_groups"`
}

// AssignmentListResponse wraps stored assignments
type AssignmentListResponse struct {
	Assignments []*authz.Assignment `json:"assignments"`
}

// ListReviewGroups lists the registered review groups
// @Summary List Review Groups
// @Tags ReviewGroup
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ReviewGroupListResponse
// @Router /review-groups [get]
func (h *Handler) ListReviewGroups(w http.ResponseWriter, r *http.Request) {
	groups := h.authzService.Engine().Registry().List()
	if groups == nil {
		groups = []reviewgroup.ReviewGroup{}
	}
	respondJSON(w, http.StatusOK, ReviewGroupListResponse{ReviewGroups: groups})
}

// ListMemberRoles lists a member's stored roles in a review group
// @Summary List Member Roles
// @Tags ReviewGroup
// @Produce json
// @Security BearerAuth
// @Param groupID path string true "Review group"
// @Param userID path string true "User ID"
// @Success 200 {object} AssignmentListResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /review-groups/{groupID}/members/{userID}/roles [get]
func (h *Handler) ListMemberRoles(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	userID := chi.URLParam(r, "userID")

	assignments, err := h.authzService.ListRoles(r.Context(), GetPrincipal(r.Context()), groupID, userID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	if assignments == nil {
		assignments = []*authz.Assignment{}
	}
	respondJSON(w, http.StatusOK, AssignmentListResponse{Assignments: assignments})
}

// GrantMemberRole assigns a review-group role to a member
// @Summary Grant Member Role
// @Tags ReviewGroup
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param groupID path string true "Review group"
// @Param userID path string true "User ID"
// @Param request body GrantRoleRequest true "Role"
// @Success 201 {object} authz.Assignment
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /review-groups/{groupID}/members/{userID}/roles [post]
func (h *Handler) GrantMemberRole(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	userID := chi.URLParam(r, "userID")

	var req GrantRoleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	a, err := h.authzService.GrantRole(r.Context(), GetPrincipal(r.Context()), userID, req.Role, groupID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, a)
}

// RevokeMemberRole removes a review-group role from a member
// @Summary Revoke Member Role
// @Tags ReviewGroup
// @Security BearerAuth
// @Param groupID path string true "Review group"
// @Param userID path string true "User ID"
// @Param role path string true "Role"
// @Success 204
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /review-groups/{groupID}/members/{userID}/roles/{role} [delete]
func (h *Handler) RevokeMemberRole(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	userID := chi.URLParam(r, "userID")
	role := chi.URLParam(r, "role")

	if err := h.authzService.RevokeRole(r.Context(), GetPrincipal(r.Context()), userID, role, groupID); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, authz.ErrAccessDenied):
		respondError(w, http.StatusForbidden, "access denied")
	case errors.Is(err, authz.ErrUnknownReviewGroup):
		respondError(w, http.StatusNotFound, "review group not found")
	case errors.Is(err, authz.ErrInvalidRoleToken):
		respondError(w, http.StatusBadRequest, "invalid role")
	case errors.Is(err, authz.ErrAssignmentNotFound):
		respondError(w, http.StatusNotFound, "role assignment not found")
	case errors.Is(err, authz.ErrAssignmentAlreadyExists):
		respondError(w, http.StatusConflict, "role already assigned")
	case errors.Is(err, authz.ErrAssignmentsUnavailable):
		respondError(w, http.StatusServiceUnavailable, "role assignments are not available")
	default:
		slog.ErrorContext(r.Context(), "role management failed",
			logger.PrincipalID(GetUserID(r.Context())),
			logger.Path(r.URL.Path),
			logger.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
