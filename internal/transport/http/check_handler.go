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
	"io"
	"net/http"

	"github.com/iflastandards/rgauthz/internal/authz"
)

// CheckRequest asks for verdicts on one resource
type CheckRequest struct {
	Resource authz.Resource `json:"resource"`
	Actions  []string       `json:"actions" validate:"required,min=1,dive,required" example:"view,edit"`
}

// BatchCheckRequest asks for verdicts on several resources
type BatchCheckRequest struct {
	Items []authz.CheckItem `json:"items" validate:"max=500"`
}

// BatchCheckResponse holds results in request order
type BatchCheckResponse struct {
	Results []authz.CheckResult `json:"results"`
}

// PlanRequest asks for a listing filter
type PlanRequest struct {
	Kind   string `json:"kind" validate:"required" example:"vocabulary"`
	Action string `json:"action" validate:"required" example:"edit"`
}

// ResolveResponse describes how the principal was built from its claims
type ResolveResponse struct {
	Principal *authz.Principal        `json:"principal"`
	Tokens    []authz.TokenResolution `json:"tokens"`
}

// Check evaluates actions on one resource for the caller
// @Summary Check
// @Tags Authorization
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CheckRequest true "Resource and actions"
// @Success 200 {object} authz.CheckResult
// @Failure 400 {object} map[string]string
// @Router /check [post]
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result := h.authzService.Check(r.Context(), GetPrincipal(r.Context()), req.Resource, req.Actions)
	respondJSON(w, http.StatusOK, result)
}

// CheckBatch evaluates several resources for the caller
// @Summary Batch Check
// @Tags Authorization
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BatchCheckRequest true "Items"
// @Success 200 {object} BatchCheckResponse
// @Failure 400 {object} map[string]string
// @Router /check/batch [post]
func (h *Handler) CheckBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchCheckRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	results := h.authzService.CheckBatch(r.Context(), GetPrincipal(r.Context()), req.Items)
	respondJSON(w, http.StatusOK, BatchCheckResponse{Results: results})
}

// Plan returns the listing filter for one kind and action
// @Summary Plan
// @Tags Authorization
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PlanRequest true "Kind and action"
// @Success 200 {object} authz.Plan
// @Failure 400 {object} map[string]string
// @Router /plan [post]
func (h *Handler) Plan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	plan := h.authzService.Plan(r.Context(), GetPrincipal(r.Context()), req.Kind, req.Action)
	respondJSON(w, http.StatusOK, plan)
}

// ResolvePrincipal explains how role tokens were interpreted. Without a body
// it resolves the caller; resolving other claims requires a system role.
// @Summary Resolve Principal
// @Tags Authorization
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body authz.Claims false "Claims to resolve"
// @Success 200 {object} ResolveResponse
// @Failure 403 {object} map[string]string
// @Router /principals/resolve [post]
func (h *Handler) ResolvePrincipal(w http.ResponseWriter, r *http.Request) {
	caller := GetPrincipal(r.Context())
	claims, _ := GetClaims(r.Context())

	var req authz.Claims
	err := decodeJSON(w, r, &req)
	switch {
	case errors.Is(err, io.EOF):
	case err != nil:
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	default:
		if !caller.IsSystem() {
			respondError(w, http.StatusForbidden, "access denied")
			return
		}
		claims = req
	}

	p, err := h.authzService.PrincipalFor(r.Context(), claims)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to resolve principal")
		return
	}
	respondJSON(w, http.StatusOK, ResolveResponse{
		Principal: p,
		Tokens:    h.authzService.Resolver().Explain(claims),
	})
}
