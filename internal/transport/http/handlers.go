// Copyright 2026 The PraxHub Authors
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
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/praxhub/praxhub/internal/audit"
	"github.com/praxhub/praxhub/internal/authz"
	"github.com/praxhub/praxhub/internal/observability/metrics"
	"github.com/praxhub/praxhub/internal/org"
	"github.com/praxhub/praxhub/internal/session"
)

// Handler holds HTTP handlers and dependencies
type Handler struct {
	authzService   *authz.Service
	contextBuilder *authz.ContextBuilder
	orgs           org.Repository
	tokens         *session.Manager
	auditLogger    audit.Logger
	meter          *metrics.Meter // optional
}

// NewHandler creates a new HTTP handler
func NewHandler(
	authzService *authz.Service,
	contextBuilder *authz.ContextBuilder,
	orgs org.Repository,
	tokens *session.Manager,
	auditLogger audit.Logger,
	meter *metrics.Meter,
) *Handler {
	return &Handler{
		authzService:   authzService,
		contextBuilder: contextBuilder,
		orgs:           orgs,
		tokens:         tokens,
		auditLogger:    auditLogger,
		meter:          meter,
	}
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())

	r.Get("/healthz", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.AuthMiddleware)

		r.Post("/authz/check", h.CheckPermission)

		r.Route("/roles", func(r chi.Router) {
			r.Use(h.RequirePermission(authz.PermRolesManageAll))
			r.Post("/", h.CreateRole)
			r.Post("/{roleID}/permissions", h.SetRolePermissions)
			r.Post("/{roleID}/deactivate", h.DeactivateRole)
			r.Delete("/{roleID}", h.DeleteRole)
			r.Post("/{roleID}/assignments", h.AssignRole)
			r.Delete("/{roleID}/assignments/{userID}", h.RevokeRole)
		})

		r.Get("/organizations/{orgID}", h.GetOrganization)
	})

	return r
}

// Health reports service liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type checkPermissionRequest struct {
	Permission     string  `json:"permission"`
	OwnerID        string  `json:"owner_id,omitempty"`
	OrganizationID *string `json:"organization_id,omitempty"`
}

type checkPermissionResponse struct {
	Granted bool   `json:"granted"`
	Scope   string `json:"scope,omitempty"`
}

// CheckPermission evaluates one permission for the calling user against
// optional resource facts. The response never explains a deny.
func (h *Handler) CheckPermission(w http.ResponseWriter, r *http.Request) {
	var req checkPermissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	required, err := authz.ParsePermission(req.Permission)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid permission")
		return
	}

	uc, err := h.buildContext(r, GetUserID(r.Context()), GetOrganizationID(r.Context()))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	decision := authz.Authorize(uc, required, authz.ResourceFacts{
		OwnerID:        req.OwnerID,
		OrganizationID: req.OrganizationID,
	})
	h.recordDecision(r.Context(), decision)
	if !decision.Granted {
		h.denyRequest(r, uc, decision)
		respondJSON(w, http.StatusOK, checkPermissionResponse{Granted: false})
		return
	}

	respondJSON(w, http.StatusOK, checkPermissionResponse{
		Granted: true,
		Scope:   string(decision.MatchedScope),
	})
}

type createRoleRequest struct {
	Name           string  `json:"name"`
	Description    string  `json:"description,omitempty"`
	OrganizationID *string `json:"organization_id,omitempty"`
}

// CreateRole creates a custom role.
func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	role, err := h.authzService.CreateRole(r.Context(), req.Name, req.Description, req.OrganizationID)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"id":   role.ID,
		"name": role.Name,
	})
}

type setPermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

// SetRolePermissions replaces a role's permission set and invalidates the
// live sessions of everyone holding the role.
func (h *Handler) SetRolePermissions(w http.ResponseWriter, r *http.Request) {
	var req setPermissionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	roleID := chi.URLParam(r, "roleID")
	err := h.authzService.SetRolePermissions(r.Context(), roleID, req.Permissions, GetUserID(r.Context()))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// DeactivateRole switches a role inactive.
func (h *Handler) DeactivateRole(w http.ResponseWriter, r *http.Request) {
	roleID := chi.URLParam(r, "roleID")
	if err := h.authzService.DeactivateRole(r.Context(), roleID, GetUserID(r.Context())); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

// DeleteRole removes a custom role.
func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	roleID := chi.URLParam(r, "roleID")
	if err := h.authzService.DeleteRole(r.Context(), roleID, GetUserID(r.Context())); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type assignRoleRequest struct {
	UserID         string  `json:"user_id"`
	OrganizationID *string `json:"organization_id,omitempty"`
}

// AssignRole grants a role to a user.
func (h *Handler) AssignRole(w http.ResponseWriter, r *http.Request) {
	var req assignRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	roleID := chi.URLParam(r, "roleID")
	assignment, err := h.authzService.AssignRole(r.Context(), req.UserID, roleID, req.OrganizationID, GetUserID(r.Context()))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"id": assignment.ID})
}

// RevokeRole removes a role from a user.
func (h *Handler) RevokeRole(w http.ResponseWriter, r *http.Request) {
	roleID := chi.URLParam(r, "roleID")
	userID := chi.URLParam(r, "userID")

	var orgID *string
	if v := r.URL.Query().Get("organization_id"); v != "" {
		orgID = &v
	}

	if err := h.authzService.RevokeRole(r.Context(), userID, roleID, orgID, GetUserID(r.Context())); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}

// GetOrganization returns one organization. The permission check runs in the
// handler because the decision needs the resource's organization fact; a 404
// is only reachable after the check passes.
func (h *Handler) GetOrganization(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")

	uc, err := h.buildContext(r, GetUserID(r.Context()), GetOrganizationID(r.Context()))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	required, _ := authz.ParsePermission(authz.PermOrgsReadOrg)
	decision := authz.Authorize(uc, required, authz.ResourceFacts{
		OrganizationID: &orgID,
	})
	h.recordDecision(r.Context(), decision)
	if !decision.Granted {
		h.denyRequest(r, uc, decision)
		respondError(w, http.StatusForbidden, "permission denied")
		return
	}

	o, err := h.orgs.GetByID(r.Context(), orgID)
	if err != nil {
		if errors.Is(err, org.ErrOrganizationNotFound) {
			respondError(w, http.StatusNotFound, "organization not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"id":        o.ID,
		"name":      o.Name,
		"parent_id": o.ParentID,
		"is_active": o.IsActive,
	})
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authz.ErrRoleNotFound), errors.Is(err, authz.ErrAssignmentNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, authz.ErrSystemRoleImmutable), errors.Is(err, authz.ErrRoleInactive):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, authz.ErrPermissionNotFound), errors.Is(err, authz.ErrMalformedPermission):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
