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
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/praxhub/praxhub/internal/audit"
	"github.com/praxhub/praxhub/internal/authz"
	"github.com/praxhub/praxhub/internal/observability/logger"
)

// Authorization principles:
// 1. Organization context is derived exclusively from the access token.
// 2. A missing organization context denies organization-scoped checks;
//    it is never elevated to a broader scope.
// 3. Deny responses are uniform and reveal nothing about the catalog.

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				slog.InfoContext(r.Context(), "http_request",
					logger.RequestID(middleware.GetReqID(r.Context())),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.RemoteAddr(r.RemoteAddr),
					logger.StatusCode(ww.Status()),
					logger.Duration(time.Since(start).Milliseconds()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// AuthMiddleware validates the bearer access token, consults the blacklist
// for mid-lifetime revocations, and injects the user and organization
// context for downstream permission checks.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			respondError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		claims, err := h.tokens.VerifyAccessToken(r.Context(), strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid or revoked token")
			return
		}

		// X-Organization-ID is rejected on authenticated requests; the
		// organization binding comes from the token alone.
		if r.Header.Get("X-Organization-ID") != "" {
			slog.WarnContext(r.Context(), "organization header spoofing attempt on authenticated route",
				logger.UserID(claims.UserID),
			)
			respondError(w, http.StatusBadRequest, "X-Organization-ID header is not allowed; organization is derived from the token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		if claims.OrganizationID != nil {
			ctx = context.WithValue(ctx, organizationIDKey, *claims.OrganizationID)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePermission gates a route on one permission. A fresh UserContext is
// built per request — never cached — and the decision is audited on deny.
// Routes that need resource facts (ownership, resource organization) do
// their own Authorize call in the handler instead.
func (h *Handler) RequirePermission(name string) func(http.Handler) http.Handler {
	required, err := authz.ParsePermission(name)
	if err != nil {
		// Route table bug, not a request-time condition.
		panic(err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := GetUserID(r.Context())
			if userID == "" {
				respondError(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			currentOrg := GetOrganizationID(r.Context())
			uc, err := h.buildContext(r, userID, currentOrg)
			if err != nil {
				slog.ErrorContext(r.Context(), "failed to build user context",
					logger.UserID(userID), logger.Error(err))
				respondError(w, http.StatusInternalServerError, "internal error")
				return
			}

			decision := authz.Authorize(uc, required, authz.ResourceFacts{
				OrganizationID: currentOrg,
			})
			h.recordDecision(r.Context(), decision)
			if !decision.Granted {
				h.denyRequest(r, uc, decision)
				respondError(w, http.StatusForbidden, "permission denied")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// buildContext builds a fresh per-request UserContext and records its
// latency.
func (h *Handler) buildContext(r *http.Request, userID string, currentOrg *string) (*authz.UserContext, error) {
	start := time.Now()
	uc, err := h.contextBuilder.Build(r.Context(), userID, currentOrg)
	if h.meter != nil {
		h.meter.RecordContextBuild(r.Context(), time.Since(start).Seconds())
	}
	return uc, err
}

func (h *Handler) recordDecision(ctx context.Context, decision authz.Decision) {
	if h.meter != nil {
		h.meter.RecordDecision(ctx, decision.Granted, string(decision.MatchedScope))
	}
}

// denyRequest audits a denied decision. The response body stays uniform;
// the detail lives only in the audit stream.
func (h *Handler) denyRequest(r *http.Request, uc *authz.UserContext, decision authz.Decision) {
	h.auditLogger.Log(r.Context(), audit.Event{
		Type:      audit.TypePermissionDenied,
		ActorID:   uc.UserID,
		Resource:  decision.Permission.String(),
		IPAddress: getClientIP(r),
		Metadata: map[string]any{
			"deny_reason": decision.Reason,
			"path":        r.URL.Path,
		},
	})
}
