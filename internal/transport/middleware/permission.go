package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/bert0h-dev/busmanage-api/internal"
	"github.com/bert0h-dev/busmanage-api/internal/auth"
	"github.com/bert0h-dev/busmanage-api/internal/permission"
	"github.com/bert0h-dev/busmanage-api/pkg/logger"
)

// Requirement is one (module, action) pair a guarded route demands.
type Requirement struct {
	Module string
	Action permission.Action
}

// Require builds a Requirement for route declarations.
func Require(module string, action permission.Action) Requirement {
	return Requirement{Module: module, Action: action}
}

// PermissionChecker is the slice of the resolver the guard needs.
type PermissionChecker interface {
	HasPermission(ctx context.Context, userID, moduleName string, action permission.Action) bool
}

// RequirePermissions guards a route with one or more (module, action)
// requirements. All of them must resolve to allowed; any deny, missing
// identity included, ends the request with 403.
func RequirePermissions(checker PermissionChecker, requirements ...Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.UserFromContext(r.Context())
			if !ok || user == nil {
				writeGuardError(w, http.StatusUnauthorized, internal.NewUnauthorizedError("No autenticado", internal.ErrCodeUnauthorizedAccess))
				return
			}

			for _, req := range requirements {
				if !checker.HasPermission(r.Context(), user.ID, req.Module, req.Action) {
					logger.From(r.Context()).Warn("access denied",
						"user_id", user.ID,
						"module", req.Module,
						"action", req.Action)
					writeGuardError(w, http.StatusForbidden, internal.ErrForbidden)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeGuardError(w http.ResponseWriter, status int, appErr *internal.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(internal.Response{Error: appErr})
}
