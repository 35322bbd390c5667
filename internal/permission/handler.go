package permission

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/bert0h-dev/busmanage-api/internal/auth"
	"github.com/bert0h-dev/busmanage-api/internal/transport"
	"github.com/bert0h-dev/busmanage-api/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// GetMyModules returns the caller's menu tree, derived from role grants.
func (h *Handler) GetMyModules(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
		return
	}

	modules, err := h.Service.GetUserModules(r.Context(), user.ID)
	if err != nil {
		h.Logger.Error("failed to list user modules", "user_id", user.ID, "error", err)
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"modules": modules})
}

// GetMyModulePermissions returns the caller's effective actions on one module.
func (h *Handler) GetMyModulePermissions(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
		return
	}

	moduleName := chi.URLParam(r, "moduleName")
	actions, err := h.Service.GetUserModulePermissions(r.Context(), user.ID, moduleName)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ModulePermissionsResponse{
		Module:  moduleName,
		Actions: actions,
	})
}

// CheckPermission answers allowed true/false for the caller on one
// (module, action) pair. It never fails open: bad input reads as denied.
func (h *Handler) CheckPermission(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
		return
	}

	moduleName := chi.URLParam(r, "moduleName")
	action := Action(chi.URLParam(r, "action"))

	allowed := action.IsValid() && h.Service.HasPermission(r.Context(), user.ID, moduleName, action)

	h.WriteJSON(w, http.StatusOK, CheckPermissionResponse{
		Module:  moduleName,
		Action:  string(action),
		Allowed: allowed,
	})
}

// AssignPermission writes a user-scoped override. Admin surface.
func (h *Handler) AssignPermission(w http.ResponseWriter, r *http.Request) {
	var dto AssignPermissionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteAppError(w, err)
		return
	}

	if err := h.Service.AssignUserPermission(r.Context(), dto.UserID, dto.ModuleName, Action(dto.Action), dto.Granted); err != nil {
		h.Logger.Warn("permission assignment failed",
			"target_user_id", dto.UserID,
			"module", dto.ModuleName,
			"action", dto.Action,
			"error", err)
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "Permiso asignado correctamente"})
}

// RemovePermission deletes a user-scoped override. Admin surface.
func (h *Handler) RemovePermission(w http.ResponseWriter, r *http.Request) {
	var dto RemovePermissionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteAppError(w, err)
		return
	}

	if err := h.Service.RemoveUserPermission(r.Context(), dto.UserID, dto.ModuleName, Action(dto.Action)); err != nil {
		h.Logger.Warn("permission removal failed",
			"target_user_id", dto.UserID,
			"module", dto.ModuleName,
			"action", dto.Action,
			"error", err)
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "Permiso removido correctamente"})
}
