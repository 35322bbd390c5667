package permission

import (
	"github.com/bert0h-dev/busmanage-api/internal"
	"github.com/bert0h-dev/busmanage-api/internal/core/common/validation"
)

// AssignPermissionDTO grants or denies an action on a module for one user.
// Granted false writes an explicit deny, which beats any role-level grant.
type AssignPermissionDTO struct {
	UserID     string `json:"user_id"`
	ModuleName string `json:"module_name"`
	Action     string `json:"action"`
	Granted    bool   `json:"granted"`
}

func (d AssignPermissionDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("user_id", d.UserID).Required()
	v.Field("module_name", d.ModuleName).Required()
	v.Field("action", d.Action).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	if !Action(d.Action).IsValid() {
		return internal.NewValidationError("Acción inválida", internal.ErrCodeValidationFailed)
	}
	return nil
}

// RemovePermissionDTO deletes a user-scoped override, letting the role
// grant apply again.
type RemovePermissionDTO struct {
	UserID     string `json:"user_id"`
	ModuleName string `json:"module_name"`
	Action     string `json:"action"`
}

func (d RemovePermissionDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("user_id", d.UserID).Required()
	v.Field("module_name", d.ModuleName).Required()
	v.Field("action", d.Action).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	if !Action(d.Action).IsValid() {
		return internal.NewValidationError("Acción inválida", internal.ErrCodeValidationFailed)
	}
	return nil
}

// CheckPermissionResponse is the body of the permission check endpoint.
type CheckPermissionResponse struct {
	Module  string `json:"module"`
	Action  string `json:"action"`
	Allowed bool   `json:"allowed"`
}

// ModulePermissionsResponse lists the effective actions on one module.
type ModulePermissionsResponse struct {
	Module  string   `json:"module"`
	Actions []Action `json:"actions"`
}
