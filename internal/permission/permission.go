package permission

import (
	"context"
	"errors"

	rbacDatamodel "github.com/bert0h-dev/busmanage-api/internal/core/datamodel/rbac"
	userDatamodel "github.com/bert0h-dev/busmanage-api/internal/core/datamodel/user"
)

// ErrNotFound is the repository-level miss for modules, permissions and
// grants. The resolver turns it into deny or a typed error depending on the
// flow.
var ErrNotFound = errors.New("not found")

// Action is the closed set of permission actions a module can expose.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionExport Action = "export"
	ActionPrint  Action = "print"
	ActionManage Action = "manage"
)

var allActions = []Action{ActionView, ActionCreate, ActionUpdate, ActionDelete, ActionExport, ActionPrint, ActionManage}

func (a Action) IsValid() bool {
	for _, known := range allActions {
		if a == known {
			return true
		}
	}
	return false
}

// Module is the caller-facing module view used by the menu listing.
type Module struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
	MenuType    string `json:"menu_type,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Path        string `json:"path,omitempty"`
	SortOrder   int    `json:"sort_order"`
}

// ModuleNode is a top-level module with its granted sub-modules.
type ModuleNode struct {
	Module
	SubModules []Module `json:"sub_modules"`
}

// Repository is the reference-data and grant surface the resolver needs.
// Uniqueness of (subject, module, permission) is enforced by the store.
type Repository interface {
	GetModuleByName(ctx context.Context, name string) (*rbacDatamodel.Module, error)
	GetPermission(ctx context.Context, moduleID int64, action Action) (*rbacDatamodel.Permission, error)

	GetUserGrant(ctx context.Context, userID string, moduleID, permissionID int64) (*rbacDatamodel.UserPermission, error)
	GetRoleGrant(ctx context.Context, role string, moduleID, permissionID int64) (*rbacDatamodel.RolePermission, error)

	UpsertUserGrant(ctx context.Context, grant *rbacDatamodel.UserPermission) error
	DeleteUserGrant(ctx context.Context, userID string, moduleID, permissionID int64) error

	// ListRoleGrantedModules returns the active modules (both levels) on
	// which the role holds a granted view permission, ordered by sort key.
	ListRoleGrantedModules(ctx context.Context, role string) ([]rbacDatamodel.Module, error)
	// ListRoleActions returns the actions granted to the role on the module,
	// restricted to active permissions.
	ListRoleActions(ctx context.Context, role string, moduleID int64) ([]Action, error)
	// ListUserOverrides returns the user's override rows on the module as
	// action -> granted, restricted to active permissions.
	ListUserOverrides(ctx context.Context, userID string, moduleID int64) (map[Action]bool, error)
}

// UserStore is the slice of the credential store the resolver reads.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*userDatamodel.User, error)
}

// ServiceAPI is consumed by the HTTP layer and the permission middleware.
type ServiceAPI interface {
	HasPermission(ctx context.Context, userID, moduleName string, action Action) bool
	CanAccessModule(ctx context.Context, userID, moduleName string) bool
	GetUserModules(ctx context.Context, userID string) ([]ModuleNode, error)
	GetUserModulePermissions(ctx context.Context, userID, moduleName string) ([]Action, error)
	AssignUserPermission(ctx context.Context, userID, moduleName string, action Action, granted bool) error
	RemoveUserPermission(ctx context.Context, userID, moduleName string, action Action) error
}

func toModuleView(m rbacDatamodel.Module) Module {
	return Module{
		ID:          m.ID,
		Name:        m.Name,
		DisplayName: m.DisplayName,
		Description: m.Description,
		MenuType:    m.MenuType,
		Icon:        m.Icon,
		Path:        m.Path,
		SortOrder:   m.SortOrder,
	}
}
