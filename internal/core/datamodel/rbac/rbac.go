package rbac

import "time"

// Module is one node of the menu/permission tree. ParentID nil means a
// top-level module; a sub-module's parent must itself be top-level, so the
// tree never exceeds depth two.
type Module struct {
	ID          int64   `gorm:"primaryKey"`
	Name        string  `gorm:"column:name;uniqueIndex;not null"`
	DisplayName string  `gorm:"column:display_name;not null"`
	Description string  `gorm:"column:description"`
	MenuType    string  `gorm:"column:menu_type"`
	Icon        string  `gorm:"column:icon"`
	Path        string  `gorm:"column:path"`
	SortOrder   int     `gorm:"column:sort_order;not null;default:0"`
	ParentID    *int64  `gorm:"column:parent_id"`
	IsActive    bool    `gorm:"column:is_active;default:true"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Module) TableName() string {
	return "modules"
}

// Permission defines one action on one module; (module_id, action) is unique.
type Permission struct {
	ID          int64  `gorm:"primaryKey"`
	ModuleID    int64  `gorm:"column:module_id;not null;uniqueIndex:idx_permissions_module_action"`
	Action      string `gorm:"column:action;not null;uniqueIndex:idx_permissions_module_action"`
	Description string `gorm:"column:description"`
	IsActive    bool   `gorm:"column:is_active;default:true"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Permission) TableName() string {
	return "permissions"
}

// RolePermission is the role-scoped grant row.
type RolePermission struct {
	ID           int64  `gorm:"primaryKey"`
	Role         string `gorm:"column:role;not null;uniqueIndex:idx_role_permissions_subject"`
	ModuleID     int64  `gorm:"column:module_id;not null;uniqueIndex:idx_role_permissions_subject"`
	PermissionID int64  `gorm:"column:permission_id;not null;uniqueIndex:idx_role_permissions_subject"`
	Granted      bool   `gorm:"column:granted;not null;default:false"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (RolePermission) TableName() string {
	return "role_permissions"
}

// UserPermission is the user-scoped override row. Its granted value beats
// any role-level grant for the same (module, permission).
type UserPermission struct {
	ID           int64  `gorm:"primaryKey"`
	UserID       string `gorm:"column:user_id;not null;uniqueIndex:idx_user_permissions_subject"`
	ModuleID     int64  `gorm:"column:module_id;not null;uniqueIndex:idx_user_permissions_subject"`
	PermissionID int64  `gorm:"column:permission_id;not null;uniqueIndex:idx_user_permissions_subject"`
	Granted      bool   `gorm:"column:granted;not null;default:false"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (UserPermission) TableName() string {
	return "user_permissions"
}
