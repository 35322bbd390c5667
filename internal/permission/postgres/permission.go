package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	rbacDatamodel "github.com/bert0h-dev/busmanage-api/internal/core/datamodel/rbac"
	"github.com/bert0h-dev/busmanage-api/internal/permission"
)

// Repository implements permission.Repository on top of GORM.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) permission.Repository {
	return &Repository{db: db}
}

func (r *Repository) GetModuleByName(ctx context.Context, name string) (*rbacDatamodel.Module, error) {
	var m rbacDatamodel.Module
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, permission.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *Repository) GetPermission(ctx context.Context, moduleID int64, action permission.Action) (*rbacDatamodel.Permission, error) {
	var p rbacDatamodel.Permission
	err := r.db.WithContext(ctx).
		Where("module_id = ? AND action = ?", moduleID, string(action)).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, permission.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repository) GetUserGrant(ctx context.Context, userID string, moduleID, permissionID int64) (*rbacDatamodel.UserPermission, error) {
	var g rbacDatamodel.UserPermission
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND module_id = ? AND permission_id = ?", userID, moduleID, permissionID).
		First(&g).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, permission.ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (r *Repository) GetRoleGrant(ctx context.Context, role string, moduleID, permissionID int64) (*rbacDatamodel.RolePermission, error) {
	var g rbacDatamodel.RolePermission
	err := r.db.WithContext(ctx).
		Where("role = ? AND module_id = ? AND permission_id = ?", role, moduleID, permissionID).
		First(&g).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, permission.ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

// UpsertUserGrant relies on the (user_id, module_id, permission_id) unique
// index, so concurrent writes to the same triple serialize at the store.
func (r *Repository) UpsertUserGrant(ctx context.Context, grant *rbacDatamodel.UserPermission) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "module_id"}, {Name: "permission_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"granted":    grant.Granted,
				"updated_at": time.Now(),
			}),
		}).
		Create(grant).Error
}

func (r *Repository) DeleteUserGrant(ctx context.Context, userID string, moduleID, permissionID int64) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND module_id = ? AND permission_id = ?", userID, moduleID, permissionID).
		Delete(&rbacDatamodel.UserPermission{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return permission.ErrNotFound
	}
	return nil
}

func (r *Repository) ListRoleGrantedModules(ctx context.Context, role string) ([]rbacDatamodel.Module, error) {
	var modules []rbacDatamodel.Module
	err := r.db.WithContext(ctx).
		Table("modules").
		Select("DISTINCT modules.*").
		Joins("JOIN permissions ON permissions.module_id = modules.id AND permissions.action = ? AND permissions.is_active = ?", string(permission.ActionView), true).
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id AND role_permissions.module_id = modules.id").
		Where("role_permissions.role = ? AND role_permissions.granted = ? AND modules.is_active = ?", role, true, true).
		Order("modules.sort_order ASC").
		Find(&modules).Error
	if err != nil {
		return nil, err
	}
	return modules, nil
}

func (r *Repository) ListRoleActions(ctx context.Context, role string, moduleID int64) ([]permission.Action, error) {
	var actions []string
	err := r.db.WithContext(ctx).
		Table("permissions").
		Select("permissions.action").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Where("permissions.module_id = ? AND permissions.is_active = ?", moduleID, true).
		Where("role_permissions.role = ? AND role_permissions.granted = ?", role, true).
		Scan(&actions).Error
	if err != nil {
		return nil, err
	}

	result := make([]permission.Action, 0, len(actions))
	for _, a := range actions {
		result = append(result, permission.Action(a))
	}
	return result, nil
}

func (r *Repository) ListUserOverrides(ctx context.Context, userID string, moduleID int64) (map[permission.Action]bool, error) {
	var rows []struct {
		Action  string
		Granted bool
	}
	err := r.db.WithContext(ctx).
		Table("permissions").
		Select("permissions.action, user_permissions.granted").
		Joins("JOIN user_permissions ON user_permissions.permission_id = permissions.id").
		Where("permissions.module_id = ? AND permissions.is_active = ?", moduleID, true).
		Where("user_permissions.user_id = ?", userID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	overrides := make(map[permission.Action]bool, len(rows))
	for _, row := range rows {
		overrides[permission.Action(row.Action)] = row.Granted
	}
	return overrides, nil
}
