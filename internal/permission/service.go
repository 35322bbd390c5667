package permission

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bert0h-dev/busmanage-api/internal"
	"github.com/bert0h-dev/busmanage-api/internal/auth"
	rbacDatamodel "github.com/bert0h-dev/busmanage-api/internal/core/datamodel/rbac"
	userDatamodel "github.com/bert0h-dev/busmanage-api/internal/core/datamodel/user"
	"github.com/bert0h-dev/busmanage-api/internal/core/events"
)

// Service resolves (user, module, action) requests against the grant table.
// Read paths fail closed: any missing or inactive reference data denies.
// Administrative writes fail loud with typed errors instead.
type Service struct {
	repo   Repository
	users  UserStore
	bus    *events.EventBus
	logger *slog.Logger
}

func NewService(repo Repository, users UserStore, bus *events.EventBus, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		users:  users,
		bus:    bus,
		logger: logger,
	}
}

// HasPermission decides allow/deny. A user-scoped grant is authoritative in
// both directions; without one the role-scoped grant decides; without
// either the answer is deny.
func (s *Service) HasPermission(ctx context.Context, userID, moduleName string, action Action) bool {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.logDenyError(ctx, "user lookup", err)
		return false
	}
	if !user.IsActive {
		return false
	}

	module, err := s.repo.GetModuleByName(ctx, moduleName)
	if err != nil {
		s.logDenyError(ctx, "module lookup", err)
		return false
	}
	if !module.IsActive {
		return false
	}

	perm, err := s.repo.GetPermission(ctx, module.ID, action)
	if err != nil {
		s.logDenyError(ctx, "permission lookup", err)
		return false
	}
	if !perm.IsActive {
		return false
	}

	userGrant, err := s.repo.GetUserGrant(ctx, userID, module.ID, perm.ID)
	if err == nil {
		return userGrant.Granted
	}
	if !errors.Is(err, ErrNotFound) {
		s.logDenyError(ctx, "user grant lookup", err)
		return false
	}

	roleGrant, err := s.repo.GetRoleGrant(ctx, user.Role, module.ID, perm.ID)
	if err == nil {
		return roleGrant.Granted
	}
	if !errors.Is(err, ErrNotFound) {
		s.logDenyError(ctx, "role grant lookup", err)
	}

	return false
}

func (s *Service) CanAccessModule(ctx context.Context, userID, moduleName string) bool {
	return s.HasPermission(ctx, userID, moduleName, ActionView)
}

// GetUserModules builds the menu: top-level modules where the user's role
// holds a granted view permission, each carrying its granted sub-modules.
// Only role-level grants feed the menu; user-level overrides still apply
// when the leaf permission is actually enforced.
func (s *Service) GetUserModules(ctx context.Context, userID string) ([]ModuleNode, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return []ModuleNode{}, nil
	}

	granted, err := s.repo.ListRoleGrantedModules(ctx, user.Role)
	if err != nil {
		return nil, internal.NewInternalError("failed to list granted modules", err)
	}

	children := make(map[int64][]Module)
	for _, m := range granted {
		if m.ParentID != nil {
			children[*m.ParentID] = append(children[*m.ParentID], toModuleView(m))
		}
	}

	nodes := make([]ModuleNode, 0)
	for _, m := range granted {
		if m.ParentID != nil {
			continue
		}
		node := ModuleNode{Module: toModuleView(m), SubModules: children[m.ID]}
		if node.SubModules == nil {
			node.SubModules = []Module{}
		}
		nodes = append(nodes, node)
	}

	return nodes, nil
}

// GetUserModulePermissions returns the actions the user holds on the
// module. User-level overrides are applied the same way HasPermission
// applies them: granted=true adds the action, granted=false removes it.
func (s *Service) GetUserModulePermissions(ctx context.Context, userID, moduleName string) ([]Action, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	module, err := s.repo.GetModuleByName(ctx, moduleName)
	if err != nil {
		return nil, s.moduleLookupError(err)
	}

	if !user.IsActive || !module.IsActive {
		return []Action{}, nil
	}

	roleActions, err := s.repo.ListRoleActions(ctx, user.Role, module.ID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list role grants", err)
	}

	overrides, err := s.repo.ListUserOverrides(ctx, userID, module.ID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list user grants", err)
	}

	actionSet := make(map[Action]bool, len(roleActions))
	for _, a := range roleActions {
		actionSet[a] = true
	}
	for a, granted := range overrides {
		if granted {
			actionSet[a] = true
		} else {
			delete(actionSet, a)
		}
	}

	actions := make([]Action, 0, len(actionSet))
	for _, a := range allActions {
		if actionSet[a] {
			actions = append(actions, a)
		}
	}

	return actions, nil
}

// AssignUserPermission upserts a user-scoped grant. The module and the
// (module, action) pair must exist; these are administrative calls with
// valid references expected.
func (s *Service) AssignUserPermission(ctx context.Context, userID, moduleName string, action Action, granted bool) error {
	if err := s.requireUser(ctx, userID); err != nil {
		return err
	}

	module, perm, err := s.lookupPermission(ctx, moduleName, action)
	if err != nil {
		return err
	}

	grant := &rbacDatamodel.UserPermission{
		UserID:       userID,
		ModuleID:     module.ID,
		PermissionID: perm.ID,
		Granted:      granted,
	}

	if err := s.repo.UpsertUserGrant(ctx, grant); err != nil {
		return internal.NewInternalError("failed to upsert user grant", err)
	}

	s.publish(ctx, events.NewPermissionAssignedEvent(userID, moduleName, string(action), granted))
	return nil
}

// RemoveUserPermission deletes the user-scoped grant, restoring the
// role-level default for the pair.
func (s *Service) RemoveUserPermission(ctx context.Context, userID, moduleName string, action Action) error {
	if err := s.requireUser(ctx, userID); err != nil {
		return err
	}

	module, perm, err := s.lookupPermission(ctx, moduleName, action)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteUserGrant(ctx, userID, module.ID, perm.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return internal.ErrGrantNotFound
		}
		return internal.NewInternalError("failed to delete user grant", err)
	}

	s.publish(ctx, events.NewPermissionRemovedEvent(userID, moduleName, string(action)))
	return nil
}

func (s *Service) loadUser(ctx context.Context, userID string) (*userDatamodel.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, internal.NewInternalError("failed to load user", err)
	}
	return user, nil
}

func (s *Service) requireUser(ctx context.Context, userID string) error {
	_, err := s.loadUser(ctx, userID)
	return err
}

func (s *Service) lookupPermission(ctx context.Context, moduleName string, action Action) (*rbacDatamodel.Module, *rbacDatamodel.Permission, error) {
	module, err := s.repo.GetModuleByName(ctx, moduleName)
	if err != nil {
		return nil, nil, s.moduleLookupError(err)
	}

	perm, err := s.repo.GetPermission(ctx, module.ID, action)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, internal.ErrPermissionNotFound
		}
		return nil, nil, internal.NewInternalError("failed to load permission", err)
	}

	return module, perm, nil
}

func (s *Service) moduleLookupError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return internal.ErrModuleNotFound
	}
	return internal.NewInternalError("failed to load module", err)
}

func (s *Service) logDenyError(ctx context.Context, step string, err error) {
	if errors.Is(err, ErrNotFound) || errors.Is(err, auth.ErrUserNotFound) || errors.Is(err, context.Canceled) {
		return
	}
	s.logger.Error("permission check denied on storage error", "step", step, "error", err)
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}
