package user

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bert0h-dev/busmanage-api/internal"
	"github.com/bert0h-dev/busmanage-api/internal/auth"
	"github.com/bert0h-dev/busmanage-api/internal/permission"
	"github.com/bert0h-dev/busmanage-api/pkg/logger"
)

type Service struct {
	users       permission.UserStore
	permissions permission.ServiceAPI
	logger      *slog.Logger
}

func NewService(users permission.UserStore, permissions permission.ServiceAPI) *Service {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Service{
		users:       users,
		permissions: permissions,
		logger:      lg,
	}
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, internal.NewInternalError("failed to load user", err)
	}

	modules, err := s.permissions.GetUserModules(ctx, userID)
	if err != nil {
		s.logger.Error("failed to resolve profile modules", "user_id", userID, "error", err)
		modules = []permission.ModuleNode{}
	}

	return &Profile{
		ID:             u.ID,
		Email:          u.Email,
		EmployeeNumber: u.EmployeeNumber,
		FullName:       u.FullName,
		Role:           u.Role,
		IsActive:       u.IsActive,
		LastLogin:      u.LastLogin,
		Modules:        modules,
	}, nil
}
