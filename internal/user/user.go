package user

import (
	"context"
	"time"

	"github.com/bert0h-dev/busmanage-api/internal/permission"
)

// Profile is the authenticated user's own view, combining identity with
// the menu tree the role resolves to.
type Profile struct {
	ID             string                  `json:"id"`
	Email          string                  `json:"email"`
	EmployeeNumber *string                 `json:"employee_number,omitempty"`
	FullName       string                  `json:"full_name"`
	Role           string                  `json:"role"`
	IsActive       bool                    `json:"is_active"`
	LastLogin      *time.Time              `json:"last_login,omitempty"`
	Modules        []permission.ModuleNode `json:"modules"`
}

// ServiceAPI is consumed by the profile HTTP surface.
type ServiceAPI interface {
	GetProfile(ctx context.Context, userID string) (*Profile, error)
}
