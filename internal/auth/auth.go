package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	userDatamodel "github.com/bert0h-dev/busmanage-api/internal/core/datamodel/user"
)

// ErrUserNotFound is the repository-level miss; services translate it into
// the caller-facing error appropriate for the flow.
var ErrUserNotFound = errors.New("user not found")

// Role is the closed set of back-office roles. Every user holds exactly one.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleCoordinator Role = "coordinator"
	RoleVendor      Role = "vendor"
	RoleDriver      Role = "driver"
	RoleCollector   Role = "collector"
	RoleViewer      Role = "viewer"
)

var allRoles = []Role{RoleAdmin, RoleCoordinator, RoleVendor, RoleDriver, RoleCollector, RoleViewer}

func (r Role) IsValid() bool {
	for _, known := range allRoles {
		if r == known {
			return true
		}
	}
	return false
}

// TokenType tags a signed token as access or refresh so one can never be
// replayed as the other, even though both are structurally valid JWTs.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims is the payload embedded in both token kinds. Subject carries the
// user id.
type Claims struct {
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// User is the sanitized user view returned to callers; it never carries
// hashes or token state.
type User struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	EmployeeNumber *string    `json:"employee_number,omitempty"`
	FullName       string     `json:"full_name"`
	Role           Role       `json:"role"`
	IsActive       bool       `json:"is_active"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type AuthResponse struct {
	User   User      `json:"user"`
	Tokens TokenPair `json:"tokens"`
}

// AuthUser is the identity attached to the request context after the access
// token has been verified. Built from claims alone; no storage lookup.
type AuthUser struct {
	ID    string
	Email string
	Role  Role
}

// TokenGenerator creates and validates the two token kinds.
type TokenGenerator interface {
	GenerateAccessToken(userID, email string, role Role) (string, error)
	GenerateRefreshToken(userID, email string, role Role) (token string, expiresAt time.Time, err error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
}

// Repository is the credential store surface the service needs.
type Repository interface {
	Create(ctx context.Context, u *userDatamodel.User) error
	GetByID(ctx context.Context, id string) (*userDatamodel.User, error)
	GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	// GetByIdentifier resolves email or employee number.
	GetByIdentifier(ctx context.Context, identifier string) (*userDatamodel.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	StoreRefreshToken(ctx context.Context, id, tokenHash string, createdAt, expiresAt time.Time) error
	ClearRefreshToken(ctx context.Context, id string) error
	StoreResetToken(ctx context.Context, id, token string, expiresAt time.Time) error
	// GetByResetToken only matches unexpired tokens.
	GetByResetToken(ctx context.Context, token string) (*userDatamodel.User, error)
	// ResetPassword sets the new hash and clears the reset token fields.
	ResetPassword(ctx context.Context, id, passwordHash string) error
}

// ServiceAPI is consumed by the HTTP layer.
type ServiceAPI interface {
	Login(ctx context.Context, dto LoginDTO) (*AuthResponse, error)
	Register(ctx context.Context, dto RegisterDTO) (*AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, userID string) error
	ChangePassword(ctx context.Context, userID string, dto ChangePasswordDTO) error
	ForgotPassword(ctx context.Context, dto ForgotPasswordDTO) error
	ResetPassword(ctx context.Context, dto ResetPasswordDTO) error
	VerifyAccessToken(tokenString string) (*Claims, error)
}

func toUserView(u *userDatamodel.User) User {
	return User{
		ID:             u.ID,
		Email:          u.Email,
		EmployeeNumber: u.EmployeeNumber,
		FullName:       u.FullName,
		Role:           Role(u.Role),
		IsActive:       u.IsActive,
		LastLogin:      u.LastLogin,
		CreatedAt:      u.CreatedAt,
	}
}

type userCtxKey struct{}

func ContextWithUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, userCtxKey{}, user)
}

func UserFromContext(ctx context.Context) (*AuthUser, bool) {
	user, ok := ctx.Value(userCtxKey{}).(*AuthUser)
	return user, ok
}
