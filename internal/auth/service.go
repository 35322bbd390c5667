package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bert0h-dev/busmanage-api/internal"
	userDatamodel "github.com/bert0h-dev/busmanage-api/internal/core/datamodel/user"
	"github.com/bert0h-dev/busmanage-api/internal/core/events"
)

// Service owns the credential lifecycle. A refresh token is persisted only
// as a slow-hash fingerprint and rotated on every use, so a leaked database
// read never yields a usable bearer credential and a leaked token is good
// for at most one refresh.
type Service struct {
	repo     Repository
	tokens   TokenGenerator
	security internal.SecurityConfig
	bus      *events.EventBus
	logger   *slog.Logger
}

func NewService(repo Repository, tokens TokenGenerator, security internal.SecurityConfig, bus *events.EventBus, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		tokens:   tokens,
		security: security,
		bus:      bus,
		logger:   logger,
	}
}

// issueSession generates a token pair and persists the refresh fingerprint,
// overwriting any previous session state for the user.
func (s *Service) issueSession(ctx context.Context, user *userDatamodel.User) (*TokenPair, error) {
	accessToken, err := s.tokens.GenerateAccessToken(user.ID, user.Email, Role(user.Role))
	if err != nil {
		return nil, internal.NewInternalError("failed to sign access token", err)
	}

	refreshToken, expiresAt, err := s.tokens.GenerateRefreshToken(user.ID, user.Email, Role(user.Role))
	if err != nil {
		return nil, internal.NewInternalError("failed to sign refresh token", err)
	}

	fingerprint, err := FingerprintToken(refreshToken, s.security.BCryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to fingerprint refresh token", err)
	}

	if err := s.repo.StoreRefreshToken(ctx, user.ID, fingerprint, time.Now(), expiresAt); err != nil {
		return nil, internal.NewInternalError("failed to persist refresh session", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *Service) Login(ctx context.Context, dto LoginDTO) (*AuthResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByIdentifier(ctx, dto.Identifier)
	if err != nil {
		// unknown identifier and wrong password must be indistinguishable
		return nil, internal.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, internal.ErrUserInactive
	}

	if err := VerifyPassword(user.PasswordHash, dto.Password); err != nil {
		return nil, internal.ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to stamp last login", "user_id", user.ID, "error", err)
	}
	user.LastLogin = &now

	tokens, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewUserLoggedInEvent(user.ID, user.Email))

	return &AuthResponse{User: toUserView(user), Tokens: *tokens}, nil
}

func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*AuthResponse, error) {
	if err := dto.Validate(s.security.Password); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByEmail(ctx, dto.Email); err == nil {
		return nil, internal.ErrEmailTaken
	}

	role := RoleViewer
	if dto.Role != nil {
		role = Role(*dto.Role)
	}

	passwordHash, err := HashPassword(dto.Password, s.security.BCryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	user := &userDatamodel.User{
		ID:           uuid.NewString(),
		Email:        dto.Email,
		FullName:     dto.FullName,
		PasswordHash: passwordHash,
		Role:         string(role),
		IsActive:     true,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		// the unique index is the authority under concurrent registration
		return nil, internal.ErrEmailTaken.WithCause(err)
	}

	tokens, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewUserRegisteredEvent(user.ID, user.Email, user.Role))

	return &AuthResponse{User: toUserView(user), Tokens: *tokens}, nil
}

// Refresh rotates the session: the presented token must match the stored
// fingerprint, and a successful refresh overwrites it, so the old token is
// spent whether or not it has expired.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, internal.ErrInvalidToken
	}

	if !user.IsActive {
		return nil, internal.ErrUserInactive
	}

	// a nil hash covers never-issued, revoked and logged-out uniformly
	if user.RefreshTokenHash == nil || !CompareTokenFingerprint(refreshToken, *user.RefreshTokenHash) {
		return nil, internal.ErrInvalidToken
	}

	if user.RefreshTokenExpiry != nil && user.RefreshTokenExpiry.Before(time.Now()) {
		return nil, internal.ErrTokenExpired
	}

	return s.issueSession(ctx, user)
}

// Logout revokes the stored refresh session. Idempotent: a second call is a
// no-op with the same outcome.
func (s *Service) Logout(ctx context.Context, userID string) error {
	if err := s.repo.ClearRefreshToken(ctx, userID); err != nil {
		return internal.NewInternalError("failed to clear refresh session", err)
	}

	s.publish(ctx, events.NewUserLoggedOutEvent(userID))
	return nil
}

func (s *Service) ChangePassword(ctx context.Context, userID string, dto ChangePasswordDTO) error {
	if err := dto.Validate(s.security.Password); err != nil {
		return err
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return internal.ErrUserNotFound
	}

	if err := VerifyPassword(user.PasswordHash, dto.CurrentPassword); err != nil {
		return internal.ErrWrongPassword
	}

	newHash, err := HashPassword(dto.NewPassword, s.security.BCryptCost)
	if err != nil {
		return internal.NewInternalError("failed to hash password", err)
	}

	if err := s.repo.UpdatePassword(ctx, user.ID, newHash); err != nil {
		return internal.NewInternalError("failed to update password", err)
	}

	return nil
}

// ForgotPassword never reveals whether the identifier exists; the reset
// token leaves the process only through the event bus (mail delivery hook).
func (s *Service) ForgotPassword(ctx context.Context, dto ForgotPasswordDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	user, err := s.repo.GetByIdentifier(ctx, dto.Identifier)
	if err != nil {
		s.logger.Debug("password reset requested for unknown identifier")
		return nil
	}

	resetToken, err := GenerateResetToken()
	if err != nil {
		return internal.NewInternalError("failed to generate reset token", err)
	}

	expiresAt := time.Now().Add(s.security.ResetTokenTTL)
	if err := s.repo.StoreResetToken(ctx, user.ID, resetToken, expiresAt); err != nil {
		return internal.NewInternalError("failed to store reset token", err)
	}

	s.publish(ctx, events.NewPasswordResetRequestedEvent(user.ID, user.Email, resetToken, expiresAt))
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, dto ResetPasswordDTO) error {
	if err := dto.Validate(s.security.Password); err != nil {
		return err
	}

	user, err := s.repo.GetByResetToken(ctx, dto.Token)
	if err != nil {
		return internal.ErrInvalidResetToken
	}

	newHash, err := HashPassword(dto.NewPassword, s.security.BCryptCost)
	if err != nil {
		return internal.NewInternalError("failed to hash password", err)
	}

	if err := s.repo.ResetPassword(ctx, user.ID, newHash); err != nil {
		return internal.NewInternalError("failed to reset password", err)
	}

	return nil
}

// VerifyAccessToken is stateless: signature and expiry only, no storage
// lookup. Revocation takes effect at refresh time, with access tokens
// expiring on their own within minutes.
func (s *Service) VerifyAccessToken(tokenString string) (*Claims, error) {
	return s.tokens.ValidateAccessToken(tokenString)
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}
