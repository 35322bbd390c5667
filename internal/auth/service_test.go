package auth

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/bert0h-dev/busmanage-api/internal"
	userDatamodel "github.com/bert0h-dev/busmanage-api/internal/core/datamodel/user"
)

func TestAuth(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Module Suite")
}

// in-memory credential store
type mockRepository struct {
	users map[string]*userDatamodel.User // id -> user
}

func newMockRepository() *mockRepository {
	return &mockRepository{users: make(map[string]*userDatamodel.User)}
}

func (m *mockRepository) add(u *userDatamodel.User) {
	m.users[u.ID] = u
}

func (m *mockRepository) Create(_ context.Context, u *userDatamodel.User) error {
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return internal.ErrEmailTaken
		}
	}
	m.users[u.ID] = u
	return nil
}

func (m *mockRepository) GetByID(_ context.Context, id string) (*userDatamodel.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, ErrUserNotFound
}

func (m *mockRepository) GetByEmail(_ context.Context, email string) (*userDatamodel.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *mockRepository) GetByIdentifier(_ context.Context, identifier string) (*userDatamodel.User, error) {
	for _, u := range m.users {
		if u.Email == identifier {
			return u, nil
		}
		if u.EmployeeNumber != nil && *u.EmployeeNumber == identifier {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *mockRepository) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	if u, ok := m.users[id]; ok {
		u.LastLogin = &at
	}
	return nil
}

func (m *mockRepository) UpdatePassword(_ context.Context, id, passwordHash string) error {
	u, ok := m.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *mockRepository) StoreRefreshToken(_ context.Context, id, tokenHash string, createdAt, expiresAt time.Time) error {
	u, ok := m.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.RefreshTokenHash = &tokenHash
	u.RefreshTokenCreatedAt = &createdAt
	u.RefreshTokenExpiry = &expiresAt
	return nil
}

func (m *mockRepository) ClearRefreshToken(_ context.Context, id string) error {
	if u, ok := m.users[id]; ok {
		u.RefreshTokenHash = nil
		u.RefreshTokenCreatedAt = nil
		u.RefreshTokenExpiry = nil
	}
	return nil
}

func (m *mockRepository) StoreResetToken(_ context.Context, id, token string, expiresAt time.Time) error {
	u, ok := m.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.ResetToken = &token
	u.ResetTokenExpiry = &expiresAt
	return nil
}

func (m *mockRepository) GetByResetToken(_ context.Context, token string) (*userDatamodel.User, error) {
	for _, u := range m.users {
		if u.ResetToken != nil && *u.ResetToken == token &&
			u.ResetTokenExpiry != nil && u.ResetTokenExpiry.After(time.Now()) {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *mockRepository) ResetPassword(_ context.Context, id, passwordHash string) error {
	u, ok := m.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.ResetToken = nil
	u.ResetTokenExpiry = nil
	return nil
}

var _ = Describe("AuthService", func() {
	var (
		service  *Service
		repo     *mockRepository
		security internal.SecurityConfig
		ctx      context.Context
	)

	const password = "Segura123"

	addUser := func(id, email string, active bool) *userDatamodel.User {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		Expect(err).ToNot(HaveOccurred())
		u := &userDatamodel.User{
			ID:           id,
			Email:        email,
			FullName:     "Usuario de Prueba",
			PasswordHash: string(hash),
			Role:         string(RoleVendor),
			IsActive:     active,
		}
		repo.add(u)
		return u
	}

	BeforeEach(func() {
		ctx = context.Background()
		repo = newMockRepository()
		security = internal.DefaultSecurity()
		security.AccessTokenSecret = "test-access-secret-0123456789abcdef"
		security.RefreshTokenSecret = "test-refresh-secret-0123456789abcdef"
		security.BCryptCost = bcrypt.MinCost

		tokenGen := NewJWTTokenGenerator(
			security.AccessTokenSecret,
			security.RefreshTokenSecret,
			security.AccessTokenTTL,
			security.RefreshTokenTTL,
		)
		service = NewService(repo, tokenGen, security, nil, nil)
	})

	Describe("Login", func() {
		It("returns a session for valid credentials", func() {
			addUser("u1", "vendor@correo.com", true)

			resp, err := service.Login(ctx, LoginDTO{Identifier: "vendor@correo.com", Password: password})

			Expect(err).ToNot(HaveOccurred())
			Expect(resp.Tokens.AccessToken).ToNot(BeEmpty())
			Expect(resp.Tokens.RefreshToken).ToNot(BeEmpty())
			Expect(resp.User.Email).To(Equal("vendor@correo.com"))
		})

		It("accepts the employee number as identifier", func() {
			u := addUser("u1", "vendor@correo.com", true)
			emp := "EMP-001"
			u.EmployeeNumber = &emp

			resp, err := service.Login(ctx, LoginDTO{Identifier: "EMP-001", Password: password})

			Expect(err).ToNot(HaveOccurred())
			Expect(resp.User.ID).To(Equal("u1"))
		})

		It("stamps last login", func() {
			u := addUser("u1", "vendor@correo.com", true)

			_, err := service.Login(ctx, LoginDTO{Identifier: "vendor@correo.com", Password: password})

			Expect(err).ToNot(HaveOccurred())
			Expect(u.LastLogin).ToNot(BeNil())
		})

		It("rejects a wrong password with the generic credentials error", func() {
			addUser("u1", "vendor@correo.com", true)

			_, err := service.Login(ctx, LoginDTO{Identifier: "vendor@correo.com", Password: "otra"})

			Expect(err).To(MatchError(internal.ErrInvalidCredentials))
		})

		It("rejects an unknown identifier with the same generic error", func() {
			_, err := service.Login(ctx, LoginDTO{Identifier: "nadie@correo.com", Password: password})

			Expect(err).To(MatchError(internal.ErrInvalidCredentials))
		})

		It("rejects an inactive user even with the right password", func() {
			addUser("u1", "baja@correo.com", false)

			_, err := service.Login(ctx, LoginDTO{Identifier: "baja@correo.com", Password: password})

			Expect(err).To(MatchError(internal.ErrUserInactive))
		})

		It("never returns the password hash in the user view", func() {
			addUser("u1", "vendor@correo.com", true)

			resp, err := service.Login(ctx, LoginDTO{Identifier: "vendor@correo.com", Password: password})

			Expect(err).ToNot(HaveOccurred())
			Expect(resp.User).To(BeAssignableToTypeOf(User{}))
		})
	})

	Describe("Register", func() {
		It("creates a viewer by default and issues a session", func() {
			resp, err := service.Register(ctx, RegisterDTO{
				Email:    "nuevo@correo.com",
				Password: "Segura123",
				FullName: "Usuario Nuevo",
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(resp.User.Role).To(Equal(RoleViewer))
			Expect(resp.Tokens.RefreshToken).ToNot(BeEmpty())
		})

		It("rejects a duplicate email", func() {
			addUser("u1", "nuevo@correo.com", true)

			_, err := service.Register(ctx, RegisterDTO{
				Email:    "nuevo@correo.com",
				Password: "Segura123",
				FullName: "Usuario Nuevo",
			})

			Expect(err).To(MatchError(internal.ErrEmailTaken))
		})

		It("rejects a weak password with every unmet requirement", func() {
			_, err := service.Register(ctx, RegisterDTO{
				Email:    "nuevo@correo.com",
				Password: "corta",
				FullName: "Usuario Nuevo",
			})

			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
			details, ok := appErr.Details.(internal.ValidationErrors)
			Expect(ok).To(BeTrue())
			// too short, no uppercase, no number
			Expect(len(details.Errors)).To(Equal(3))
		})

		It("rejects an unknown role", func() {
			role := "superuser"
			_, err := service.Register(ctx, RegisterDTO{
				Email:    "nuevo@correo.com",
				Password: "Segura123",
				FullName: "Usuario Nuevo",
				Role:     &role,
			})

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Refresh", func() {
		It("rotates the token pair and spends the old refresh token", func() {
			addUser("u1", "vendor@correo.com", true)
			resp, err := service.Login(ctx, LoginDTO{Identifier: "vendor@correo.com", Password: password})
			Expect(err).ToNot(HaveOccurred())
			rt1 := resp.Tokens.RefreshToken

			pair2, err := service.Refresh(ctx, rt1)
			Expect(err).ToNot(HaveOccurred())
			Expect(pair2.RefreshToken).ToNot(Equal(rt1))

			// rt1 is spent
			_, err = service.Refresh(ctx, rt1)
			Expect(err).To(MatchError(internal.ErrInvalidToken))

			// the rotated token still works
			_, err = service.Refresh(ctx, pair2.RefreshToken)
			Expect(err).ToNot(HaveOccurred())
		})

		It("rejects a refresh after logout", func() {
			addUser("u1", "vendor@correo.com", true)
			resp, err := service.Login(ctx, LoginDTO{Identifier: "vendor@correo.com", Password: password})
			Expect(err).ToNot(HaveOccurred())

			Expect(service.Logout(ctx, "u1")).To(Succeed())

			_, err = service.Refresh(ctx, resp.Tokens.RefreshToken)
			Expect(err).To(MatchError(internal.ErrInvalidToken))
		})

		It("rejects an access token presented as a refresh token", func() {
			addUser("u1", "vendor@correo.com", true)
			resp, err := service.Login(ctx, LoginDTO{Identifier: "vendor@correo.com", Password: password})
			Expect(err).ToNot(HaveOccurred())

			_, err = service.Refresh(ctx, resp.Tokens.AccessToken)
			Expect(err).To(MatchError(internal.ErrInvalidToken))
		})

		It("rejects a refresh for a user deactivated since login", func() {
			u := addUser("u1", "vendor@correo.com", true)
			resp, err := service.Login(ctx, LoginDTO{Identifier: "vendor@correo.com", Password: password})
			Expect(err).ToNot(HaveOccurred())

			u.IsActive = false

			_, err = service.Refresh(ctx, resp.Tokens.RefreshToken)
			Expect(err).To(MatchError(internal.ErrUserInactive))
		})

		It("rejects garbage tokens", func() {
			_, err := service.Refresh(ctx, "no-es-un-jwt")
			Expect(err).To(MatchError(internal.ErrInvalidToken))
		})
	})

	Describe("Logout", func() {
		It("is idempotent", func() {
			addUser("u1", "vendor@correo.com", true)
			_, err := service.Login(ctx, LoginDTO{Identifier: "vendor@correo.com", Password: password})
			Expect(err).ToNot(HaveOccurred())

			Expect(service.Logout(ctx, "u1")).To(Succeed())
			Expect(service.Logout(ctx, "u1")).To(Succeed())
		})

		It("leaves access tokens verifiable until they expire", func() {
			addUser("u1", "vendor@correo.com", true)
			resp, err := service.Login(ctx, LoginDTO{Identifier: "vendor@correo.com", Password: password})
			Expect(err).ToNot(HaveOccurred())

			Expect(service.Logout(ctx, "u1")).To(Succeed())

			claims, err := service.VerifyAccessToken(resp.Tokens.AccessToken)
			Expect(err).ToNot(HaveOccurred())
			Expect(claims.Subject).To(Equal("u1"))
		})
	})

	Describe("ChangePassword", func() {
		It("requires the current password", func() {
			addUser("u1", "vendor@correo.com", true)

			err := service.ChangePassword(ctx, "u1", ChangePasswordDTO{
				CurrentPassword: "equivocada",
				NewPassword:     "Nueva1234",
			})

			Expect(err).To(MatchError(internal.ErrWrongPassword))
		})

		It("updates the hash so the new password logs in", func() {
			addUser("u1", "vendor@correo.com", true)

			err := service.ChangePassword(ctx, "u1", ChangePasswordDTO{
				CurrentPassword: password,
				NewPassword:     "Nueva1234",
			})
			Expect(err).ToNot(HaveOccurred())

			_, err = service.Login(ctx, LoginDTO{Identifier: "vendor@correo.com", Password: "Nueva1234"})
			Expect(err).ToNot(HaveOccurred())
		})

		It("enforces the password policy on the new password", func() {
			addUser("u1", "vendor@correo.com", true)

			err := service.ChangePassword(ctx, "u1", ChangePasswordDTO{
				CurrentPassword: password,
				NewPassword:     "corta",
			})

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ForgotPassword and ResetPassword", func() {
		It("stores a reset token for a known identifier", func() {
			u := addUser("u1", "vendor@correo.com", true)

			err := service.ForgotPassword(ctx, ForgotPasswordDTO{Identifier: "vendor@correo.com"})

			Expect(err).ToNot(HaveOccurred())
			Expect(u.ResetToken).ToNot(BeNil())
			Expect(u.ResetTokenExpiry).ToNot(BeNil())
		})

		It("succeeds silently for an unknown identifier", func() {
			err := service.ForgotPassword(ctx, ForgotPasswordDTO{Identifier: "nadie@correo.com"})
			Expect(err).ToNot(HaveOccurred())
		})

		It("resets the password with a valid token, once", func() {
			u := addUser("u1", "vendor@correo.com", true)
			Expect(service.ForgotPassword(ctx, ForgotPasswordDTO{Identifier: "vendor@correo.com"})).To(Succeed())
			token := *u.ResetToken

			err := service.ResetPassword(ctx, ResetPasswordDTO{Token: token, NewPassword: "Nueva1234"})
			Expect(err).ToNot(HaveOccurred())

			_, err = service.Login(ctx, LoginDTO{Identifier: "vendor@correo.com", Password: "Nueva1234"})
			Expect(err).ToNot(HaveOccurred())

			// the token is consumed
			err = service.ResetPassword(ctx, ResetPasswordDTO{Token: token, NewPassword: "Otra12345"})
			Expect(err).To(MatchError(internal.ErrInvalidResetToken))
		})

		It("rejects an expired token", func() {
			u := addUser("u1", "vendor@correo.com", true)
			Expect(service.ForgotPassword(ctx, ForgotPasswordDTO{Identifier: "vendor@correo.com"})).To(Succeed())
			past := time.Now().Add(-time.Minute)
			u.ResetTokenExpiry = &past

			err := service.ResetPassword(ctx, ResetPasswordDTO{Token: *u.ResetToken, NewPassword: "Nueva1234"})
			Expect(err).To(MatchError(internal.ErrInvalidResetToken))
		})
	})
})
