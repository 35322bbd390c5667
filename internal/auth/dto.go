package auth

import (
	"github.com/bert0h-dev/busmanage-api/internal"
	"github.com/bert0h-dev/busmanage-api/internal/core/common/validation"
)

// LoginDTO accepts an email or an employee number as the identifier.
type LoginDTO struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func (d LoginDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("identifier", d.Identifier).Required()
	v.Field("password", d.Password).Required()
	return v.Validate()
}

type RegisterDTO struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	FullName string  `json:"full_name"`
	Role     *string `json:"role,omitempty"`
}

func (d RegisterDTO) Validate(policy internal.PasswordPolicy) *internal.AppError {
	v := validation.NewValidator()
	v.Field("email", d.Email).Required().Email()
	v.Field("full_name", d.FullName).Required().MinLength(3)
	if err := v.Validate(); err != nil {
		return err
	}

	if d.Role != nil && !Role(*d.Role).IsValid() {
		return internal.NewValidationError("Rol inválido", internal.ErrCodeInvalidRole)
	}

	return validation.ValidatePassword(policy, d.Password)
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token"`
}

func (d RefreshTokenDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("refresh_token", d.RefreshToken).Required()
	return v.Validate()
}

type ChangePasswordDTO struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (d ChangePasswordDTO) Validate(policy internal.PasswordPolicy) *internal.AppError {
	v := validation.NewValidator()
	v.Field("current_password", d.CurrentPassword).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return validation.ValidatePassword(policy, d.NewPassword)
}

type ForgotPasswordDTO struct {
	Identifier string `json:"identifier"`
}

func (d ForgotPasswordDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("identifier", d.Identifier).Required()
	return v.Validate()
}

type ResetPasswordDTO struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (d ResetPasswordDTO) Validate(policy internal.PasswordPolicy) *internal.AppError {
	v := validation.NewValidator()
	v.Field("token", d.Token).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return validation.ValidatePassword(policy, d.NewPassword)
}
