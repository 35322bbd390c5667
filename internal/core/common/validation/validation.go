package validation

import (
	"fmt"
	"net/mail"
	"unicode"

	"github.com/bert0h-dev/busmanage-api/internal"
)

type ValidatorFunc func(interface{}) *internal.AppError

type FieldValidator struct {
	FieldName  string
	Value      interface{}
	Validators []ValidatorFunc
}

type ValidationBuilder struct {
	fields []FieldValidator
}

func NewValidator() *ValidationBuilder {
	return &ValidationBuilder{
		fields: make([]FieldValidator, 0),
	}
}

func (v *ValidationBuilder) Field(name string, value interface{}) *FieldValidator {
	fv := FieldValidator{
		FieldName:  name,
		Value:      value,
		Validators: make([]ValidatorFunc, 0),
	}
	v.fields = append(v.fields, fv)
	return &v.fields[len(v.fields)-1]
}

func fieldError(field, message string, code internal.ErrorCode) *internal.AppError {
	return internal.NewValidationErrors("Validación fallida", []internal.ValidationError{
		{Field: field, Message: message, Code: string(code)},
	})
}

func (fv *FieldValidator) Required() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *internal.AppError {
		switch v := value.(type) {
		case string:
			if v == "" {
				return fieldError(fv.FieldName, fmt.Sprintf("%s es requerido", fv.FieldName), internal.ErrCodeValidationFailed)
			}
		case *string:
			if v == nil || *v == "" {
				return fieldError(fv.FieldName, fmt.Sprintf("%s es requerido", fv.FieldName), internal.ErrCodeValidationFailed)
			}
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MinLength(min int) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *internal.AppError {
		if v, ok := value.(string); ok && v != "" {
			if len([]rune(v)) < min {
				message := fmt.Sprintf("%s debe tener al menos %d caracteres", fv.FieldName, min)
				return fieldError(fv.FieldName, message, internal.ErrCodeValidationFailed)
			}
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) Email() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *internal.AppError {
		if v, ok := value.(string); ok && v != "" {
			if _, err := mail.ParseAddress(v); err != nil {
				return fieldError(fv.FieldName, "Email inválido", internal.ErrCodeInvalidEmail)
			}
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) Custom(validator ValidatorFunc) *FieldValidator {
	fv.Validators = append(fv.Validators, validator)
	return fv
}

func (v *ValidationBuilder) Validate() *internal.AppError {
	var validationErrors []internal.ValidationError

	for _, field := range v.fields {
		for _, validator := range field.Validators {
			if err := validator(field.Value); err != nil {
				if details, ok := err.Details.(internal.ValidationErrors); ok {
					validationErrors = append(validationErrors, details.Errors...)
				} else {
					validationErrors = append(validationErrors, internal.ValidationError{
						Field:   field.FieldName,
						Message: err.Message,
						Code:    string(err.Code),
					})
				}
			}
		}
	}

	if len(validationErrors) > 0 {
		return internal.NewValidationErrors("Validación fallida", validationErrors)
	}

	return nil
}

// PasswordRequirements returns every policy rule the candidate password
// fails to meet, so the caller can surface all of them at once.
func PasswordRequirements(policy internal.PasswordPolicy, password string) []internal.ValidationError {
	var errs []internal.ValidationError

	add := func(message string) {
		errs = append(errs, internal.ValidationError{
			Field:   "password",
			Message: message,
			Code:    string(internal.ErrCodeWeakPassword),
		})
	}

	if len([]rune(password)) < policy.MinLength {
		add(fmt.Sprintf("La contraseña debe tener al menos %d caracteres", policy.MinLength))
	}

	var hasUpper, hasLower, hasNumber bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsNumber(r):
			hasNumber = true
		}
	}

	if policy.RequireUppercase && !hasUpper {
		add("La contraseña debe incluir al menos una mayúscula")
	}
	if policy.RequireLowercase && !hasLower {
		add("La contraseña debe incluir al menos una minúscula")
	}
	if policy.RequireNumbers && !hasNumber {
		add("La contraseña debe incluir al menos un número")
	}

	return errs
}

// ValidatePassword enforces the configured password policy, enumerating
// every unmet requirement in the error details.
func ValidatePassword(policy internal.PasswordPolicy, password string) *internal.AppError {
	if errs := PasswordRequirements(policy, password); len(errs) > 0 {
		return internal.NewValidationErrors("La contraseña no cumple los requisitos", errs)
	}
	return nil
}
