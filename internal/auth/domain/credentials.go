package domain

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"tokengate/internal/common/constants"
	commonerrors "tokengate/internal/common/errors"
)

var (
	ErrInvalidEmail = commonerrors.NewDomainError(
		"INVALID_EMAIL",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"email format is invalid",
	)

	ErrInvalidPassword = commonerrors.NewDomainError(
		"INVALID_PASSWORD_FORMAT",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"password does not meet length requirements",
	)
)

var validate = validator.New()

// Email is a normalized address: trimmed, lowercased, format-checked.
type Email struct {
	value string
}

func NewEmail(raw string) (Email, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))

	if normalized == "" || len(normalized) > constants.EmailMaxLength {
		return Email{}, ErrInvalidEmail
	}

	if err := validate.Var(normalized, "email"); err != nil {
		return Email{}, ErrInvalidEmail
	}

	return Email{value: normalized}, nil
}

func (e Email) String() string {
	return e.value
}

// Password wraps a plaintext candidate long enough to be hashed and short
// enough for bcrypt's 72-byte input limit. It owns no comparison logic.
type Password struct {
	value string
}

func NewPassword(raw string) (Password, error) {
	if len(raw) < constants.PasswordMinLength || len(raw) > constants.PasswordMaxLength {
		return Password{}, ErrInvalidPassword
	}

	return Password{value: raw}, nil
}

func (p Password) String() string {
	return p.value
}
