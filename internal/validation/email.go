package validation

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

var (
	ErrEmailRequired = errors.New("email address is required")
	ErrEmailInvalid  = errors.New("invalid email address format")
)

// maxEmailLength is the RFC 5321 limit including the @.
const maxEmailLength = 254

var validate = validator.New()

// ValidateEmail applies the same email rule used at the HTTP boundary, so
// any address that can be stored can also request a password reset.
func ValidateEmail(email string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if len(email) > maxEmailLength {
		return errors.New("email address is too long (max 254 characters)")
	}
	if err := validate.Var(email, "email"); err != nil {
		return ErrEmailInvalid
	}
	return nil
}
