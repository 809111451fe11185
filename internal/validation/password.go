package validation

import (
	"errors"
	"strings"
)

var (
	ErrPasswordRequired = errors.New("password is required")
	ErrPasswordTooLong  = errors.New("password must not exceed 72 bytes")
)

// ValidatePassword checks that a password can be hashed safely.
func ValidatePassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return ErrPasswordRequired
	}

	// bcrypt silently truncates passwords longer than 72 bytes
	if len(password) > 72 {
		return ErrPasswordTooLong
	}

	return nil
}
