package validator

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidEmail    = errors.New("invalid email")
	ErrInvalidName     = errors.New("name must be between 1 and 120 characters")
	ErrInvalidPassword = errors.New("password must have at least 8 characters")
	ErrInvalidRate     = errors.New("rate must be positive with at most 6 decimal places")
)

const maxNameLength = 120

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidateName covers user, portfolio and bucket names.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || utf8.RuneCountInString(trimmed) > maxNameLength {
		return ErrInvalidName
	}
	return nil
}

// ValidatePassword accepts an empty password; such users cannot log in.
func ValidatePassword(password string) error {
	if password != "" && len(password) < 8 {
		return ErrInvalidPassword
	}
	return nil
}

func ValidateRate(rate decimal.Decimal) error {
	if rate.LessThanOrEqual(decimal.Zero) || !rate.Equal(rate.Round(6)) {
		return ErrInvalidRate
	}
	return nil
}
