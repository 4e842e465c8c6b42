package validate

import (
	"errors"
	"unicode"
	"unicode/utf8"
)

var (
	// ErrPasswordMismatch is returned when the confirmation differs from the password.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrPasswordPolicy is returned when a password violates the configured Policy.
	ErrPasswordPolicy = errors.New("password policy not met")
	// ErrPasswordRequired is returned when a password field is empty.
	ErrPasswordRequired = errors.New("password required")
)

// Policy is the minimum-length and character-class policy applied to new passwords.
type Policy struct {
	MinLength      int
	RequireLower   bool
	RequireUpper   bool
	RequireDigit   bool
	RequireSpecial bool
}

// DefaultPolicy requires at least 8 characters with a lowercase letter, an
// uppercase letter, a digit, and a special character.
func DefaultPolicy() Policy {
	return Policy{
		MinLength:      8,
		RequireLower:   true,
		RequireUpper:   true,
		RequireDigit:   true,
		RequireSpecial: true,
	}
}

// Check returns ErrPasswordPolicy when password does not satisfy p.
// Length is counted in runes.
func (p Policy) Check(password string) error {
	if utf8.RuneCountInString(password) < p.MinLength {
		return ErrPasswordPolicy
	}

	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}

	if (p.RequireLower && !lower) ||
		(p.RequireUpper && !upper) ||
		(p.RequireDigit && !digit) ||
		(p.RequireSpecial && !special) {
		return ErrPasswordPolicy
	}
	return nil
}

// Match requires the two password entries to be equal character for character.
func Match(password, repeat string) error {
	if password != repeat {
		return ErrPasswordMismatch
	}
	return nil
}

// Required rejects an empty password.
func Required(password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	return nil
}

// NewPassword runs the confirmation check before the policy check.
func NewPassword(p Policy, password, repeat string) error {
	if err := Match(password, repeat); err != nil {
		return err
	}
	return p.Check(password)
}
