// Package password enforces the account password policy and wraps
// bcrypt hashing.
package password

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrTooShort       = errors.New("password must be at least 8 characters long")
	ErrMissingUpper   = errors.New("password must contain at least one uppercase letter")
	ErrMissingLower   = errors.New("password must contain at least one lowercase letter")
	ErrMissingDigit   = errors.New("password must contain at least one digit")
	ErrMissingSpecial = errors.New("password must contain at least one special character")
)

// specialChars is the accepted special-character set.
const specialChars = `!@#$%^&*(),.?":{}|<>`

const minLength = 8

// Validate checks the password against the strength policy. Each
// violation is reported as its own error so callers can surface a
// distinct message per rule.
func Validate(password string) error {
	if len(password) < minLength {
		return ErrTooShort
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(specialChars, r):
			hasSpecial = true
		}
	}

	if !hasUpper {
		return ErrMissingUpper
	}
	if !hasLower {
		return ErrMissingLower
	}
	if !hasDigit {
		return ErrMissingDigit
	}
	if !hasSpecial {
		return ErrMissingSpecial
	}

	return nil
}

// Hasher hashes and verifies passwords with bcrypt at a fixed cost.
type Hasher struct {
	cost int
}

func NewHasher(cost int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Hasher{cost: cost}, nil
}

// Hash returns the bcrypt hash of the password. bcrypt generates its
// own random salt per call.
func (h *Hasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether the password matches the stored hash.
// bcrypt's comparison is constant-time relative to the hash.
func (h *Hasher) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
