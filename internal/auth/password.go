// ABOUTME: Password hashing and policy checks for local user accounts
// ABOUTME: bcrypt with cost 12, policy requires mixed case, digit, and symbol

package auth

import (
	"errors"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost matches the work factor used by the original deployment.
const bcryptCost = 12

// ErrWeakPassword is returned when a password fails the policy check
var ErrWeakPassword = errors.New("password does not meet security requirements: " +
	"at least 6 characters with one uppercase letter, one lowercase letter, one digit, and one special character")

// HashPassword returns the bcrypt hash of a password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ComparePassword reports whether a plaintext password matches a bcrypt hash.
func ComparePassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// CheckPasswordPolicy validates password strength: minimum 6 characters,
// at least one uppercase letter, one lowercase letter, one digit, and one
// character that is none of those.
func CheckPasswordPolicy(password string) error {
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}
	if len(password) < 6 || !hasUpper || !hasLower || !hasDigit || !hasSpecial {
		return ErrWeakPassword
	}
	return nil
}
