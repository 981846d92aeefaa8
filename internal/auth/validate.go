// Package auth signs users in against an external identity provider and
// keeps the resulting session on disk.
package auth

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password too weak")
	ErrNameRequired       = errors.New("name is required")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotSignedIn        = errors.New("not signed in")
	ErrSessionExpired     = errors.New("session expired")
	ErrInvalidToken       = errors.New("invalid id token")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail checks the shape of an email address.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return nil
}

// ValidatePassword requires an upper-case letter, a lower-case letter and at
// least MinPasswordLength characters. The error lists every unmet rule.
func ValidatePassword(password string) error {
	var upper, lower bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		}
	}

	var missing []string
	if !upper {
		missing = append(missing, "an uppercase letter")
	}
	if !lower {
		missing = append(missing, "a lowercase letter")
	}
	if len([]rune(password)) < MinPasswordLength {
		missing = append(missing, fmt.Sprintf("at least %d characters", MinPasswordLength))
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: must contain %s", ErrWeakPassword, strings.Join(missing, ", "))
	}
	return nil
}
