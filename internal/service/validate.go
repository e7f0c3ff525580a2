package service

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

var (
	uppercaseRe = regexp.MustCompile(`[A-Z]`)
	lowercaseRe = regexp.MustCompile(`[a-z]`)
	digitRe     = regexp.MustCompile(`[0-9]`)
	specialRe   = regexp.MustCompile(`[^A-Za-z0-9]`)
	nicknameRe  = regexp.MustCompile(`^[a-zA-Z0-9_-]{2,32}$`)
)

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: invalid email", ErrValidation)
	}
	return nil
}

func validateNickname(nickname string) error {
	if !nicknameRe.MatchString(nickname) {
		return fmt.Errorf("%w: nickname must be 2-32 word characters", ErrValidation)
	}
	return nil
}

// validatePassword enforces the credential policy: length bounds plus at
// least one character from each class. The 72-byte ceiling keeps inputs
// inside a single argon2 block budget.
func validatePassword(password string, minLen, maxLen int) error {
	if len(password) < minLen || len(password) > maxLen {
		return ErrWeakPassword
	}
	if !uppercaseRe.MatchString(password) || !lowercaseRe.MatchString(password) ||
		!digitRe.MatchString(password) || !specialRe.MatchString(password) {
		return ErrWeakPassword
	}
	return nil
}
