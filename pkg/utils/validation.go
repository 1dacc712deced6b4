package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/AnshRaj112/clubhub-backend/pkg/apperr"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 20
)

var (
	usernameRegex  = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	phoneRegex     = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	instagramRegex = regexp.MustCompile(`^[a-zA-Z0-9._]{1,30}$`)
)

// ValidateUsername validates username format
// Rules: 3-20 characters, letters, numbers, underscores only
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)

	if len(username) < MinUsernameLength {
		return &ValidationError{Field: "username", Message: "Username must be at least 3 characters"}
	}

	if len(username) > MaxUsernameLength {
		return &ValidationError{Field: "username", Message: "Username must be at most 20 characters"}
	}

	if !usernameRegex.MatchString(username) {
		return &ValidationError{Field: "username", Message: "Username can only contain letters, numbers, and underscores"}
	}

	// Check if it starts with a letter or number (not underscore)
	if !(unicode.IsLetter(rune(username[0])) || unicode.IsNumber(rune(username[0]))) {
		return &ValidationError{Field: "username", Message: "Username must start with a letter or number"}
	}

	return nil
}

// ValidatePhone accepts an optional leading + and 7-15 digits.
func ValidatePhone(phone string) error {
	if !phoneRegex.MatchString(phone) {
		return &ValidationError{Field: "phone", Message: "Phone number must be 7-15 digits with an optional leading +"}
	}
	return nil
}

// NormalizePhone strips spaces, dashes and brackets.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, strings.TrimSpace(phone))
}

// ValidateInstagram checks an Instagram handle; a leading @ is tolerated.
func ValidateInstagram(handle string) error {
	if !instagramRegex.MatchString(strings.TrimPrefix(handle, "@")) {
		return &ValidationError{Field: "instagram", Message: "Instagram handle may only contain letters, numbers, dots and underscores (max 30)"}
	}
	return nil
}

// ValidateText checks that s (after trimming) has between min and max runes.
func ValidateText(field, s string, min, max int) error {
	n := utf8.RuneCountInString(strings.TrimSpace(s))
	if n < min {
		if min == 1 {
			return &ValidationError{Field: field, Message: fmt.Sprintf("%s is required", field)}
		}
		return &ValidationError{Field: field, Message: fmt.Sprintf("%s must be at least %d characters", field, min)}
	}
	if n > max {
		return &ValidationError{Field: field, Message: fmt.Sprintf("%s must be at most %d characters", field, max)}
	}
	return nil
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Unwrap lets errors.Is(err, apperr.ErrValidation) and apperr.KindOf see
// field errors.
func (e *ValidationError) Unwrap() error {
	return &apperr.Error{Kind: apperr.KindValidation, Message: e.Message}
}
