package validate

import (
	"strings"
	"unicode/utf8"

	"github.com/MrEthical07/goRecover/api"
	passwordvalidator "github.com/wagslane/go-password-validator"
)

// DefaultMinPasswordLength is the client-side password floor.
const DefaultMinPasswordLength = 6

// EmailNonEmpty reports whether s has content after trimming whitespace.
func EmailNonEmpty(s string) bool {
	return strings.TrimSpace(s) != ""
}

// PasswordPolicy reports whether pw has at least minLength characters.
// A minLength <= 0 falls back to DefaultMinPasswordLength.
func PasswordPolicy(pw string, minLength int) bool {
	if minLength <= 0 {
		minLength = DefaultMinPasswordLength
	}
	return utf8.RuneCountInString(pw) >= minLength
}

// PasswordsMatch reports whether the confirmation equals the password exactly.
func PasswordsMatch(pw, confirm string) bool {
	return pw == confirm
}

// ServerMessage returns the message carried by resp, or fallback when resp is
// nil or carries no message.
func ServerMessage(resp *api.Response, fallback string) string {
	if resp == nil {
		return fallback
	}
	if msg := strings.TrimSpace(resp.Message); msg != "" {
		return msg
	}
	return fallback
}

// PasswordEntropy estimates pw's strength in bits. It is advisory only and
// never gates a submission.
func PasswordEntropy(pw string) float64 {
	return passwordvalidator.GetEntropy(pw)
}
