package utils

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
)

// Corrective messages double as user-facing re-prompts
var (
	ErrEmailMissing = errors.New("Please provide an email address.")
	ErrEmailInvalid = errors.New("That doesn't look like a valid email address. Please check and try again.")
)

const idNumberLength = 13

var (
	emailRegex      = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9\-]+(\.[a-z0-9\-]+)*\.[a-z]{2,}$`)
	digitRunRegex   = regexp.MustCompile(`\d[\d \-]*\d|\d`)
	idSeparatorsSet = " -"
)

// ValidateEmail trims and lowercases the address and returns it when it is a
// deliverable-looking mailbox (local part, domain, and a TLD).
func ValidateEmail(email string) (string, error) {
	cleaned := strings.ToLower(strings.TrimSpace(email))
	if cleaned == "" {
		return "", ErrEmailMissing
	}

	addr, err := mail.ParseAddress(cleaned)
	if err != nil || addr.Address != cleaned || !emailRegex.MatchString(cleaned) {
		return "", ErrEmailInvalid
	}

	return cleaned, nil
}

// DetectIDNumber reports whether the whole message is a 13-digit identity
// number, allowing spaces and hyphens between digits. The normalised digits
// are returned.
func DetectIDNumber(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", false
	}

	digits := stripIDSeparators(trimmed)
	if len(digits) != idNumberLength || !isAllDigits(digits) {
		return "", false
	}

	return digits, true
}

// FindIDNumber looks for a 13-digit identity number anywhere in the message,
// e.g. "my id is 900101 5009 087".
func FindIDNumber(text string) (string, bool) {
	for _, run := range digitRunRegex.FindAllString(text, -1) {
		if id, ok := DetectIDNumber(run); ok {
			return id, true
		}
	}
	return "", false
}

// IsNumericReply reports whether the message consists only of digits and ID separators
func IsNumericReply(text string) bool {
	digits := stripIDSeparators(strings.TrimSpace(text))
	return digits != "" && isAllDigits(digits)
}

func stripIDSeparators(text string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(idSeparatorsSet, r) {
			return -1
		}
		return r
	}, text)
}

func isAllDigits(text string) bool {
	for _, r := range text {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
