package validator

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// local 0(78|79)xxxxxxx, optionally already prefixed with 25
var rwandaMobile = regexp.MustCompile(`^(?:25)?0(7[89][0-9]{7})$`)

func stripPhoneNoise(r rune) rune {
	if unicode.IsSpace(r) || r == '-' || r == '(' || r == ')' {
		return -1
	}
	return r
}

// PhoneError names the rejected input.
type PhoneError struct {
	Input string
}

func (e *PhoneError) Error() string {
	return fmt.Sprintf("invalid phone number %q: expected 07[89]XXXXXXX or 2507[89]XXXXXXX", e.Input)
}

// NormalizePhone returns the canonical provider form 2507[89]XXXXXXX.
// A leading '+' is not stripped and is rejected.
func NormalizePhone(raw string) (string, error) {
	cleaned := strings.Map(stripPhoneNoise, raw)
	m := rwandaMobile.FindStringSubmatch(cleaned)
	if m == nil {
		return "", &PhoneError{Input: raw}
	}
	return "250" + m[1], nil
}
