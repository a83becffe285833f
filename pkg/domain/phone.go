package domain

import (
	"errors"
	"strings"
)

// ErrInvalidPhone is returned when a raw phone number carries no usable digits.
var ErrInvalidPhone = errors.New("invalid phone number")

// memoryUserPrefix namespaces caller identities in the conversation-memory service.
const memoryUserPrefix = "caller_"

// PhoneKey is the canonical caller identity: the digits of the caller's number
// including the country code (e.g. "14065551234").
type PhoneKey string

// ParsePhoneKey normalizes a raw phone number into a PhoneKey.
// Formatting characters are dropped and ten-digit NANP numbers gain the "1"
// country code, so "+1 (406) 555-1234" and "4065551234" share one key.
func ParsePhoneKey(raw string) (PhoneKey, error) {
	digits := digitsOnly(raw)
	if len(digits) < 7 {
		return "", ErrInvalidPhone
	}
	if len(digits) == 10 {
		digits = "1" + digits
	}
	return PhoneKey(digits), nil
}

func (p PhoneKey) String() string { return string(p) }

// IsZero reports whether the key is unset.
func (p PhoneKey) IsZero() bool { return p == "" }

// E164 renders the key as "+<digits>", the format stored in lead records.
func (p PhoneKey) E164() string {
	if p.IsZero() {
		return ""
	}
	return "+" + string(p)
}

// MemoryUserID is the id of the caller's user in the conversation-memory service.
func (p PhoneKey) MemoryUserID() string {
	return memoryUserPrefix + string(p)
}

// FormatE164 formats a dialable number for call transfer. Ten-digit numbers
// get +1, eleven-digit numbers starting with 1 get +, anything else is
// returned unchanged.
func FormatE164(raw string) string {
	digits := digitsOnly(raw)
	switch {
	case len(digits) == 10:
		return "+1" + digits
	case len(digits) == 11 && strings.HasPrefix(digits, "1"):
		return "+" + digits
	default:
		return strings.TrimSpace(raw)
	}
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
