package policy

import "strings"

// RedactionLevel records how much of a value survives into display or audit.
type RedactionLevel string

const (
	RedactionNone    RedactionLevel = "none"
	RedactionPartial RedactionLevel = "partial"
	RedactionMasked  RedactionLevel = "masked"
)

// MaskedValue is the fixed output for sensitive values. Using a constant keeps
// masking idempotent and leaks nothing about length or content.
const MaskedValue = "••••••"

const maskRune = '•'

// DefaultMaxRedactedLength bounds the interior mask run of a partial redaction.
const DefaultMaxRedactedLength = 64

// Redact produces a display-safe representation of a value. Sensitive values
// always collapse to MaskedValue; short non-sensitive values (≤ 4 runes) pass
// verbatim; anything longer keeps its first and last two runes around a
// bounded mask run. The output is deterministic so audit records can be
// verified byte-for-byte.
func Redact(value string, sensitive bool, maxLength int) (string, RedactionLevel) {
	if value == "" {
		return "", RedactionNone
	}
	if sensitive {
		return MaskedValue, RedactionMasked
	}
	// A cap under 5 cannot hold first2 + mask + last2; fall back to the
	// default rather than emit an unmasked interior.
	if maxLength < 5 {
		maxLength = DefaultMaxRedactedLength
	}

	runes := []rune(value)
	if len(runes) <= 4 {
		return value, RedactionNone
	}

	interior := len(runes) - 4
	if interior > maxLength-4 {
		interior = maxLength - 4
	}

	var b strings.Builder
	b.WriteString(string(runes[:2]))
	for i := 0; i < interior; i++ {
		b.WriteRune(maskRune)
	}
	b.WriteString(string(runes[len(runes)-2:]))
	return b.String(), RedactionPartial
}
