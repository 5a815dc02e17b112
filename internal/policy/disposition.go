// Package policy classifies recommendations by trust level and produces
// display-safe representations of vault values.
package policy

import "strings"

// Disposition is the trust tier assigned to a recommendation from its
// confidence alone.
type Disposition string

const (
	DispositionSafe    Disposition = "safe"
	DispositionReview  Disposition = "review"
	DispositionBlocked Disposition = "blocked"
)

// Confidence thresholds for disposition classification. Safe's bound is
// closed, review's lower bound is closed, so 0.98 is safe and 0.90 is review.
const (
	SafeThreshold   = 0.98
	ReviewThreshold = 0.90
)

// Classify maps a confidence score to a disposition.
func Classify(confidence float64) Disposition {
	switch {
	case confidence >= SafeThreshold:
		return DispositionSafe
	case confidence >= ReviewThreshold:
		return DispositionReview
	default:
		return DispositionBlocked
	}
}

// sensitiveTerms are label fragments that force masked redaction and
// non-default deselection in review, regardless of disposition.
var sensitiveTerms = []string{
	"ssn",
	"social security",
	"passport",
	"dob",
	"date of birth",
	"birth date",
	"tax id",
	"taxpayer",
	"ein",
	"itin",
	"driver license",
	"drivers license",
	"national id",
	"credit card",
	"card number",
	"cvv",
	"cvc",
	"security code",
	"routing number",
	"account number",
	"iban",
	"pin",
	"password",
	"mother's maiden",
	"maiden name",
}

// IsSensitive reports whether a field label names sensitive data. It is
// orthogonal to disposition: a high-confidence SSN match is still sensitive.
func IsSensitive(label string) bool {
	normalized := strings.ToLower(strings.TrimSpace(label))
	for _, term := range sensitiveTerms {
		if strings.Contains(normalized, term) {
			return true
		}
	}
	return false
}

// DefaultSelected reports whether a recommendation starts selected in review.
// Safe and review dispositions default on, blocked defaults off; sensitive
// fields are always deselected until the user opts in.
func DefaultSelected(d Disposition, sensitive bool) bool {
	if sensitive {
		return false
	}
	return d != DispositionBlocked
}
