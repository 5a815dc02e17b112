// Package audit builds and stores the durable, redaction-safe record of fill
// operations. Entries never contain raw vault values; everything passes
// through the redactor before it gets here.
package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/asterisk-app/asterisk/internal/policy"
)

// Item is the per-field record inside an entry.
type Item struct {
	FieldID          string                `json:"fieldId"`
	Label            string                `json:"label"`
	Kind             string                `json:"kind"`
	Confidence       float64               `json:"confidence"`
	Disposition      policy.Disposition    `json:"disposition"`
	Applied          bool                  `json:"applied"`
	Source           string                `json:"source"`
	OldValueRedacted string                `json:"oldValueRedacted"`
	NewValueRedacted string                `json:"newValueRedacted"`
	Redaction        policy.RedactionLevel `json:"redaction"`
	UserConfirmed    bool                  `json:"userConfirmed"`
	Notes            string                `json:"notes,omitempty"`
}

// Summary holds the derived counts for an entry.
type Summary struct {
	PlannedCount  int `json:"plannedCount"`
	AppliedCount  int `json:"appliedCount"`
	BlockedCount  int `json:"blockedCount"`
	ReviewedCount int `json:"reviewedCount"`
}

// Entry is one immutable audit record. Once built it is never mutated;
// storage is append-only.
type Entry struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	URL         string    `json:"url"`
	Domain      string    `json:"domain"`
	Fingerprint string    `json:"fingerprint"`
	Summary     Summary   `json:"summary"`
	Items       []Item    `json:"items"`
}

// BuildEntry constructs an entry from reviewed items. Summary counts are
// always derived here, never supplied: applied counts applied items, blocked
// counts blocked dispositions regardless of applied, and reviewed counts only
// review-disposition items the user explicitly confirmed.
func BuildEntry(url, domain, fingerprint string, items []Item, now time.Time) Entry {
	summary := Summary{PlannedCount: len(items)}
	for _, it := range items {
		if it.Applied {
			summary.AppliedCount++
		}
		if it.Disposition == policy.DispositionBlocked {
			summary.BlockedCount++
		}
		if it.Disposition == policy.DispositionReview && it.UserConfirmed {
			summary.ReviewedCount++
		}
	}

	return Entry{
		ID:          uuid.New().String(),
		CreatedAt:   now.UTC(),
		URL:         url,
		Domain:      domain,
		Fingerprint: fingerprint,
		Summary:     summary,
		Items:       append([]Item(nil), items...),
	}
}
