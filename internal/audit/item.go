package audit

import "github.com/asterisk-app/asterisk/internal/policy"

// ItemInput carries what one reviewed field contributes to the audit record.
// OldValue and NewValue are raw; they exist only on this struct in transient
// memory and are redacted before they reach an Item.
type ItemInput struct {
	FieldID       string
	Label         string
	Kind          string
	Confidence    float64
	VaultKey      string
	Applied       bool
	UserConfirmed bool
	OldValue      string
	NewValue      string
	Notes         string
}

// NewItem builds the redaction-safe per-field record. This is the only
// constructor for Item: raw values cannot reach an entry any other way.
func NewItem(in ItemInput) Item {
	sensitive := policy.IsSensitive(in.Label)
	oldRedacted, oldLevel := policy.Redact(in.OldValue, sensitive, 0)
	newRedacted, newLevel := policy.Redact(in.NewValue, sensitive, 0)

	// The recorded level describes the filled value; the old value only
	// matters when nothing new was written.
	level := newLevel
	if in.NewValue == "" {
		level = oldLevel
	}

	return Item{
		FieldID:          in.FieldID,
		Label:            in.Label,
		Kind:             in.Kind,
		Confidence:       in.Confidence,
		Disposition:      policy.Classify(in.Confidence),
		Applied:          in.Applied,
		Source:           in.VaultKey,
		OldValueRedacted: oldRedacted,
		NewValueRedacted: newRedacted,
		Redaction:        level,
		UserConfirmed:    in.UserConfirmed,
		Notes:            in.Notes,
	}
}
