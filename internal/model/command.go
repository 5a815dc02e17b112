package model

import "time"

// CommandTTL is how long a fill command stays valid after creation. The apply
// collaborator must reject the whole command once this horizon passes.
const CommandTTL = 5 * time.Minute

// FieldFill is a single field id → resolved value instruction. This is the
// only place raw vault values appear in transit.
type FieldFill struct {
	FieldID string `json:"fieldId"`
	Value   string `json:"value"`
}

// FillCommand is a time-boxed, domain-scoped batch instruction for the apply
// collaborator. It is consumed exactly once.
type FillCommand struct {
	ID           string      `json:"id"`
	TargetDomain string      `json:"targetDomain"`
	TargetURL    string      `json:"targetUrl,omitempty"`
	Fills        []FieldFill `json:"fills"`
	CreatedAt    time.Time   `json:"createdAt"`
	ExpiresAt    time.Time   `json:"expiresAt"`
}

// Expired reports whether the command's horizon has passed.
func (c *FillCommand) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// MatchesDomain reports whether the command targets the given domain. A
// mismatch must reject the whole command, never a partial apply.
func (c *FillCommand) MatchesDomain(domain string) bool {
	return c.TargetDomain == domain
}
