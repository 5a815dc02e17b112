package plan

import "time"

// Metrics is an explicit metrics context for plan construction. Callers that
// care pass one in and read it back after the call; there is no global
// collector state.
type Metrics struct {
	FieldsSeen      int           `json:"fields_seen"`
	ExcludedFields  int           `json:"excluded_fields"`
	HintMatches     int           `json:"hint_matches"`
	PatternMatches  int           `json:"pattern_matches"`
	SemanticMatches int           `json:"semantic_matches"`
	UnmatchedFields int           `json:"unmatched_fields"`
	BuildDuration   time.Duration `json:"build_duration"`
}

// MatchRate returns the fraction of considered fields that got a
// recommendation, 0 when nothing was considered.
func (m *Metrics) MatchRate() float64 {
	considered := m.FieldsSeen - m.ExcludedFields
	if considered <= 0 {
		return 0
	}
	matched := m.HintMatches + m.PatternMatches + m.SemanticMatches
	return float64(matched) / float64(considered)
}
