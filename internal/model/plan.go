package model

// MatchTier identifies which matching strategy produced a recommendation.
type MatchTier string

const (
	TierHint     MatchTier = "hint"
	TierPattern  MatchTier = "pattern"
	TierSemantic MatchTier = "semantic"
)

// FillRecommendation is a proposed field → vault key mapping. At most one
// recommendation exists per field, produced by exactly one tier.
type FillRecommendation struct {
	FieldID    string    `json:"fieldId"`
	VaultKey   string    `json:"vaultKey"`
	Confidence float64   `json:"confidence"`
	Reason     string    `json:"reason"`
	Required   bool      `json:"required"`
	MatchTier  MatchTier `json:"matchTier"`
}

// FillPlan is the aggregated matching outcome for one form. A field id appears
// in Recommendations or UnmatchedFieldIDs, never both.
type FillPlan struct {
	FormFingerprint       string               `json:"formFingerprint"`
	FormID                string               `json:"formId"`
	Recommendations       []FillRecommendation `json:"recommendations"`
	UnmatchedFieldIDs     []string             `json:"unmatchedFieldIds"`
	OverallConfidence     float64              `json:"overallConfidence"`
	RequiredFieldsCovered int                  `json:"requiredFieldsCovered"`
	TotalRequiredFields   int                  `json:"totalRequiredFields"`
	Warnings              []string             `json:"warnings,omitempty"`
}

// Recommended returns the plan's recommendation for the given field id, or
// nil when the field is unmatched or unknown.
func (p *FillPlan) Recommended(fieldID string) *FillRecommendation {
	for i := range p.Recommendations {
		if p.Recommendations[i].FieldID == fieldID {
			return &p.Recommendations[i]
		}
	}
	return nil
}
