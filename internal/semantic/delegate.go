// Package semantic is the adapter over the external tier-3 classifier. The
// core enforces the contract: only field metadata and candidate vault keys go
// out, at most one recommendation per field comes back, and one field's
// failure never aborts the rest.
package semantic

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/asterisk-app/asterisk/internal/model"
	"github.com/asterisk-app/asterisk/internal/vault"
)

// Request carries the non-sensitive field metadata sent to the classifier.
// Vault values must never appear here.
type Request struct {
	Label         string   `json:"label"`
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	Placeholder   string   `json:"placeholder,omitempty"`
	CandidateKeys []string `json:"candidateKeys"`
}

// Response is the classifier's verdict for one field.
type Response struct {
	MatchedKey string  `json:"matchedKey"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Delegate is the black-box classifier contract.
type Delegate interface {
	AnalyzeField(ctx context.Context, req Request) (*Response, error)
}

// FieldFailure records a per-field delegate error. The field simply stays
// unmatched; the failure is surfaced for metrics and logging only.
type FieldFailure struct {
	FieldID string
	Err     error
}

// Analyze runs the delegate over the plan's unmatched fields, sequentially,
// and returns the successful recommendations alongside the per-field
// failures. A key the snapshot no longer holds is treated as no-match.
func Analyze(ctx context.Context, d Delegate, fields []model.FieldDescriptor, items []vault.Item, p *model.FillPlan) ([]model.FillRecommendation, []FieldFailure) {
	byID := make(map[string]model.FieldDescriptor, len(fields))
	for _, f := range fields {
		byID[f.ID] = f
	}

	keys := make([]string, 0, len(items))
	known := make(map[string]bool, len(items))
	for _, it := range items {
		keys = append(keys, it.Key)
		known[it.Key] = true
	}

	var (
		recs     []model.FillRecommendation
		failures []FieldFailure
	)

	for _, fieldID := range p.UnmatchedFieldIDs {
		field, ok := byID[fieldID]
		if !ok {
			continue
		}

		resp, err := d.AnalyzeField(ctx, Request{
			Label:         field.Label,
			Name:          field.Name,
			Type:          string(field.Type),
			Placeholder:   field.Placeholder,
			CandidateKeys: keys,
		})
		if err != nil {
			zap.L().Warn("semantic: field analysis failed",
				zap.String("field_id", fieldID),
				zap.Error(err),
			)
			failures = append(failures, FieldFailure{FieldID: fieldID, Err: err})
			continue
		}
		if resp == nil || resp.MatchedKey == "" {
			continue
		}
		if !known[resp.MatchedKey] {
			// Stale or hallucinated key; the field stays unmatched.
			zap.L().Warn("semantic: classifier returned unknown vault key",
				zap.String("field_id", fieldID),
				zap.String("vault_key", resp.MatchedKey),
			)
			continue
		}

		reason := resp.Reasoning
		if reason == "" {
			reason = fmt.Sprintf("semantic match to %s", resp.MatchedKey)
		}
		recs = append(recs, model.FillRecommendation{
			FieldID:    fieldID,
			VaultKey:   resp.MatchedKey,
			Confidence: clampConfidence(resp.Confidence),
			Reason:     reason,
			Required:   field.Required,
			MatchTier:  model.TierSemantic,
		})
	}

	return recs, failures
}

// clampConfidence keeps a classifier score inside [0, 1]; external verdicts
// are not trusted to respect the range.
func clampConfidence(c float64) float64 {
	return math.Min(math.Max(c, 0), 1)
}
