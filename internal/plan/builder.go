// Package plan turns a field catalog and a vault snapshot into a fill plan by
// running the matching tiers in priority order.
package plan

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/asterisk-app/asterisk/internal/match"
	"github.com/asterisk-app/asterisk/internal/model"
	"github.com/asterisk-app/asterisk/internal/vault"
)

// excludedTypes are never auto-filled; they need explicit UI affordances.
var excludedTypes = map[model.FieldType]bool{
	model.FieldPassword: true,
	model.FieldCheckbox: true,
	model.FieldRadio:    true,
}

// Excluded reports whether a field type is barred from silent autofill.
func Excluded(t model.FieldType) bool {
	return excludedTypes[t]
}

// Options tunes plan construction.
type Options struct {
	FormID      string
	Fingerprint string
	// Rules overrides the compiled-in tier-2 table; nil uses match.DefaultRules.
	Rules []match.Rule
	// Metrics, when non-nil, is populated during the build.
	Metrics *Metrics
}

// Build runs every non-excluded field through tier 1 then tier 2 (first hit
// wins) and aggregates the outcome. It is pure apart from the metrics context
// and logging: identical inputs produce identical plans.
func Build(fields []model.FieldDescriptor, items []vault.Item, opts Options) *model.FillPlan {
	start := time.Now()
	metrics := opts.Metrics
	if metrics == nil {
		metrics = &Metrics{}
	}

	p := &model.FillPlan{
		FormFingerprint: opts.Fingerprint,
		FormID:          opts.FormID,
	}

	for _, field := range fields {
		metrics.FieldsSeen++
		if Excluded(field.Type) {
			metrics.ExcludedFields++
			continue
		}

		if rec := match.Hint(field, items); rec != nil {
			metrics.HintMatches++
			p.Recommendations = append(p.Recommendations, *rec)
			continue
		}
		if rec := match.Pattern(field, items, opts.Rules); rec != nil {
			metrics.PatternMatches++
			p.Recommendations = append(p.Recommendations, *rec)
			continue
		}

		metrics.UnmatchedFields++
		p.UnmatchedFieldIDs = append(p.UnmatchedFieldIDs, field.ID)
	}

	finalize(p, fields, len(items) == 0)
	metrics.BuildDuration = time.Since(start)

	zap.L().Debug("plan: built",
		zap.String("fingerprint", opts.Fingerprint),
		zap.Int("recommendations", len(p.Recommendations)),
		zap.Int("unmatched", len(p.UnmatchedFieldIDs)),
		zap.Float64("overall_confidence", p.OverallConfidence),
	)

	return p
}

// Merge folds tier-3 results into an existing plan. Only recommendations for
// currently-unmatched fields are accepted; anything else is ignored, never
// duplicated. Coverage, confidence and warnings are recomputed from the union
// rather than patched, so both paths stay in agreement.
func Merge(p *model.FillPlan, fields []model.FieldDescriptor, semantic []model.FillRecommendation, metrics *Metrics) *model.FillPlan {
	merged := &model.FillPlan{
		FormFingerprint:   p.FormFingerprint,
		FormID:            p.FormID,
		Recommendations:   append([]model.FillRecommendation(nil), p.Recommendations...),
		UnmatchedFieldIDs: append([]string(nil), p.UnmatchedFieldIDs...),
	}

	for _, rec := range semantic {
		idx := indexOf(merged.UnmatchedFieldIDs, rec.FieldID)
		if idx < 0 {
			zap.L().Warn("plan: dropping semantic recommendation for matched or unknown field",
				zap.String("field_id", rec.FieldID),
			)
			continue
		}
		merged.Recommendations = append(merged.Recommendations, rec)
		merged.UnmatchedFieldIDs = append(merged.UnmatchedFieldIDs[:idx], merged.UnmatchedFieldIDs[idx+1:]...)
		if metrics != nil {
			metrics.SemanticMatches++
			if metrics.UnmatchedFields > 0 {
				metrics.UnmatchedFields--
			}
		}
	}
	if len(merged.UnmatchedFieldIDs) == 0 {
		merged.UnmatchedFieldIDs = nil
	}

	finalize(merged, fields, false)
	return merged
}

// finalize recomputes the derived plan statistics from its member lists.
func finalize(p *model.FillPlan, fields []model.FieldDescriptor, emptyVault bool) {
	requiredTotal := 0
	requiredByID := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f.Required && !Excluded(f.Type) {
			requiredTotal++
			requiredByID[f.ID] = true
		}
	}

	covered := 0
	sum := 0.0
	for _, r := range p.Recommendations {
		if requiredByID[r.FieldID] {
			covered++
		}
		sum += r.Confidence
	}

	p.TotalRequiredFields = requiredTotal
	p.RequiredFieldsCovered = covered
	// Unweighted mean across tiers.
	p.OverallConfidence = 0
	if len(p.Recommendations) > 0 {
		p.OverallConfidence = sum / float64(len(p.Recommendations))
	}

	p.Warnings = nil
	if missing := requiredTotal - covered; missing > 0 {
		p.Warnings = append(p.Warnings, fmt.Sprintf("%d required field(s) have no match", missing))
	}
	if emptyVault {
		p.Warnings = append(p.Warnings, "vault snapshot is empty")
	}
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
