// Package review models the human review gate as an explicit state machine.
// It only tracks selection and lifecycle; plan, disposition and redaction
// computation live elsewhere and never depend on this package.
package review

import (
	"github.com/rotisserie/eris"

	"github.com/asterisk-app/asterisk/internal/model"
	"github.com/asterisk-app/asterisk/internal/policy"
)

// State is the review dialog lifecycle state.
type State string

const (
	StateClosed    State = "closed"
	StateReviewing State = "reviewing"
	StateApplying  State = "applying"
	StateDone      State = "done"
)

// FieldView is one reviewable row: the recommendation plus its derived
// classification and current selection.
type FieldView struct {
	Recommendation model.FillRecommendation
	Disposition    policy.Disposition
	Sensitive      bool
	Selected       bool
}

// Session is the review state machine. Not safe for concurrent use; the host
// drives it from a single UI loop.
type Session struct {
	state  State
	fields []FieldView
}

// NewSession starts in the closed state.
func NewSession() *Session {
	return &Session{state: StateClosed}
}

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Fields returns the reviewable rows in plan order.
func (s *Session) Fields() []FieldView { return s.fields }

// Open seeds the session from a plan. Selection defaults follow disposition
// and sensitivity: safe and review start selected, blocked does not, and
// sensitive fields always start deselected.
func (s *Session) Open(p *model.FillPlan, fields []model.FieldDescriptor) error {
	if s.state != StateClosed {
		return eris.Errorf("review: cannot open from state %s", s.state)
	}

	labelByID := make(map[string]string, len(fields))
	for _, f := range fields {
		labelByID[f.ID] = f.Label
	}

	s.fields = make([]FieldView, 0, len(p.Recommendations))
	for _, rec := range p.Recommendations {
		d := policy.Classify(rec.Confidence)
		sensitive := policy.IsSensitive(labelByID[rec.FieldID])
		s.fields = append(s.fields, FieldView{
			Recommendation: rec,
			Disposition:    d,
			Sensitive:      sensitive,
			Selected:       policy.DefaultSelected(d, sensitive),
		})
	}
	s.state = StateReviewing
	return nil
}

// ToggleField flips one field's selection. Blocked fields may be opted in
// explicitly; that opt-in is what marks them user-confirmed later.
func (s *Session) ToggleField(fieldID string) error {
	if s.state != StateReviewing {
		return eris.Errorf("review: cannot toggle in state %s", s.state)
	}
	for i := range s.fields {
		if s.fields[i].Recommendation.FieldID == fieldID {
			s.fields[i].Selected = !s.fields[i].Selected
			return nil
		}
	}
	return eris.Errorf("review: no such field %s", fieldID)
}

// ToggleOnlySafe restricts the selection to safe, non-sensitive fields.
func (s *Session) ToggleOnlySafe() error {
	if s.state != StateReviewing {
		return eris.Errorf("review: cannot toggle in state %s", s.state)
	}
	for i := range s.fields {
		s.fields[i].Selected = s.fields[i].Disposition == policy.DispositionSafe && !s.fields[i].Sensitive
	}
	return nil
}

// ConfirmApply transitions to applying and returns the approved field ids.
func (s *Session) ConfirmApply() ([]string, error) {
	if s.state != StateReviewing {
		return nil, eris.Errorf("review: cannot confirm in state %s", s.state)
	}
	var approved []string
	for _, f := range s.fields {
		if f.Selected {
			approved = append(approved, f.Recommendation.FieldID)
		}
	}
	s.state = StateApplying
	return approved, nil
}

// ApplySucceeded completes the session.
func (s *Session) ApplySucceeded() error {
	if s.state != StateApplying {
		return eris.Errorf("review: unexpected apply success in state %s", s.state)
	}
	s.state = StateDone
	return nil
}

// ApplyFailed returns to reviewing so the user can retry or close.
func (s *Session) ApplyFailed() error {
	if s.state != StateApplying {
		return eris.Errorf("review: unexpected apply failure in state %s", s.state)
	}
	s.state = StateReviewing
	return nil
}

// Close discards all session state. Closing before confirm has no side
// effects; there is no partial-apply state to roll back.
func (s *Session) Close() {
	s.state = StateClosed
	s.fields = nil
}

// UserConfirmed reports whether applying the given field counts as an
// explicit confirmation: true only for non-safe dispositions the user left
// or turned on.
func UserConfirmed(v FieldView) bool {
	return v.Selected && v.Disposition != policy.DispositionSafe
}
