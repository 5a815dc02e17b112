package fill

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/asterisk-app/asterisk/internal/model"
)

// LastAppliedOperation captures the state needed to reverse one apply. It
// lives only in memory; persisting prior field values would leak them.
type LastAppliedOperation struct {
	EntryID   string
	Domain    string
	OldValues map[string]string
	NewValues map[string]string
	AppliedAt time.Time
}

// UndoTracker holds at most one reversible operation. Each new apply
// overwrites the slot; there is no stack.
type UndoTracker struct {
	mu   sync.Mutex
	last *LastAppliedOperation
	now  Clock
}

// NewUndoTracker creates an UndoTracker. A nil clock uses time.Now.
func NewUndoTracker(now Clock) *UndoTracker {
	if now == nil {
		now = time.Now
	}
	return &UndoTracker{now: now}
}

// Record stores the operation, replacing any previous one.
func (t *UndoTracker) Record(entryID, domain string, oldValues, newValues map[string]string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = &LastAppliedOperation{
		EntryID:   entryID,
		Domain:    domain,
		OldValues: cloneValues(oldValues),
		NewValues: cloneValues(newValues),
		AppliedAt: t.now(),
	}
}

// Last returns the tracked operation without consuming it, or nil.
func (t *UndoTracker) Last() *LastAppliedOperation {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

// Undo synthesizes a command that restores the prior values and discards the
// tracked operation. Returns nil when there is nothing to undo.
func (t *UndoTracker) Undo() *model.FillCommand {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.last == nil {
		return nil
	}
	op := t.last
	t.last = nil

	now := t.now()
	cmd := &model.FillCommand{
		ID:           uuid.New().String(),
		TargetDomain: op.Domain,
		CreatedAt:    now,
		ExpiresAt:    now.Add(model.CommandTTL),
	}
	fieldIDs := make([]string, 0, len(op.OldValues))
	for fieldID := range op.OldValues {
		fieldIDs = append(fieldIDs, fieldID)
	}
	sort.Strings(fieldIDs)
	for _, fieldID := range fieldIDs {
		cmd.Fills = append(cmd.Fills, model.FieldFill{FieldID: fieldID, Value: op.OldValues[fieldID]})
	}
	return cmd
}

// Clear drops any tracked operation, for host suspend or shutdown paths.
func (t *UndoTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = nil
}

func cloneValues(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
