// Package fill resolves approved recommendations into a time-boxed command
// for the apply collaborator, and tracks enough state for single-level undo.
package fill

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/asterisk-app/asterisk/internal/model"
	"github.com/asterisk-app/asterisk/internal/vault"
)

// Clock supplies the current time; injectable so expiry is testable.
type Clock func() time.Time

// Emitter builds fill commands from the user-approved subset of a plan.
type Emitter struct {
	now Clock
}

// NewEmitter creates an Emitter. A nil clock uses time.Now.
func NewEmitter(now Clock) *Emitter {
	if now == nil {
		now = time.Now
	}
	return &Emitter{now: now}
}

// Build resolves each approved field id to its vault value and emits one
// atomic command. A vault key that vanished between plan build and apply is
// skipped, not fatal. The command expires a fixed interval after creation;
// the apply collaborator enforces the horizon.
func (e *Emitter) Build(targetDomain, targetURL string, approvedFieldIDs []string, p *model.FillPlan, items []vault.Item) *model.FillCommand {
	approved := make(map[string]bool, len(approvedFieldIDs))
	for _, id := range approvedFieldIDs {
		approved[id] = true
	}
	valueByKey := make(map[string]string, len(items))
	for _, it := range items {
		valueByKey[it.Key] = it.Value
	}

	now := e.now()
	cmd := &model.FillCommand{
		ID:           uuid.New().String(),
		TargetDomain: targetDomain,
		TargetURL:    targetURL,
		CreatedAt:    now,
		ExpiresAt:    now.Add(model.CommandTTL),
	}

	for _, rec := range p.Recommendations {
		if !approved[rec.FieldID] {
			continue
		}
		value, ok := valueByKey[rec.VaultKey]
		if !ok {
			zap.L().Warn("fill: vault key vanished before apply",
				zap.String("field_id", rec.FieldID),
				zap.String("vault_key", rec.VaultKey),
			)
			continue
		}
		cmd.Fills = append(cmd.Fills, model.FieldFill{FieldID: rec.FieldID, Value: value})
	}

	return cmd
}
