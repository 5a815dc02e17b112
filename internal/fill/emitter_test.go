package fill

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asterisk-app/asterisk/internal/model"
	"github.com/asterisk-app/asterisk/internal/vault"
)

var fillTime = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fillTime }

func approvedPlan() *model.FillPlan {
	return &model.FillPlan{
		Recommendations: []model.FillRecommendation{
			{FieldID: "f1", VaultKey: "firstName", Confidence: 0.95},
			{FieldID: "f2", VaultKey: "email", Confidence: 0.90},
			{FieldID: "f3", VaultKey: "phone", Confidence: 0.92},
		},
	}
}

func fillVault() []vault.Item {
	return []vault.Item{
		{Key: "firstName", Value: "Jane", Category: vault.CategoryIdentity},
		{Key: "email", Value: "jane@example.com", Category: vault.CategoryContact},
		{Key: "phone", Value: "555-0100", Category: vault.CategoryContact},
	}
}

func TestEmitter_Build(t *testing.T) {
	e := NewEmitter(fixedClock)

	cmd := e.Build("example.com", "https://example.com/signup", []string{"f1", "f2"}, approvedPlan(), fillVault())

	require.NotNil(t, cmd)
	assert.NotEmpty(t, cmd.ID)
	assert.Equal(t, "example.com", cmd.TargetDomain)
	assert.Equal(t, "https://example.com/signup", cmd.TargetURL)
	assert.Equal(t, fillTime, cmd.CreatedAt)
	assert.Equal(t, fillTime.Add(model.CommandTTL), cmd.ExpiresAt)

	// Only the approved subset is resolved, in plan order.
	require.Len(t, cmd.Fills, 2)
	assert.Equal(t, model.FieldFill{FieldID: "f1", Value: "Jane"}, cmd.Fills[0])
	assert.Equal(t, model.FieldFill{FieldID: "f2", Value: "jane@example.com"}, cmd.Fills[1])
}

func TestEmitter_VanishedKeySkipped(t *testing.T) {
	e := NewEmitter(fixedClock)

	// email was deleted from the vault after the plan was built.
	items := []vault.Item{
		{Key: "firstName", Value: "Jane", Category: vault.CategoryIdentity},
	}
	cmd := e.Build("example.com", "", []string{"f1", "f2"}, approvedPlan(), items)

	require.Len(t, cmd.Fills, 1)
	assert.Equal(t, "f1", cmd.Fills[0].FieldID)
}

func TestEmitter_NothingApproved(t *testing.T) {
	e := NewEmitter(fixedClock)

	cmd := e.Build("example.com", "", nil, approvedPlan(), fillVault())

	require.NotNil(t, cmd)
	assert.Empty(t, cmd.Fills)
}

func TestEmitter_CommandExpiry(t *testing.T) {
	e := NewEmitter(fixedClock)
	cmd := e.Build("example.com", "", []string{"f1"}, approvedPlan(), fillVault())

	assert.False(t, cmd.Expired(fillTime.Add(4*time.Minute)))
	assert.True(t, cmd.Expired(fillTime.Add(5*time.Minute+time.Second)))
}
