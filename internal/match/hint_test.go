package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asterisk-app/asterisk/internal/model"
	"github.com/asterisk-app/asterisk/internal/vault"
)

func hintVault() []vault.Item {
	return []vault.Item{
		{Key: "firstName", Category: vault.CategoryIdentity},
		{Key: "lastName", Category: vault.CategoryIdentity},
		{Key: "email", Category: vault.CategoryContact},
		{Key: "phone", Category: vault.CategoryContact},
		{Key: "zipCode", Category: vault.CategoryAddress},
	}
}

func TestHint_GivenName(t *testing.T) {
	field := model.FieldDescriptor{ID: "f1", Type: model.FieldText, AutofillHint: "given-name", Required: true}

	rec := Hint(field, hintVault())
	require.NotNil(t, rec)
	assert.Equal(t, "f1", rec.FieldID)
	assert.Equal(t, "firstName", rec.VaultKey)
	assert.Equal(t, 0.95, rec.Confidence)
	assert.Equal(t, model.TierHint, rec.MatchTier)
	assert.True(t, rec.Required)
	assert.Equal(t, `autofill hint "given-name"`, rec.Reason)
}

func TestHint_ScopedToken(t *testing.T) {
	// Scoped hints keep the meaning in the final token.
	field := model.FieldDescriptor{ID: "f2", AutofillHint: "shipping postal-code"}

	rec := Hint(field, hintVault())
	require.NotNil(t, rec)
	assert.Equal(t, "zipCode", rec.VaultKey)
	assert.Equal(t, 0.94, rec.Confidence)
}

func TestHint_NoHint(t *testing.T) {
	field := model.FieldDescriptor{ID: "f3", Label: "First Name"}
	assert.Nil(t, Hint(field, hintVault()))
}

func TestHint_WhitespaceOnlyHint(t *testing.T) {
	// Scanners emit whatever the page declared; a blank hint must read as
	// no hint at all.
	field := model.FieldDescriptor{ID: "f3", AutofillHint: "   "}
	assert.Nil(t, Hint(field, hintVault()))
}

func TestHint_UnknownToken(t *testing.T) {
	field := model.FieldDescriptor{ID: "f4", AutofillHint: "one-time-code"}
	assert.Nil(t, Hint(field, hintVault()))
}

func TestHint_EmptyCategoryNoFallback(t *testing.T) {
	// cc-number points at financial; the vault has none, so no match from any
	// other category may stand in.
	field := model.FieldDescriptor{ID: "f5", AutofillHint: "cc-number"}
	assert.Nil(t, Hint(field, hintVault()))
}

func TestHint_Deterministic(t *testing.T) {
	field := model.FieldDescriptor{ID: "f1", AutofillHint: "email"}
	items := hintVault()

	first := Hint(field, items)
	second := Hint(field, items)
	require.NotNil(t, first)
	assert.Equal(t, first, second)
}
