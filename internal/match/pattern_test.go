package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asterisk-app/asterisk/internal/model"
	"github.com/asterisk-app/asterisk/internal/vault"
)

func TestPattern_EmailByLabel(t *testing.T) {
	field := model.FieldDescriptor{ID: "f2", Label: "Email Address", Type: model.FieldEmail, Required: true}

	rec := Pattern(field, hintVault(), nil)
	require.NotNil(t, rec)
	assert.Equal(t, "email", rec.VaultKey)
	assert.Equal(t, 0.90, rec.Confidence)
	assert.Equal(t, model.TierPattern, rec.MatchTier)
	assert.Equal(t, `label pattern "email"`, rec.Reason)
}

func TestPattern_TypeConstraintPrecedence(t *testing.T) {
	// The email rule with a type constraint outranks the untyped one; a text
	// field skips it and lands on the broader rule at lower confidence.
	typed := model.FieldDescriptor{ID: "a", Label: "Email", Type: model.FieldEmail}
	untyped := model.FieldDescriptor{ID: "b", Label: "Email", Type: model.FieldText}

	recTyped := Pattern(typed, hintVault(), nil)
	recUntyped := Pattern(untyped, hintVault(), nil)
	require.NotNil(t, recTyped)
	require.NotNil(t, recUntyped)
	assert.Equal(t, 0.90, recTyped.Confidence)
	assert.Equal(t, 0.85, recUntyped.Confidence)
	assert.Equal(t, recTyped.VaultKey, recUntyped.VaultKey)
}

func TestPattern_NameFromAttribute(t *testing.T) {
	// The name attribute feeds the match text when the label is empty.
	field := model.FieldDescriptor{ID: "f1", Name: "first_name", Type: model.FieldText}

	rec := Pattern(field, hintVault(), nil)
	require.NotNil(t, rec)
	assert.Equal(t, "firstName", rec.VaultKey)
}

func TestPattern_NoSignals(t *testing.T) {
	field := model.FieldDescriptor{ID: "f9", Type: model.FieldText}
	assert.Nil(t, Pattern(field, hintVault(), nil))
}

func TestPattern_Unmatched(t *testing.T) {
	field := model.FieldDescriptor{ID: "f9", Label: "Favorite color", Type: model.FieldText}
	assert.Nil(t, Pattern(field, hintVault(), nil))
}

func TestPattern_NoCrossCategoryFallback(t *testing.T) {
	// A phone field whose category has no vault items stays unmatched even
	// though later rules could find items elsewhere.
	items := []vault.Item{
		{Key: "firstName", Category: vault.CategoryIdentity},
	}
	field := model.FieldDescriptor{ID: "f7", Label: "Phone number", Type: model.FieldTel}

	assert.Nil(t, Pattern(field, items, nil))
}

func TestPattern_FirstMatchWins(t *testing.T) {
	// Custom table where two rules both match; the earlier one decides.
	rules := []Rule{
		{Substrings: []string{"email"}, Category: vault.CategoryContact, KeySubstring: "email", Confidence: 0.85},
		{Substrings: []string{"email"}, Category: vault.CategoryContact, KeySubstring: "phone", Confidence: 0.95},
	}
	field := model.FieldDescriptor{ID: "f1", Label: "Email"}

	rec := Pattern(field, hintVault(), rules)
	require.NotNil(t, rec)
	assert.Equal(t, "email", rec.VaultKey)
	assert.Equal(t, 0.85, rec.Confidence)
}

func TestPattern_NormalizedSubstrings(t *testing.T) {
	// Underscores and case in the field name still hit the "zip" rule.
	field := model.FieldDescriptor{ID: "f8", Name: "BILLING_ZIP", Type: model.FieldText}

	rec := Pattern(field, hintVault(), nil)
	require.NotNil(t, rec)
	assert.Equal(t, "zipCode", rec.VaultKey)
	assert.Equal(t, 0.85, rec.Confidence)
}
