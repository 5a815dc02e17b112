package match

import (
	"fmt"
	"strings"

	"github.com/asterisk-app/asterisk/internal/model"
	"github.com/asterisk-app/asterisk/internal/vault"
)

// hintEntry maps one autofill hint token to a vault lookup.
type hintEntry struct {
	Category     vault.Category
	KeySubstring string
	Confidence   float64
}

// hintTable maps the last token of an autofill hint to its vault lookup.
// Confidence is fixed per token: declared hints are strong signals.
var hintTable = map[string]hintEntry{
	"name":               {vault.CategoryIdentity, "fullname", 0.93},
	"given-name":         {vault.CategoryIdentity, "first", 0.95},
	"additional-name":    {vault.CategoryIdentity, "middle", 0.92},
	"family-name":        {vault.CategoryIdentity, "last", 0.95},
	"honorific-prefix":   {vault.CategoryIdentity, "prefix", 0.90},
	"nickname":           {vault.CategoryIdentity, "nick", 0.90},
	"email":              {vault.CategoryContact, "email", 0.95},
	"tel":                {vault.CategoryContact, "phone", 0.94},
	"tel-national":       {vault.CategoryContact, "phone", 0.93},
	"street-address":     {vault.CategoryAddress, "street", 0.93},
	"address-line1":      {vault.CategoryAddress, "street", 0.93},
	"address-line2":      {vault.CategoryAddress, "line2", 0.90},
	"address-level1":     {vault.CategoryAddress, "state", 0.92},
	"address-level2":     {vault.CategoryAddress, "city", 0.92},
	"postal-code":        {vault.CategoryAddress, "zip", 0.94},
	"country":            {vault.CategoryAddress, "country", 0.92},
	"country-name":       {vault.CategoryAddress, "country", 0.92},
	"organization":       {vault.CategoryIdentity, "company", 0.92},
	"organization-title": {vault.CategoryIdentity, "title", 0.90},
	"bday":               {vault.CategoryIdentity, "birth", 0.91},
	"url":                {vault.CategoryContact, "website", 0.90},
	"cc-number":          {vault.CategoryFinancial, "card", 0.92},
	"cc-name":            {vault.CategoryFinancial, "cardholder", 0.90},
}

// Hint is the tier-1 matcher. It consumes only the field's declared autofill
// hint; identical inputs always yield the identical result.
func Hint(field model.FieldDescriptor, items []vault.Item) *model.FillRecommendation {
	if field.AutofillHint == "" {
		return nil
	}

	// Autofill hints may be scoped ("shipping given-name"); the final token
	// carries the field meaning.
	tokens := strings.Fields(field.AutofillHint)
	if len(tokens) == 0 {
		return nil
	}
	token := tokens[len(tokens)-1]

	entry, ok := hintTable[token]
	if !ok {
		return nil
	}

	item := FindVaultItem(items, entry.Category, entry.KeySubstring)
	if item == nil {
		return nil
	}

	return &model.FillRecommendation{
		FieldID:    field.ID,
		VaultKey:   item.Key,
		Confidence: entry.Confidence,
		Reason:     fmt.Sprintf("autofill hint %q", token),
		Required:   field.Required,
		MatchTier:  model.TierHint,
	}
}
