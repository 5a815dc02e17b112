package match

import (
	"fmt"
	"strings"

	"github.com/asterisk-app/asterisk/internal/model"
	"github.com/asterisk-app/asterisk/internal/vault"
)

// Rule is one entry of the tier-2 pattern table. A rule fires when any of its
// substrings occurs in the field's normalized text and the optional type
// constraint matches.
type Rule struct {
	Substrings   []string        `yaml:"substrings"`
	FieldType    model.FieldType `yaml:"field_type,omitempty"`
	Category     vault.Category  `yaml:"category"`
	KeySubstring string          `yaml:"key_substring,omitempty"`
	Confidence   float64         `yaml:"confidence"`
}

// DefaultRules is the compiled-in pattern table. Rules are evaluated top to
// bottom and the first satisfied rule wins; the order is a precedence policy,
// so more specific rules come before broader ones.
var DefaultRules = []Rule{
	{Substrings: []string{"first name", "firstname", "given name"}, Category: vault.CategoryIdentity, KeySubstring: "first", Confidence: 0.88},
	{Substrings: []string{"last name", "lastname", "surname", "family name"}, Category: vault.CategoryIdentity, KeySubstring: "last", Confidence: 0.88},
	{Substrings: []string{"middle name", "middle initial"}, Category: vault.CategoryIdentity, KeySubstring: "middle", Confidence: 0.82},
	{Substrings: []string{"full name", "your name"}, Category: vault.CategoryIdentity, KeySubstring: "fullname", Confidence: 0.80},
	{Substrings: []string{"email", "e mail"}, FieldType: model.FieldEmail, Category: vault.CategoryContact, KeySubstring: "email", Confidence: 0.90},
	{Substrings: []string{"email", "e mail"}, Category: vault.CategoryContact, KeySubstring: "email", Confidence: 0.85},
	{Substrings: []string{"phone", "mobile", "cell", "telephone"}, FieldType: model.FieldTel, Category: vault.CategoryContact, KeySubstring: "phone", Confidence: 0.88},
	{Substrings: []string{"phone", "mobile", "cell", "telephone"}, Category: vault.CategoryContact, KeySubstring: "phone", Confidence: 0.80},
	{Substrings: []string{"company", "organization", "organisation", "employer"}, Category: vault.CategoryIdentity, KeySubstring: "company", Confidence: 0.82},
	{Substrings: []string{"job title", "position", "role"}, Category: vault.CategoryIdentity, KeySubstring: "title", Confidence: 0.78},
	{Substrings: []string{"street", "address line 1", "address1", "address"}, Category: vault.CategoryAddress, KeySubstring: "street", Confidence: 0.80},
	{Substrings: []string{"apartment", "suite", "unit", "address line 2", "address2"}, Category: vault.CategoryAddress, KeySubstring: "line2", Confidence: 0.75},
	{Substrings: []string{"city", "town"}, Category: vault.CategoryAddress, KeySubstring: "city", Confidence: 0.82},
	{Substrings: []string{"state", "province", "region"}, Category: vault.CategoryAddress, KeySubstring: "state", Confidence: 0.80},
	{Substrings: []string{"zip", "postal code", "postcode"}, Category: vault.CategoryAddress, KeySubstring: "zip", Confidence: 0.85},
	{Substrings: []string{"country"}, Category: vault.CategoryAddress, KeySubstring: "country", Confidence: 0.82},
	{Substrings: []string{"website", "web site", "homepage"}, FieldType: model.FieldURL, Category: vault.CategoryContact, KeySubstring: "website", Confidence: 0.80},
	{Substrings: []string{"website", "web site", "homepage"}, Category: vault.CategoryContact, KeySubstring: "website", Confidence: 0.72},
	{Substrings: []string{"birth", "dob"}, FieldType: model.FieldDate, Category: vault.CategoryIdentity, KeySubstring: "birth", Confidence: 0.80},
	{Substrings: []string{"birth", "dob"}, Category: vault.CategoryIdentity, KeySubstring: "birth", Confidence: 0.72},
}

// Pattern is the tier-2 matcher. It runs only on fields tier 1 left
// unmatched. A nil rules slice uses DefaultRules.
func Pattern(field model.FieldDescriptor, items []vault.Item, rules []Rule) *model.FillRecommendation {
	if rules == nil {
		rules = DefaultRules
	}

	text := FieldText(field.Label, field.Name, field.Placeholder)
	if text == "" {
		return nil
	}

	for _, rule := range rules {
		if rule.FieldType != "" && rule.FieldType != field.Type {
			continue
		}
		matched := ""
		for _, sub := range rule.Substrings {
			if strings.Contains(text, Normalize(sub)) {
				matched = sub
				break
			}
		}
		if matched == "" {
			continue
		}

		item := FindVaultItem(items, rule.Category, rule.KeySubstring)
		if item == nil {
			// First-match precedence holds even when the category is empty:
			// the rule decided what the field means, the vault just cannot
			// serve it.
			return nil
		}

		return &model.FillRecommendation{
			FieldID:    field.ID,
			VaultKey:   item.Key,
			Confidence: rule.Confidence,
			Reason:     fmt.Sprintf("label pattern %q", matched),
			Required:   field.Required,
			MatchTier:  model.TierPattern,
		}
	}

	return nil
}
