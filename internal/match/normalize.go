// Package match implements the deterministic matching tiers: autofill-hint
// lookup (tier 1) and ordered pattern rules (tier 2). Both are pure functions
// of a field descriptor and a vault snapshot.
package match

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/asterisk-app/asterisk/internal/vault"
)

var foldCaser = cases.Fold()

// Normalize lowercases (Unicode case-fold), converts underscores and hyphens
// to spaces, and collapses runs of whitespace. Both rule substrings and field
// text go through this so matches are reproducible.
func Normalize(s string) string {
	s = foldCaser.String(s)
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// FieldText concatenates the signals tier 2 matches against.
func FieldText(label, name, placeholder string) string {
	return Normalize(label + " " + name + " " + placeholder)
}

// FindVaultItem searches the snapshot for an item of the given category whose
// key contains keySubstring case-insensitively. With no substring, or when no
// key matches it, the first item of the category wins. Returns nil when the
// category has no items at all; a field must never fall back to an unrelated
// category.
func FindVaultItem(items []vault.Item, category vault.Category, keySubstring string) *vault.Item {
	var first *vault.Item
	sub := strings.ToLower(keySubstring)
	for i := range items {
		if items[i].Category != category {
			continue
		}
		if first == nil {
			first = &items[i]
		}
		if sub != "" && strings.Contains(strings.ToLower(items[i].Key), sub) {
			return &items[i]
		}
	}
	return first
}
