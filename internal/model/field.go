package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// FieldType is the declared input type of a scanned form field.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldPassword FieldType = "password"
	FieldTel      FieldType = "tel"
	FieldURL      FieldType = "url"
	FieldNumber   FieldType = "number"
	FieldDate     FieldType = "date"
	FieldSelect   FieldType = "select"
	FieldTextarea FieldType = "textarea"
	FieldCheckbox FieldType = "checkbox"
	FieldRadio    FieldType = "radio"
)

// SelectOption is one value/label pair of a choice field.
type SelectOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FieldDescriptor describes a single form field as produced by the scanner
// collaborator. It is structural metadata only and never carries a live value.
type FieldDescriptor struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Label        string         `json:"label"`
	Type         FieldType      `json:"type"`
	Required     bool           `json:"required"`
	AutofillHint string         `json:"autofillHint,omitempty"`
	Placeholder  string         `json:"placeholder,omitempty"`
	MaxLength    int            `json:"maxLength,omitempty"`
	MinLength    int            `json:"minLength,omitempty"`
	Options      []SelectOption `json:"options,omitempty"`
}

// FormFingerprint identifies a form by shape rather than identity, so two
// structurally identical forms collapse to the same hash across visits.
type FormFingerprint struct {
	FieldCount    int      `json:"fieldCount"`
	FieldTypes    []string `json:"fieldTypes"`
	RequiredCount int      `json:"requiredCount"`
	Hash          string   `json:"hash"`
}

// ComputeFingerprint derives the structural fingerprint of a field catalog.
func ComputeFingerprint(fields []FieldDescriptor) FormFingerprint {
	types := make([]string, 0, len(fields))
	required := 0
	for _, f := range fields {
		types = append(types, string(f.Type))
		if f.Required {
			required++
		}
	}
	sort.Strings(types)

	sum := sha256.Sum256([]byte(fmt.Sprintf("%d|%s|%d", len(fields), strings.Join(types, ","), required)))

	return FormFingerprint{
		FieldCount:    len(fields),
		FieldTypes:    types,
		RequiredCount: required,
		Hash:          hex.EncodeToString(sum[:]),
	}
}

// FormSnapshot is one captured form: the page context plus its field catalog.
// Produced by the scanner collaborator and relayed through the bridge.
type FormSnapshot struct {
	URL         string            `json:"url"`
	Domain      string            `json:"domain"`
	Title       string            `json:"title"`
	CapturedAt  time.Time         `json:"capturedAt"`
	Fingerprint FormFingerprint   `json:"fingerprint"`
	Fields      []FieldDescriptor `json:"fields"`
}
