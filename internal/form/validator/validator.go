// internal/form/validator/validator.go
package validator

import (
	"fmt"
	"sort"

	"lead-capture/internal/common/validation"
	"lead-capture/internal/models"
)

// ValidationErrorSet maps a field to its current message. A missing key means
// the field is currently valid.
type ValidationErrorSet map[string]string

// Valid reports whether no field has a message.
func (s ValidationErrorSet) Valid() bool {
	return len(s) == 0
}

// Fields returns the failing field names in sorted order.
func (s ValidationErrorSet) Fields() []string {
	out := make([]string, 0, len(s))
	for field := range s {
		out = append(out, field)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy.
func (s ValidationErrorSet) Clone() ValidationErrorSet {
	out := make(ValidationErrorSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Apply records the outcome of a field-level validation.
func (s ValidationErrorSet) Apply(field, message string, ok bool) {
	if ok {
		delete(s, field)
		return
	}
	s[field] = message
}

// Validator checks FormRecords of one profile against its lead schema.
type Validator struct {
	profile models.Profile
	engine  *validation.Engine
}

// New compiles the schema for profile.
func New(profile models.Profile) (*Validator, error) {
	schema, messages, err := schemaFor(profile)
	if err != nil {
		return nil, fmt.Errorf("build %s schema: %w", profile, err)
	}
	engine, err := validation.NewEngine(schema, messages)
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", profile, err)
	}
	return &Validator{profile: profile, engine: engine}, nil
}

// Profile returns the field set this validator checks.
func (v *Validator) Profile() models.Profile {
	return v.profile
}

// ValidateField validates one field in isolation. It returns the field's
// message and false when invalid. Fields outside the profile are always
// valid.
func (v *Validator) ValidateField(field, value string) (string, bool) {
	if !v.profile.Has(field) {
		return "", true
	}

	result := v.engine.Validate(document(models.FormRecord{field: value}))
	if errs := result.GetErrorsForField(field); len(errs) > 0 {
		return errs[0].Message, false
	}
	return "", true
}

// ValidateAll validates the whole record, collecting one message for every
// failing field. Unknown keys are ignored and empty values count as absent.
func (v *Validator) ValidateAll(record models.FormRecord) ValidationErrorSet {
	result := v.engine.Validate(document(v.profile.Strip(record)))

	out := ValidationErrorSet{}
	for field, msg := range result.Messages() {
		if v.profile.Has(field) {
			out[field] = msg
		}
	}
	return out
}

// document converts a record into the schema engine's input, dropping empty
// values so they read as absent.
func document(record models.FormRecord) map[string]interface{} {
	doc := make(map[string]interface{}, len(record))
	for k, v := range record {
		if v == "" {
			continue
		}
		doc[k] = v
	}
	return doc
}
