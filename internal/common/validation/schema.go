// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Rule names as reported by gojsonschema's ResultError.Type().
const (
	RuleRequired    = "required"
	RuleInvalidType = "invalid_type"
	RuleMinLength   = "string_gte"
	RuleEnum        = "enum"
	RulePattern     = "pattern"
	RuleFormat      = "format"
)

// rulePriority decides which failure is reported when one field breaks
// several rules at once.
var rulePriority = map[string]int{
	RuleRequired:    0,
	RuleInvalidType: 1,
	RuleMinLength:   2,
	RuleEnum:        3,
	RulePattern:     4,
	RuleFormat:      5,
}

// Messages maps field -> rule -> human message. A "format" rule may also be
// keyed as "format:<name>".
type Messages map[string]map[string]string

// FormatFunc adapts a string predicate to gojsonschema.FormatChecker.
// Non-string values are left to the type check.
type FormatFunc func(string) bool

func (f FormatFunc) IsFormat(input interface{}) bool {
	s, ok := input.(string)
	if !ok {
		return true
	}
	return f(s)
}

// RegisterFormat adds a named format checker to gojsonschema's global chain.
// It must run before any schema using the format is compiled; call it from
// package init.
func RegisterFormat(name string, fn FormatFunc) {
	gojsonschema.FormatCheckers.Add(name, fn)
}

// Engine validates documents against a compiled JSON schema and turns
// gojsonschema errors into one message per field.
type Engine struct {
	schema   *gojsonschema.Schema
	messages Messages
}

// NewEngine compiles schemaJSON.
func NewEngine(schemaJSON string, messages Messages) (*Engine, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	if messages == nil {
		messages = Messages{}
	}
	return &Engine{schema: schema, messages: messages}, nil
}

// Validate checks doc and reports at most one error per field, chosen by
// rule priority. Errors are ordered by first appearance.
func (e *Engine) Validate(doc map[string]interface{}) *ValidationResult {
	result, err := e.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "(root)",
				Message: err.Error(),
				Code:    "SCHEMA_ERROR",
			}},
		}
	}
	if result.Valid() {
		return &ValidationResult{Valid: true}
	}

	chosen := map[string]int{}
	var errs []ValidationError
	for _, re := range result.Errors() {
		field := fieldOf(re)
		rule := re.Type()
		ve := ValidationError{
			Field:   field,
			Message: e.message(field, rule, re),
			Code:    rule,
		}

		idx, seen := chosen[field]
		if !seen {
			chosen[field] = len(errs)
			errs = append(errs, ve)
			continue
		}
		if priority(rule) < priority(errs[idx].Code) {
			errs[idx] = ve
		}
	}

	return &ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

func (e *Engine) message(field, rule string, re gojsonschema.ResultError) string {
	byRule := e.messages[field]
	if rule == RuleFormat {
		if name, ok := re.Details()["format"].(string); ok {
			if msg, ok := byRule[RuleFormat+":"+name]; ok {
				return msg
			}
		}
	}
	if msg, ok := byRule[rule]; ok {
		return msg
	}
	return re.Description()
}

// fieldOf returns the property a result error belongs to. Required errors
// are reported against the parent object, so the property name comes from
// the error details.
func fieldOf(re gojsonschema.ResultError) string {
	if re.Type() == RuleRequired {
		if prop, ok := re.Details()["property"].(string); ok {
			return prop
		}
	}
	return strings.TrimPrefix(re.Field(), "(root).")
}

func priority(rule string) int {
	if p, ok := rulePriority[rule]; ok {
		return p
	}
	return len(rulePriority)
}

// Messages returns one message per failing field.
func (vr *ValidationResult) Messages() map[string]string {
	out := make(map[string]string, len(vr.Errors))
	for _, err := range vr.Errors {
		out[err.Field] = err.Message
	}
	return out
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// GetErrorsForField returns errors for a specific field
func (vr *ValidationResult) GetErrorsForField(field string) []ValidationError {
	var fieldErrors []ValidationError
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") {
			fieldErrors = append(fieldErrors, err)
		}
	}
	return fieldErrors
}
