// internal/form/validator/rules.go
package validator

import (
	"encoding/json"
	"strings"
	"time"

	"lead-capture/internal/common/validation"
	"lead-capture/internal/models"
)

// Custom format names registered with the schema engine.
const (
	FormatFutureDate     = "future-date"
	FormatPositiveAmount = "positive-amount"
)

// USStates is the accepted set of state codes: the 50 states plus DC.
var USStates = []string{
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "DC", "FL",
	"GA", "HI", "ID", "IL", "IN", "IA", "KS", "KY", "LA", "ME",
	"MD", "MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH",
	"NJ", "NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI",
	"SC", "SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI",
	"WY",
}

// dateLayouts are tried in order when parsing contractEndDate.
var dateLayouts = []string{"2006-01-02", time.RFC3339}

func init() {
	validation.RegisterFormat(FormatFutureDate, isFutureDate)
	validation.RegisterFormat(FormatPositiveAmount, isPositiveAmount)
}

// ParseDate parses a contract end date in any accepted layout.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isFutureDate(value string) bool {
	t, ok := ParseDate(value)
	if !ok {
		return false
	}
	return t.After(time.Now())
}

func isPositiveAmount(value string) bool {
	n, ok := models.ParseAmount(value)
	return ok && n > 0
}

func businessSchema() map[string]interface{} {
	str := func(extra map[string]interface{}) map[string]interface{} {
		prop := map[string]interface{}{"type": "string"}
		for k, v := range extra {
			prop[k] = v
		}
		return prop
	}

	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			models.FieldBusinessName:         str(map[string]interface{}{"minLength": 2}),
			models.FieldAddress:              str(map[string]interface{}{"minLength": 5}),
			models.FieldCity:                 str(map[string]interface{}{"minLength": 2}),
			models.FieldState:                str(map[string]interface{}{"enum": USStates}),
			models.FieldCurrentProvider:      str(nil),
			models.FieldContractEndDate:      str(map[string]interface{}{"format": FormatFutureDate}),
			models.FieldEstimatedMonthlyBill: str(map[string]interface{}{"format": FormatPositiveAmount}),
		},
		"required": []string{
			models.FieldBusinessName,
			models.FieldAddress,
			models.FieldCity,
			models.FieldState,
		},
	}
}

var businessMessages = validation.Messages{
	models.FieldBusinessName: {
		validation.RuleRequired:  "Business name is required",
		validation.RuleMinLength: "Business name must be at least 2 characters",
	},
	models.FieldAddress: {
		validation.RuleRequired:  "Address is required",
		validation.RuleMinLength: "Please enter a valid address",
	},
	models.FieldCity: {
		validation.RuleRequired:  "City is required",
		validation.RuleMinLength: "Please enter a valid city name",
	},
	models.FieldState: {
		validation.RuleRequired: "State is required",
		validation.RuleEnum:     "Please select a valid state",
	},
	models.FieldContractEndDate: {
		validation.RuleFormat: "Date cannot be in the past",
	},
	models.FieldEstimatedMonthlyBill: {
		validation.RuleFormat: "Amount must be positive",
	},
}

func contactSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			models.FieldName:    map[string]interface{}{"type": "string"},
			models.FieldEmail:   map[string]interface{}{"type": "string", "format": "email"},
			models.FieldPhone:   map[string]interface{}{"type": "string"},
			models.FieldMessage: map[string]interface{}{"type": "string"},
		},
		"required": []string{models.FieldName, models.FieldEmail},
	}
}

var contactMessages = validation.Messages{
	models.FieldName: {
		validation.RuleRequired: "name is required",
	},
	models.FieldEmail: {
		validation.RuleRequired: "email is required",
		validation.RuleFormat:   "Please enter a valid email address",
	},
}

func schemaFor(profile models.Profile) (string, validation.Messages, error) {
	var doc map[string]interface{}
	var messages validation.Messages
	switch profile {
	case models.ProfileContact:
		doc, messages = contactSchema(), contactMessages
	default:
		doc, messages = businessSchema(), businessMessages
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return "", nil, err
	}
	return string(raw), messages, nil
}
