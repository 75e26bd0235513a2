// internal/form/surface/fields.go
package surface

import "lead-capture/internal/models"

// FieldSpec describes one input the client renders.
type FieldSpec struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	HelperText  string `json:"helperText,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
}

var businessFields = []FieldSpec{
	{ID: models.FieldBusinessName, Label: "Business Name", Type: "text", Required: true},
	{ID: models.FieldAddress, Label: "Business Address", Type: "text", Required: true, HelperText: "Start typing to see address suggestions"},
	{ID: models.FieldCity, Label: "City", Type: "text", Required: true},
	{ID: models.FieldState, Label: "State", Type: "text", Required: true, Placeholder: "TX"},
	{ID: models.FieldContractEndDate, Label: "Contract End Date", Type: "date", HelperText: "When does your current energy contract end?"},
	{ID: models.FieldCurrentProvider, Label: "Current Energy Provider", Type: "text"},
	{ID: models.FieldEstimatedMonthlyBill, Label: "Estimated Monthly Bill", Type: "currency", HelperText: "Your average monthly electricity bill"},
}

var contactFields = []FieldSpec{
	{ID: models.FieldName, Label: "Name", Type: "text", Required: true},
	{ID: models.FieldEmail, Label: "Email", Type: "email", Required: true},
	{ID: models.FieldPhone, Label: "Phone", Type: "tel"},
	{ID: models.FieldMessage, Label: "Message", Type: "textarea"},
}

// FieldsFor returns the rendered field list for a profile, in display order.
func FieldsFor(profile models.Profile) []FieldSpec {
	var src []FieldSpec
	switch profile {
	case models.ProfileContact:
		src = contactFields
	default:
		src = businessFields
	}
	out := make([]FieldSpec, len(src))
	copy(out, src)
	return out
}

// normalizeInput applies input masks before a value reaches the store.
func normalizeInput(field, value string) string {
	if field == models.FieldEstimatedMonthlyBill {
		return models.StripAmount(value)
	}
	return value
}
