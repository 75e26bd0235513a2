// internal/form/validator/validator_test.go
package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-capture/internal/models"
)

func newBusinessValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := New(models.ProfileBusiness)
	require.NoError(t, err)
	return v
}

func tomorrow() string {
	return time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")
}

func validBusinessRecord() models.FormRecord {
	return models.FormRecord{
		models.FieldBusinessName: "Acme Co",
		models.FieldAddress:      "123 Main St",
		models.FieldCity:         "Austin",
		models.FieldState:        "TX",
	}
}

func TestValidateAll_Business(t *testing.T) {
	v := newBusinessValidator(t)

	tests := []struct {
		name     string
		record   models.FormRecord
		validate func(t *testing.T, errs ValidationErrorSet)
	}{
		{
			name:   "all required fields valid",
			record: validBusinessRecord(),
			validate: func(t *testing.T, errs ValidationErrorSet) {
				assert.True(t, errs.Valid())
			},
		},
		{
			name: "optional fields valid when filled",
			record: func() models.FormRecord {
				r := validBusinessRecord()
				r[models.FieldCurrentProvider] = "Reliant"
				r[models.FieldContractEndDate] = tomorrow()
				r[models.FieldEstimatedMonthlyBill] = "$1,234.50"
				return r
			}(),
			validate: func(t *testing.T, errs ValidationErrorSet) {
				assert.Empty(t, errs)
			},
		},
		{
			name:   "empty record reports every required field",
			record: models.FormRecord{},
			validate: func(t *testing.T, errs ValidationErrorSet) {
				assert.Equal(t, ValidationErrorSet{
					models.FieldBusinessName: "Business name is required",
					models.FieldAddress:      "Address is required",
					models.FieldCity:         "City is required",
					models.FieldState:        "State is required",
				}, errs)
			},
		},
		{
			name:   "scenario A: short business name",
			record: models.FormRecord{models.FieldBusinessName: "A"},
			validate: func(t *testing.T, errs ValidationErrorSet) {
				assert.Equal(t, "Business name must be at least 2 characters", errs[models.FieldBusinessName])
				assert.Len(t, errs, 4)
			},
		},
		{
			name: "scenario B: invalid state",
			record: func() models.FormRecord {
				r := validBusinessRecord()
				r[models.FieldState] = "ZZ"
				return r
			}(),
			validate: func(t *testing.T, errs ValidationErrorSet) {
				assert.Equal(t, ValidationErrorSet{models.FieldState: "Please select a valid state"}, errs)
			},
		},
		{
			name: "boundary lengths are inclusive",
			record: models.FormRecord{
				models.FieldBusinessName: "Ab",
				models.FieldAddress:      "1 Ma",
				models.FieldCity:         "Ok",
				models.FieldState:        "DC",
			},
			validate: func(t *testing.T, errs ValidationErrorSet) {
				assert.Equal(t, ValidationErrorSet{models.FieldAddress: "Please enter a valid address"}, errs)
			},
		},
		{
			name: "unknown keys are stripped",
			record: func() models.FormRecord {
				r := validBusinessRecord()
				r["utm_source"] = "x"
				r[models.FieldEmail] = "not-an-email"
				return r
			}(),
			validate: func(t *testing.T, errs ValidationErrorSet) {
				assert.True(t, errs.Valid())
			},
		},
		{
			name: "past date and non-numeric bill",
			record: func() models.FormRecord {
				r := validBusinessRecord()
				r[models.FieldContractEndDate] = "2001-01-01"
				r[models.FieldEstimatedMonthlyBill] = "abc"
				return r
			}(),
			validate: func(t *testing.T, errs ValidationErrorSet) {
				assert.Equal(t, ValidationErrorSet{
					models.FieldContractEndDate:      "Date cannot be in the past",
					models.FieldEstimatedMonthlyBill: "Amount must be positive",
				}, errs)
				assert.Equal(t, []string{models.FieldContractEndDate, models.FieldEstimatedMonthlyBill}, errs.Fields())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, v.ValidateAll(tt.record))
		})
	}
}

func TestValidateField_Business(t *testing.T) {
	v := newBusinessValidator(t)

	tests := []struct {
		field   string
		value   string
		wantOK  bool
		wantMsg string
	}{
		{models.FieldBusinessName, "Ab", true, ""},
		{models.FieldBusinessName, "A", false, "Business name must be at least 2 characters"},
		{models.FieldBusinessName, "", false, "Business name is required"},
		{models.FieldState, "tx", false, "Please select a valid state"},
		{models.FieldState, "WY", true, ""},
		{models.FieldCurrentProvider, "", true, ""},
		{models.FieldContractEndDate, "", true, ""},
		{models.FieldContractEndDate, tomorrow(), true, ""},
		{models.FieldContractEndDate, time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339), true, ""},
		{models.FieldContractEndDate, time.Now().UTC().Format("2006-01-02"), false, "Date cannot be in the past"},
		{models.FieldContractEndDate, "next year", false, "Date cannot be in the past"},
		{models.FieldContractEndDate, "not a date", false, "Date cannot be in the past"},
		{models.FieldContractEndDate, "2030-13-45", false, "Date cannot be in the past"},
		{models.FieldEstimatedMonthlyBill, "", true, ""},
		{models.FieldEstimatedMonthlyBill, "250", true, ""},
		{models.FieldEstimatedMonthlyBill, "0", false, "Amount must be positive"},
		{models.FieldEstimatedMonthlyBill, "$", false, "Amount must be positive"},
		{"unknownField", "whatever", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.field+"="+tt.value, func(t *testing.T) {
			msg, ok := v.ValidateField(tt.field, tt.value)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestValidator_Contact(t *testing.T) {
	v, err := New(models.ProfileContact)
	require.NoError(t, err)
	assert.Equal(t, models.ProfileContact, v.Profile())

	errs := v.ValidateAll(models.FormRecord{models.FieldPhone: "+1234567890"})
	assert.Equal(t, ValidationErrorSet{
		models.FieldName:  "name is required",
		models.FieldEmail: "email is required",
	}, errs)

	errs = v.ValidateAll(models.FormRecord{
		models.FieldName:  "John Doe",
		models.FieldEmail: "john@example.com",
		"businessName":    "ignored",
	})
	assert.True(t, errs.Valid())

	msg, ok := v.ValidateField(models.FieldEmail, "nope")
	assert.False(t, ok)
	assert.Equal(t, "Please enter a valid email address", msg)

	_, ok = v.ValidateField(models.FieldBusinessName, "")
	assert.True(t, ok)
}

func TestValidationErrorSet_Apply(t *testing.T) {
	set := ValidationErrorSet{}
	set.Apply("city", "City is required", false)
	assert.Equal(t, "City is required", set["city"])

	clone := set.Clone()
	set.Apply("city", "", true)
	assert.True(t, set.Valid())
	assert.False(t, clone.Valid())
}

func TestParseDate(t *testing.T) {
	d, ok := ParseDate("2031-04-30")
	require.True(t, ok)
	assert.Equal(t, time.April, d.Month())

	_, ok = ParseDate("2031-04-30T10:00:00Z")
	assert.True(t, ok)

	_, ok = ParseDate("30/04/2031")
	assert.False(t, ok)
}
