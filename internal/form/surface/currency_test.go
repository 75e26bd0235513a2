// internal/form/surface/currency_test.go
package surface

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"lead-capture/internal/models"
)

func TestFormatUSD(t *testing.T) {
	out := FormatUSD(1500)
	assert.True(t, strings.HasPrefix(out, "$"), out)
	assert.Contains(t, out, "500.00")
	assert.Contains(t, FormatUSD(0.5), "0.50")
}

func TestDisplayValues(t *testing.T) {
	tests := []struct {
		name   string
		record models.FormRecord
		want   bool
	}{
		{name: "no bill", record: models.FormRecord{"city": "Austin"}},
		{name: "empty bill", record: models.FormRecord{models.FieldEstimatedMonthlyBill: ""}},
		{name: "unparsable bill", record: models.FormRecord{models.FieldEstimatedMonthlyBill: "abc"}},
		{name: "bill", record: models.FormRecord{models.FieldEstimatedMonthlyBill: "99.9"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := displayValues(tt.record)
			_, ok := out[models.FieldEstimatedMonthlyBill]
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestFieldsForProfile(t *testing.T) {
	for _, profile := range []models.Profile{models.ProfileBusiness, models.ProfileContact} {
		fields := FieldsFor(profile)
		assert.Len(t, fields, len(profile.Fields()))
		for _, f := range fields {
			assert.True(t, profile.Has(f.ID), f.ID)
		}
	}
}
