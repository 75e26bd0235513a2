// internal/form/surface/currency.go
package surface

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"lead-capture/internal/models"
)

// FormatUSD renders an amount the way the bill field is displayed, with
// grouping and two decimals.
func FormatUSD(amount float64) string {
	p := message.NewPrinter(language.AmericanEnglish)
	return p.Sprintf("$%.2f", amount)
}

// displayValues returns formatted variants of stored values. Only the bill
// has one; unparsable input is left out.
func displayValues(record models.FormRecord) map[string]string {
	out := map[string]string{}
	raw, ok := record[models.FieldEstimatedMonthlyBill]
	if !ok || raw == "" {
		return out
	}
	if n, ok := models.ParseAmount(raw); ok {
		out[models.FieldEstimatedMonthlyBill] = FormatUSD(n)
	}
	return out
}
