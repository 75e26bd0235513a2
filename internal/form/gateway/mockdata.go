// internal/form/gateway/mockdata.go
package gateway

import "lead-capture/internal/models"

func mockInitialData(profile models.Profile) models.FormRecord {
	if profile == models.ProfileContact {
		return models.FormRecord{
			models.FieldName:    "John Doe",
			models.FieldEmail:   "john@example.com",
			models.FieldPhone:   "+1234567890",
			models.FieldMessage: "Hello, this is a pre-filled message.",
		}
	}
	return models.FormRecord{
		models.FieldBusinessName:    "Lone Star Bakery",
		models.FieldCurrentProvider: "Reliant Energy",
	}
}

var mockAddresses = []models.AddressSuggestion{
	{Address: "123 Main St", City: "Austin", State: "TX", Zip: "78701"},
	{Address: "123 Main St Ste 200", City: "Houston", State: "TX", Zip: "77002"},
	{Address: "1230 Main Ave", City: "Dallas", State: "TX", Zip: "75202"},
	{Address: "456 Congress Ave", City: "Austin", State: "TX", Zip: "78701"},
	{Address: "789 Commerce St", City: "San Antonio", State: "TX", Zip: "78205"},
	{Address: "2100 Ross Ave", City: "Dallas", State: "TX", Zip: "75201"},
	{Address: "500 W 2nd St", City: "Austin", State: "TX", Zip: "78701"},
	{Address: "1001 Fannin St", City: "Houston", State: "TX", Zip: "77002"},
}
