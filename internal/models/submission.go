// internal/models/submission.go
package models

// SubmitResponse is the backend's reply to a lead submission.
type SubmitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// LeadPayload is the business record mapped onto the backend's field names.
type LeadPayload struct {
	CompanyName     string   `json:"company_name"`
	AddressStreet   string   `json:"address_street"`
	AddressCity     string   `json:"address_city"`
	AddressState    string   `json:"address_state"`
	AddressZip      string   `json:"address_zip,omitempty"`
	ContractEndDate string   `json:"contract_end_date,omitempty"`
	EnergyProvider  string   `json:"energy_provider,omitempty"`
	MonthlyBill     *float64 `json:"monthly_bill,omitempty"`
	Phone           string   `json:"phone,omitempty"`
	Email           string   `json:"email,omitempty"`
}
