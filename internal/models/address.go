// internal/models/address.go
package models

// AddressSuggestion is one candidate returned by the address lookup.
type AddressSuggestion struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
}
