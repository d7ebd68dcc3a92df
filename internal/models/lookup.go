package models

// DocumentCheckResponse is returned by the document check endpoints
type DocumentCheckResponse struct {
	Type      string `json:"type"`
	Input     string `json:"input"`
	Digits    string `json:"digits"`
	Formatted string `json:"formatted"`
	Valid     bool   `json:"valid"`
	Message   string `json:"message,omitempty"`
}

// CNPJLookupResult is the company data used to prefill the market draft
type CNPJLookupResult struct {
	CNPJ      string `json:"cnpj"`
	LegalName string `json:"legalName"`
	TradeName string `json:"tradeName"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
}

// GeocodeResult is a resolved coordinate for an address
type GeocodeResult struct {
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	FormattedAddress string  `json:"formattedAddress"`
}
