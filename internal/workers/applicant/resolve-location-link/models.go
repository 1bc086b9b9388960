// internal/workers/applicant/resolve-location-link/models.go
package resolvelocationlink

import "ev-finance-workers/internal/common/validation"

type Input struct {
	StreetAddress string `json:"streetAddress"`
	AreaAddress   string `json:"areaAddress"`
	City          string `json:"city"`
	StateProvince string `json:"stateProvince"`
	PostalCode    string `json:"postalCode,omitempty"`
	Country       string `json:"country"`
}

type Output struct {
	MapsURL          string                       `json:"mapsUrl"`
	FullAddress      string                       `json:"fullAddress"`
	LocationResolved bool                         `json:"locationResolved"`
	ValidationErrors []validation.ValidationError `json:"validationErrors"`
}
