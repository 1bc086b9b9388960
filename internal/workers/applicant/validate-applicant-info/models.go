// internal/workers/applicant/validate-applicant-info/models.go
package validateapplicantinfo

import (
	"ev-finance-workers/internal/common/validation"
	"ev-finance-workers/internal/models"
)

type Input struct {
	ApplicantInfo models.ApplicantInfo `json:"applicantInfo"`
}

// Output is the step result consumed by evaluate-creditworthiness as
// applicantValid.
type Output struct {
	IsValid          bool                         `json:"isValid"`
	ApplicantValid   bool                         `json:"applicantValid"`
	LicenseNumber    string                       `json:"licenseNumber"`
	ValidationErrors []validation.ValidationError `json:"validationErrors"`
	RejectionReason  string                       `json:"rejectionReason,omitempty"`
}

// DefaultInputSchema is used when the registry carries no schema for the task.
var DefaultInputSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"applicantInfo"},
	"properties": map[string]interface{}{
		"applicantInfo": map[string]interface{}{
			"type": "object",
			"required": []interface{}{
				"firstName", "lastName", "cnic", "licenseSuffix", "guarantorsAvailable",
				"streetAddress", "areaAddress", "city", "stateProvince", "country",
				"phoneNumber", "gender", "electricityBill",
			},
			"properties": map[string]interface{}{
				"firstName":           map[string]interface{}{"type": "string"},
				"lastName":            map[string]interface{}{"type": "string"},
				"cnic":                map[string]interface{}{"type": "string"},
				"licenseSuffix":       map[string]interface{}{"type": "string"},
				"guarantorsAvailable": map[string]interface{}{"type": "string"},
				"femaleGuarantor":     map[string]interface{}{"type": "string"},
				"streetAddress":       map[string]interface{}{"type": "string"},
				"areaAddress":         map[string]interface{}{"type": "string"},
				"city":                map[string]interface{}{"type": "string"},
				"stateProvince":       map[string]interface{}{"type": "string"},
				"postalCode":          map[string]interface{}{"type": "string"},
				"country":             map[string]interface{}{"type": "string"},
				"phoneNumber":         map[string]interface{}{"type": "string"},
				"gender":              map[string]interface{}{"type": "string"},
				"electricityBill":     map[string]interface{}{"type": "string"},
				"bikeType":            map[string]interface{}{"type": "string"},
			},
		},
	},
}
