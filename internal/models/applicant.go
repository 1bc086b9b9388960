// internal/models/applicant.go
package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ev-finance-workers/internal/scoring"
)

const (
	Yes = "Yes"
	No  = "No"
)

// IsYes accepts the radio answers of the intake form in any case.
func IsYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true":
		return true
	default:
		return false
	}
}

// ApplicantInfo is the identity and eligibility step of the intake form.
type ApplicantInfo struct {
	FirstName           string `json:"firstName"`
	LastName            string `json:"lastName"`
	CNIC                string `json:"cnic"`
	LicenseSuffix       string `json:"licenseSuffix"`
	GuarantorsAvailable string `json:"guarantorsAvailable"`
	FemaleGuarantor     string `json:"femaleGuarantor,omitempty"`
	StreetAddress       string `json:"streetAddress"`
	AreaAddress         string `json:"areaAddress"`
	City                string `json:"city"`
	StateProvince       string `json:"stateProvince"`
	PostalCode          string `json:"postalCode,omitempty"`
	Country             string `json:"country"`
	PhoneNumber         string `json:"phoneNumber"`
	Gender              string `json:"gender"`
	ElectricityBill     string `json:"electricityBill"`
	BikeType            string `json:"bikeType,omitempty"`
}

func (a ApplicantInfo) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// ApplicantRecord is one row of the applicants table.
type ApplicantRecord struct {
	ID                  int64           `json:"id"`
	FirstName           string          `json:"firstName"`
	LastName            string          `json:"lastName"`
	CNIC                string          `json:"cnic"`
	LicenseNumber       string          `json:"licenseNumber"`
	GuarantorsAvailable string          `json:"guarantorsAvailable"`
	FemaleGuarantor     string          `json:"femaleGuarantor"`
	StreetAddress       string          `json:"streetAddress"`
	AreaAddress         string          `json:"areaAddress"`
	City                string          `json:"city"`
	StateProvince       string          `json:"stateProvince"`
	PostalCode          string          `json:"postalCode"`
	Country             string          `json:"country"`
	PhoneNumber         string          `json:"phoneNumber"`
	Gender              string          `json:"gender"`
	ElectricityBill     string          `json:"electricityBill"`
	NetIncome           decimal.Decimal `json:"netIncome"`
	EMI                 decimal.Decimal `json:"emi"`
	ApplicantBalance    decimal.Decimal `json:"applicantBalance"`
	OutstandingDebt     decimal.Decimal `json:"outstandingDebt"`
	BikeType            string          `json:"bikeType"`
	BikePrice           decimal.Decimal `json:"bikePrice"`
	DownPayment         decimal.Decimal `json:"downPayment"`
	TenureMonths        int             `json:"tenureMonths"`
	BalanceSource       string          `json:"balanceSource"`
	FinalScore          decimal.Decimal `json:"finalScore"`
	Decision            string          `json:"decision"`
	CreatedAt           time.Time       `json:"createdAt"`
}

// Label is the "<id> - <first> <last>" form used by the delete picker.
func (r ApplicantRecord) Label() string {
	return strings.TrimSpace(strconv.FormatInt(r.ID, 10) + " - " + r.FirstName + " " + r.LastName)
}

// NewApplicantRecord flattens the form, scoring input and result into a row.
// Currency is rounded to two places and the score to one, as displayed.
func NewApplicantRecord(info ApplicantInfo, licenseNumber string, in scoring.ApplicantInput, res scoring.ScoreResult) ApplicantRecord {
	money := func(v float64) decimal.Decimal { return decimal.NewFromFloat(v).Round(2) }

	female := info.FemaleGuarantor
	if female == "" {
		female = No
	}

	return ApplicantRecord{
		FirstName:           strings.TrimSpace(info.FirstName),
		LastName:            strings.TrimSpace(info.LastName),
		CNIC:                strings.TrimSpace(info.CNIC),
		LicenseNumber:       licenseNumber,
		GuarantorsAvailable: info.GuarantorsAvailable,
		FemaleGuarantor:     female,
		StreetAddress:       info.StreetAddress,
		AreaAddress:         info.AreaAddress,
		City:                info.City,
		StateProvince:       info.StateProvince,
		PostalCode:          info.PostalCode,
		Country:             info.Country,
		PhoneNumber:         strings.TrimSpace(info.PhoneNumber),
		Gender:              string(scoring.ParseGender(info.Gender)),
		ElectricityBill:     info.ElectricityBill,
		NetIncome:           money(in.NetIncome),
		EMI:                 money(in.EMI),
		ApplicantBalance:    money(in.ApplicantBalance),
		OutstandingDebt:     money(in.OutstandingDebt),
		BikeType:            info.BikeType,
		BikePrice:           money(in.AssetPrice),
		DownPayment:         money(in.DownPayment),
		TenureMonths:        in.TenureMonths,
		BalanceSource:       string(res.BalanceSource),
		FinalScore:          decimal.NewFromFloat(res.FinalScore).Round(1),
		Decision:            string(res.Decision),
	}
}
