// internal/scoring/types.go
package scoring

import (
	"math"
	"strings"
)

type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

// ParseGender accepts M/F and the spelled-out forms.
func ParseGender(s string) Gender {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "M", "MALE":
		return GenderMale
	case "F", "FEMALE":
		return GenderFemale
	default:
		return Gender(strings.TrimSpace(s))
	}
}

type EmployerType string

const (
	EmployerGovernment   EmployerType = "Government"
	EmployerMNC          EmployerType = "MNC"
	EmployerSME          EmployerType = "SME"
	EmployerStartup      EmployerType = "Startup"
	EmployerSelfEmployed EmployerType = "Self-employed"
)

var employerAliases = map[string]EmployerType{
	"government":    EmployerGovernment,
	"govt":          EmployerGovernment,
	"gov":           EmployerGovernment,
	"mnc":           EmployerMNC,
	"multinational": EmployerMNC,
	"sme":           EmployerSME,
	"startup":       EmployerStartup,
	"start-up":      EmployerStartup,
	"self-employed": EmployerSelfEmployed,
	"self_employed": EmployerSelfEmployed,
	"selfemployed":  EmployerSelfEmployed,
	"self employed": EmployerSelfEmployed,
}

// ParseEmployerType normalizes known spellings. Unknown values are kept as-is
// and score 0.
func ParseEmployerType(s string) EmployerType {
	if e, ok := employerAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return e
	}
	return EmployerType(strings.TrimSpace(s))
}

type ResidenceType string

const (
	ResidenceOwned     ResidenceType = "Owned"
	ResidenceFamily    ResidenceType = "Family"
	ResidenceRented    ResidenceType = "Rented"
	ResidenceTemporary ResidenceType = "Temporary"
)

var residenceAliases = map[string]ResidenceType{
	"owned":     ResidenceOwned,
	"own":       ResidenceOwned,
	"family":    ResidenceFamily,
	"rented":    ResidenceRented,
	"rent":      ResidenceRented,
	"temporary": ResidenceTemporary,
	"temp":      ResidenceTemporary,
}

func ParseResidenceType(s string) ResidenceType {
	if r, ok := residenceAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return r
	}
	return ResidenceType(strings.TrimSpace(s))
}

type Decision string

const (
	DecisionApprove Decision = "Approve"
	DecisionReview  Decision = "Review"
	DecisionReject  Decision = "Reject"
)

// AllowsPersistence reports whether an applicant with this decision may be
// written to the applicant store.
func (d Decision) AllowsPersistence() bool {
	return d == DecisionApprove
}

type BalanceSource string

const (
	BalanceSourceApplicant               BalanceSource = "Applicant"
	BalanceSourceApplicantBelowThreshold BalanceSource = "Applicant (below threshold)"
	BalanceSourceGuarantor               BalanceSource = "Guarantor"
	BalanceSourceGuarantorBelowThreshold BalanceSource = "Guarantor (below threshold)"
	BalanceSourceUndefined               BalanceSource = ""
)

// Category names a sub-score and keys both SubScores and Policy weights.
type Category string

const (
	CategoryIncome               Category = "income"
	CategoryBalance              Category = "balance"
	CategorySalaryConsistency    Category = "salary_consistency"
	CategoryEmployerType         Category = "employer_type"
	CategoryJobTenure            Category = "job_tenure"
	CategoryAge                  Category = "age"
	CategoryDependents           Category = "dependents"
	CategoryResidence            Category = "residence"
	CategoryDebtToIncome         Category = "debt_to_income"
	CategoryFinancialFeasibility Category = "financial_feasibility"
)

// Categories lists every known sub-score in display order.
var Categories = []Category{
	CategoryIncome,
	CategoryBalance,
	CategorySalaryConsistency,
	CategoryEmployerType,
	CategoryJobTenure,
	CategoryAge,
	CategoryDependents,
	CategoryResidence,
	CategoryDebtToIncome,
	CategoryFinancialFeasibility,
}

func isKnownCategory(c Category) bool {
	for _, known := range Categories {
		if known == c {
			return true
		}
	}
	return false
}

// ApplicantInput is built once per evaluation request and never mutated.
type ApplicantInput struct {
	NetIncome               float64       `json:"netIncome"`
	Gender                  Gender        `json:"gender"`
	EMI                     float64       `json:"emi"`
	ApplicantBalance        float64       `json:"applicantBalance"`
	GuarantorBalance        *float64      `json:"guarantorBalance,omitempty"`
	SalaryConsistencyMonths int           `json:"salaryConsistencyMonths"`
	EmployerType            EmployerType  `json:"employerType"`
	JobTenureYears          float64       `json:"jobTenureYears"`
	Age                     int           `json:"age"`
	Dependents              int           `json:"dependents"`
	Residence               ResidenceType `json:"residence"`
	OutstandingDebt         float64       `json:"outstandingDebt"`
	AssetPrice              float64       `json:"assetPrice"`
	DownPayment             float64       `json:"downPayment"`
	TenureMonths            int           `json:"tenureMonths"`
}

// hasFinancedAsset is false when neither a price nor a down payment was
// supplied, which makes the feasibility sub-score inapplicable.
func (in ApplicantInput) hasFinancedAsset() bool {
	return in.AssetPrice != 0 || in.DownPayment != 0
}

// SubScores maps a category to its 0-100 value. The age entry may hold
// AgeRejectSentinel.
type SubScores map[Category]float64

// ScoreResult is the outcome of one evaluation.
type ScoreResult struct {
	FinalScore        float64       `json:"finalScore"`
	Decision          Decision      `json:"decision"`
	BalanceSource     BalanceSource `json:"balanceSource"`
	SubScores         SubScores     `json:"subScores"`
	DebtToIncomeRatio float64       `json:"debtToIncomeRatio"`
	PolicyVersion     string        `json:"policyVersion"`
	HardReject        bool          `json:"hardReject"`
	Reason            string        `json:"reason,omitempty"`
}

// DisplayScore is the final score rounded to one decimal for presentation.
func (r ScoreResult) DisplayScore() float64 {
	return RoundOneDecimal(r.FinalScore)
}

func RoundOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}
