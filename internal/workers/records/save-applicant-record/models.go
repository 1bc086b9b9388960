// internal/workers/records/save-applicant-record/models.go
package saveapplicantrecord

import (
	"ev-finance-workers/internal/models"
	"ev-finance-workers/internal/scoring"
)

// Evaluation is the subset of the evaluate-creditworthiness result passed
// along with the record. It is informational; the score is recomputed.
type Evaluation struct {
	EvaluationID  string  `json:"evaluationId"`
	FinalScore    float64 `json:"finalScore"`
	Decision      string  `json:"decision"`
	BalanceSource string  `json:"balanceSource"`
	PolicyVersion string  `json:"policyVersion"`
}

type Input struct {
	ApplicantInfo  models.ApplicantInfo   `json:"applicantInfo"`
	LicenseNumber  string                 `json:"licenseNumber"`
	ApplicantInput scoring.ApplicantInput `json:"applicantInput"`
	Evaluation     Evaluation             `json:"evaluation"`
}

type Output struct {
	ApplicantID      int64   `json:"applicantId"`
	SavedAt          string  `json:"savedAt"` // ISO 8601
	Decision         string  `json:"decision"`
	FinalScore       float64 `json:"finalScore"`
	Indexed          bool    `json:"indexed"`
	CacheInvalidated bool    `json:"cacheInvalidated"`
}
