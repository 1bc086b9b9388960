// internal/workers/evaluation/evaluate-creditworthiness/models.go
package evaluatecreditworthiness

import "ev-finance-workers/internal/scoring"

type Input struct {
	ApplicantValid bool                   `json:"applicantValid"`
	ApplicantInput scoring.ApplicantInput `json:"applicantInput"`
}

type Output struct {
	EvaluationID      string             `json:"evaluationId"`
	FinalScore        float64            `json:"finalScore"`
	Decision          string             `json:"decision"`
	BalanceSource     string             `json:"balanceSource"`
	SubScores         map[string]float64 `json:"subScores"`
	DebtToIncomeRatio float64            `json:"debtToIncomeRatio"`
	PolicyVersion     string             `json:"policyVersion"`
	HardReject        bool               `json:"hardReject"`
	Reason            string             `json:"reason,omitempty"`
	CanPersist        bool               `json:"canPersist"`
	EvaluatedAt       string             `json:"evaluatedAt"` // ISO 8601
}
