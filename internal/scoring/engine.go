// internal/scoring/engine.go
package scoring

import (
	"math"
)

// Engine evaluates applicants against one validated policy. It holds no
// mutable state and is safe to share.
type Engine struct {
	policy Policy
}

// NewEngine refuses policies whose weights do not sum to 1.0 or that break
// any other policy rule.
func NewEngine(p Policy) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Engine{policy: p.clone()}, nil
}

// Policy returns a copy of the engine policy.
func (e *Engine) Policy() Policy {
	return e.policy.clone()
}

// Evaluate computes every sub-score, applies the hard age rejection and maps
// the weighted total to a decision.
func (e *Engine) Evaluate(in ApplicantInput) (ScoreResult, error) {
	if err := validateInput(in); err != nil {
		return ScoreResult{}, err
	}

	subs, source, dti := e.SubScores(in)
	result := ScoreResult{
		BalanceSource:     source,
		SubScores:         subs,
		DebtToIncomeRatio: dti,
		PolicyVersion:     e.policy.Version,
	}

	if subs[CategoryAge] == AgeRejectSentinel {
		result.Decision = DecisionReject
		result.FinalScore = 0
		result.HardReject = true
		result.Reason = "applicant below minimum age"
		return result, nil
	}

	result.FinalScore = e.weightedSum(subs)
	result.Decision = e.Decide(result.FinalScore)
	return result, nil
}

// SubScores computes the per-category breakdown without deciding. Financial
// feasibility is only present when the input describes a financed asset.
func (e *Engine) SubScores(in ApplicantInput) (SubScores, BalanceSource, float64) {
	p := e.policy

	balance, source := BalanceScore(in.ApplicantBalance, in.GuarantorBalance, in.EMI, p)
	dti, ratio := DebtToIncomeScore(in.NetIncome, in.OutstandingDebt, in.EMI, in.TenureMonths)

	subs := SubScores{
		CategoryIncome:            IncomeScore(in.NetIncome, in.Gender, p),
		CategoryBalance:           balance,
		CategorySalaryConsistency: SalaryConsistencyScore(in.SalaryConsistencyMonths, p),
		CategoryEmployerType:      EmployerTypeScore(in.EmployerType),
		CategoryJobTenure:         JobTenureScore(in.JobTenureYears),
		CategoryAge:               AgeScore(in.Age, p),
		CategoryDependents:        DependentsScore(in.Dependents),
		CategoryResidence:         ResidenceScore(in.Residence),
		CategoryDebtToIncome:      dti,
	}
	if in.hasFinancedAsset() {
		subs[CategoryFinancialFeasibility] = FinancialFeasibilityScore(in.EMI, in.TenureMonths, in.DownPayment, in.AssetPrice)
	}
	return subs, source, ratio
}

// Decide maps a final score onto the policy thresholds.
func (e *Engine) Decide(score float64) Decision {
	switch {
	case score >= e.policy.Thresholds.Approve:
		return DecisionApprove
	case score >= e.policy.Thresholds.Review:
		return DecisionReview
	default:
		return DecisionReject
	}
}

// EffectiveWeights returns the weights used for subs. Weight of a category
// missing from subs is redistributed proportionally across the others.
func (e *Engine) EffectiveWeights(subs SubScores) map[Category]float64 {
	present := 0.0
	for c, w := range e.policy.Weights {
		if _, ok := subs[c]; ok {
			present += w
		}
	}

	out := make(map[Category]float64, len(e.policy.Weights))
	if present <= 0 {
		return out
	}
	for c, w := range e.policy.Weights {
		if _, ok := subs[c]; ok {
			out[c] = w / present
		}
	}
	return out
}

func (e *Engine) weightedSum(subs SubScores) float64 {
	total := 0.0
	for c, w := range e.EffectiveWeights(subs) {
		total += w * subs[c]
	}
	return clamp(total, 0, 100)
}

func validateInput(in ApplicantInput) error {
	nonNegative := []struct {
		field string
		value float64
	}{
		{"netIncome", in.NetIncome},
		{"applicantBalance", in.ApplicantBalance},
		{"outstandingDebt", in.OutstandingDebt},
		{"assetPrice", in.AssetPrice},
		{"downPayment", in.DownPayment},
		{"jobTenureYears", in.JobTenureYears},
	}
	if in.GuarantorBalance != nil {
		nonNegative = append(nonNegative, struct {
			field string
			value float64
		}{"guarantorBalance", *in.GuarantorBalance})
	}
	for _, c := range nonNegative {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return &DomainInputError{Field: c.field, Value: c.value, Reason: "must be a finite number"}
		}
		if c.value < 0 {
			return &DomainInputError{Field: c.field, Value: c.value, Reason: "must not be negative"}
		}
	}

	if math.IsNaN(in.EMI) || math.IsInf(in.EMI, 0) || in.EMI <= 0 {
		return &DomainInputError{Field: "emi", Value: in.EMI, Reason: "must be positive"}
	}
	if in.TenureMonths <= 0 {
		return &DomainInputError{Field: "tenureMonths", Value: float64(in.TenureMonths), Reason: "must be positive"}
	}
	if in.hasFinancedAsset() && in.AssetPrice <= 0 {
		return &DomainInputError{Field: "assetPrice", Value: in.AssetPrice, Reason: "must be positive when a down payment is supplied"}
	}

	counts := []struct {
		field string
		value int
	}{
		{"salaryConsistencyMonths", in.SalaryConsistencyMonths},
		{"age", in.Age},
		{"dependents", in.Dependents},
	}
	for _, c := range counts {
		if c.value < 0 {
			return &DomainInputError{Field: c.field, Value: float64(c.value), Reason: "must not be negative"}
		}
	}
	return nil
}
