// internal/scoring/subscores.go
package scoring

import "math"

// AgeRejectSentinel is returned by AgeScore for applicants below the minimum
// age. It is not a score: any evaluation carrying it is rejected outright.
const AgeRejectSentinel = -1.0

// IncomeScore tiers net income and applies the policy gender multiplier,
// capped at 100.
func IncomeScore(netIncome float64, gender Gender, p Policy) float64 {
	score := p.IncomeTopPoints
	for _, tier := range p.IncomeTiers {
		if netIncome < tier.UpTo {
			score = tier.Points
			break
		}
	}

	gm := p.GenderMultiplier
	if gm.Enabled && ParseGender(string(gender)) == ParseGender(string(gm.Gender)) {
		score *= gm.Factor
	}
	return clamp(score, 0, 100)
}

// BalanceScore rates liquid balance against the instalment. The applicant's
// own balance is checked first; a guarantor balance is only consulted when the
// applicant falls short. EMI <= 0 yields (0, BalanceSourceUndefined), which
// callers must treat as invalid input.
func BalanceScore(applicantBalance float64, guarantorBalance *float64, emi float64, p Policy) (float64, BalanceSource) {
	if emi <= 0 {
		return 0, BalanceSourceUndefined
	}

	applicantTarget := p.ApplicantBalanceMultiple * emi
	if applicantBalance >= applicantTarget {
		return 100, BalanceSourceApplicant
	}
	if guarantorBalance == nil {
		return ratioScore(applicantBalance, applicantTarget), BalanceSourceApplicantBelowThreshold
	}

	guarantorTarget := p.GuarantorBalanceMultiple * emi
	if *guarantorBalance >= guarantorTarget {
		return 100, BalanceSourceGuarantor
	}
	return ratioScore(*guarantorBalance, guarantorTarget), BalanceSourceGuarantorBelowThreshold
}

func SalaryConsistencyScore(months int, p Policy) float64 {
	if p.SalaryConsistencyMonths <= 0 {
		return 0
	}
	return ratioScore(float64(months), float64(p.SalaryConsistencyMonths))
}

var employerPoints = map[EmployerType]float64{
	EmployerGovernment:   100,
	EmployerMNC:          80,
	EmployerSME:          60,
	EmployerStartup:      40,
	EmployerSelfEmployed: 20,
}

func EmployerTypeScore(e EmployerType) float64 {
	return employerPoints[ParseEmployerType(string(e))]
}

func JobTenureScore(years float64) float64 {
	switch {
	case years >= 10:
		return 100
	case years >= 5:
		return 70
	case years >= 3:
		return 50
	case years >= 1:
		return 20
	default:
		return 0
	}
}

// AgeScore returns AgeRejectSentinel below the policy minimum age.
func AgeScore(age int, p Policy) float64 {
	switch {
	case age < p.MinimumAge:
		return AgeRejectSentinel
	case age <= 25:
		return 80
	case age <= 30:
		return 100
	case age <= 40:
		return 60
	default:
		return 30
	}
}

func DependentsScore(n int) float64 {
	switch {
	case n <= 0:
		return 100
	case n <= 2:
		return 80
	case n <= 4:
		return 60
	default:
		return 40
	}
}

var residencePoints = map[ResidenceType]float64{
	ResidenceOwned:     100,
	ResidenceFamily:    80,
	ResidenceRented:    60,
	ResidenceTemporary: 40,
}

func ResidenceScore(r ResidenceType) float64 {
	return residencePoints[ParseResidenceType(string(r))]
}

// DebtToIncomeScore spreads outstanding debt over the tenure, adds the EMI and
// compares the monthly obligation with net income. Non-positive income or
// tenure scores 0 with a zero ratio.
func DebtToIncomeScore(netIncome, outstanding, emi float64, tenureMonths int) (float64, float64) {
	if netIncome <= 0 || tenureMonths <= 0 {
		return 0, 0
	}

	obligation := outstanding/float64(tenureMonths) + emi
	ratio := obligation / netIncome

	switch {
	case ratio <= 0.4:
		return 100, ratio
	case ratio <= 0.6:
		return 80, ratio
	case ratio <= 0.8:
		return 60, ratio
	case ratio <= 1.0:
		return 40, ratio
	default:
		return 20, ratio
	}
}

// FinancialFeasibilityScore measures how much of the asset price the planned
// instalments plus down payment cover.
func FinancialFeasibilityScore(emi float64, tenureMonths int, downPayment, assetPrice float64) float64 {
	if assetPrice <= 0 || tenureMonths <= 0 {
		return 0
	}
	coverage := (emi*float64(tenureMonths) + downPayment) / assetPrice
	return math.Min(coverage, 1) * 100
}

func ratioScore(value, target float64) float64 {
	if target <= 0 {
		return 0
	}
	return clamp(value/target*100, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
