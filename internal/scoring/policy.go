// internal/scoring/policy.go
package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

const (
	PolicyStandard  = "standard"
	PolicyFinancing = "financing"

	// WeightTolerance bounds the allowed drift of the weight sum from 1.0.
	WeightTolerance = 1e-6
)

// IncomeTier awards Points to incomes strictly below UpTo.
type IncomeTier struct {
	UpTo   float64 `json:"upTo"`
	Points float64 `json:"points"`
}

// GenderMultiplier scales the income sub-score for one gender. It is a
// fairness-sensitive business rule; adopters enable or disable it explicitly.
type GenderMultiplier struct {
	Enabled bool    `json:"enabled"`
	Gender  Gender  `json:"gender"`
	Factor  float64 `json:"factor"`
}

type Thresholds struct {
	Approve float64 `json:"approve"`
	Review  float64 `json:"review"`
}

// Policy is one versioned scoring variant.
type Policy struct {
	Version                  string               `json:"version"`
	IncomeTiers              []IncomeTier         `json:"incomeTiers"`
	IncomeTopPoints          float64              `json:"incomeTopPoints"`
	GenderMultiplier         GenderMultiplier     `json:"genderMultiplier"`
	ApplicantBalanceMultiple float64              `json:"applicantBalanceMultiple"`
	GuarantorBalanceMultiple float64              `json:"guarantorBalanceMultiple"`
	SalaryConsistencyMonths  int                  `json:"salaryConsistencyMonths"`
	MinimumAge               int                  `json:"minimumAge"`
	Weights                  map[Category]float64 `json:"weights"`
	Thresholds               Thresholds           `json:"thresholds"`
}

func defaultIncomeTiers() []IncomeTier {
	return []IncomeTier{
		{UpTo: 50000, Points: 0},
		{UpTo: 70000, Points: 20},
		{UpTo: 90000, Points: 35},
		{UpTo: 100000, Points: 50},
		{UpTo: 120000, Points: 60},
		{UpTo: 150000, Points: 80},
	}
}

func basePolicy(version string) Policy {
	return Policy{
		Version:         version,
		IncomeTiers:     defaultIncomeTiers(),
		IncomeTopPoints: 100,
		GenderMultiplier: GenderMultiplier{
			Enabled: true,
			Gender:  GenderFemale,
			Factor:  1.1,
		},
		ApplicantBalanceMultiple: 3,
		GuarantorBalanceMultiple: 6,
		SalaryConsistencyMonths:  6,
		MinimumAge:               18,
		Thresholds:               Thresholds{Approve: 75, Review: 60},
	}
}

// StandardPolicy scores nine categories without feasibility.
func StandardPolicy() Policy {
	p := basePolicy(PolicyStandard)
	p.Weights = map[Category]float64{
		CategoryIncome:            0.40,
		CategoryBalance:           0.30,
		CategorySalaryConsistency: 0.04,
		CategoryEmployerType:      0.04,
		CategoryJobTenure:         0.04,
		CategoryAge:               0.04,
		CategoryDependents:        0.04,
		CategoryResidence:         0.05,
		CategoryDebtToIncome:      0.05,
	}
	return p
}

// FinancingPolicy adds the financial feasibility category for financed assets.
func FinancingPolicy() Policy {
	p := basePolicy(PolicyFinancing)
	p.Weights = map[Category]float64{
		CategoryIncome:               0.35,
		CategoryBalance:              0.30,
		CategorySalaryConsistency:    0.04,
		CategoryEmployerType:         0.04,
		CategoryJobTenure:            0.04,
		CategoryAge:                  0.04,
		CategoryDependents:           0.04,
		CategoryResidence:            0.05,
		CategoryDebtToIncome:         0.05,
		CategoryFinancialFeasibility: 0.05,
	}
	return p
}

// PolicyByName returns a fresh copy of a built-in policy.
func PolicyByName(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicyStandard:
		return StandardPolicy(), nil
	case PolicyFinancing:
		return FinancingPolicy(), nil
	default:
		return Policy{}, &ConfigurationError{
			Policy:   name,
			Problems: []string{fmt.Sprintf("unknown policy %q (want %s or %s)", name, PolicyStandard, PolicyFinancing)},
		}
	}
}

// Overrides carries configuration values layered onto a built-in policy.
// Nil fields keep the policy value.
type Overrides struct {
	Weights          map[string]float64
	ApproveThreshold *float64
	ReviewThreshold  *float64
	GenderMultiplier *GenderMultiplier
}

// WithOverrides returns a copy of p with o applied. A non-empty weight map
// replaces the policy weights entirely so that the sum check stays meaningful.
func (p Policy) WithOverrides(o Overrides) Policy {
	out := p.clone()
	if len(o.Weights) > 0 {
		out.Weights = make(map[Category]float64, len(o.Weights))
		for k, v := range o.Weights {
			out.Weights[Category(strings.ToLower(strings.TrimSpace(k)))] = v
		}
	}
	if o.ApproveThreshold != nil {
		out.Thresholds.Approve = *o.ApproveThreshold
	}
	if o.ReviewThreshold != nil {
		out.Thresholds.Review = *o.ReviewThreshold
	}
	if o.GenderMultiplier != nil {
		out.GenderMultiplier = *o.GenderMultiplier
	}
	return out
}

func (p Policy) clone() Policy {
	out := p
	out.IncomeTiers = append([]IncomeTier(nil), p.IncomeTiers...)
	out.Weights = make(map[Category]float64, len(p.Weights))
	for k, v := range p.Weights {
		out.Weights[k] = v
	}
	return out
}

// WeightSum adds every configured weight.
func (p Policy) WeightSum() float64 {
	sum := 0.0
	for _, w := range p.Weights {
		sum += w
	}
	return sum
}

// Validate checks the policy rules the engine relies on.
func (p Policy) Validate() error {
	var problems []string

	if len(p.Weights) == 0 {
		problems = append(problems, "no weights configured")
	}

	keys := make([]string, 0, len(p.Weights))
	for c := range p.Weights {
		keys = append(keys, string(c))
	}
	sort.Strings(keys)
	for _, k := range keys {
		c := Category(k)
		if !isKnownCategory(c) {
			problems = append(problems, fmt.Sprintf("unknown weight category %q", k))
		}
		if p.Weights[c] < 0 {
			problems = append(problems, fmt.Sprintf("weight %q is negative", k))
		}
	}

	if sum := p.WeightSum(); len(p.Weights) > 0 && math.Abs(sum-1.0) > WeightTolerance {
		problems = append(problems, fmt.Sprintf("weights sum to %.6f, want 1.0", sum))
	}

	if p.Thresholds.Review > p.Thresholds.Approve {
		problems = append(problems, "review threshold is above approve threshold")
	}
	if p.Thresholds.Approve > 100 || p.Thresholds.Review < 0 {
		problems = append(problems, "thresholds must lie within 0-100")
	}

	if p.ApplicantBalanceMultiple <= 0 {
		problems = append(problems, "applicant balance multiple must be positive")
	}
	if p.GuarantorBalanceMultiple <= 0 {
		problems = append(problems, "guarantor balance multiple must be positive")
	}
	if p.SalaryConsistencyMonths <= 0 {
		problems = append(problems, "salary consistency window must be positive")
	}
	if p.GenderMultiplier.Enabled && p.GenderMultiplier.Factor <= 0 {
		problems = append(problems, "gender multiplier factor must be positive")
	}

	for i := 1; i < len(p.IncomeTiers); i++ {
		prev, cur := p.IncomeTiers[i-1], p.IncomeTiers[i]
		if cur.UpTo <= prev.UpTo {
			problems = append(problems, "income tiers must be strictly increasing")
			break
		}
		if cur.Points < prev.Points {
			problems = append(problems, "income tier points must not decrease")
			break
		}
	}
	if n := len(p.IncomeTiers); n > 0 && p.IncomeTopPoints < p.IncomeTiers[n-1].Points {
		problems = append(problems, "income top points below last tier")
	}

	if len(problems) > 0 {
		return &ConfigurationError{Policy: p.Version, Problems: problems}
	}
	return nil
}
