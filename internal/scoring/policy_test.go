// internal/scoring/policy_test.go
package scoring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinPolicies_Validate(t *testing.T) {
	for _, p := range []Policy{StandardPolicy(), FinancingPolicy()} {
		t.Run(p.Version, func(t *testing.T) {
			require.NoError(t, p.Validate())
			assert.InDelta(t, 1.0, p.WeightSum(), WeightTolerance)
		})
	}

	_, hasFeasibility := StandardPolicy().Weights[CategoryFinancialFeasibility]
	assert.False(t, hasFeasibility)
	assert.Equal(t, 0.05, FinancingPolicy().Weights[CategoryFinancialFeasibility])
}

func TestPolicyByName(t *testing.T) {
	p, err := PolicyByName("")
	require.NoError(t, err)
	assert.Equal(t, PolicyStandard, p.Version)

	p, err = PolicyByName(" Financing ")
	require.NoError(t, err)
	assert.Equal(t, PolicyFinancing, p.Version)

	_, err = PolicyByName("aggressive")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestPolicy_WithOverrides(t *testing.T) {
	base := StandardPolicy()
	approve := 80.0
	review := 55.0

	out := base.WithOverrides(Overrides{
		Weights: map[string]float64{
			"Income":  0.5,
			"balance": 0.5,
		},
		ApproveThreshold: &approve,
		ReviewThreshold:  &review,
		GenderMultiplier: &GenderMultiplier{Enabled: false},
	})

	assert.Len(t, out.Weights, 2)
	assert.Equal(t, 0.5, out.Weights[CategoryIncome])
	assert.Equal(t, 80.0, out.Thresholds.Approve)
	assert.Equal(t, 55.0, out.Thresholds.Review)
	assert.False(t, out.GenderMultiplier.Enabled)
	require.NoError(t, out.Validate())

	// base is untouched
	assert.Len(t, base.Weights, 9)
	assert.Equal(t, 75.0, base.Thresholds.Approve)
	assert.True(t, base.GenderMultiplier.Enabled)
}

func TestPolicy_WithOverrides_EmptyKeepsWeights(t *testing.T) {
	out := FinancingPolicy().WithOverrides(Overrides{})
	assert.Equal(t, FinancingPolicy().Weights, out.Weights)
}

func TestPolicy_Validate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Policy)
		problem string
	}{
		{
			name:    "weights do not sum to one",
			mutate:  func(p *Policy) { p.Weights[CategoryFinancialFeasibility] = 0.05 },
			problem: "weights sum to 1.050000",
		},
		{
			name:    "no weights",
			mutate:  func(p *Policy) { p.Weights = nil },
			problem: "no weights configured",
		},
		{
			name: "unknown category",
			mutate: func(p *Policy) {
				delete(p.Weights, CategoryResidence)
				p.Weights["zodiac"] = 0.05
			},
			problem: `unknown weight category "zodiac"`,
		},
		{
			name: "negative weight",
			mutate: func(p *Policy) {
				p.Weights[CategoryResidence] = -0.05
				p.Weights[CategoryIncome] = 0.50
			},
			problem: `weight "residence" is negative`,
		},
		{
			name:    "inverted thresholds",
			mutate:  func(p *Policy) { p.Thresholds = Thresholds{Approve: 50, Review: 70} },
			problem: "review threshold is above approve threshold",
		},
		{
			name:    "threshold out of range",
			mutate:  func(p *Policy) { p.Thresholds.Approve = 120 },
			problem: "thresholds must lie within 0-100",
		},
		{
			name:    "zero multiple",
			mutate:  func(p *Policy) { p.ApplicantBalanceMultiple = 0 },
			problem: "applicant balance multiple must be positive",
		},
		{
			name:    "zero gender factor",
			mutate:  func(p *Policy) { p.GenderMultiplier.Factor = 0 },
			problem: "gender multiplier factor must be positive",
		},
		{
			name:    "unordered tiers",
			mutate:  func(p *Policy) { p.IncomeTiers[1].UpTo = 10 },
			problem: "income tiers must be strictly increasing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := StandardPolicy()
			tt.mutate(&p)

			err := p.Validate()
			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Contains(t, cfgErr.Problems, tt.problem)
			assert.Equal(t, PolicyStandard, cfgErr.Policy)
		})
	}
}
