// internal/common/config/scoring.go
package config

import (
	"ev-finance-workers/internal/scoring"
)

// BuildPolicy resolves the named policy, applies overrides and validates the
// result. A *scoring.ConfigurationError here must stop the process.
func (s ScoringConfig) BuildPolicy() (scoring.Policy, error) {
	base, err := scoring.PolicyByName(s.Policy)
	if err != nil {
		return scoring.Policy{}, err
	}

	overrides := scoring.Overrides{
		Weights:          s.Weights,
		ApproveThreshold: s.ApproveThreshold,
		ReviewThreshold:  s.ReviewThreshold,
	}
	if gm := s.GenderMultiplier; gm.Enabled != nil {
		m := base.GenderMultiplier
		m.Enabled = *gm.Enabled
		if gm.Gender != "" {
			m.Gender = scoring.ParseGender(gm.Gender)
		}
		if gm.Factor != 0 {
			m.Factor = gm.Factor
		}
		overrides.GenderMultiplier = &m
	}

	p := base.WithOverrides(overrides)
	if err := p.Validate(); err != nil {
		return scoring.Policy{}, err
	}
	return p, nil
}

// BuildPhoneRule parses scoring.phone_rule.
func (s ScoringConfig) BuildPhoneRule() (scoring.PhoneRule, error) {
	return scoring.ParsePhoneRule(s.PhoneRule)
}
