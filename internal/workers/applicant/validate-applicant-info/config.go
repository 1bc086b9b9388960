// internal/workers/applicant/validate-applicant-info/config.go
package validateapplicantinfo

import (
	"time"

	"ev-finance-workers/internal/scoring"
)

type Config struct {
	Timeout   time.Duration
	PhoneRule scoring.PhoneRule
	// InputSchema overrides DefaultInputSchema, usually with the registry copy.
	InputSchema map[string]interface{}
}

func LoadConfig() *Config {
	return &Config{
		Timeout:   5 * time.Second,
		PhoneRule: scoring.PhoneRuleRange,
	}
}
