// internal/scoring/errors.go
package scoring

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation    = errors.New("VALIDATION_FAILED")
	ErrDomainInput   = errors.New("DOMAIN_INPUT_INVALID")
	ErrConfiguration = errors.New("SCORING_CONFIGURATION_INVALID")
)

// ValidationError reports a malformed identifier or contact field. The caller
// re-prompts for the field.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// DomainInputError reports a numeric input the engine refuses to score, such
// as a negative balance or a zero tenure used as a divisor.
type DomainInputError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *DomainInputError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

func (e *DomainInputError) Unwrap() error { return ErrDomainInput }

// ConfigurationError is fatal at startup: the engine never evaluates with a
// policy that failed validation.
type ConfigurationError struct {
	Policy   string
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("scoring policy %q invalid: %s", e.Policy, strings.Join(e.Problems, "; "))
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }
