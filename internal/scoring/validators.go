// internal/scoring/validators.go
package scoring

import (
	"fmt"
	"regexp"
	"strings"
)

// PhoneRule selects the accepted phone number length.
type PhoneRule string

const (
	// PhoneRuleRange accepts 11 or 12 digits.
	PhoneRuleRange PhoneRule = "range"
	// PhoneRuleStrict accepts exactly 11 digits.
	PhoneRuleStrict PhoneRule = "strict"
)

func ParsePhoneRule(s string) (PhoneRule, error) {
	switch PhoneRule(strings.ToLower(strings.TrimSpace(s))) {
	case "", PhoneRuleRange:
		return PhoneRuleRange, nil
	case PhoneRuleStrict:
		return PhoneRuleStrict, nil
	default:
		return "", fmt.Errorf("unknown phone rule %q", s)
	}
}

var (
	nationalIDRegex    = regexp.MustCompile(`^\d{5}-\d{7}-\d$`)
	licenseSuffixRegex = regexp.MustCompile(`^\d{3}$`)
)

// IsValidNationalID checks the XXXXX-XXXXXXX-X national identity card format.
func IsValidNationalID(s string) bool {
	return nationalIDRegex.MatchString(strings.TrimSpace(s))
}

func IsValidPhone(s string, rule PhoneRule) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	switch rule {
	case PhoneRuleStrict:
		return len(s) == 11
	default:
		return len(s) >= 11 && len(s) <= 12
	}
}

func IsValidLicenseSuffix(s string) bool {
	return licenseSuffixRegex.MatchString(strings.TrimSpace(s))
}

// LicenseNumber joins a valid national ID and a three digit suffix as
// "<id>#<suffix>". It returns "" when either part is malformed.
func LicenseNumber(nationalID, suffix string) string {
	if !IsValidNationalID(nationalID) || !IsValidLicenseSuffix(suffix) {
		return ""
	}
	return strings.TrimSpace(nationalID) + "#" + strings.TrimSpace(suffix)
}

// ValidateNationalID returns a *ValidationError for a malformed ID.
func ValidateNationalID(field, s string) error {
	if strings.TrimSpace(s) == "" {
		return &ValidationError{Field: field, Code: "MISSING_REQUIRED", Message: "national ID is required"}
	}
	if !IsValidNationalID(s) {
		return &ValidationError{Field: field, Code: "INVALID_FORMAT", Message: "national ID must match XXXXX-XXXXXXX-X"}
	}
	return nil
}

func ValidatePhone(field, s string, rule PhoneRule) error {
	if strings.TrimSpace(s) == "" {
		return &ValidationError{Field: field, Code: "MISSING_REQUIRED", Message: "phone number is required"}
	}
	if !IsValidPhone(s, rule) {
		msg := "phone number must be 11-12 digits"
		if rule == PhoneRuleStrict {
			msg = "phone number must be exactly 11 digits"
		}
		return &ValidationError{Field: field, Code: "INVALID_FORMAT", Message: msg}
	}
	return nil
}
