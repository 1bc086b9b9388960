package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const (
	CodeMissingRequired  = "MISSING_REQUIRED"
	CodeInvalidType      = "INVALID_TYPE"
	CodeInvalidFormat    = "INVALID_FORMAT"
	CodeInvalidEnumValue = "INVALID_ENUM_VALUE"
	CodeSchemaViolation  = "SCHEMA_VIOLATION"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Validator checks documents against one compiled JSON schema.
type Validator struct {
	schema *gojsonschema.Schema
}

func NewValidator(schema map[string]interface{}) (*Validator, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: compiled}, nil
}

// Validate reports schema violations as data. The error return is reserved
// for documents gojsonschema cannot load at all.
func (v *Validator) Validate(doc interface{}) (*ValidationResult, error) {
	res, err := v.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validate document: %w", err)
	}

	result := &ValidationResult{Valid: res.Valid()}
	for _, e := range res.Errors() {
		result.Errors = append(result.Errors, ValidationError{
			Field:   fieldOf(e),
			Message: e.Description(),
			Code:    codeOf(e.Type()),
		})
	}
	sort.SliceStable(result.Errors, func(i, j int) bool {
		return result.Errors[i].Field < result.Errors[j].Field
	})
	return result, nil
}

func fieldOf(e gojsonschema.ResultError) string {
	field := e.Field()
	if e.Type() == "required" {
		if prop, ok := e.Details()["property"].(string); ok {
			switch {
			case field == gojsonschema.STRING_CONTEXT_ROOT || field == "":
				return prop
			case field == prop || strings.HasSuffix(field, "."+prop):
				return field
			default:
				return field + "." + prop
			}
		}
	}
	return field
}

func codeOf(errType string) string {
	switch errType {
	case "required":
		return CodeMissingRequired
	case "invalid_type":
		return CodeInvalidType
	case "pattern", "format", "string_gte", "string_lte":
		return CodeInvalidFormat
	case "enum":
		return CodeInvalidEnumValue
	default:
		return CodeSchemaViolation
	}
}
