package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var applicantSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"firstName", "cnic"},
	"properties": map[string]interface{}{
		"firstName": map[string]interface{}{"type": "string"},
		"cnic":      map[string]interface{}{"type": "string", "pattern": `^\d{5}-\d{7}-\d$`},
		"gender":    map[string]interface{}{"type": "string", "enum": []interface{}{"M", "F"}},
		"dependents": map[string]interface{}{
			"type":    "integer",
			"minimum": 0,
		},
	},
}

func TestValidator_Valid(t *testing.T) {
	v, err := NewValidator(applicantSchema)
	require.NoError(t, err)

	res, err := v.Validate(map[string]interface{}{
		"firstName": "Ayesha",
		"cnic":      "35202-1234567-1",
		"gender":    "F",
	})
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
}

func TestValidator_ErrorCodes(t *testing.T) {
	v, err := NewValidator(applicantSchema)
	require.NoError(t, err)

	tests := []struct {
		name  string
		doc   map[string]interface{}
		field string
		code  string
	}{
		{"missing required", map[string]interface{}{"cnic": "35202-1234567-1"}, "firstName", CodeMissingRequired},
		{"wrong type", map[string]interface{}{"firstName": 7, "cnic": "35202-1234567-1"}, "firstName", CodeInvalidType},
		{"pattern", map[string]interface{}{"firstName": "A", "cnic": "123"}, "cnic", CodeInvalidFormat},
		{"enum", map[string]interface{}{"firstName": "A", "cnic": "35202-1234567-1", "gender": "X"}, "gender", CodeInvalidEnumValue},
		{"minimum", map[string]interface{}{"firstName": "A", "cnic": "35202-1234567-1", "dependents": -1}, "dependents", CodeSchemaViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := v.Validate(tt.doc)
			require.NoError(t, err)
			assert.False(t, res.Valid)
			require.Len(t, res.Errors, 1)
			assert.Equal(t, tt.field, res.Errors[0].Field)
			assert.Equal(t, tt.code, res.Errors[0].Code)
		})
	}
}

func TestNewValidator_InvalidSchema(t *testing.T) {
	_, err := NewValidator(map[string]interface{}{"type": 42})
	assert.Error(t, err)
}
