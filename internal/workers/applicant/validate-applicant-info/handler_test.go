// internal/workers/applicant/validate-applicant-info/handler_test.go
package validateapplicantinfo

import (
	"context"
	"testing"

	"ev-finance-workers/internal/common/logger"
	"ev-finance-workers/internal/common/validation"
	"ev-finance-workers/internal/models"
	"ev-finance-workers/internal/scoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestInput() *Input {
	return &Input{
		ApplicantInfo: models.ApplicantInfo{
			FirstName:           "Ayesha",
			LastName:            "Khan",
			CNIC:                "35202-1234567-1",
			LicenseSuffix:       "123",
			GuarantorsAvailable: "Yes",
			FemaleGuarantor:     "Yes",
			StreetAddress:       "House 12, Street 4",
			AreaAddress:         "Model Town",
			City:                "Lahore",
			StateProvince:       "Punjab",
			Country:             "Pakistan",
			PhoneNumber:         "03001234567",
			Gender:              "F",
			ElectricityBill:     "Yes",
		},
	}
}

func newTestHandler(t *testing.T, rule scoring.PhoneRule) *Handler {
	cfg := LoadConfig()
	cfg.PhoneRule = rule
	h, err := NewHandler(cfg, logger.NewTestLogger(t))
	require.NoError(t, err)
	return h
}

func codesByField(errs []validation.ValidationError) map[string]string {
	out := make(map[string]string, len(errs))
	for _, e := range errs {
		out[e.Field] = e.Code
	}
	return out
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Valid(t *testing.T) {
	h := newTestHandler(t, scoring.PhoneRuleRange)

	output, err := h.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.True(t, output.IsValid)
	assert.True(t, output.ApplicantValid)
	assert.Equal(t, "35202-1234567-1#123", output.LicenseNumber)
	assert.Empty(t, output.ValidationErrors)
	assert.Empty(t, output.RejectionReason)
}

func TestHandler_Execute_FormatErrors(t *testing.T) {
	h := newTestHandler(t, scoring.PhoneRuleRange)

	input := createTestInput()
	input.ApplicantInfo.CNIC = "3520212345671"
	input.ApplicantInfo.LicenseSuffix = "12a"
	input.ApplicantInfo.PhoneNumber = "0300-123"
	input.ApplicantInfo.Gender = "X"
	input.ApplicantInfo.City = " "

	output, err := h.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.False(t, output.IsValid)
	assert.Empty(t, output.LicenseNumber)
	assert.Equal(t, map[string]string{
		"cnic":          validation.CodeInvalidFormat,
		"licenseSuffix": validation.CodeInvalidFormat,
		"phoneNumber":   validation.CodeInvalidFormat,
		"gender":        validation.CodeInvalidEnumValue,
		"city":          validation.CodeMissingRequired,
	}, codesByField(output.ValidationErrors))
}

func TestHandler_Execute_RejectionReasons(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(info *models.ApplicantInfo)
		reason string
	}{
		{"no guarantor", func(i *models.ApplicantInfo) { i.GuarantorsAvailable = "No"; i.FemaleGuarantor = "" }, ReasonNoGuarantor},
		{"no female guarantor", func(i *models.ApplicantInfo) { i.FemaleGuarantor = "No" }, ReasonNoFemaleGuarantor},
		{"no electricity bill", func(i *models.ApplicantInfo) { i.ElectricityBill = "No" }, ReasonNoElectricityBill},
	}

	h := newTestHandler(t, scoring.PhoneRuleRange)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := createTestInput()
			tt.mutate(&input.ApplicantInfo)

			output, err := h.Execute(context.Background(), input)

			require.NoError(t, err)
			assert.False(t, output.IsValid)
			assert.Equal(t, tt.reason, output.RejectionReason)
			assert.Empty(t, output.ValidationErrors)
			assert.NotEmpty(t, output.LicenseNumber)
		})
	}
}

func TestHandler_Execute_PhoneRule(t *testing.T) {
	input := createTestInput()
	input.ApplicantInfo.PhoneNumber = "923001234567"

	output, err := newTestHandler(t, scoring.PhoneRuleRange).Execute(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, output.IsValid)

	output, err = newTestHandler(t, scoring.PhoneRuleStrict).Execute(context.Background(), input)
	require.NoError(t, err)
	assert.False(t, output.IsValid)
	assert.Equal(t, validation.CodeInvalidFormat, codesByField(output.ValidationErrors)["phoneNumber"])
}

func TestHandler_SchemaReportsWrongTypes(t *testing.T) {
	h := newTestHandler(t, scoring.PhoneRuleRange)

	output, err := h.schemaOnly(map[string]interface{}{
		"applicantInfo": map[string]interface{}{"firstName": 42},
	}, assert.AnError)

	require.NoError(t, err)
	assert.False(t, output.IsValid)
	codes := codesByField(output.ValidationErrors)
	assert.Equal(t, validation.CodeInvalidType, codes["firstName"])
	assert.Equal(t, validation.CodeMissingRequired, codes["cnic"])
}

func TestNewHandler_CustomSchema(t *testing.T) {
	cfg := LoadConfig()
	cfg.InputSchema = map[string]interface{}{"type": "nonsense"}

	_, err := NewHandler(cfg, logger.NewNoOpLogger())
	assert.Error(t, err)
}
