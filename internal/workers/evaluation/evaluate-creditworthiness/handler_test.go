// internal/workers/evaluation/evaluate-creditworthiness/handler_test.go
package evaluatecreditworthiness

import (
	"context"
	stderrors "errors"
	"testing"

	"ev-finance-workers/internal/common/errors"
	"ev-finance-workers/internal/common/logger"
	"ev-finance-workers/internal/common/observability"
	"ev-finance-workers/internal/scoring"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestInput() *Input {
	return &Input{
		ApplicantValid: true,
		ApplicantInput: scoring.ApplicantInput{
			NetIncome:               160000,
			Gender:                  "female",
			EMI:                     10000,
			ApplicantBalance:        30000,
			SalaryConsistencyMonths: 6,
			EmployerType:            scoring.EmployerGovernment,
			JobTenureYears:          10,
			Age:                     28,
			Dependents:              0,
			Residence:               scoring.ResidenceOwned,
			TenureMonths:            12,
		},
	}
}

func newTestHandler(t *testing.T, obs *observability.Observability) *Handler {
	engine, err := scoring.NewEngine(scoring.StandardPolicy())
	require.NoError(t, err)
	return NewHandler(LoadConfig(), engine, obs, logger.NewTestLogger(t))
}

func requireCode(t *testing.T, err error, code errors.ErrorCode) {
	t.Helper()
	var stdErr *errors.StandardError
	require.True(t, stderrors.As(err, &stdErr), "expected StandardError, got %v", err)
	assert.Equal(t, code, stdErr.Code)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Approve(t *testing.T) {
	h := newTestHandler(t, nil)

	output, err := h.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	_, err = uuid.Parse(output.EvaluationID)
	assert.NoError(t, err)
	assert.Equal(t, "Approve", output.Decision)
	assert.Equal(t, 100.0, output.FinalScore)
	assert.Equal(t, "Applicant", output.BalanceSource)
	assert.Equal(t, "standard", output.PolicyVersion)
	assert.True(t, output.CanPersist)
	assert.False(t, output.HardReject)
	assert.InDelta(t, 0.0625, output.DebtToIncomeRatio, 1e-9)
	assert.Len(t, output.SubScores, 9)
	assert.Equal(t, 100.0, output.SubScores["income"])
}

func TestHandler_Execute_Underage(t *testing.T) {
	h := newTestHandler(t, nil)

	input := createTestInput()
	input.ApplicantInput.Age = 17

	output, err := h.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, "Reject", output.Decision)
	assert.True(t, output.HardReject)
	assert.Equal(t, 0.0, output.FinalScore)
	assert.False(t, output.CanPersist)
	assert.NotEmpty(t, output.Reason)
}

func TestHandler_Execute_ApplicantNotValid(t *testing.T) {
	h := newTestHandler(t, nil)

	input := createTestInput()
	input.ApplicantValid = false

	_, err := h.Execute(context.Background(), input)

	requireCode(t, err, errors.ErrCodeApplicantInfoIncomplete)
}

func TestHandler_Execute_NoEngine(t *testing.T) {
	h := NewHandler(LoadConfig(), nil, nil, logger.NewNoOpLogger())

	_, err := h.Execute(context.Background(), createTestInput())

	requireCode(t, err, errors.ErrCodeScoringConfigurationInvalid)
}

func TestHandler_Execute_DomainInputInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *scoring.ApplicantInput)
		field  string
	}{
		{"zero EMI", func(in *scoring.ApplicantInput) { in.EMI = 0 }, "emi"},
		{"zero tenure", func(in *scoring.ApplicantInput) { in.TenureMonths = 0 }, "tenureMonths"},
		{"negative income", func(in *scoring.ApplicantInput) { in.NetIncome = -1 }, "netIncome"},
	}

	h := newTestHandler(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := createTestInput()
			tt.mutate(&input.ApplicantInput)

			_, err := h.Execute(context.Background(), input)

			requireCode(t, err, errors.ErrCodeDomainInputInvalid)
			var stdErr *errors.StandardError
			require.True(t, stderrors.As(err, &stdErr))
			assert.Equal(t, tt.field, stdErr.Metadata["field"])
			assert.False(t, stdErr.Retryable)
		})
	}
}

func TestHandler_Execute_RecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	obs := observability.New("test", prometheus.NewRegistry(), tp)
	defer obs.Shutdown()

	h := newTestHandler(t, obs)
	_, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "scoring.evaluate", spans[0].Name())

	attrs := map[string]interface{}{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, "Approve", attrs["credit.decision"])
}
