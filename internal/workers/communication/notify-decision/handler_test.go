// internal/workers/communication/notify-decision/handler_test.go
package notifydecision

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"ev-finance-workers/internal/common/errors"
	"ev-finance-workers/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mocks
// ==========================

type mockSMS struct {
	mock.Mock
}

func (m *mockSMS) SendSMS(ctx context.Context, phoneNumber, message, senderID string) (string, error) {
	args := m.Called(ctx, phoneNumber, message, senderID)
	return args.String(0), args.Error(1)
}

type mockEmail struct {
	mock.Mock
}

func (m *mockEmail) SendTextEmail(ctx context.Context, from string, to []string, subject, body string) (string, error) {
	args := m.Called(ctx, from, to, subject, body)
	return args.String(0), args.Error(1)
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	cfg := LoadConfig()
	cfg.SenderID = "EVFIN"
	cfg.EmailEnabled = true
	cfg.EmailFrom = "noreply@evfinance.pk"
	cfg.EmailTo = []string{"underwriting@evfinance.pk"}
	return cfg
}

func createTestInput() *Input {
	return &Input{
		ApplicantInfo: Applicant{
			FirstName:   "Ayesha",
			LastName:    "Khan",
			CNIC:        "35202-1234567-1",
			PhoneNumber: "0300-1234567",
			City:        "Lahore",
		},
		Evaluation: Evaluation{
			EvaluationID:  "eval-001",
			FinalScore:    91.4,
			Decision:      "Approve",
			PolicyVersion: "standard",
		},
		ApplicantID: 42,
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_BothChannels(t *testing.T) {
	sms := new(mockSMS)
	email := new(mockEmail)

	sms.On("SendSMS", mock.Anything, "+923001234567", mock.MatchedBy(func(msg string) bool {
		return strings.Contains(msg, "approved")
	}), "EVFIN").Return("sms-1", nil)
	email.On("SendTextEmail", mock.Anything, "noreply@evfinance.pk", []string{"underwriting@evfinance.pk"},
		"Applicant Ayesha Khan: Approve", mock.MatchedBy(func(body string) bool {
			return strings.Contains(body, "Final score: 91.4") && strings.Contains(body, "Record ID: 42")
		})).Return("email-1", nil)

	handler := NewHandler(createTestConfig(), sms, email, logger.NewTestLogger(t))
	output, err := handler.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.True(t, output.SMSSent)
	assert.True(t, output.EmailSent)
	require.Len(t, output.Channels, 2)
	assert.Equal(t, "sms-1", output.Channels[0].MessageID)
	assert.Equal(t, "email-1", output.Channels[1].MessageID)
	sms.AssertExpectations(t)
	email.AssertExpectations(t)
}

func TestHandler_Execute_OneChannelFails(t *testing.T) {
	sms := new(mockSMS)
	email := new(mockEmail)

	sms.On("SendSMS", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", stderrors.New("throttled"))
	email.On("SendTextEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("email-1", nil)

	handler := NewHandler(createTestConfig(), sms, email, logger.NewTestLogger(t))
	output, err := handler.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.False(t, output.SMSSent)
	assert.True(t, output.EmailSent)
	assert.Equal(t, "throttled", output.Channels[0].Error)
}

func TestHandler_Execute_AllChannelsFail(t *testing.T) {
	sms := new(mockSMS)
	email := new(mockEmail)

	sms.On("SendSMS", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", stderrors.New("throttled"))
	email.On("SendTextEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", stderrors.New("not verified"))

	handler := NewHandler(createTestConfig(), sms, email, logger.NewTestLogger(t))
	_, err := handler.Execute(context.Background(), createTestInput())

	var stdErr *errors.StandardError
	require.True(t, stderrors.As(err, &stdErr))
	assert.Equal(t, errors.ErrCodeNotificationSendFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestHandler_Execute_DisabledChannels(t *testing.T) {
	cfg := createTestConfig()
	cfg.SMSEnabled = false
	cfg.EmailEnabled = false

	sms := new(mockSMS)
	handler := NewHandler(cfg, sms, nil, logger.NewTestLogger(t))
	output, err := handler.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.Empty(t, output.Channels)
	sms.AssertNotCalled(t, "SendSMS", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSMSBody_PerDecision(t *testing.T) {
	input := createTestInput()
	assert.Contains(t, smsBody(input), "approved")

	input.Evaluation.Decision = "Review"
	assert.Contains(t, smsBody(input), "under review")

	input.Evaluation.Decision = "Reject"
	assert.Contains(t, smsBody(input), "unable to approve")
}

func TestNormalizeE164(t *testing.T) {
	tests := []struct {
		in       string
		expected string
		wantErr  bool
	}{
		{"03001234567", "+923001234567", false},
		{"0300-1234567", "+923001234567", false},
		{"923001234567", "+923001234567", false},
		{"+923001234567", "+923001234567", false},
		{"00923001234567", "+923001234567", false},
		{"3001234567", "+923001234567", false},
		{"", "", true},
		{"0300abc4567", "", true},
		{"012", "", true},
	}

	for _, tt := range tests {
		got, err := NormalizeE164(tt.in, "92")
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.expected, got, tt.in)
	}
}
