// internal/workers/communication/notify-decision/handler.go
package notifydecision

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ev-finance-workers/internal/common/camunda"
	"ev-finance-workers/internal/common/errors"
	"ev-finance-workers/internal/common/logger"
	"ev-finance-workers/internal/common/metrics"
	"ev-finance-workers/internal/scoring"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "notify-decision"
)

type SMSSender interface {
	SendSMS(ctx context.Context, phoneNumber, message, senderID string) (string, error)
}

type EmailSender interface {
	SendTextEmail(ctx context.Context, from string, to []string, subject, body string) (string, error)
}

type Handler struct {
	config       *Config
	sms          SMSSender
	email        EmailSender
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

// NewHandler treats a nil sender as a disabled channel.
func NewHandler(config *Config, sms SMSSender, email EmailSender, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		sms:          sms,
		email:        email,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	done := metrics.TrackJob(TaskType)

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.Key,
		"processInstanceKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		done(string(errors.ErrCodeParseError))
		h.errorHandler.HandleJobError(ctx, client, job, errors.NewParseError(err))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		done(string(errors.Normalize(err).Code))
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(client, job, output)
	done("")
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	output := &Output{Channels: []ChannelResult{}}
	attempted := 0
	var lastErr error

	if h.config.SMSEnabled && h.sms != nil {
		attempted++
		result := h.sendSMS(ctx, input)
		output.SMSSent = result.Sent
		output.Channels = append(output.Channels, result)
		if !result.Sent {
			lastErr = fmt.Errorf("%s: %s", ChannelSMS, result.Error)
		}
	}

	if h.config.EmailEnabled && h.email != nil {
		attempted++
		result := h.sendEmail(ctx, input)
		output.EmailSent = result.Sent
		output.Channels = append(output.Channels, result)
		if !result.Sent {
			lastErr = fmt.Errorf("%s: %s", ChannelEmail, result.Error)
		}
	}

	if attempted > 0 && !output.SMSSent && !output.EmailSent {
		return nil, errors.NewNotificationSendFailedError("decision", lastErr)
	}

	h.logger.Info("decision notification processed", map[string]interface{}{
		"decision":  input.Evaluation.Decision,
		"smsSent":   output.SMSSent,
		"emailSent": output.EmailSent,
	})
	return output, nil
}

func (h *Handler) sendSMS(ctx context.Context, input *Input) ChannelResult {
	result := ChannelResult{Channel: ChannelSMS}

	phone, err := NormalizeE164(input.ApplicantInfo.PhoneNumber, h.config.CountryCode)
	if err != nil {
		result.Error = err.Error()
		h.logger.Warn("sms skipped", map[string]interface{}{"error": err})
		return result
	}

	id, err := h.sms.SendSMS(ctx, phone, smsBody(input), h.config.SenderID)
	if err != nil {
		result.Error = err.Error()
		h.logger.Warn("sms delivery failed", map[string]interface{}{"error": err})
		return result
	}
	result.Sent = true
	result.MessageID = id
	return result
}

func (h *Handler) sendEmail(ctx context.Context, input *Input) ChannelResult {
	result := ChannelResult{Channel: ChannelEmail}

	subject := fmt.Sprintf("Applicant %s: %s", input.ApplicantInfo.fullName(), input.Evaluation.Decision)
	id, err := h.email.SendTextEmail(ctx, h.config.EmailFrom, h.config.EmailTo, subject, emailBody(input))
	if err != nil {
		result.Error = err.Error()
		h.logger.Warn("email delivery failed", map[string]interface{}{"error": err})
		return result
	}
	result.Sent = true
	result.MessageID = id
	return result
}

func (a Applicant) fullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

func smsBody(input *Input) string {
	name := input.ApplicantInfo.FirstName
	if name == "" {
		name = "Applicant"
	}
	switch scoring.Decision(input.Evaluation.Decision) {
	case scoring.DecisionApprove:
		return fmt.Sprintf("Dear %s, your EV instalment application has been approved. Our team will contact you shortly.", name)
	case scoring.DecisionReview:
		return fmt.Sprintf("Dear %s, your EV instalment application is under review. We will update you soon.", name)
	default:
		return fmt.Sprintf("Dear %s, we are unable to approve your EV instalment application at this time.", name)
	}
}

func emailBody(input *Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Applicant: %s\n", input.ApplicantInfo.fullName())
	fmt.Fprintf(&b, "CNIC: %s\n", input.ApplicantInfo.CNIC)
	fmt.Fprintf(&b, "City: %s\n", input.ApplicantInfo.City)
	if input.ApplicantID > 0 {
		fmt.Fprintf(&b, "Record ID: %d\n", input.ApplicantID)
	}
	fmt.Fprintf(&b, "Decision: %s\n", input.Evaluation.Decision)
	fmt.Fprintf(&b, "Final score: %.1f\n", input.Evaluation.FinalScore)
	fmt.Fprintf(&b, "Policy: %s\n", input.Evaluation.PolicyVersion)
	if input.Evaluation.Reason != "" {
		fmt.Fprintf(&b, "Reason: %s\n", input.Evaluation.Reason)
	}
	fmt.Fprintf(&b, "Evaluation ID: %s\n", input.Evaluation.EvaluationID)
	return b.String()
}

// NormalizeE164 turns a local number (0300...) or a national number with the
// country code (92300...) into +<cc><subscriber>.
func NormalizeE164(phone, countryCode string) (string, error) {
	p := strings.TrimSpace(phone)
	p = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(p)
	if p == "" {
		return "", fmt.Errorf("phone number is empty")
	}

	hasPlus := strings.HasPrefix(p, "+")
	p = strings.TrimPrefix(p, "+")
	for _, r := range p {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("phone number %q contains non-digits", phone)
		}
	}

	switch {
	case hasPlus:
	case strings.HasPrefix(p, "00"):
		p = p[2:]
	case strings.HasPrefix(p, "0"):
		p = countryCode + p[1:]
	case !strings.HasPrefix(p, countryCode):
		p = countryCode + p
	}

	if len(p) < 8 || len(p) > 15 {
		return "", fmt.Errorf("phone number %q is not a valid E.164 number", phone)
	}
	return "+" + p, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	err = camunda.Retry(context.Background(), camunda.DefaultRetryConfig, "complete job", func(ctx context.Context) error {
		_, sendErr := cmd.Send(ctx)
		return sendErr
	})
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	} else {
		h.logger.Info("job completed successfully", map[string]interface{}{
			"jobKey": job.Key,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
