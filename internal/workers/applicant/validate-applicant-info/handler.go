// internal/workers/applicant/validate-applicant-info/handler.go
package validateapplicantinfo

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"ev-finance-workers/internal/common/camunda"
	"ev-finance-workers/internal/common/errors"
	"ev-finance-workers/internal/common/logger"
	"ev-finance-workers/internal/common/metrics"
	"ev-finance-workers/internal/common/validation"
	"ev-finance-workers/internal/models"
	"ev-finance-workers/internal/scoring"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "validate-applicant-info"
)

const (
	ReasonNoGuarantor       = "No guarantor available"
	ReasonNoFemaleGuarantor = "At least one female guarantor is required"
	ReasonNoElectricityBill = "Electricity bill not available"
)

type Handler struct {
	config       *Config
	validator    *validation.Validator
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, log logger.Logger) (*Handler, error) {
	schema := config.InputSchema
	if len(schema) == 0 {
		schema = DefaultInputSchema
	}
	validator, err := validation.NewValidator(schema)
	if err != nil {
		return nil, fmt.Errorf("%s input schema: %w", TaskType, err)
	}

	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		validator:    validator,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	done := metrics.TrackJob(TaskType)

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.Key,
		"processInstanceKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var vars map[string]interface{}
	if err := json.Unmarshal([]byte(job.Variables), &vars); err != nil {
		done(string(errors.ErrCodeParseError))
		h.errorHandler.HandleJobError(ctx, client, job, errors.NewParseError(err))
		return
	}

	var (
		output *Output
		err    error
		input  Input
	)
	if parseErr := json.Unmarshal([]byte(job.Variables), &input); parseErr != nil {
		// Wrongly typed fields are reported by the schema check alone.
		output, err = h.schemaOnly(vars, parseErr)
	} else {
		output, err = h.validate(vars, &input)
	}
	if err != nil {
		done(string(errors.Normalize(err).Code))
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(client, job, output)
	done("")
}

// Execute checks a typed input. Absent JSON keys cannot be told apart from
// empty strings here, so missing fields surface from the field rules.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	raw, err := json.Marshal(input)
	if err != nil {
		return nil, errors.NewParseError(err)
	}
	var vars map[string]interface{}
	if err := json.Unmarshal(raw, &vars); err != nil {
		return nil, errors.NewParseError(err)
	}
	return h.validate(vars, input)
}

func (h *Handler) validate(vars map[string]interface{}, input *Input) (*Output, error) {
	res, err := h.validator.Validate(vars)
	if err != nil {
		return nil, errors.NewApplicantValidationFailedError(err.Error())
	}

	seen := make(map[string]bool)
	var problems []validation.ValidationError
	for _, e := range res.Errors {
		e.Field = strings.TrimPrefix(e.Field, "applicantInfo.")
		seen[e.Field] = true
		problems = append(problems, e)
	}

	for _, e := range fieldRules(input.ApplicantInfo, h.config.PhoneRule) {
		if !seen[e.Field] {
			seen[e.Field] = true
			problems = append(problems, e)
		}
	}

	info := input.ApplicantInfo
	reason := rejectionReason(info)
	licenseNumber := scoring.LicenseNumber(info.CNIC, info.LicenseSuffix)
	valid := len(problems) == 0 && reason == ""

	output := &Output{
		IsValid:          valid,
		ApplicantValid:   valid,
		LicenseNumber:    licenseNumber,
		ValidationErrors: problems,
		RejectionReason:  reason,
	}
	if output.ValidationErrors == nil {
		output.ValidationErrors = []validation.ValidationError{}
	}

	h.logger.Info("applicant info validated", map[string]interface{}{
		"isValid":         valid,
		"errorCount":      len(problems),
		"rejectionReason": reason,
	})
	return output, nil
}

func (h *Handler) schemaOnly(vars map[string]interface{}, parseErr error) (*Output, error) {
	res, err := h.validator.Validate(vars)
	if err != nil || res.Valid {
		return nil, errors.NewParseError(parseErr)
	}
	output := &Output{ValidationErrors: make([]validation.ValidationError, 0, len(res.Errors))}
	for _, e := range res.Errors {
		e.Field = strings.TrimPrefix(e.Field, "applicantInfo.")
		output.ValidationErrors = append(output.ValidationErrors, e)
	}
	return output, nil
}

func fieldRules(info models.ApplicantInfo, rule scoring.PhoneRule) []validation.ValidationError {
	var out []validation.ValidationError

	required := []struct {
		field string
		value string
	}{
		{"firstName", info.FirstName},
		{"lastName", info.LastName},
		{"streetAddress", info.StreetAddress},
		{"areaAddress", info.AreaAddress},
		{"city", info.City},
		{"stateProvince", info.StateProvince},
		{"country", info.Country},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			out = append(out, validation.ValidationError{
				Field:   r.field,
				Message: r.field + " is required",
				Code:    validation.CodeMissingRequired,
			})
		}
	}

	if err := scoring.ValidateNationalID("cnic", info.CNIC); err != nil {
		out = append(out, fromScoring(err))
	}

	switch {
	case strings.TrimSpace(info.LicenseSuffix) == "":
		out = append(out, validation.ValidationError{
			Field:   "licenseSuffix",
			Message: "license suffix is required",
			Code:    validation.CodeMissingRequired,
		})
	case !scoring.IsValidLicenseSuffix(info.LicenseSuffix):
		out = append(out, validation.ValidationError{
			Field:   "licenseSuffix",
			Message: "license suffix must be 3 digits",
			Code:    validation.CodeInvalidFormat,
		})
	}

	if err := scoring.ValidatePhone("phoneNumber", info.PhoneNumber, rule); err != nil {
		out = append(out, fromScoring(err))
	}

	switch scoring.ParseGender(info.Gender) {
	case scoring.GenderMale, scoring.GenderFemale:
	case "":
		out = append(out, validation.ValidationError{
			Field:   "gender",
			Message: "gender is required",
			Code:    validation.CodeMissingRequired,
		})
	default:
		out = append(out, validation.ValidationError{
			Field:   "gender",
			Message: "gender must be M or F",
			Code:    validation.CodeInvalidEnumValue,
		})
	}

	return out
}

// rejectionReason reports the first failed eligibility rule.
func rejectionReason(info models.ApplicantInfo) string {
	switch {
	case !models.IsYes(info.GuarantorsAvailable):
		return ReasonNoGuarantor
	case !models.IsYes(info.FemaleGuarantor):
		return ReasonNoFemaleGuarantor
	case !models.IsYes(info.ElectricityBill):
		return ReasonNoElectricityBill
	default:
		return ""
	}
}

func fromScoring(err error) validation.ValidationError {
	var ve *scoring.ValidationError
	if stderrors.As(err, &ve) {
		return validation.ValidationError{Field: ve.Field, Message: ve.Message, Code: ve.Code}
	}
	return validation.ValidationError{Message: err.Error(), Code: validation.CodeSchemaViolation}
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
