// internal/workers/applicant/resolve-location-link/handler.go
package resolvelocationlink

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"ev-finance-workers/internal/common/camunda"
	"ev-finance-workers/internal/common/errors"
	"ev-finance-workers/internal/common/logger"
	"ev-finance-workers/internal/common/metrics"
	"ev-finance-workers/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "resolve-location-link"
)

type Handler struct {
	config       *Config
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
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

// execute never fails on incomplete addresses; the missing parts are
// returned so the form can ask for them.
func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	parts := []struct {
		field string
		value string
	}{
		{"streetAddress", input.StreetAddress},
		{"areaAddress", input.AreaAddress},
		{"city", input.City},
		{"stateProvince", input.StateProvince},
		{"country", input.Country},
	}

	output := &Output{ValidationErrors: []validation.ValidationError{}}
	address := make([]string, 0, len(parts)+1)
	for _, p := range parts {
		v := strings.TrimSpace(p.value)
		if v == "" {
			output.ValidationErrors = append(output.ValidationErrors, validation.ValidationError{
				Field:   p.field,
				Message: p.field + " is required to resolve the location",
				Code:    validation.CodeMissingRequired,
			})
			continue
		}
		address = append(address, v)
	}
	if len(output.ValidationErrors) > 0 {
		h.logger.Info("location incomplete", map[string]interface{}{
			"missing": len(output.ValidationErrors),
		})
		return output, nil
	}

	if postal := strings.TrimSpace(input.PostalCode); postal != "" {
		address = append(address, postal)
	}

	output.FullAddress = strings.Join(address, ", ")
	output.MapsURL = h.config.BaseURL + url.QueryEscape(output.FullAddress)
	output.LocationResolved = true
	return output, nil
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
