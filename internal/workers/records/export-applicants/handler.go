// internal/workers/records/export-applicants/handler.go
package exportapplicants

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"strings"

	"ev-finance-workers/internal/common/camunda"
	"ev-finance-workers/internal/common/errors"
	"ev-finance-workers/internal/common/logger"
	"ev-finance-workers/internal/common/metrics"
	"ev-finance-workers/internal/workers/records/queries"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "export-applicants"
)

type Handler struct {
	config       *Config
	db           *sql.DB
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		db:           db,
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
	format := strings.ToLower(strings.TrimSpace(input.Format))
	if format != FormatCSV && format != FormatXLSX {
		return nil, errors.NewInvalidExportFormatError(input.Format)
	}

	applicants, err := queries.ListApplicants(ctx, h.db)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("export_applicants", err)
	}

	output := &Output{RowCount: len(applicants)}
	var data []byte
	switch format {
	case FormatCSV:
		data, err = writeCSV(applicants)
		output.FileName = "applicants.csv"
		output.MimeType = "text/csv"
	case FormatXLSX:
		data, err = writeXLSX(applicants)
		output.FileName = "applicants.xlsx"
		output.MimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if err != nil {
		return nil, errors.NewExportFailedError(format, err)
	}
	output.ContentBase64 = base64.StdEncoding.EncodeToString(data)

	h.logger.Info("applicants exported", map[string]interface{}{
		"format":   format,
		"rowCount": output.RowCount,
		"bytes":    len(data),
	})
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
