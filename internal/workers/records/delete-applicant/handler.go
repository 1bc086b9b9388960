// internal/workers/records/delete-applicant/handler.go
package deleteapplicant

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"time"

	"ev-finance-workers/internal/common/camunda"
	"ev-finance-workers/internal/common/errors"
	"ev-finance-workers/internal/common/logger"
	"ev-finance-workers/internal/common/metrics"
	"ev-finance-workers/internal/workers/records/queries"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "delete-applicant"
)

type Handler struct {
	config       *Config
	db           *sql.DB
	redis        redis.Cmdable
	es           *elasticsearch.Client
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, db *sql.DB, rdb redis.Cmdable, es *elasticsearch.Client, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		db:           db,
		redis:        rdb,
		es:           es,
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
	if !input.Confirmed {
		return nil, errors.NewDeleteNotConfirmedError(input.ApplicantID)
	}

	rec, err := queries.GetApplicant(ctx, h.db, input.ApplicantID)
	if err != nil {
		if stderrors.Is(err, queries.ErrApplicantNotFound) {
			return nil, errors.NewApplicantNotFoundError(input.ApplicantID)
		}
		if queries.IsConnectionError(err) {
			return nil, errors.NewDatabaseConnectionFailedError(err)
		}
		return nil, errors.NewDatabaseDeleteFailedError(err)
	}

	if err := queries.DeleteApplicant(ctx, h.db, input.ApplicantID); err != nil {
		if stderrors.Is(err, queries.ErrApplicantNotFound) {
			return nil, errors.NewApplicantNotFoundError(input.ApplicantID)
		}
		return nil, errors.NewDatabaseDeleteFailedError(err)
	}

	if err := queries.InsertAuditLog(ctx, h.db, "applicant_deleted", input.ApplicantID, map[string]interface{}{
		"confirmed": true,
		"label":     rec.Label(),
		"cnic":      rec.CNIC,
		"decision":  rec.Decision,
	}); err != nil {
		h.logger.Warn("audit log insert failed", map[string]interface{}{
			"error":       err,
			"applicantId": input.ApplicantID,
		})
	}

	if h.redis != nil {
		if err := queries.InvalidateListCache(ctx, h.redis); err != nil {
			h.logger.Warn("cache invalidation failed", map[string]interface{}{
				"error":       err,
				"applicantId": input.ApplicantID,
			})
		}
	}

	if h.es != nil {
		if err := queries.RemoveApplicant(ctx, h.es, h.config.SearchIndex, input.ApplicantID); err != nil {
			h.logger.Warn("search document removal failed", map[string]interface{}{
				"error":       err,
				"applicantId": input.ApplicantID,
			})
		}
	}

	h.logger.Info("applicant deleted", map[string]interface{}{
		"applicantId": input.ApplicantID,
		"label":       rec.Label(),
	})

	return &Output{
		ApplicantID: input.ApplicantID,
		Label:       rec.Label(),
		Deleted:     true,
		DeletedAt:   time.Now().UTC().Format(time.RFC3339),
	}, nil
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
