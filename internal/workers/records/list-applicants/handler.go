// internal/workers/records/list-applicants/handler.go
package listapplicants

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"

	"ev-finance-workers/internal/common/camunda"
	"ev-finance-workers/internal/common/errors"
	"ev-finance-workers/internal/common/logger"
	"ev-finance-workers/internal/common/metrics"
	"ev-finance-workers/internal/models"
	"ev-finance-workers/internal/workers/records/queries"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "list-applicants"
)

type Handler struct {
	config       *Config
	db           *sql.DB
	redis        redis.Cmdable
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, db *sql.DB, rdb redis.Cmdable, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		db:           db,
		redis:        rdb,
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

	output, err := h.execute(ctx, &Input{})
	if err != nil {
		done(string(errors.Normalize(err).Code))
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(client, job, output)
	done("")
}

func (h *Handler) execute(ctx context.Context, _ *Input) (*Output, error) {
	if applicants, ok := h.fromCache(ctx); ok {
		return newOutput(applicants, true), nil
	}

	applicants, err := queries.ListApplicants(ctx, h.db)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return nil, errors.NewQueryTimeoutError("list_applicants")
		}
		if queries.IsConnectionError(err) {
			return nil, errors.NewDatabaseConnectionFailedError(err)
		}
		return nil, errors.NewQueryExecutionFailedError("list_applicants", err)
	}

	h.storeCache(ctx, applicants)
	return newOutput(applicants, false), nil
}

func (h *Handler) fromCache(ctx context.Context) ([]models.ApplicantRecord, bool) {
	if h.redis == nil {
		return nil, false
	}

	cached, err := h.redis.Get(ctx, queries.CacheKeyApplicantList).Result()
	switch {
	case err == redis.Nil:
		metrics.ApplicantCacheRequests.WithLabelValues("miss").Inc()
		return nil, false
	case err != nil:
		metrics.ApplicantCacheRequests.WithLabelValues("error").Inc()
		h.logger.Warn("cache read failed, falling back to database", map[string]interface{}{
			"error": err,
		})
		return nil, false
	}

	var applicants []models.ApplicantRecord
	if err := json.Unmarshal([]byte(cached), &applicants); err != nil {
		metrics.ApplicantCacheRequests.WithLabelValues("error").Inc()
		h.logger.Warn("cached applicant list is corrupt", map[string]interface{}{
			"error": err,
		})
		return nil, false
	}
	metrics.ApplicantCacheRequests.WithLabelValues("hit").Inc()
	return applicants, true
}

func (h *Handler) storeCache(ctx context.Context, applicants []models.ApplicantRecord) {
	if h.redis == nil {
		return
	}
	data, err := json.Marshal(applicants)
	if err != nil {
		return
	}
	if err := h.redis.Set(ctx, queries.CacheKeyApplicantList, data, h.config.CacheTTL).Err(); err != nil {
		h.logger.Warn("cache write failed", map[string]interface{}{
			"error": err,
		})
	}
}

func newOutput(applicants []models.ApplicantRecord, fromCache bool) *Output {
	if applicants == nil {
		applicants = []models.ApplicantRecord{}
	}
	labels := make([]string, 0, len(applicants))
	for _, a := range applicants {
		labels = append(labels, a.Label())
	}
	return &Output{
		Applicants: applicants,
		Total:      len(applicants),
		Labels:     labels,
		FromCache:  fromCache,
	}
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
			"total":  output.Total,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
