// internal/workers/records/save-applicant-record/handler.go
package saveapplicantrecord

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
	"ev-finance-workers/internal/models"
	"ev-finance-workers/internal/scoring"
	"ev-finance-workers/internal/workers/records/queries"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "save-applicant-record"
)

type Handler struct {
	config       *Config
	engine       *scoring.Engine
	db           *sql.DB
	redis        redis.Cmdable
	es           *elasticsearch.Client
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

// NewHandler accepts nil redis and es clients; the cache and search index
// are then left alone. The engine re-scores every record before it is stored.
func NewHandler(config *Config, engine *scoring.Engine, db *sql.DB, rdb redis.Cmdable, es *elasticsearch.Client, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		engine:       engine,
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
	if !scoring.IsValidNationalID(input.ApplicantInfo.CNIC) {
		return nil, errors.NewApplicantValidationFailedError("cnic: must match 12345-1234567-1")
	}

	result, err := h.rescore(input)
	if err != nil {
		return nil, err
	}
	if !result.Decision.AllowsPersistence() {
		return nil, errors.NewApplicantNotApprovedError(string(result.Decision))
	}

	// The stored score is always the recomputed one.
	if string(result.Decision) != input.Evaluation.Decision || result.DisplayScore() != input.Evaluation.FinalScore {
		h.logger.Warn("supplied evaluation differs from recomputed result", map[string]interface{}{
			"evaluationId":       input.Evaluation.EvaluationID,
			"suppliedDecision":   input.Evaluation.Decision,
			"suppliedFinalScore": input.Evaluation.FinalScore,
			"decision":           result.Decision,
			"finalScore":         result.DisplayScore(),
		})
	}

	licenseNumber := input.LicenseNumber
	if licenseNumber == "" {
		licenseNumber = scoring.LicenseNumber(input.ApplicantInfo.CNIC, input.ApplicantInfo.LicenseSuffix)
	}

	rec := models.NewApplicantRecord(input.ApplicantInfo, licenseNumber, input.ApplicantInput, result)

	if err := queries.InsertApplicant(ctx, h.db, &rec); err != nil {
		var dup *queries.DuplicateKeyError
		if stderrors.As(err, &dup) {
			return nil, errors.NewDuplicateApplicantError(rec.CNIC)
		}
		if stderrors.Is(err, context.DeadlineExceeded) {
			return nil, errors.NewQueryTimeoutError("insert_applicant")
		}
		return nil, errors.NewDatabaseInsertFailedError(err)
	}

	// Audit log entry is non-critical
	if err := queries.InsertAuditLog(ctx, h.db, "applicant_saved", rec.ID, map[string]interface{}{
		"evaluationId":  input.Evaluation.EvaluationID,
		"decision":      rec.Decision,
		"finalScore":    rec.FinalScore.String(),
		"policyVersion": result.PolicyVersion,
	}); err != nil {
		h.logger.Warn("audit log insert failed", map[string]interface{}{
			"error":       err,
			"applicantId": rec.ID,
		})
	}

	output := &Output{
		ApplicantID: rec.ID,
		SavedAt:     rec.CreatedAt.UTC().Format(time.RFC3339),
		Decision:    string(result.Decision),
		FinalScore:  result.DisplayScore(),
	}

	if h.redis != nil {
		if err := queries.InvalidateListCache(ctx, h.redis); err != nil {
			h.logger.Warn("cache invalidation failed", map[string]interface{}{
				"error":       err,
				"applicantId": rec.ID,
			})
		} else {
			output.CacheInvalidated = true
		}
	}

	if h.es != nil {
		if err := queries.IndexApplicant(ctx, h.es, h.config.SearchIndex, rec); err != nil {
			h.logger.Warn("search indexing failed", map[string]interface{}{
				"error":       err,
				"applicantId": rec.ID,
			})
		} else {
			output.Indexed = true
		}
	}

	h.logger.Info("applicant record saved", map[string]interface{}{
		"applicantId": rec.ID,
		"decision":    rec.Decision,
		"finalScore":  rec.FinalScore.String(),
		"indexed":     output.Indexed,
	})
	return output, nil
}

func (h *Handler) rescore(input *Input) (scoring.ScoreResult, error) {
	if h.engine == nil {
		return scoring.ScoreResult{}, errors.NewScoringConfigurationInvalidError(stderrors.New("no scoring engine configured"))
	}

	in := input.ApplicantInput
	in.Gender = scoring.ParseGender(string(in.Gender))

	result, err := h.engine.Evaluate(in)
	if err != nil {
		var domainErr *scoring.DomainInputError
		if stderrors.As(err, &domainErr) {
			return scoring.ScoreResult{}, errors.NewDomainInputInvalidError(err).
				WithMetadata("field", domainErr.Field)
		}
		var cfgErr *scoring.ConfigurationError
		if stderrors.As(err, &cfgErr) {
			return scoring.ScoreResult{}, errors.NewScoringConfigurationInvalidError(err)
		}
		return scoring.ScoreResult{}, errors.NewInternalError(err)
	}
	return result, nil
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
