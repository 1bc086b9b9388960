// internal/workers/evaluation/evaluate-creditworthiness/handler.go
package evaluatecreditworthiness

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"ev-finance-workers/internal/common/camunda"
	"ev-finance-workers/internal/common/errors"
	"ev-finance-workers/internal/common/logger"
	"ev-finance-workers/internal/common/metrics"
	"ev-finance-workers/internal/common/observability"
	"ev-finance-workers/internal/scoring"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	TaskType = "evaluate-creditworthiness"
)

type Handler struct {
	config       *Config
	engine       *scoring.Engine
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, engine *scoring.Engine, obs *observability.Observability, log logger.Logger) *Handler {
	if obs == nil {
		obs = observability.NewNoop()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		engine:       engine,
		obs:          obs,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	done := metrics.TrackJob(TaskType)
	start := time.Now()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.Key,
		"processInstanceKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		done(string(errors.ErrCodeParseError))
		h.obs.RecordJobProcessed(ctx, TaskType, "failed")
		h.errorHandler.HandleJobError(ctx, client, job, errors.NewParseError(err))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		done(string(errors.Normalize(err).Code))
		h.obs.RecordJobProcessed(ctx, TaskType, "failed")
		h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "failed")
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(client, job, output)
	done("")
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "completed")
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if !input.ApplicantValid {
		return nil, errors.NewApplicantInfoIncompleteError()
	}
	if h.engine == nil {
		return nil, errors.NewScoringConfigurationInvalidError(stderrors.New("no scoring engine configured"))
	}

	policy := h.engine.Policy()
	ctx, span := h.obs.StartSpan(ctx, "scoring.evaluate",
		attribute.String("policy.version", policy.Version),
	)
	defer span.End()

	in := input.ApplicantInput
	in.Gender = scoring.ParseGender(string(in.Gender))

	result, err := h.engine.Evaluate(in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		var domainErr *scoring.DomainInputError
		if stderrors.As(err, &domainErr) {
			return nil, errors.NewDomainInputInvalidError(err).
				WithMetadata("field", domainErr.Field)
		}
		var cfgErr *scoring.ConfigurationError
		if stderrors.As(err, &cfgErr) {
			return nil, errors.NewScoringConfigurationInvalidError(err)
		}
		return nil, errors.NewInternalError(err)
	}

	display := result.DisplayScore()
	span.SetAttributes(
		attribute.String("credit.decision", string(result.Decision)),
		attribute.Float64("credit.score", display),
		attribute.Bool("credit.hard_reject", result.HardReject),
	)

	metrics.RecordDecision(string(result.Decision), result.PolicyVersion, result.HardReject, result.FinalScore)
	h.obs.RecordEvaluation(ctx, string(result.Decision), result.PolicyVersion)

	subs := make(map[string]float64, len(result.SubScores))
	for c, v := range result.SubScores {
		subs[string(c)] = v
	}

	output := &Output{
		EvaluationID:      uuid.New().String(),
		FinalScore:        display,
		Decision:          string(result.Decision),
		BalanceSource:     string(result.BalanceSource),
		SubScores:         subs,
		DebtToIncomeRatio: result.DebtToIncomeRatio,
		PolicyVersion:     result.PolicyVersion,
		HardReject:        result.HardReject,
		Reason:            result.Reason,
		CanPersist:        result.Decision.AllowsPersistence(),
		EvaluatedAt:       time.Now().UTC().Format(time.RFC3339),
	}

	h.logger.Info("applicant evaluated", map[string]interface{}{
		"evaluationId":  output.EvaluationID,
		"decision":      output.Decision,
		"finalScore":    output.FinalScore,
		"balanceSource": output.BalanceSource,
		"hardReject":    output.HardReject,
		"policyVersion": output.PolicyVersion,
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
