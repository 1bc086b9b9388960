// internal/workers/records/search-applicants/handler.go
package searchapplicants

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"ev-finance-workers/internal/common/camunda"
	"ev-finance-workers/internal/common/errors"
	"ev-finance-workers/internal/common/logger"
	"ev-finance-workers/internal/common/metrics"
	"ev-finance-workers/internal/workers/records/queries"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
)

const (
	TaskType = "search-applicants"
)

var searchFields = []string{"firstName^2", "lastName^2", "city", "cnic", "licenseNumber", "phone"}

type Handler struct {
	config       *Config
	es           *elasticsearch.Client
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, es *elasticsearch.Client, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
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

// buildQuery matches everything for an empty query string.
func (h *Handler) buildQuery(input *Input) map[string]interface{} {
	var must interface{}
	if q := strings.TrimSpace(input.Query); q != "" {
		must = map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q,
				"fields": searchFields,
				"type":   "best_fields",
			},
		}
	} else {
		must = map[string]interface{}{"match_all": map[string]interface{}{}}
	}

	boolQuery := map[string]interface{}{"must": must}
	if d := strings.TrimSpace(input.Decision); d != "" {
		boolQuery["filter"] = []interface{}{
			map[string]interface{}{"term": map[string]interface{}{"decision": d}},
		}
	}

	size := input.Size
	if size <= 0 {
		size = h.config.DefaultSize
	}
	if size > h.config.MaxSize {
		size = h.config.MaxSize
	}
	from := input.From
	if from < 0 {
		from = 0
	}

	return map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"from":  from,
		"size":  size,
		"sort": []interface{}{
			"_score",
			map[string]interface{}{"id": map[string]interface{}{"order": "asc"}},
		},
	}
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if h.es == nil {
		return nil, errors.NewElasticsearchConnectionFailedError(fmt.Errorf("search client not configured"))
	}

	body, err := json.Marshal(h.buildQuery(input))
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	res, err := h.es.Search(
		h.es.Search.WithContext(ctx),
		h.es.Search.WithIndex(h.config.SearchIndex),
		h.es.Search.WithBody(bytes.NewReader(body)),
		h.es.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return nil, errors.NewSearchTimeoutError("search_applicants")
		}
		return nil, errors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, errors.NewIndexNotFoundError(h.config.SearchIndex)
	}
	if res.IsError() {
		return nil, errors.NewSearchQueryFailedError("search_applicants", fmt.Errorf("status %s", res.Status()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, errors.NewSearchQueryFailedError("search_applicants", err)
	}

	output := &Output{
		Applicants: make([]queries.SearchDocument, 0, len(parsed.Hits.Hits)),
		TotalHits:  parsed.Hits.Total.Value,
		Took:       parsed.Took,
	}
	for _, hit := range parsed.Hits.Hits {
		output.Applicants = append(output.Applicants, hit.Source)
	}

	h.logger.Info("applicant search completed", map[string]interface{}{
		"query":     input.Query,
		"decision":  input.Decision,
		"totalHits": output.TotalHits,
		"returned":  len(output.Applicants),
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
