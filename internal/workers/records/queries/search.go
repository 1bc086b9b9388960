// internal/workers/records/queries/search.go
package queries

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"ev-finance-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
)

// SearchDocument is the applicant shape stored in the search index.
type SearchDocument struct {
	ID            int64     `json:"id"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	CNIC          string    `json:"cnic"`
	LicenseNumber string    `json:"licenseNumber"`
	Phone         string    `json:"phone"`
	City          string    `json:"city"`
	Decision      string    `json:"decision"`
	FinalScore    float64   `json:"finalScore"`
	CreatedAt     time.Time `json:"createdAt"`
}

func NewSearchDocument(rec models.ApplicantRecord) SearchDocument {
	score, _ := rec.FinalScore.Float64()
	return SearchDocument{
		ID:            rec.ID,
		FirstName:     rec.FirstName,
		LastName:      rec.LastName,
		CNIC:          rec.CNIC,
		LicenseNumber: rec.LicenseNumber,
		Phone:         rec.PhoneNumber,
		City:          rec.City,
		Decision:      rec.Decision,
		FinalScore:    score,
		CreatedAt:     rec.CreatedAt,
	}
}

func IndexApplicant(ctx context.Context, es *elasticsearch.Client, index string, rec models.ApplicantRecord) error {
	body, err := json.Marshal(NewSearchDocument(rec))
	if err != nil {
		return fmt.Errorf("marshal search document: %w", err)
	}

	res, err := es.Index(index, bytes.NewReader(body),
		es.Index.WithContext(ctx),
		es.Index.WithDocumentID(strconv.FormatInt(rec.ID, 10)),
	)
	if err != nil {
		return fmt.Errorf("index applicant %d: %w", rec.ID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index applicant %d: %s", rec.ID, res.Status())
	}
	return nil
}

// RemoveApplicant deletes the search document. A missing document is not an
// error.
func RemoveApplicant(ctx context.Context, es *elasticsearch.Client, index string, id int64) error {
	res, err := es.Delete(index, strconv.FormatInt(id, 10), es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("remove applicant %d: %w", id, err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("remove applicant %d: %s", id, res.Status())
	}
	return nil
}

// InvalidateListCache drops the cached applicant list.
func InvalidateListCache(ctx context.Context, rdb redis.Cmdable) error {
	if err := rdb.Del(ctx, CacheKeyApplicantList).Err(); err != nil {
		return fmt.Errorf("invalidate %s: %w", CacheKeyApplicantList, err)
	}
	return nil
}
