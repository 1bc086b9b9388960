// internal/workers/records/list-applicants/models.go
package listapplicants

import "ev-finance-workers/internal/models"

type Input struct{}

type Output struct {
	Applicants []models.ApplicantRecord `json:"applicants"`
	Total      int                      `json:"total"`
	Labels     []string                 `json:"labels"`
	FromCache  bool                     `json:"fromCache"`
}
