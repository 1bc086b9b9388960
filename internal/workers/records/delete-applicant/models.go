// internal/workers/records/delete-applicant/models.go
package deleteapplicant

type Input struct {
	ApplicantID int64 `json:"applicantId"`
	Confirmed   bool  `json:"confirmed"`
}

type Output struct {
	ApplicantID int64  `json:"applicantId"`
	Label       string `json:"label"`
	Deleted     bool   `json:"deleted"`
	DeletedAt   string `json:"deletedAt"` // ISO 8601
}
