// internal/workers/records/search-applicants/models.go
package searchapplicants

import "ev-finance-workers/internal/workers/records/queries"

type Input struct {
	Query    string `json:"query"`
	Decision string `json:"decision,omitempty"`
	From     int    `json:"from"`
	Size     int    `json:"size"`
}

type Output struct {
	Applicants []queries.SearchDocument `json:"applicants"`
	TotalHits  int64                    `json:"totalHits"`
	Took       int                      `json:"took"`
}

type searchResponse struct {
	Took int `json:"took"`
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source queries.SearchDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}
