// internal/workers/records/export-applicants/models.go
package exportapplicants

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	SheetName = "Applicants"
)

type Input struct {
	Format string `json:"format"`
}

type Output struct {
	FileName      string `json:"fileName"`
	MimeType      string `json:"mimeType"`
	ContentBase64 string `json:"contentBase64"`
	RowCount      int    `json:"rowCount"`
}
