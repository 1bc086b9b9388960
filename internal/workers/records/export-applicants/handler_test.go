// internal/workers/records/export-applicants/handler_test.go
package exportapplicants

import (
	"bytes"
	"context"
	"database/sql/driver"
	"encoding/base64"
	"encoding/csv"
	stderrors "errors"
	"testing"
	"time"

	"ev-finance-workers/internal/common/errors"
	"ev-finance-workers/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func row(id int64, first, last, city string) []driver.Value {
	return []driver.Value{
		id, first, last, "35202-1234567-1", "35202-1234567-1#123",
		"Yes", "Yes", "House 12", "Model Town", city,
		"Punjab", "", "Pakistan", "03001234567", "F",
		"Yes", "160000.50", "10000.00", "30000.00", "0.00",
		"EV-125", "250000.00", "0.00", 12, "Applicant",
		"91.4", "Approve", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func expectList(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`SELECT (.+) FROM applicants ORDER BY id`).
		WillReturnRows(sqlmock.NewRows(header).
			AddRow(row(1, "Ayesha", "Khan", "Lahore, Cantt")...).
			AddRow(row(2, "Bilal", "Ahmed", "Karachi")...))
}

func TestHandler_Execute_CSV(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	expectList(mock)

	handler := NewHandler(LoadConfig(), db, logger.NewTestLogger(t))
	output, err := handler.Execute(context.Background(), &Input{Format: "CSV"})

	require.NoError(t, err)
	assert.Equal(t, "applicants.csv", output.FileName)
	assert.Equal(t, "text/csv", output.MimeType)
	assert.Equal(t, 2, output.RowCount)

	data, err := base64.StdEncoding.DecodeString(output.ContentBase64)
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, header, records[0])
	assert.Equal(t, "1", records[1][0])
	assert.Equal(t, "Lahore, Cantt", records[1][9])
	assert.Equal(t, "160000.5", records[1][16])
	assert.Equal(t, "2026-01-02T03:04:05Z", records[1][27])
}

func TestHandler_Execute_XLSX(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	expectList(mock)

	handler := NewHandler(LoadConfig(), db, logger.NewTestLogger(t))
	output, err := handler.Execute(context.Background(), &Input{Format: "xlsx"})

	require.NoError(t, err)
	assert.Equal(t, "applicants.xlsx", output.FileName)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", output.MimeType)

	data, err := base64.StdEncoding.DecodeString(output.ContentBase64)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "first_name", rows[0][1])
	assert.Equal(t, "Bilal", rows[2][1])
	assert.Equal(t, "Approve", rows[2][26])
}

func TestHandler_Execute_EmptyExportHasHeader(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery(`SELECT (.+) FROM applicants`).WillReturnRows(sqlmock.NewRows(header))

	handler := NewHandler(LoadConfig(), db, logger.NewTestLogger(t))
	output, err := handler.Execute(context.Background(), &Input{Format: "csv"})

	require.NoError(t, err)
	assert.Equal(t, 0, output.RowCount)
	data, _ := base64.StdEncoding.DecodeString(output.ContentBase64)
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestHandler_Execute_InvalidFormat(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	handler := NewHandler(LoadConfig(), db, logger.NewTestLogger(t))
	_, err = handler.Execute(context.Background(), &Input{Format: "pdf"})

	var stdErr *errors.StandardError
	require.True(t, stderrors.As(err, &stdErr))
	assert.Equal(t, errors.ErrCodeInvalidExportFormat, stdErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
