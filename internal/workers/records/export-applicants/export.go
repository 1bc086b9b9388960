// internal/workers/records/export-applicants/export.go
package exportapplicants

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"ev-finance-workers/internal/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var header = []string{
	"id", "first_name", "last_name", "cnic", "license_no",
	"guarantors", "female_guarantor", "street_address", "area_address", "city",
	"state_province", "postal_code", "country", "phone_number", "gender",
	"electricity_bill", "net_salary", "emi", "applicant_balance", "outstanding_debt",
	"bike_type", "bike_price", "down_payment", "tenure_months", "balance_source",
	"final_score", "decision", "created_at",
}

// cells returns one row in header order. Currency stays decimal so each
// writer can pick its own representation.
func cells(r models.ApplicantRecord) []interface{} {
	return []interface{}{
		r.ID, r.FirstName, r.LastName, r.CNIC, r.LicenseNumber,
		r.GuarantorsAvailable, r.FemaleGuarantor, r.StreetAddress, r.AreaAddress, r.City,
		r.StateProvince, r.PostalCode, r.Country, r.PhoneNumber, r.Gender,
		r.ElectricityBill, r.NetIncome, r.EMI, r.ApplicantBalance, r.OutstandingDebt,
		r.BikeType, r.BikePrice, r.DownPayment, r.TenureMonths, r.BalanceSource,
		r.FinalScore, r.Decision, r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func writeCSV(applicants []models.ApplicantRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, a := range applicants {
		values := cells(a)
		record := make([]string, len(values))
		for i, v := range values {
			switch tv := v.(type) {
			case string:
				record[i] = tv
			case int64:
				record[i] = strconv.FormatInt(tv, 10)
			case int:
				record[i] = strconv.Itoa(tv)
			case decimal.Decimal:
				record[i] = tv.String()
			default:
				record[i] = fmt.Sprint(tv)
			}
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeXLSX(applicants []models.ApplicantRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, err
	}

	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &headerRow); err != nil {
		return nil, err
	}

	for i, a := range applicants {
		values := cells(a)
		for j, v := range values {
			if d, ok := v.(decimal.Decimal); ok {
				values[j] = d.InexactFloat64()
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
