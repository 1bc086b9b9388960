// internal/workers/records/queries/queries.go
package queries

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"ev-finance-workers/internal/models"

	"github.com/lib/pq"
)

// CacheKeyApplicantList holds the JSON encoded result of ListApplicants.
const CacheKeyApplicantList = "applicants:list"

const uniqueViolation = "23505"

var ErrApplicantNotFound = errors.New("APPLICANT_NOT_FOUND")

// IsConnectionError reports whether err came from a lost or refused
// database connection rather than from the statement itself.
func IsConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var netErr *net.OpError
	return errors.As(err, &netErr)
}

// DuplicateKeyError reports a unique constraint violation on insert.
type DuplicateKeyError struct {
	Constraint string
	Detail     string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key violates %s: %s", e.Constraint, e.Detail)
}

const applicantColumns = `
	id, first_name, last_name, cnic, license_no,
	guarantors, female_guarantor, street_address, area_address, city,
	state_province, postal_code, country, phone_number, gender,
	electricity_bill, net_salary, emi, applicant_balance, outstanding_debt,
	bike_type, bike_price, down_payment, tenure_months, balance_source,
	final_score, decision, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanApplicant(row rowScanner) (models.ApplicantRecord, error) {
	var r models.ApplicantRecord
	err := row.Scan(
		&r.ID, &r.FirstName, &r.LastName, &r.CNIC, &r.LicenseNumber,
		&r.GuarantorsAvailable, &r.FemaleGuarantor, &r.StreetAddress, &r.AreaAddress, &r.City,
		&r.StateProvince, &r.PostalCode, &r.Country, &r.PhoneNumber, &r.Gender,
		&r.ElectricityBill, &r.NetIncome, &r.EMI, &r.ApplicantBalance, &r.OutstandingDebt,
		&r.BikeType, &r.BikePrice, &r.DownPayment, &r.TenureMonths, &r.BalanceSource,
		&r.FinalScore, &r.Decision, &r.CreatedAt,
	)
	return r, err
}

// InsertApplicant stores rec and fills in the generated ID and created_at.
func InsertApplicant(ctx context.Context, db *sql.DB, rec *models.ApplicantRecord) error {
	err := db.QueryRowContext(ctx, `
		INSERT INTO applicants (
			first_name, last_name, cnic, license_no,
			guarantors, female_guarantor, street_address, area_address, city,
			state_province, postal_code, country, phone_number, gender,
			electricity_bill, net_salary, emi, applicant_balance, outstanding_debt,
			bike_type, bike_price, down_payment, tenure_months, balance_source,
			final_score, decision
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26
		)
		RETURNING id, created_at`,
		rec.FirstName, rec.LastName, rec.CNIC, rec.LicenseNumber,
		rec.GuarantorsAvailable, rec.FemaleGuarantor, rec.StreetAddress, rec.AreaAddress, rec.City,
		rec.StateProvince, rec.PostalCode, rec.Country, rec.PhoneNumber, rec.Gender,
		rec.ElectricityBill, rec.NetIncome, rec.EMI, rec.ApplicantBalance, rec.OutstandingDebt,
		rec.BikeType, rec.BikePrice, rec.DownPayment, rec.TenureMonths, rec.BalanceSource,
		rec.FinalScore, rec.Decision,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return &DuplicateKeyError{Constraint: pqErr.Constraint, Detail: pqErr.Detail}
		}
		return fmt.Errorf("insert applicant: %w", err)
	}
	return nil
}

func ListApplicants(ctx context.Context, db *sql.DB) ([]models.ApplicantRecord, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+applicantColumns+` FROM applicants ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list applicants: %w", err)
	}
	defer rows.Close()

	applicants := []models.ApplicantRecord{}
	for rows.Next() {
		rec, err := scanApplicant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan applicant: %w", err)
		}
		applicants = append(applicants, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applicants: %w", err)
	}
	return applicants, nil
}

func GetApplicant(ctx context.Context, db *sql.DB, id int64) (*models.ApplicantRecord, error) {
	row := db.QueryRowContext(ctx, `SELECT `+applicantColumns+` FROM applicants WHERE id = $1`, id)
	rec, err := scanApplicant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrApplicantNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get applicant %d: %w", id, err)
	}
	return &rec, nil
}

func DeleteApplicant(ctx context.Context, db *sql.DB, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM applicants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete applicant %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete applicant %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", ErrApplicantNotFound, id)
	}
	return nil
}

// InsertAuditLog writes one audit_log row. Callers treat failures as
// non-critical.
func InsertAuditLog(ctx context.Context, db *sql.DB, eventType string, applicantID int64, details map[string]interface{}) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		detailsJSON = []byte("{}")
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO audit_log (event_type, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		eventType,
		"applicant",
		fmt.Sprintf("%d", applicantID),
		detailsJSON,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}
