// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"database/sql/driver"
	"encoding/base64"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ev-finance-workers/internal/common/camunda"
	"ev-finance-workers/internal/common/config"
	"ev-finance-workers/internal/common/database"
	"ev-finance-workers/internal/common/logger"
	"ev-finance-workers/internal/models"
	"ev-finance-workers/internal/scoring"
	"ev-finance-workers/internal/workers/records/queries"

	resolvelocationlink "ev-finance-workers/internal/workers/applicant/resolve-location-link"
	validateapplicantinfo "ev-finance-workers/internal/workers/applicant/validate-applicant-info"
	evaluatecreditworthiness "ev-finance-workers/internal/workers/evaluation/evaluate-creditworthiness"
	exportapplicants "ev-finance-workers/internal/workers/records/export-applicants"
	listapplicants "ev-finance-workers/internal/workers/records/list-applicants"
	saveapplicantrecord "ev-finance-workers/internal/workers/records/save-applicant-record"
)

// ==========================
// Process variables
// ==========================

// vars mimics the process variable scope Zeebe carries between tasks.
type vars map[string]interface{}

func (v vars) merge(t *testing.T, output interface{}) {
	t.Helper()
	data, err := json.Marshal(output)
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	for k, val := range m {
		v[k] = val
	}
}

func (v vars) set(t *testing.T, key string, output interface{}) {
	t.Helper()
	data, err := json.Marshal(output)
	require.NoError(t, err)
	var val interface{}
	require.NoError(t, json.Unmarshal(data, &val))
	v[key] = val
}

func (v vars) decode(t *testing.T, input interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, input))
}

var columnNames = []string{
	"id", "first_name", "last_name", "cnic", "license_no",
	"guarantors", "female_guarantor", "street_address", "area_address", "city",
	"state_province", "postal_code", "country", "phone_number", "gender",
	"electricity_bill", "net_salary", "emi", "applicant_balance", "outstanding_debt",
	"bike_type", "bike_price", "down_payment", "tenure_months", "balance_source",
	"final_score", "decision", "created_at",
}

func recordRow(r models.ApplicantRecord) []driver.Value {
	return []driver.Value{
		r.ID, r.FirstName, r.LastName, r.CNIC, r.LicenseNumber,
		r.GuarantorsAvailable, r.FemaleGuarantor, r.StreetAddress, r.AreaAddress, r.City,
		r.StateProvince, r.PostalCode, r.Country, r.PhoneNumber, r.Gender,
		r.ElectricityBill, r.NetIncome.String(), r.EMI.String(), r.ApplicantBalance.String(), r.OutstandingDebt.String(),
		r.BikeType, r.BikePrice.String(), r.DownPayment.String(), r.TenureMonths, r.BalanceSource,
		r.FinalScore.String(), r.Decision, r.CreatedAt,
	}
}

func startVariables() vars {
	return vars{
		"applicantInfo": map[string]interface{}{
			"firstName":           "Ayesha",
			"lastName":            "Khan",
			"cnic":                "35202-1234567-1",
			"licenseSuffix":       "123",
			"guarantorsAvailable": "Yes",
			"femaleGuarantor":     "Yes",
			"streetAddress":       "House 12, Street 4",
			"areaAddress":         "Model Town",
			"city":                "Lahore",
			"stateProvince":       "Punjab",
			"postalCode":          "54700",
			"country":             "Pakistan",
			"phoneNumber":         "03001234567",
			"gender":              "F",
			"electricityBill":     "Yes",
			"bikeType":            "EV-125",
		},
		"applicantInput": map[string]interface{}{
			"netIncome":               160000,
			"gender":                  "F",
			"emi":                     10000,
			"applicantBalance":        30000,
			"salaryConsistencyMonths": 6,
			"employerType":            "Government",
			"jobTenureYears":          10,
			"age":                     28,
			"dependents":              0,
			"residence":               "Owned",
			"tenureMonths":            12,
		},
	}
}

// ==========================
// In-process application flow
// ==========================

func TestApplicationFlow_ApproveSaveList(t *testing.T) {
	log := logger.NewTestLogger(t)
	ctx := context.Background()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	require.NoError(t, mr.Set(queries.CacheKeyApplicantList, "[]"))

	v := startVariables()

	// 1. validate-applicant-info
	validator, err := validateapplicantinfo.NewHandler(validateapplicantinfo.LoadConfig(), log)
	require.NoError(t, err)
	var vin validateapplicantinfo.Input
	v.decode(t, &vin)
	vout, err := validator.Execute(ctx, &vin)
	require.NoError(t, err)
	require.True(t, vout.IsValid, "validation errors: %v", vout.ValidationErrors)
	assert.Equal(t, "35202-1234567-1#123", vout.LicenseNumber)
	v.merge(t, vout)

	// 2. resolve-location-link
	var info models.ApplicantInfo
	v.decode(t, &struct {
		ApplicantInfo *models.ApplicantInfo `json:"applicantInfo"`
	}{&info})
	lin := resolvelocationlink.Input{
		StreetAddress: info.StreetAddress,
		AreaAddress:   info.AreaAddress,
		City:          info.City,
		StateProvince: info.StateProvince,
		PostalCode:    info.PostalCode,
		Country:       info.Country,
	}
	lout, err := resolvelocationlink.NewHandler(resolvelocationlink.LoadConfig(), log).Execute(ctx, &lin)
	require.NoError(t, err)
	assert.True(t, lout.LocationResolved)
	assert.True(t, strings.HasPrefix(lout.MapsURL, "https://www.google.com/maps/search/"))
	v.merge(t, lout)

	// 3. evaluate-creditworthiness
	engine, err := scoring.NewEngine(scoring.StandardPolicy())
	require.NoError(t, err)
	var ein evaluatecreditworthiness.Input
	v.decode(t, &ein)
	eout, err := evaluatecreditworthiness.NewHandler(evaluatecreditworthiness.LoadConfig(), engine, nil, log).Execute(ctx, &ein)
	require.NoError(t, err)
	assert.Equal(t, string(scoring.DecisionApprove), eout.Decision)
	assert.True(t, eout.CanPersist)
	v.set(t, "evaluation", eout)

	// 4. save-applicant-record
	createdAt := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO applicants`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), createdAt))
	mock.ExpectExec(`INSERT INTO audit_log`).
		WithArgs("applicant_saved", "applicant", "7", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	var sin saveapplicantrecord.Input
	v.decode(t, &sin)
	sout, err := saveapplicantrecord.NewHandler(saveapplicantrecord.LoadConfig(), engine, db, rdb, nil, log).Execute(ctx, &sin)
	require.NoError(t, err)
	assert.Equal(t, int64(7), sout.ApplicantID)
	assert.Equal(t, eout.Decision, sout.Decision)
	assert.Equal(t, eout.FinalScore, sout.FinalScore)
	assert.True(t, sout.CacheInvalidated)
	assert.False(t, sout.Indexed)
	assert.False(t, mr.Exists(queries.CacheKeyApplicantList))

	// 5. list-applicants: miss, then hit
	saved := models.NewApplicantRecord(sin.ApplicantInfo, sin.LicenseNumber, sin.ApplicantInput, scoring.ScoreResult{
		FinalScore:    eout.FinalScore,
		Decision:      scoring.Decision(eout.Decision),
		BalanceSource: scoring.BalanceSource(eout.BalanceSource),
	})
	saved.ID = 7
	saved.CreatedAt = createdAt

	mock.ExpectQuery(`SELECT (.+) FROM applicants ORDER BY id`).
		WillReturnRows(sqlmock.NewRows(columnNames).AddRow(recordRow(saved)...))

	lister := listapplicants.NewHandler(listapplicants.LoadConfig(), db, rdb, log)
	first, err := lister.Execute(ctx, &listapplicants.Input{})
	require.NoError(t, err)
	require.Equal(t, 1, first.Total)
	assert.False(t, first.FromCache)
	assert.Equal(t, "7 - Ayesha Khan", first.Labels[0])
	assert.Equal(t, "Approve", first.Applicants[0].Decision)

	second, err := lister.Execute(ctx, &listapplicants.Input{})
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.Labels, second.Labels)

	// 6. export-applicants
	mock.ExpectQuery(`SELECT (.+) FROM applicants ORDER BY id`).
		WillReturnRows(sqlmock.NewRows(columnNames).AddRow(recordRow(saved)...))

	xout, err := exportapplicants.NewHandler(exportapplicants.LoadConfig(), db, log).
		Execute(ctx, &exportapplicants.Input{Format: "csv"})
	require.NoError(t, err)
	assert.Equal(t, 1, xout.RowCount)
	csv, err := base64.StdEncoding.DecodeString(xout.ContentBase64)
	require.NoError(t, err)
	assert.Contains(t, string(csv), "35202-1234567-1#123")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationFlow_InvalidApplicantStopsEvaluation(t *testing.T) {
	log := logger.NewTestLogger(t)
	ctx := context.Background()

	v := startVariables()
	v["applicantInfo"].(map[string]interface{})["cnic"] = "3520212345671"

	validator, err := validateapplicantinfo.NewHandler(validateapplicantinfo.LoadConfig(), log)
	require.NoError(t, err)
	var vin validateapplicantinfo.Input
	v.decode(t, &vin)
	vout, err := validator.Execute(ctx, &vin)
	require.NoError(t, err)
	assert.False(t, vout.IsValid)
	assert.False(t, vout.ApplicantValid)
	v.merge(t, vout)

	engine, err := scoring.NewEngine(scoring.StandardPolicy())
	require.NoError(t, err)
	var ein evaluatecreditworthiness.Input
	v.decode(t, &ein)
	_, err = evaluatecreditworthiness.NewHandler(evaluatecreditworthiness.LoadConfig(), engine, nil, log).Execute(ctx, &ein)
	assert.Error(t, err)
}

// ==========================
// Live services (opt-in)
// ==========================

// TestLiveConnectivity needs a running broker, Postgres and Redis and the
// E2E_LIVE environment variable.
func TestLiveConnectivity(t *testing.T) {
	if os.Getenv("E2E_LIVE") == "" {
		t.Skip("set E2E_LIVE=1 to run against live services")
	}

	cfg, err := config.Load()
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	zeebe, err := camunda.NewClient(cfg.Camunda.BrokerAddress, 10*time.Second)
	require.NoError(t, err)
	defer zeebe.Close()
	assert.NoError(t, zeebe.HealthCheck(ctx))

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err)
	defer pg.Close()
	assert.NoError(t, pg.Ping(ctx))

	rc := database.NewRedis(cfg.Database.Redis)
	defer rc.Close()
	assert.NoError(t, rc.Ping(ctx))

	if cfg.Database.Elasticsearch.Enabled() {
		esc, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		require.NoError(t, err)
		assert.NoError(t, esc.Ping(ctx))
	}
}
