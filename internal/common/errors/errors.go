package errors

import (
	"fmt"
	"strings"
	"time"
)

type ErrorCode string

const (
	ErrCodeParseError      ErrorCode = "PARSE_ERROR"
	ErrCodeInternalError   ErrorCode = "INTERNAL_ERROR"
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout         ErrorCode = "TIMEOUT_ERROR"
	ErrCodeNotFound        ErrorCode = "RESOURCE_NOT_FOUND"

	ErrCodeApplicantValidationFailed ErrorCode = "APPLICANT_VALIDATION_FAILED"
	ErrCodeApplicantInfoIncomplete   ErrorCode = "APPLICANT_INFO_INCOMPLETE"

	ErrCodeDomainInputInvalid          ErrorCode = "DOMAIN_INPUT_INVALID"
	ErrCodeScoringConfigurationInvalid ErrorCode = "SCORING_CONFIGURATION_INVALID"

	ErrCodeApplicantNotApproved ErrorCode = "APPLICANT_NOT_APPROVED"
	ErrCodeDuplicateApplicant   ErrorCode = "DUPLICATE_APPLICANT"
	ErrCodeApplicantNotFound    ErrorCode = "APPLICANT_NOT_FOUND"
	ErrCodeDeleteNotConfirmed   ErrorCode = "DELETE_NOT_CONFIRMED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeDatabaseDeleteFailed     ErrorCode = "DATABASE_DELETE_FAILED"

	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeSearchQueryFailed             ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeSearchTimeout                 ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeIndexNotFound                 ErrorCode = "INDEX_NOT_FOUND"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeInvalidExportFormat ErrorCode = "INVALID_EXPORT_FORMAT"
	ErrCodeExportFailed        ErrorCode = "EXPORT_FAILED"
)

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches key/value pairs that are forwarded as error variables.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewParseError(err error) *StandardError {
	return newError(ErrCodeParseError, "Job variables could not be parsed", err.Error(), false)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternalError, "Unexpected error", err.Error(), false)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalService, fmt.Sprintf("External service '%s' error", service), err.Error(), true)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("Service '%s' timeout", service), err.Error(), true)
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return newError(ErrCodeNotFound, fmt.Sprintf("Resource not found in %s", service), details, false)
}

// --- Applicant and scoring ---

func NewApplicantValidationFailedError(details string) *StandardError {
	return newError(ErrCodeApplicantValidationFailed, "Applicant data validation failed", details, false)
}

func NewApplicantInfoIncompleteError() *StandardError {
	return newError(ErrCodeApplicantInfoIncomplete, "Applicant information step has not passed validation", "applicantValid is false", false)
}

func NewDomainInputInvalidError(err error) *StandardError {
	return newError(ErrCodeDomainInputInvalid, "Scoring input is outside the accepted domain", err.Error(), false)
}

func NewScoringConfigurationInvalidError(err error) *StandardError {
	return newError(ErrCodeScoringConfigurationInvalid, "Scoring policy is invalid", err.Error(), false)
}

// --- Applicant store ---

func NewApplicantNotApprovedError(decision string) *StandardError {
	return newError(ErrCodeApplicantNotApproved, "Only approved applicants can be saved", fmt.Sprintf("decision: %s", decision), false)
}

func NewDuplicateApplicantError(nationalID string) *StandardError {
	return newError(ErrCodeDuplicateApplicant, "Applicant already exists", fmt.Sprintf("cnic: %s", nationalID), false)
}

func NewApplicantNotFoundError(id int64) *StandardError {
	return newError(ErrCodeApplicantNotFound, "Applicant not found", fmt.Sprintf("applicantId: %d", id), false)
}

func NewDeleteNotConfirmedError(id int64) *StandardError {
	return newError(ErrCodeDeleteNotConfirmed, "Deletion was not confirmed", fmt.Sprintf("applicantId: %d", id), false)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true)
}

func NewQueryTimeoutError(queryType string) *StandardError {
	return newError(ErrCodeQueryTimeout, "Database query timeout", fmt.Sprintf("queryType: %s", queryType), true)
}

func NewDatabaseInsertFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Database insert operation failed", err.Error(), true)
}

func NewDatabaseDeleteFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseDeleteFailed, "Database delete operation failed", err.Error(), true)
}

// --- Search ---

func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeElasticsearchConnectionFailed, "Elasticsearch connection error", err.Error(), true)
}

func NewSearchQueryFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Elasticsearch query error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true)
}

func NewSearchTimeoutError(queryType string) *StandardError {
	return newError(ErrCodeSearchTimeout, "Elasticsearch query timeout", fmt.Sprintf("queryType: %s", queryType), true)
}

func NewIndexNotFoundError(indexName string) *StandardError {
	return newError(ErrCodeIndexNotFound, "Elasticsearch index not found", fmt.Sprintf("indexName: %s", indexName), false)
}

// --- Notification and export ---

func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()), true)
}

func NewInvalidExportFormatError(format string) *StandardError {
	return newError(ErrCodeInvalidExportFormat, "Unsupported export format", fmt.Sprintf("format: %s", format), false)
}

func NewExportFailedError(format string, err error) *StandardError {
	return newError(ErrCodeExportFailed, "Export generation failed",
		fmt.Sprintf("format: %s, error: %s", format, err.Error()), false)
}

// BPMNErrorMapping lists codes whose BPMN error code differs from the
// internal one. Unlisted codes are thrown as-is.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeQueryTimeout:  "DATABASE_TIMEOUT",
	ErrCodeSearchTimeout: "SEARCH_TIMEOUT",
	ErrCodeIndexNotFound: "SEARCH_INDEX_NOT_FOUND",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeDatabaseDeleteFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeExternalService:
		return 3 // technical errors

	case ErrCodeQueryTimeout,
		ErrCodeSearchTimeout,
		ErrCodeTimeout:
		return 2

	default:
		return 0 // business errors
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"errorCategory":     GetErrorCategory(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "SCORING") || strings.Contains(codeStr, "DOMAIN_INPUT"):
		return "SCORING"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "ELASTICSEARCH") || strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "EXPORT"):
		return "EXPORT"
	case strings.Contains(codeStr, "APPLICANT") || strings.Contains(codeStr, "DELETE") || strings.Contains(codeStr, "LOCATION"):
		return "APPLICANT"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "PARSE"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
