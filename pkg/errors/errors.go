// Package errors provides structured error handling for the planner.
// Every failure that crosses a component boundary is an *AppError with a
// stable code so callers can branch on the category instead of the text.
package errors

import (
	stderrors "errors"
	"fmt"
	"math"
	"net/http"
	"runtime"
	"strings"
	"time"
)

// ErrorCode represents an error code
type ErrorCode string

// Error codes
const (
	// Client errors
	CodeBadRequest       ErrorCode = "BAD_REQUEST"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeConflict         ErrorCode = "CONFLICT"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeTooManyRequests  ErrorCode = "TOO_MANY_REQUESTS"

	// Server errors
	CodeInternal             ErrorCode = "INTERNAL_ERROR"
	CodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"

	// Reconciliation errors. MalformedInput is fatal for a pass; the miss
	// and violation codes are recoverable and surface as warnings.
	CodeMalformedInput     ErrorCode = "MALFORMED_INPUT"
	CodeCatalogMatchMiss   ErrorCode = "CATALOG_MATCH_MISS"
	CodeIngredientDataMiss ErrorCode = "INGREDIENT_DATA_MISS"
	CodeScheduleMiss       ErrorCode = "SCHEDULE_MISS"
	CodeUnknownEater       ErrorCode = "UNKNOWN_EATER"
	CodeExclusionViolation ErrorCode = "EXCLUSION_VIOLATION"
	CodeMealOutsideDate    ErrorCode = "MEAL_OUTSIDE_DATE"
	CodePersistenceFailure ErrorCode = "PERSISTENCE_FAILURE"
	CodeStreamError        ErrorCode = "STREAM_ERROR"
	CodeRecipeNotFound     ErrorCode = "RECIPE_NOT_FOUND"
)

// AppError represents an application error with structured information
type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// StatusCode returns the appropriate HTTP status code
func (e *AppError) StatusCode() int {
	switch e.Code {
	case CodeBadRequest, CodeValidationFailed:
		return http.StatusBadRequest
	case CodeNotFound, CodeRecipeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeMalformedInput:
		return http.StatusUnprocessableEntity
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeStreamError, CodeExternalServiceError:
		return http.StatusBadGateway
	case CodePersistenceFailure:
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}

// Recoverable reports whether the error is a warning-level miss that the
// pipeline records and continues past.
func (e *AppError) Recoverable() bool {
	switch e.Code {
	case CodeCatalogMatchMiss, CodeIngredientDataMiss, CodeScheduleMiss,
		CodeUnknownEater, CodeExclusionViolation, CodeMealOutsideDate:
		return true
	}
	return false
}

// WithMetadata adds metadata to the error
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// WithCause adds a cause error
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message, details string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Details:    details,
		StackTrace: getStackTrace(),
	}
}

// NewBadRequestError creates a bad request error
func NewBadRequestError(message string) *AppError {
	return NewAppError(CodeBadRequest, message, "")
}

// NewValidationError creates a validation error
func NewValidationError(details string) *AppError {
	return NewAppError(CodeValidationFailed, "Validation failed", details)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	message := "Resource not found"
	if resource != "" {
		message = fmt.Sprintf("%s not found", resource)
	}
	return NewAppError(CodeNotFound, message, "")
}

// NewConflictError creates a conflict error
func NewConflictError(message string) *AppError {
	return NewAppError(CodeConflict, message, "")
}

// NewTooManyRequestsError rejects a request over the rate limit
func NewTooManyRequestsError(retryAfter time.Duration) *AppError {
	return NewAppError(CodeTooManyRequests, "Rate limit exceeded", "").
		WithMetadata("retry_after_seconds", int(math.Ceil(retryAfter.Seconds())))
}

// NewVersionConflictError reports an optimistic concurrency mismatch on a
// stored document.
func NewVersionConflictError(resource string, expected, actual int64) *AppError {
	return NewAppError(
		CodeConflict,
		"Version conflict",
		fmt.Sprintf("%s was modified concurrently (expected version %d, found %d)", resource, expected, actual),
	).WithMetadata("expected_version", expected).WithMetadata("actual_version", actual)
}

// NewInternalError creates an internal server error
func NewInternalError(message string) *AppError {
	if message == "" {
		message = "An unexpected error occurred"
	}
	return NewAppError(CodeInternal, message, "")
}

// NewExternalServiceError creates an external service error
func NewExternalServiceError(service string, cause error) *AppError {
	return NewAppError(
		CodeExternalServiceError,
		"External service error",
		fmt.Sprintf("Failed to communicate with %s", service),
	).WithCause(cause)
}

// NewMalformedInputError reports a generation output that cannot be
// reconciled at all.
func NewMalformedInputError(details string) *AppError {
	return NewAppError(CodeMalformedInput, "Malformed generation output", details)
}

// NewCatalogMatchMissError reports a catalog reference with no matching
// catalog entry.
func NewCatalogMatchMissError(name string) *AppError {
	return NewAppError(
		CodeCatalogMatchMiss,
		"Catalog match miss",
		fmt.Sprintf("No catalog recipe matches %q", name),
	).WithMetadata("name", name)
}

// NewIngredientDataMissError reports an ingredient absent from the health
// table.
func NewIngredientDataMissError(ingredient string) *AppError {
	return NewAppError(
		CodeIngredientDataMiss,
		"Ingredient data miss",
		fmt.Sprintf("No health data for %q", ingredient),
	).WithMetadata("ingredient", ingredient)
}

// NewScheduleMissError reports a meal slot with no schedule entry.
func NewScheduleMissError(weekday, mealType string) *AppError {
	return NewAppError(
		CodeScheduleMiss,
		"Schedule miss",
		fmt.Sprintf("No schedule entry for %s %s", weekday, mealType),
	).WithMetadata("weekday", weekday).WithMetadata("meal_type", mealType)
}

// NewUnknownEaterError reports a target eater name that matches nobody in
// the household.
func NewUnknownEaterError(name string) *AppError {
	return NewAppError(
		CodeUnknownEater,
		"Unknown eater",
		fmt.Sprintf("No household member is called %q", name),
	).WithMetadata("name", name)
}

// NewExclusionViolationError reports a meal that serves an eater an
// ingredient they exclude.
func NewExclusionViolationError(eaterID, recipeName, ingredient string) *AppError {
	return NewAppError(
		CodeExclusionViolation,
		"Excluded ingredient served",
		fmt.Sprintf("%s contains %s, excluded by eater %s", recipeName, ingredient, eaterID),
	).WithMetadata("eater_id", eaterID).WithMetadata("ingredient", ingredient)
}

// NewMealOutsideDateError reports a meal of a single-day regeneration that
// falls on another date.
func NewMealOutsideDateError(date, regenerated string) *AppError {
	return NewAppError(
		CodeMealOutsideDate,
		"Meal outside regenerated date",
		fmt.Sprintf("Meal on %s ignored while regenerating %s", date, regenerated),
	).WithMetadata("date", date)
}

// NewPersistenceError reports a storage write that was rejected.
func NewPersistenceError(operation string, cause error) *AppError {
	return NewAppError(
		CodePersistenceFailure,
		"Persistence failure",
		fmt.Sprintf("Failed to %s", operation),
	).WithCause(cause)
}

// NewStreamError reports an upstream generation stream that did not
// complete.
func NewStreamError(details string, cause error) *AppError {
	return NewAppError(CodeStreamError, "Generation stream failed", details).WithCause(cause)
}

// NewRecipeNotFoundError creates a recipe not found error
func NewRecipeNotFoundError(recipeID string) *AppError {
	return NewAppError(
		CodeRecipeNotFound,
		"Recipe not found",
		fmt.Sprintf("Recipe with ID %s does not exist", recipeID),
	).WithMetadata("recipe_id", recipeID)
}

// Wrap wraps an error as an internal error if it's not already an AppError
func Wrap(err error, message string) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	return NewInternalError(message).WithCause(err)
}

// Is checks if an error is of a specific error code
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// getStackTrace captures the current stack trace
func getStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var builder strings.Builder
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "pkg/errors") {
			builder.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	return builder.String()
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Value   interface{} `json:"value"`
	Tag     string      `json:"tag"`
	Message string      `json:"message"`
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}

	if len(v) == 1 {
		return v[0].Message
	}

	var messages []string
	for _, err := range v {
		messages = append(messages, err.Message)
	}

	return strings.Join(messages, "; ")
}

// NewValidationErrors creates validation errors from validator errors
func NewValidationErrors(errors []ValidationError) *AppError {
	validationErrs := ValidationErrors(errors)

	return NewAppError(
		CodeValidationFailed,
		"Validation failed",
		validationErrs.Error(),
	).WithMetadata("validation_errors", validationErrs)
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error ErrorDetails `json:"error"`
}

// ErrorDetails represents the error details in API responses
type ErrorDetails struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Timestamp string                 `json:"timestamp"`
}

// ToErrorResponse converts an AppError to an API error response
func ToErrorResponse(err *AppError, requestID string) ErrorResponse {
	return ErrorResponse{
		Error: ErrorDetails{
			Code:      err.Code,
			Message:   err.Message,
			Details:   err.Details,
			Metadata:  err.Metadata,
			RequestID: requestID,
			Timestamp: fmt.Sprintf("%d", time.Now().Unix()),
		},
	}
}
