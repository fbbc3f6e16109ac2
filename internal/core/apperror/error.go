// Package apperror provides structured error handling for the inventory engine.
// All business errors must use AppError so callers get a stable machine-readable
// kind plus a human-readable reason.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes grouped by the engine's failure taxonomy.
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"
	CodeTimeout  = "TIMEOUT_ERROR"

	// Validation errors (400)
	CodeValidation = "VALIDATION_ERROR"

	// Authentication and authorization (401/403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Business rule violations (422)
	CodeBusinessRule            = "BUSINESS_RULE_VIOLATION"
	CodeInsufficientOnHand      = "INSUFFICIENT_ON_HAND"
	CodeInsufficientStock       = "INSUFFICIENT_STOCK"
	CodeBlockedQuantityExceeded = "BLOCKED_QUANTITY_EXCEEDED"
	CodeTargetEqualsSource      = "TARGET_EQUALS_SOURCE"
	CodeUnallocatedLines        = "UNALLOCATED_LINES"
	CodeInvalidStateTransition  = "INVALID_STATE_TRANSITION"
	CodePeriodClosed            = "PERIOD_CLOSED"

	// Empty query results (404/422)
	CodeNotFound         = "NOT_FOUND"
	CodeNoActivePrice    = "NO_ACTIVE_PRICE"
	CodeNoAvailableStock = "NO_AVAILABLE_STOCK"

	// Concurrency (409)
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodeConcurrencyExhausted   = "CONCURRENCY_EXHAUSTED"
)

// AppError is the standard error type for the engine.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, quantities, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewValidation creates a validation error (400).
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewUnauthorized creates an authentication error (401).
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403).
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// NewNotFound creates a not found error (404).
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewBusinessRule creates a business rule violation error (422).
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewInsufficientOnHand is returned when a decrease exceeds on-hand quantity.
func NewInsufficientOnHand(recordID any, requested, onHand string) *AppError {
	return &AppError{
		Code:       CodeInsufficientOnHand,
		Message:    "Insufficient on-hand quantity",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"stock_record_id": recordID,
			"requested":       requested,
			"on_hand":         onHand,
		},
	}
}

// NewInsufficientStock is returned when demand cannot be satisfied from
// available stock (reserve, block, or allocation shortfall).
func NewInsufficientStock(requested, available string) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    "Insufficient available stock",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"requested": requested,
			"available": available,
		},
	}
}

// NewBlockedQuantityExceeded is returned when a move would relocate more
// blocked quantity than the record holds.
func NewBlockedQuantityExceeded(recordID any, requested, blocked string) *AppError {
	return &AppError{
		Code:       CodeBlockedQuantityExceeded,
		Message:    "Blocked quantity exceeded",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"stock_record_id": recordID,
			"requested":       requested,
			"blocked":         blocked,
		},
	}
}

// NewTargetEqualsSource is returned when a move targets the source shelf.
func NewTargetEqualsSource(shelfID any) *AppError {
	return &AppError{
		Code:       CodeTargetEqualsSource,
		Message:    "Target shelf equals source shelf",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"shelf_id": shelfID},
	}
}

// NewInvalidStateTransition is returned when a document transition is not in
// its state machine table.
func NewInvalidStateTransition(docType, from, to string) *AppError {
	return &AppError{
		Code:       CodeInvalidStateTransition,
		Message:    fmt.Sprintf("%s cannot transition from %s to %s", docType, from, to),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"document_type": docType, "from": from, "to": to},
	}
}

// NewUnallocatedLines is returned when posting an issue whose lines are not
// fully allocated.
func NewUnallocatedLines(docID any, lineNos []int) *AppError {
	return &AppError{
		Code:       CodeUnallocatedLines,
		Message:    "All lines must be fully allocated before posting",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"document_id": docID, "line_nos": lineNos},
	}
}

// NewNoActivePrice is returned when no price interval covers the requested time.
func NewNoActivePrice(recordID any) *AppError {
	return &AppError{
		Code:       CodeNoActivePrice,
		Message:    "No active price for stock record",
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"stock_record_id": recordID},
	}
}

// NewNoAvailableStock is returned when a price/cost query finds no available lots.
func NewNoAvailableStock(productID any) *AppError {
	return &AppError{
		Code:       CodeNoAvailableStock,
		Message:    "No available stock for product",
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"product_id": productID},
	}
}

// NewConcurrentModification creates an optimistic locking conflict error.
// Transient: the movement and document engines retry it internally.
func NewConcurrentModification(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "Record was modified concurrently",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewConcurrencyExhausted is surfaced after the bounded retry loop gives up.
func NewConcurrencyExhausted(attempts int, last error) *AppError {
	return &AppError{
		Code:       CodeConcurrencyExhausted,
		Message:    fmt.Sprintf("Operation failed after %d conflicting attempts", attempts),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"attempts": attempts},
		Err:        last,
	}
}

// NewPeriodClosed is returned when posting into a closed accounting period.
func NewPeriodClosed(period string) *AppError {
	return &AppError{
		Code:       CodePeriodClosed,
		Message:    fmt.Sprintf("Period %s is closed for modifications", period),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"period": period},
	}
}

// NewInternal creates an internal server error (hides details from client).
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// --- Helpers ---

// AsAppError extracts AppError from an error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns the appropriate HTTP status for any error.
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsNotFound checks if error carries CodeNotFound.
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}

// IsConcurrentModification checks if error carries CodeConcurrentModification.
func IsConcurrentModification(err error) bool {
	return HasCode(err, CodeConcurrentModification)
}

// HasCode checks whether err is an AppError with the given code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}
