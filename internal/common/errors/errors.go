// Package errors provides the standardized error taxonomy for the
// dialogue and search orchestration core.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeMissingSlot         ErrorCode = "MISSING_SLOT"
	ErrCodeInvalidCountry      ErrorCode = "INVALID_COUNTRY"
	ErrCodeInvalidDate         ErrorCode = "INVALID_DATE"
	ErrCodeAmbiguousHotel      ErrorCode = "AMBIGUOUS_HOTEL"
	ErrCodeHotelNotFound       ErrorCode = "HOTEL_NOT_FOUND"
	ErrCodeSearchTimeout       ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeSearchFailed        ErrorCode = "SEARCH_FAILED"
	ErrCodeNoResults           ErrorCode = "NO_RESULTS"
	ErrCodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
	ErrCodeUnknownDeparture    ErrorCode = "UNKNOWN_DEPARTURE"
)

// StandardError is a structured application error. Slot-level and
// search-level errors are handled inside the orchestration core and
// converted to user-facing questions or messages; only
// UPSTREAM_UNAVAILABLE after retries surfaces as a hard failure.
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

// AsStandard unwraps err into a *StandardError if possible.
func AsStandard(err error) (*StandardError, bool) {
	var se *StandardError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// CodeOf returns the error code, or empty for non-standard errors.
func CodeOf(err error) ErrorCode {
	if se, ok := AsStandard(err); ok {
		return se.Code
	}
	return ""
}

// IsRetryable reports whether err is a retryable StandardError.
func IsRetryable(err error) bool {
	se, ok := AsStandard(err)
	return ok && se.Retryable
}

// ==========================
// Error Constructors
// ==========================

// NewMissingSlotError creates a recoverable error for an unfilled slot.
func NewMissingSlotError(slot string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingSlot,
		Message:   "Required search slot is not filled",
		Details:   fmt.Sprintf("slot: %s", slot),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidCountryError creates a terminal-for-turn error for a
// destination the agency does not sell.
func NewInvalidCountryError(country string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidCountry,
		Message:   "Destination is not sellable",
		Details:   fmt.Sprintf("country: %s", country),
		Retryable: false,
		Metadata:  map[string]interface{}{"country": country},
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidDateError creates a re-ask error for a date outside the
// sellable horizon.
func NewInvalidDateError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidDate,
		Message:   "Date is outside the sellable horizon",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAmbiguousHotelError creates a recoverable disambiguation error.
func NewAmbiguousHotelError(query string, count int) *StandardError {
	return &StandardError{
		Code:      ErrCodeAmbiguousHotel,
		Message:   "Hotel name matched multiple hotels",
		Details:   fmt.Sprintf("query: %s, matches: %d", query, count),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewHotelNotFoundError creates a non-retryable lookup miss.
func NewHotelNotFoundError(query string) *StandardError {
	return &StandardError{
		Code:      ErrCodeHotelNotFound,
		Message:   "Hotel not found in operator dictionaries",
		Details:   fmt.Sprintf("query: %s", query),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchTimeoutError creates a retryable error for a search that
// exceeded the poll-attempts ceiling.
func NewSearchTimeoutError(requestID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchTimeout,
		Message:   "Search did not become usable within the poll budget",
		Details:   fmt.Sprintf("requestId: %s", requestID),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchFailedError creates a retryable error for a failed search job.
func NewSearchFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchFailed,
		Message:   "Search job failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoResultsError creates a recoverable empty-result error; the caller
// invokes the fallback planner.
func NewNoResultsError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoResults,
		Message:   "No offers matched the requested filters",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamUnavailableError marks the lookup/search API unreachable
// after bounded internal retries.
func NewUpstreamUnavailableError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamUnavailable,
		Message:   fmt.Sprintf("External service '%s' is unavailable", service),
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownDepartureError creates a re-ask error for a departure city
// absent from the dictionary. No silent default is ever substituted.
func NewUnknownDepartureError(city string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownDeparture,
		Message:   "Departure city not found in dictionary",
		Details:   fmt.Sprintf("city: %s", city),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// GetRetryCount returns the internal retry budget for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeSearchTimeout, ErrCodeSearchFailed:
		return 1 // one automatic re-submit, then apologize
	default:
		return 0 // dialogue errors: ask, don't retry
	}
}
