// internal/engine/errors.go
package engine

import (
	"errors"
	"fmt"
)

// Common engine errors, usable with errors.Is against any *Error of the same code
var (
	ErrInvalidSite        = &Error{Code: ErrCodeInvalidSite}
	ErrInvalidListingType = &Error{Code: ErrCodeInvalidListingType}
	ErrInvalidDate        = &Error{Code: ErrCodeInvalidDate}
	ErrInvalidLimit       = &Error{Code: ErrCodeInvalidLimit}
	ErrInvalidInput       = &Error{Code: ErrCodeInvalidInput}
	ErrNoResultsFound     = &Error{Code: ErrCodeNoResults}
	ErrGeoCoordsNotFound  = &Error{Code: ErrCodeGeoCoordsNotFound}
	ErrParse              = &Error{Code: ErrCodeParseError}
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	ErrCodeInvalidSite        ErrorCode = "INVALID_SITE"
	ErrCodeInvalidListingType ErrorCode = "INVALID_LISTING_TYPE"
	ErrCodeInvalidDate        ErrorCode = "INVALID_DATE"
	ErrCodeInvalidLimit       ErrorCode = "INVALID_LIMIT"
	ErrCodeInvalidInput       ErrorCode = "INVALID_INPUT"
	ErrCodeNoResults          ErrorCode = "NO_RESULTS"
	ErrCodeGeoCoordsNotFound  ErrorCode = "GEO_COORDS_NOT_FOUND"
	ErrCodeParseError         ErrorCode = "PARSE_ERROR"
)

// Error wraps errors with a code and the offending values
type Error struct {
	Code       ErrorCode
	Message    string
	Underlying error
	Details    map[string]interface{}
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	} else {
		msg = fmt.Sprintf("%s: %s", e.Code, msg)
	}
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %v", msg, e.Underlying)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Underlying
}

// Is matches any *Error with the same code
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// NewError creates a new Error
func NewError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Underlying: err,
		Details:    make(map[string]interface{}),
	}
}

// WithDetail adds a detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsCallerError reports whether err is an input validation failure
func IsCallerError(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Code {
	case ErrCodeInvalidSite, ErrCodeInvalidListingType, ErrCodeInvalidDate, ErrCodeInvalidLimit, ErrCodeInvalidInput:
		return true
	}
	return false
}

// NoResults builds the resolution failure for a location
func NoResults(location string) *Error {
	return NewError(ErrCodeNoResults, fmt.Sprintf("no results found for location %q", location), nil).
		WithDetail("location", location)
}

// GeoCoordsNotFound builds the radius-search centroid failure
func GeoCoordsNotFound(location string) *Error {
	return NewError(ErrCodeGeoCoordsNotFound, fmt.Sprintf("coordinates not found for %q", location), nil).
		WithDetail("location", location)
}
