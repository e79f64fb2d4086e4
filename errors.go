package scimfilter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/nlstn/go-scimfilter/internal/diag"
	"github.com/nlstn/go-scimfilter/internal/sqlfilter"
)

// Sentinel errors. These can be used with errors.Is() for error handling.
var (
	// ErrInvalidFilter is matched by every parse failure.
	// Maps to HTTP 400 Bad Request with scimType invalidFilter.
	ErrInvalidFilter = diag.ErrInvalidFilter

	// ErrUntranslatable indicates a valid filter that cannot be expressed in SQL
	// against the configured schema.
	// Maps to HTTP 400 Bad Request with scimType invalidFilter.
	ErrUntranslatable = sqlfilter.ErrUntranslatable
)

// SyntaxError describes the first lexical or grammar violation in a filter.
// Line is always 0 and Column is a zero-based character offset.
type SyntaxError = diag.SyntaxError

// ErrorSchema is the schema URI of SCIM error responses.
const ErrorSchema = "urn:ietf:params:scim:api:messages:2.0:Error"

// ScimType is the SCIM detail error keyword.
type ScimType string

// SCIM detail error keywords relevant to filters and paths.
const (
	ScimTypeInvalidFilter ScimType = "invalidFilter"
	ScimTypeInvalidPath   ScimType = "invalidPath"
	ScimTypeInvalidValue  ScimType = "invalidValue"
)

// Error is a SCIM error response. It wraps the error that caused it so
// errors.Is() and errors.As() keep working.
//
// Example usage in an HTTP handler:
//
//	filter, err := parser.Parse(r.URL.Query().Get("filter"))
//	if err != nil {
//	    scimErr := scimfilter.NewError(err, scimfilter.ScimTypeInvalidFilter)
//	    w.Header().Set("Content-Type", "application/scim+json")
//	    w.WriteHeader(scimErr.Status)
//	    _ = json.NewEncoder(w).Encode(scimErr)
//	    return
//	}
type Error struct {
	// Status is the HTTP status code.
	Status int

	// ScimType is set for 400 responses.
	ScimType ScimType

	// Detail is a human-readable description.
	Detail string

	// Err is the underlying error, if any.
	Err error
}

// NewError builds the SCIM error response for err. scimType is used when err
// is a client error.
func NewError(err error, scimType ScimType) *Error {
	status := MapErrorToHTTPStatus(err)
	e := &Error{Status: status, Detail: err.Error(), Err: err}
	if status == http.StatusBadRequest {
		e.ScimType = scimType
	}
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Detail
}

// Unwrap implements error unwrapping for errors.Is() and errors.As().
func (e *Error) Unwrap() error {
	return e.Err
}

// MarshalJSON renders the SCIM error document. The status is a string as the
// SCIM protocol requires.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Schemas  []string `json:"schemas"`
		Status   string   `json:"status"`
		ScimType ScimType `json:"scimType,omitempty"`
		Detail   string   `json:"detail,omitempty"`
	}{
		Schemas:  []string{ErrorSchema},
		Status:   strconv.Itoa(e.Status),
		ScimType: e.ScimType,
		Detail:   e.Detail,
	})
}

// MapErrorToHTTPStatus returns the HTTP status code for err.
func MapErrorToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var scimErr *Error
	if errors.As(err, &scimErr) {
		return scimErr.Status
	}

	switch {
	case errors.Is(err, ErrInvalidFilter), errors.Is(err, ErrUntranslatable):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// IsInvalidFilter reports whether err is a client-side filter error.
func IsInvalidFilter(err error) bool {
	return errors.Is(err, ErrInvalidFilter) || errors.Is(err, ErrUntranslatable)
}
