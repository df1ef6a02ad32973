package rental

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies the terminal, user-facing failures of the rental engine.
type Kind string

const (
	KindInvalidInterval   Kind = "INVALID_INTERVAL"
	KindMachineryNotFound Kind = "MACHINERY_NOT_FOUND"
	KindMachineryInactive Kind = "MACHINERY_INACTIVE"
	KindNoAvailability    Kind = "NO_AVAILABILITY"
	KindRentalNotFound    Kind = "RENTAL_NOT_FOUND"
	KindAlreadyReturned   Kind = "ALREADY_RETURNED"
	KindStoreUnavailable  Kind = "STORE_UNAVAILABLE"
)

var statusByKind = map[Kind]int{
	KindInvalidInterval:   http.StatusUnprocessableEntity,
	KindMachineryNotFound: http.StatusNotFound,
	KindMachineryInactive: http.StatusUnprocessableEntity,
	KindNoAvailability:    http.StatusConflict,
	KindRentalNotFound:    http.StatusNotFound,
	KindAlreadyReturned:   http.StatusConflict,
	KindStoreUnavailable:  http.StatusServiceUnavailable,
}

// HTTPStatus maps an error kind to the response status the API layer uses.
func HTTPStatus(kind Kind) int {
	if status, ok := statusByKind[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Error is the typed error every engine operation returns on a business-rule
// or infrastructure failure. None of the kinds are retried internally.
type Error struct {
	kind    Kind
	message string
	details any
	cause   error
}

func NewError(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

func WrapError(kind Kind, err error, message string) *Error {
	if err == nil {
		return NewError(kind, message)
	}
	return &Error{kind: kind, message: message, cause: err}
}

func (e *Error) Kind() Kind {
	if e == nil {
		return KindStoreUnavailable
	}
	return e.kind
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

// Details carries auxiliary data for the caller; NO_AVAILABILITY uses it to
// surface the conflicting rental count.
func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// AsError recovers the typed engine error from an error chain, or nil.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}
