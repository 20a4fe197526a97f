// Package apperr defines the error taxonomy shared by every layer of the
// service. Each Kind maps to exactly one HTTP status so the HTTP edge never
// has to guess from error strings.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error.
type Kind string

const (
	KindValidation     Kind = "VALIDATION_ERROR"
	KindAuthentication Kind = "AUTHENTICATION_ERROR"
	KindRevokedToken   Kind = "REVOKED_TOKEN"
	KindAuthorization  Kind = "AUTHORIZATION_ERROR"
	KindNotFound       Kind = "NOT_FOUND_ERROR"
	KindRegistry       Kind = "REGISTRY_ERROR"
	KindLogFile        Kind = "LOG_FILE_ERROR"
	KindInternal       Kind = "INTERNAL_ERROR"
)

var statusByKind = map[Kind]int{
	KindValidation:     http.StatusBadRequest,
	KindAuthentication: http.StatusUnauthorized,
	KindRevokedToken:   http.StatusUnauthorized,
	KindAuthorization:  http.StatusForbidden,
	KindNotFound:       http.StatusNotFound,
	KindRegistry:       http.StatusServiceUnavailable,
	KindLogFile:        http.StatusInternalServerError,
	KindInternal:       http.StatusInternalServerError,
}

// Error is a classified error. Reason is an optional machine-readable
// sub-classification (e.g. "expired" for an authentication failure).
type Error struct {
	Kind    Kind
	Message string
	Reason  string
	Details []string
	Err     error

	// status overrides the kind's status when non-zero.
	status int
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status code for the error kind.
func (e *Error) Status() int {
	if e.status != 0 {
		return e.status
	}
	if s, ok := statusByKind[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// New creates a classified error.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap classifies err under kind with a human message.
func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// WithReason returns a copy of e carrying reason.
func (e *Error) WithReason(reason string) *Error {
	cp := *e
	cp.Reason = reason
	return &cp
}

// WithDetails returns a copy of e carrying details.
func (e *Error) WithDetails(details ...string) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// As extracts the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	if ae, ok := As(err); ok {
		return ae.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Status returns the HTTP status for err.
func Status(err error) int {
	if ae, ok := As(err); ok {
		return ae.Status()
	}
	return http.StatusInternalServerError
}

func Validation(msg string, details ...string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Details: details}
}

func Authentication(reason, msg string) *Error {
	return &Error{Kind: KindAuthentication, Message: msg, Reason: reason}
}

func Authorization(msg string) *Error {
	return &Error{Kind: KindAuthorization, Message: msg}
}

func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: resource + " not found"}
}

func Registry(err error, msg string) *Error {
	return &Error{Kind: KindRegistry, Message: msg, Err: err}
}

// RegistryCommand is a registry error reported by a reachable process
// manager. It keeps the registry kind but answers 500, not 503.
func RegistryCommand(err error, msg string) *Error {
	return &Error{Kind: KindRegistry, Message: msg, Err: err, status: http.StatusInternalServerError}
}

func LogFile(err error, msg string) *Error {
	return &Error{Kind: KindLogFile, Message: msg, Err: err}
}
