// Package apperr defines the error taxonomy shared by all handlers and
// the uniform JSON envelope they render it with.
package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error for HTTP translation.
type Kind int

const (
	KindValidation Kind = iota // bad input shape or ids -> 400
	KindNotFound               // unknown project/section/report-type -> 404
	KindConflict               // duplicate active session -> 409
	KindUpstream               // orchestrator/suggestion/renderer failure -> 502
)

// Error is a typed application error.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Validation returns a 400-class error.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// NotFound returns a 404-class error.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Conflict returns a 409-class error.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// Upstream wraps a failure from an external service.
func Upstream(err error, format string, args ...any) *Error {
	return &Error{Kind: KindUpstream, Msg: fmt.Sprintf(format, args...), Err: err}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, k Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == k
}

func status(err error) int {
	var ae *Error
	if !errors.As(err, &ae) {
		return http.StatusInternalServerError
	}
	switch ae.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// envelope is the uniform error body: {"success":false,"error":"..."}.
type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Write renders err as the uniform JSON envelope with its mapped status.
func Write(w http.ResponseWriter, err error) {
	msg := "internal error"
	var ae *Error
	if errors.As(err, &ae) {
		msg = ae.Msg
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status(err))
	json.NewEncoder(w).Encode(envelope{Success: false, Error: msg})
}
