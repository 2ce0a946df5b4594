package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Codes group failures by what the user has to do about them.
const (
	ErrConfig     = "CONFIG"
	ErrAuth       = "AUTH"
	ErrFetch      = "FETCH"
	ErrNotFound   = "NOT_FOUND"
	ErrSSH        = "SSH"
	ErrKubeconfig = "KUBECONFIG"
)

// Error is a failure the CLI can explain. Error() renders it as a block:
//
//	✗ <message>
//
//	  <cause>
//
//	  <suggestion>
//
// while Short keeps it to one line for the dashboard banner.
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error

	// Status is the portal's HTTP status, 0 when the request never got an
	// answer.
	Status int
}

// New returns an Error without a cause.
func New(code, message, suggestion string) *Error {
	return WrapWithCode(nil, code, message, suggestion)
}

// Wrap attaches message to err as a FETCH error.
func Wrap(err error, message string) *Error {
	return WrapWithCode(err, ErrFetch, message, "")
}

// WrapWithCode attaches message and suggestion to err under code.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{Code: code, Message: message, Suggestion: suggestion, Cause: err}
}

// FromStatus maps a non-2xx portal response to a structured error.
// 403 is the only status treated as an authentication failure; the portal
// answers every unauthenticated API call with it.
func FromStatus(status int, method, path, body string) *Error {
	e := &Error{
		Code:    ErrFetch,
		Status:  status,
		Message: fmt.Sprintf("%s %s returned %d %s", method, path, status, http.StatusText(status)),
	}
	if body = strings.TrimSpace(body); body != "" {
		e.Cause = errors.New(body)
	}

	switch status {
	case http.StatusForbidden:
		e.Code = ErrAuth
		e.Message = "Portal session is not authenticated"
		e.Suggestion = "Log in through the browser and update session_cookie, or set PORTALCTL_SESSION_COOKIE"
	case http.StatusNotFound:
		e.Code = ErrNotFound
		e.Suggestion = "Check the resource ID is correct"
	default:
		e.Suggestion = "Press r to retry, or check the portal logs"
	}
	return e
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "✗ %s\n", e.Message)
	for _, extra := range []string{causeText(e.Cause), e.Suggestion} {
		if extra != "" {
			fmt.Fprintf(&b, "\n  %s\n", extra)
		}
	}
	return b.String()
}

func causeText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// Short is the message and cause on one line, without the suggestion.
func (e *Error) Short() string {
	if c := causeText(e.Cause); c != "" {
		return e.Message + ": " + c
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// IsCode reports whether any *Error in err's chain carries code. Unlike
// errors.As it keeps looking past an outer *Error with another code.
func IsCode(err error, code string) bool {
	for ; err != nil; err = errors.Unwrap(err) {
		if e, ok := err.(*Error); ok && e.Code == code {
			return true
		}
	}
	return false
}

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool {
	return IsCode(err, ErrAuth)
}

// Summary returns a single-line description of any error.
func Summary(err error) string {
	if err == nil {
		return ""
	}
	var pErr *Error
	if errors.As(err, &pErr) {
		return pErr.Short()
	}
	return err.Error()
}
