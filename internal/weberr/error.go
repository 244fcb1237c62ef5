// Package weberr carries HTTP status and public message alongside Go errors
// and turns them into response envelopes at the end of the handler chain.
package weberr

import (
	"errors"
	"fmt"
	"net/http"
)

// DefaultMessage is sent whenever an error has no public message.
const DefaultMessage = "Internal server error"

// Error is an operational error: a failure the handler knows how to report.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Message != "":
		return e.Message + ": " + e.Err.Error()
	case e.Err != nil:
		return e.Err.Error()
	case e.Message != "":
		return e.Message
	}
	return http.StatusText(e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status to respond with, 0 when unset.
func (e *Error) StatusCode() int { return e.Status }

// PublicMessage returns the message safe to show to clients.
func (e *Error) PublicMessage() string { return e.Message }

type statusCoder interface {
	StatusCode() int
}

type publicMessager interface {
	PublicMessage() string
}

// New returns an operational error without an underlying cause.
func New(status int, message string) error {
	return &Error{Status: status, Message: message}
}

// Wrap attaches status and message to err.
func Wrap(err error, status int, message string) error {
	return &Error{Status: status, Message: message, Err: err}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, status int, format string, args ...any) error {
	return &Error{Status: status, Message: fmt.Sprintf(format, args...), Err: err}
}

func BadRequest(message string) error { return New(http.StatusBadRequest, message) }

func Unauthorized(message string) error { return New(http.StatusUnauthorized, message) }

func NotFound(message string) error { return New(http.StatusNotFound, message) }

func Unprocessable(message string) error { return New(http.StatusUnprocessableEntity, message) }

func TooManyRequests(message string) error { return New(http.StatusTooManyRequests, message) }

// Internal hides err behind a 500 with the given public message.
func Internal(err error, message string) error {
	return Wrap(err, http.StatusInternalServerError, message)
}

// StatusCode extracts the status carried by err, defaulting to 500.
func StatusCode(err error) int {
	var sc statusCoder
	if errors.As(err, &sc) {
		if code := sc.StatusCode(); code != 0 {
			return code
		}
	}
	return http.StatusInternalServerError
}

// Message extracts the public message carried by err, defaulting to
// DefaultMessage. Errors that carry no public message never leak their text.
func Message(err error) string {
	var pm publicMessager
	if errors.As(err, &pm) {
		if msg := pm.PublicMessage(); msg != "" {
			return msg
		}
	}
	return DefaultMessage
}
