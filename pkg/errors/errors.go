package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
)

// CustomizedError carries an i18n message key, an http status and the call trace
// the error travelled through.
type CustomizedError struct {
	cause   error
	message string
	trace   []string
	code    int
}

func New(trace, message string, err error) *CustomizedError {
	return &CustomizedError{
		cause:   err,
		message: message,
		trace:   []string{trace},
		code:    http.StatusInternalServerError,
	}
}

func (e *CustomizedError) Code(c int) *CustomizedError {
	e.code = c
	return e
}

func (e *CustomizedError) GetCode() int {
	return e.code
}

func (e *CustomizedError) Trace(trace string) *CustomizedError {
	e.trace = append(e.trace, trace)
	return e
}

// Trace appends trace to a CustomizedError, or wraps a plain error keeping its text as message.
func Trace(trace string, err error) *CustomizedError {
	var ce *CustomizedError
	if stderrors.As(err, &ce) {
		ce.trace = append(ce.trace, trace)
		return ce
	}
	return New(trace, err.Error(), err)
}

func (e *CustomizedError) Message() string {
	if e.message == "" && e.cause != nil {
		return e.cause.Error()
	}
	return e.message
}

func (e *CustomizedError) Unwrap() error {
	return e.cause
}

func (e *CustomizedError) Error() string {
	cause := ""
	if e.cause != nil {
		cause = e.cause.Error()
	}
	return fmt.Sprintf(`{"trace":"%s","code":%d,"msg":"%s","error":%q}`, strings.Join(e.trace, "->"), e.code, e.message, cause)
}

// Is reports whether err is, or wraps, target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As is errors.As re-exported so callers need not import both packages.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// CodeOf returns the http status carried by err, 500 for anything else.
func CodeOf(err error) int {
	var ce *CustomizedError
	if stderrors.As(err, &ce) {
		return ce.code
	}
	return http.StatusInternalServerError
}
