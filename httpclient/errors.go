package httpclient

import (
	"errors"
	"fmt"
)

// ErrorCode classifies HTTP client errors.
type ErrorCode int

const (
	// ErrCodeTimeout indicates the request context ended or a transport
	// deadline passed.
	ErrCodeTimeout ErrorCode = iota
	// ErrCodeConnection indicates the server could not be reached.
	ErrCodeConnection
	// ErrCodeAuth indicates 401 or 403.
	ErrCodeAuth
	// ErrCodeNotFound indicates 404.
	ErrCodeNotFound
	// ErrCodeRateLimit indicates 429.
	ErrCodeRateLimit
	// ErrCodeValidation indicates a request that was never sent, or any other 4xx.
	ErrCodeValidation
	// ErrCodeServer indicates 5xx or an unexpected non-2xx status.
	ErrCodeServer
	// ErrCodeEmptyBody indicates a success status with no readable body.
	ErrCodeEmptyBody
)

var codeNames = map[ErrorCode]string{
	ErrCodeTimeout:    "timeout",
	ErrCodeConnection: "connection",
	ErrCodeAuth:       "auth",
	ErrCodeNotFound:   "not_found",
	ErrCodeRateLimit:  "rate_limit",
	ErrCodeValidation: "validation",
	ErrCodeServer:     "server",
	ErrCodeEmptyBody:  "empty_body",
}

// String returns the error code name.
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "unknown"
}

// Error is a classified HTTP client error.
type Error struct {
	// StatusCode is the HTTP status code, 0 when no response was received.
	StatusCode int
	Code       ErrorCode
	Message    string
	// Body holds the start of a failed response body, if any.
	Body []byte
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("httpclient: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("httpclient: %s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// NewTimeoutError wraps a request that ran out of time or was canceled.
func NewTimeoutError(err error) *Error {
	return &Error{Code: ErrCodeTimeout, Message: err.Error(), Err: err}
}

// NewConnectionError wraps a dial or transport failure.
func NewConnectionError(err error) *Error {
	return &Error{Code: ErrCodeConnection, Message: err.Error(), Err: err}
}

// NewValidationError reports a request that could not be built.
func NewValidationError(msg string) *Error {
	return &Error{Code: ErrCodeValidation, Message: msg}
}

// NewEmptyBodyError reports a success response without a body.
func NewEmptyBodyError(statusCode int) *Error {
	return &Error{StatusCode: statusCode, Code: ErrCodeEmptyBody, Message: "response body is empty"}
}

// ClassifyStatusCode returns the error for a non-2xx status, or nil.
func ClassifyStatusCode(statusCode int, body []byte) *Error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	code := ErrCodeServer
	switch {
	case statusCode == 401 || statusCode == 403:
		code = ErrCodeAuth
	case statusCode == 404:
		code = ErrCodeNotFound
	case statusCode == 429:
		code = ErrCodeRateLimit
	case statusCode >= 400 && statusCode < 500:
		code = ErrCodeValidation
	}
	return &Error{
		StatusCode: statusCode,
		Code:       code,
		Message:    fmt.Sprintf("HTTP %d", statusCode),
		Body:       body,
	}
}

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return 0, false
}

func hasCode(err error, code ErrorCode) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

// IsTimeout reports ErrCodeTimeout.
func IsTimeout(err error) bool { return hasCode(err, ErrCodeTimeout) }

// IsConnection reports ErrCodeConnection.
func IsConnection(err error) bool { return hasCode(err, ErrCodeConnection) }

// IsAuth reports ErrCodeAuth.
func IsAuth(err error) bool { return hasCode(err, ErrCodeAuth) }

// IsNotFound reports ErrCodeNotFound.
func IsNotFound(err error) bool { return hasCode(err, ErrCodeNotFound) }

// IsRateLimit reports ErrCodeRateLimit.
func IsRateLimit(err error) bool { return hasCode(err, ErrCodeRateLimit) }

// IsServerError reports ErrCodeServer.
func IsServerError(err error) bool { return hasCode(err, ErrCodeServer) }

// IsEmptyBody reports ErrCodeEmptyBody.
func IsEmptyBody(err error) bool { return hasCode(err, ErrCodeEmptyBody) }
