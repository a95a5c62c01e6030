package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kbukum/chatstream/httpclient"
)

// ErrorKind classifies engine errors.
type ErrorKind int

const (
	// KindTransport covers connection failures, DNS errors, mid-stream read
	// failures and cancellation.
	KindTransport ErrorKind = iota
	// KindHTTPStatus indicates a non-2xx response.
	KindHTTPStatus
	// KindEmptyBody indicates a success status without a readable body.
	KindEmptyBody
	// KindDecode indicates a malformed line. Never fatal to an exchange.
	KindDecode
	// KindConcurrentExchange indicates Send or Reset while an exchange is in flight.
	KindConcurrentExchange
	// KindNotOpenForWrite indicates an attempt to mutate a turn that is not
	// the open placeholder. Always a programming defect.
	KindNotOpenForWrite
	// KindInvalidInput covers bad configuration and invalid turns.
	KindInvalidInput
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindHTTPStatus:
		return "http_status"
	case KindEmptyBody:
		return "empty_body"
	case KindDecode:
		return "decode"
	case KindConcurrentExchange:
		return "concurrent_exchange"
	case KindNotOpenForWrite:
		return "not_open_for_write"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "unknown"
	}
}

// Error is a classified engine error.
type Error struct {
	Kind ErrorKind
	// StatusCode is set for KindHTTPStatus.
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("llm: %s (HTTP %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("llm: %s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// Sentinel errors.
var (
	ErrConcurrentExchange = &Error{Kind: KindConcurrentExchange, Message: "an exchange is already in flight"}
	ErrNotOpenForWrite    = &Error{Kind: KindNotOpenForWrite, Message: "trailing turn is not an open assistant turn"}
	ErrInvalidRole        = &Error{Kind: KindInvalidInput, Message: "role must be system, user or assistant"}
	ErrNoTransport        = &Error{Kind: KindInvalidInput, Message: "transport is required"}
)

// NewDecodeError wraps a parse failure for one stream line.
func NewDecodeError(line string, err error) *Error {
	return &Error{Kind: KindDecode, Message: fmt.Sprintf("malformed line %q", truncate(line, 120)), Err: err}
}

// classifyTransportError maps a transport failure onto an engine error.
func classifyTransportError(ctx context.Context, err error) *Error {
	var le *Error
	if errors.As(err, &le) {
		return le
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &Error{Kind: KindTransport, Message: "exchange aborted", Err: errors.Join(ctxErr, err)}
	}

	var he *httpclient.Error
	if errors.As(err, &he) {
		switch {
		case httpclient.IsEmptyBody(err):
			return &Error{Kind: KindEmptyBody, StatusCode: he.StatusCode, Message: "response body is empty", Err: err}
		case he.StatusCode > 0:
			return &Error{Kind: KindHTTPStatus, StatusCode: he.StatusCode, Message: statusMessage(he), Err: err}
		case httpclient.IsTimeout(err):
			return &Error{Kind: KindTransport, Message: "provider timed out: " + he.Message, Err: err}
		case httpclient.IsConnection(err):
			return &Error{Kind: KindTransport, Message: "provider unreachable: " + he.Message, Err: err}
		}
	}
	return &Error{Kind: KindTransport, Message: err.Error(), Err: err}
}

// statusMessage describes a non-2xx response, followed by the start of the
// provider's error body when there is one.
func statusMessage(he *httpclient.Error) string {
	var msg string
	switch {
	case httpclient.IsAuth(he):
		msg = "provider rejected the credentials"
	case httpclient.IsNotFound(he):
		msg = "endpoint or model not found"
	case httpclient.IsRateLimit(he):
		msg = "provider rate limit exceeded"
	case httpclient.IsServerError(he):
		msg = "provider error"
	default:
		msg = he.Message
	}
	if body := strings.TrimSpace(string(he.Body)); body != "" {
		msg += ": " + truncate(body, 200)
	}
	return msg
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsTransport checks if err is a transport error (including cancellation).
func IsTransport(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindTransport
}

// IsHTTPStatus checks if err is a non-success HTTP status error.
func IsHTTPStatus(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindHTTPStatus
}

// IsEmptyBody checks if err reports a missing response body.
func IsEmptyBody(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindEmptyBody
}

// IsDecode checks if err is a line decode error.
func IsDecode(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindDecode
}

// IsConcurrentExchange checks if err was caused by an exchange already in flight.
func IsConcurrentExchange(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindConcurrentExchange
}

// IsNotOpenForWrite checks if err is a placeholder invariant violation.
func IsNotOpenForWrite(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindNotOpenForWrite
}

// StatusCode extracts the HTTP status from err, or 0.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
