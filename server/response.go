package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/chatstream/llm"
	"github.com/kbukum/chatstream/validation"
)

// DataResponse is the standard success envelope.
type DataResponse struct {
	Data any `json:"data"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Kind       string                  `json:"kind"`
	Message    string                  `json:"message"`
	StatusCode int                     `json:"upstream_status,omitempty"`
	Fields     []validation.FieldError `json:"fields,omitempty"`
	Partial    *llm.Result             `json:"partial,omitempty"`
}

// StatusFor maps an error onto the HTTP status returned to clients.
//
//	invalid input, validation  -> 400
//	concurrent exchange        -> 409
//	http status, empty body    -> 502
//	transport                  -> 502, or 504 when the exchange was aborted
func StatusFor(err error) int {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return http.StatusBadRequest
	}

	kind, ok := llm.KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case llm.KindInvalidInput:
		return http.StatusBadRequest
	case llm.KindConcurrentExchange:
		return http.StatusConflict
	case llm.KindHTTPStatus, llm.KindEmptyBody:
		return http.StatusBadGateway
	case llm.KindTransport:
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// NewErrorResponse builds the error envelope for err.
func NewErrorResponse(err error) ErrorResponse {
	body := ErrorBody{Kind: "internal", Message: err.Error()}

	var verr *validation.Error
	if errors.As(err, &verr) {
		body.Kind = "validation"
		body.Fields = verr.Fields
		return ErrorResponse{Error: body}
	}
	if kind, ok := llm.KindOf(err); ok {
		body.Kind = kind.String()
		body.StatusCode = llm.StatusCode(err)
	}
	return ErrorResponse{Error: body}
}

// RespondWithError sends the error envelope with the status from StatusFor.
func RespondWithError(c *gin.Context, err error) {
	c.JSON(StatusFor(err), NewErrorResponse(err))
}

// RespondWithPartial is RespondWithError for a failed exchange that still
// produced content.
func RespondWithPartial(c *gin.Context, err error, partial llm.Result) {
	resp := NewErrorResponse(err)
	resp.Error.Partial = &partial
	c.JSON(StatusFor(err), resp)
}

// RespondOK sends a 200 response wrapping data.
func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, DataResponse{Data: data})
}

// RespondNoContent sends a 204 with no body.
func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
