package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/chatstream/logger"
	"github.com/kbukum/chatstream/observability"
)

// Tracing returns a Gin middleware that wraps each request in an
// observability.SpanHTTPRequest span. Handlers see the span through the
// request context, so exchange spans nest under it.
func Tracing() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := observability.StartSpan(c.Request.Context(), observability.SpanHTTPRequest,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String(observability.AttrHTTPMethod, c.Request.Method),
				attribute.String(observability.AttrHTTPRoute, c.FullPath()),
			),
		)
		defer span.End()
		if id := logger.RequestIDFromContext(ctx); id != "" {
			span.SetAttributes(attribute.String(observability.AttrRequestID, id))
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int(observability.AttrHTTPStatus, status))
		if status >= 500 {
			span.SetStatus(codes.Error, "server error")
		}
	}
}
