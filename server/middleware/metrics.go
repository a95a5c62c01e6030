package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/chatstream/observability"
)

// Metrics returns a Gin middleware that records request count, duration and
// in-flight requests. Routes are labelled by their Gin pattern; unmatched
// requests share the "unmatched" label.
func Metrics(m *observability.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		m.RecordRequestStart(ctx)
		defer func() {
			route := c.FullPath()
			if route == "" {
				route = "unmatched"
			}
			m.RecordRequestEnd(ctx, c.Request.Method, route, c.Writer.Status(), time.Since(start))
		}()
		c.Next()
	}
}
