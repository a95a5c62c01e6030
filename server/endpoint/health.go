package endpoint

import (
	"github.com/gin-gonic/gin"

	"github.com/kbukum/chatstream/observability"
	"github.com/kbukum/chatstream/version"
)

// Health returns a handler that runs every checker and reports the folded
// service health. The status is 503 when any component is down.
func Health(serviceName string, checkers ...observability.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		sh := observability.Check(c.Request.Context(), serviceName, version.Short(), checkers...)
		c.JSON(sh.HTTPStatus(), sh)
	}
}
