// Package endpoint provides the standard operational endpoints: health,
// liveness, readiness, and version.
package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/crosscribe/observability"
	"github.com/kbukum/crosscribe/version"
)

// HealthChecker returns health status for registered components.
type HealthChecker func(ctx context.Context) []observability.Health

// Health returns a handler that reports service health including component
// statuses. Backends that are unreachable degrade the service rather than
// fail it; the comparison pipeline still works with the remaining backends.
func Health(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		sh := observability.NewServiceHealth(serviceName, version.GetShortVersion())
		if checker != nil {
			sh.Add(checker(c.Request.Context())...)
		}

		httpStatus := http.StatusOK
		if !sh.Ready() {
			httpStatus = http.StatusServiceUnavailable
		}

		c.JSON(httpStatus, gin.H{
			"status":     sh.Status,
			"service":    sh.Service,
			"version":    sh.Version,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"components": sh.Components,
		})
	}
}
