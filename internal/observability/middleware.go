package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware records request counts and latency by route template.
func Middleware() gin.HandlerFunc {
	RegisterMetrics()

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		Requests().WithLabelValues(method, route, status).Inc()
		Latency().WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
