package server

import (
	"time"

	"github.com/gin-gonic/gin"
	obsmetrics "github.com/smallbiznis/tierway/internal/observability/metrics"
	"go.uber.org/zap"
)

// HeaderActor identifies who performed a lifecycle mutation. Empty means
// the target user acted on their own behalf.
const HeaderActor = "X-Actor"

func actorFrom(c *gin.Context) string {
	return c.GetHeader(HeaderActor)
}

func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("error", c.Errors.Last().Error()))
			log.Warn("request", fields...)
			return
		}
		log.Info("request", fields...)
	}
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		obsmetrics.HTTP().Observe(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
