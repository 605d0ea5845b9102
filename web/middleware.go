package web

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/greeter/logging"
)

// RequestLogger 记录每个请求的方法、路径、状态码和耗时
func RequestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []logging.Field{
			{Key: "method", Value: c.Request.Method},
			{Key: "path", Value: c.FullPath()},
			{Key: "status", Value: c.Writer.Status()},
			{Key: "latency", Value: time.Since(start).String()},
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logging.Field{Key: "errors", Value: c.Errors.String()})
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.Error("Request failed", fields...)
		case status >= 400:
			logger.Warn("Request rejected", fields...)
		default:
			logger.Info("Request handled", fields...)
		}
	}
}
