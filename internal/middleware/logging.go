package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/soaringjerry/pulse/internal/logger"
	"github.com/soaringjerry/pulse/internal/metrics"
)

const loggerKey = "pulse.logger"

// RequestLogger tags each request with a request id, logs its outcome and
// counts it by matched route.
func RequestLogger(log *logger.Logger, rec *metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader(logger.RequestIDHeader)
		if reqID == "" {
			reqID = uuid.New().String()
			c.Request.Header.Set(logger.RequestIDHeader, reqID)
		}
		c.Header(logger.RequestIDHeader, reqID)

		entry := log.WithRequest(c)
		c.Set(loggerKey, entry)
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		rec.HTTPRequest(c.Request.Method, route, status)

		entry = entry.WithFields(logrus.Fields{
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
		})
		switch {
		case status >= 500:
			entry.Error("request failed")
		case status >= 400:
			entry.Warn("request rejected")
		default:
			entry.Info("request served")
		}
	}
}

// LoggerFrom returns the request-scoped entry set by RequestLogger.
func LoggerFrom(c *gin.Context) *logrus.Entry {
	if v, ok := c.Get(loggerKey); ok {
		if entry, ok := v.(*logrus.Entry); ok {
			return entry
		}
	}
	return logrus.NewEntry(logrus.StandardLogger())
}
