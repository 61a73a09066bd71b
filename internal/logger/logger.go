package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Logger struct {
	*logrus.Entry
}

// Options selects the output shape. An empty Format picks text for local
// environments and JSON elsewhere.
type Options struct {
	Level       string
	Format      string
	Environment string
	Output      io.Writer
}

func New(opts Options) *Logger {
	base := logrus.New()

	format := strings.ToLower(opts.Format)
	if format == "" {
		if opts.Environment == "" || opts.Environment == "local" {
			format = "text"
		} else {
			format = "json"
		}
	}
	if format == "text" {
		base.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339Nano,
		})
	} else {
		base.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	}

	if opts.Output != nil {
		base.SetOutput(opts.Output)
	} else {
		base.SetOutput(os.Stdout)
	}

	switch strings.ToLower(opts.Level) {
	case "debug":
		base.SetLevel(logrus.DebugLevel)
	case "warn":
		base.SetLevel(logrus.WarnLevel)
	case "error":
		base.SetLevel(logrus.ErrorLevel)
	default:
		base.SetLevel(logrus.InfoLevel)
	}

	return &Logger{Entry: logrus.NewEntry(base)}
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *Logger {
	return New(Options{Output: io.Discard})
}

// RequestIDHeader carries the caller's correlation id.
const RequestIDHeader = "X-Request-ID"

// WithRequest attaches request metadata and returns an entry
func (l *Logger) WithRequest(c *gin.Context) *logrus.Entry {
	reqID := c.GetHeader(RequestIDHeader)
	if reqID == "" {
		reqID = uuid.New().String()
	}

	return l.WithFields(logrus.Fields{
		"req_id":     reqID,
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"remote_ip":  c.ClientIP(),
		"user_agent": c.Request.UserAgent(),
	})
}

// WithError standardizes error logging
func (l *Logger) WithError(err error) *logrus.Entry {
	if err == nil {
		return l.Entry
	}
	return l.Entry.WithField("error", err.Error())
}
