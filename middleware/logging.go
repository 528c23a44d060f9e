package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	TraceIDHeader     = "X-Trace-ID"
	TraceParentHeader = "traceparent"

	traceIDKey = "trace_id"
)

// GetTraceID returns the W3C trace id from traceparent, then X-Trace-ID, and
// generates a fresh one when neither is usable.
func GetTraceID(c *gin.Context) string {
	if id, ok := parseTraceParent(c.GetHeader(TraceParentHeader)); ok {
		return id
	}
	if id := c.GetHeader(TraceIDHeader); id != "" {
		return id
	}
	return generateTraceID()
}

// parseTraceParent extracts the trace id from "version-traceid-parentid-flags".
func parseTraceParent(v string) (string, bool) {
	parts := strings.Split(v, "-")
	if len(parts) != 4 || len(parts[1]) != 32 {
		return "", false
	}
	if _, err := hex.DecodeString(parts[1]); err != nil {
		return "", false
	}
	if strings.Trim(parts[1], "0") == "" {
		return "", false
	}
	return parts[1], true
}

func generateTraceID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// LoggingMiddleware attaches a trace-scoped zerolog logger to the request
// context and writes one line per request. Paths in skip are served without
// the access log line (health checks and scrapes).
func LoggingMiddleware(skip ...string) gin.HandlerFunc {
	quiet := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		quiet[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()
		traceID := GetTraceID(c)

		c.Set(traceIDKey, traceID)
		logger := log.With().Str(traceIDKey, traceID).Logger()
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))
		c.Header(TraceIDHeader, traceID)

		c.Next()

		if _, ok := quiet[c.Request.URL.Path]; ok {
			return
		}

		status := c.Writer.Status()
		var event *zerolog.Event
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		default:
			event = logger.Info()
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		if uid := c.GetString(UserIDKey); uid != "" {
			event = event.Str("user_id", uid)
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("route", c.FullPath()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// UserIDKey is the gin context key under which auth middleware stores the
// caller's user id.
const UserIDKey = "user_id"

// GetLoggerFromGinContext returns the request-scoped logger.
func GetLoggerFromGinContext(c *gin.Context) *zerolog.Logger {
	return zerolog.Ctx(c.Request.Context())
}
