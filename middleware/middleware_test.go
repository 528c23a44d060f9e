package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method, path string
	status       int
}

type fakeRecorder struct {
	requests  []recordedRequest
	durations int
}

func (f *fakeRecorder) IncRequestsTotal(method, path string, status int) {
	f.requests = append(f.requests, recordedRequest{method, path, status})
}
func (f *fakeRecorder) ObserveRequestDuration(_, _ string, _ time.Duration) { f.durations++ }
func (f *fakeRecorder) IncPeek(_ string)                                    {}
func (f *fakeRecorder) IncAuditRetry()                                      {}
func (f *fakeRecorder) IncAuditDeadLetter()                                 {}
func (f *fakeRecorder) IncIdempotentReplay()                                {}

func init() {
	gin.SetMode(gin.TestMode)
}

func TestPrometheusMiddleware_UsesRouteTemplate(t *testing.T) {
	rec := &fakeRecorder{}
	r := gin.New()
	r.Use(PrometheusMiddleware(rec))
	r.POST("/sessions/:id/peek", func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/sessions/abc/peek", nil))

	require.Len(t, rec.requests, 1)
	assert.Equal(t, recordedRequest{"POST", "/sessions/:id/peek", http.StatusCreated}, rec.requests[0])
	assert.Equal(t, 1, rec.durations)
}

func TestPrometheusMiddleware_Unmatched(t *testing.T) {
	rec := &fakeRecorder{}
	r := gin.New()
	r.Use(PrometheusMiddleware(rec))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	require.Len(t, rec.requests, 1)
	assert.Equal(t, "unmatched", rec.requests[0].path)
	assert.Equal(t, http.StatusNotFound, rec.requests[0].status)
}

func TestLoggingMiddleware_PropagatesTraceID(t *testing.T) {
	r := gin.New()
	r.Use(LoggingMiddleware())

	var fromCtx *zerolog.Logger
	r.GET("/ping", func(c *gin.Context) {
		fromCtx = GetLoggerFromGinContext(c)
		c.String(http.StatusOK, c.GetString("trace_id"))
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(TraceParentHeader, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", w.Body.String())
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", w.Header().Get(TraceIDHeader))
	assert.NotNil(t, fromCtx)
}

func TestLoggingMiddleware_GeneratesTraceID(t *testing.T) {
	r := gin.New()
	r.Use(LoggingMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Len(t, w.Header().Get(TraceIDHeader), 32)
}

func TestParseTraceParent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"valid", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", "4bf92f3577b34da6a3ce929d0e0e4736", true},
		{"short id", "00-abc-def-01", "", false},
		{"all zero", "00-00000000000000000000000000000000-00f067aa0ba902b7-01", "", false},
		{"not hex", "00-zzf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseTraceParent(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoggingMiddleware_FallsBackToTraceIDHeader(t *testing.T) {
	r := gin.New()
	r.Use(LoggingMiddleware("/health"))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(TraceParentHeader, "garbage")
	req.Header.Set(TraceIDHeader, "client-supplied")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "client-supplied", w.Header().Get(TraceIDHeader))
}
