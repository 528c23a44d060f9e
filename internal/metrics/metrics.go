// Package metrics exposes the service's Prometheus instruments behind a small
// interface so business logic can be tested without a registry.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder is implemented by the Prometheus provider and by a no-op.
type Recorder interface {
	IncRequestsTotal(method, path string, status int)
	ObserveRequestDuration(method, path string, duration time.Duration)
	IncPeek(outcome string)
	IncAuditRetry()
	IncAuditDeadLetter()
	IncIdempotentReplay()
}

// Provider records into Prometheus collectors.
type Provider struct {
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	peeksTotal        *prometheus.CounterVec
	auditRetries      prometheus.Counter
	auditDeadLetters  prometheus.Counter
	idempotentReplays prometheus.Counter
}

var (
	defaultOnce     sync.Once
	defaultProvider *Provider
)

// New returns the Recorder registered on the default Prometheus registry, or a
// no-op when disabled. The default collectors are registered once per process.
func New(enabled bool) Recorder {
	if !enabled {
		return Noop{}
	}
	defaultOnce.Do(func() {
		defaultProvider = NewProvider(prometheus.DefaultRegisterer)
	})
	return defaultProvider
}

// NewProvider registers the collectors on reg.
func NewProvider(reg prometheus.Registerer) *Provider {
	f := promauto.With(reg)
	return &Provider{
		requestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),

		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),

		peeksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "peek_total",
			Help: "Committed peeks by audit outcome",
		}, []string{"outcome"}),

		auditRetries: f.NewCounter(prometheus.CounterOpts{
			Name: "peek_audit_retries_total",
			Help: "Audit log append attempts that failed and were retried",
		}),

		auditDeadLetters: f.NewCounter(prometheus.CounterOpts{
			Name: "peek_audit_dead_letters_total",
			Help: "Audit entries written to the dead-letter journal",
		}),

		idempotentReplays: f.NewCounter(prometheus.CounterOpts{
			Name: "peek_idempotent_replays_total",
			Help: "Peek responses replayed for a repeated Idempotency-Key",
		}),
	}
}

func (p *Provider) IncRequestsTotal(method, path string, status int) {
	p.requestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

func (p *Provider) ObserveRequestDuration(method, path string, duration time.Duration) {
	p.requestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (p *Provider) IncPeek(outcome string) { p.peeksTotal.WithLabelValues(outcome).Inc() }

func (p *Provider) IncAuditRetry() { p.auditRetries.Inc() }

func (p *Provider) IncAuditDeadLetter() { p.auditDeadLetters.Inc() }

func (p *Provider) IncIdempotentReplay() { p.idempotentReplays.Inc() }

// Noop discards everything.
type Noop struct{}

func (Noop) IncRequestsTotal(_, _ string, _ int)                 {}
func (Noop) ObserveRequestDuration(_, _ string, _ time.Duration) {}
func (Noop) IncPeek(_ string)                                    {}
func (Noop) IncAuditRetry()                                      {}
func (Noop) IncAuditDeadLetter()                                 {}
func (Noop) IncIdempotentReplay()                                {}
