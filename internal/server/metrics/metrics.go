// Package metrics exposes Prometheus counters and latency histograms for
// the authentication flows.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeSuccess     = "success"
	OutcomeDuplicate   = "duplicate"
	OutcomeInvalid     = "invalid"
	OutcomeUnknownUser = "unknown_user"
	OutcomeBadPassword = "bad_password"
	OutcomeDeactivated = "deactivated"
	OutcomeError       = "error"
)

// Recorder is what services report to.
type Recorder interface {
	RecordRegister(outcome string)
	RecordLogin(outcome string)
	ObserveOperation(operation string, d time.Duration)
}

// Collector is the Prometheus backed Recorder.
type Collector struct {
	register *prometheus.CounterVec
	login    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		register: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authkeeper_register_total",
			Help: "Registration attempts by outcome.",
		}, []string{"outcome"}),
		login: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authkeeper_login_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "authkeeper_operation_duration_seconds",
			Help:    "Duration of authentication operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	reg.MustRegister(c.register, c.login, c.duration)
	return c
}

func (c *Collector) RecordRegister(outcome string) {
	c.register.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordLogin(outcome string) {
	c.login.WithLabelValues(outcome).Inc()
}

func (c *Collector) ObserveOperation(operation string, d time.Duration) {
	c.duration.WithLabelValues(operation).Observe(d.Seconds())
}

// Handler serves the scrape endpoint for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

type nopRecorder struct{}

func (nopRecorder) RecordRegister(string)                  {}
func (nopRecorder) RecordLogin(string)                     {}
func (nopRecorder) ObserveOperation(string, time.Duration) {}

// Nop returns a Recorder that drops everything.
func Nop() Recorder { return nopRecorder{} }
