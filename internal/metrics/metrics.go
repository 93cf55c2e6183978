// Package metrics exposes marketplace and HTTP metrics to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the metrics surface used by services, middleware and workers.
type Recorder interface {
	RecordSubscription(outcome string)
	RecordFollow(action string)
	RecordReview()
	RecordDenormalizationFailure(kind string)
	RecordExpired(count int64)
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
}

// Subscription outcomes
const (
	OutcomeCreated  = "created"
	OutcomeConflict = "conflict"
)

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	subscriptions   *prometheus.CounterVec
	follows         *prometheus.CounterVec
	reviews         prometheus.Counter
	denormFailures  *prometheus.CounterVec
	expired         prometheus.Counter
	httpRequests    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		subscriptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fitplanhub_subscriptions_total",
			Help: "Subscribe attempts by outcome",
		}, []string{"outcome"}),
		follows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fitplanhub_follow_events_total",
			Help: "Follow and unfollow events",
		}, []string{"action"}),
		reviews: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fitplanhub_reviews_total",
			Help: "Reviews submitted",
		}),
		denormFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fitplanhub_denormalization_failures_total",
			Help: "Counter updates that failed and were dropped",
		}, []string{"kind"}),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fitplanhub_subscriptions_expired_total",
			Help: "Subscriptions moved to expired by the sweep",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fitplanhub_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fitplanhub_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.subscriptions,
		c.follows,
		c.reviews,
		c.denormFailures,
		c.expired,
		c.httpRequests,
		c.requestDuration,
	)
	return c
}

func (c *Collector) RecordSubscription(outcome string) {
	c.subscriptions.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordFollow(action string) {
	c.follows.WithLabelValues(action).Inc()
}

func (c *Collector) RecordReview() {
	c.reviews.Inc()
}

func (c *Collector) RecordDenormalizationFailure(kind string) {
	c.denormFailures.WithLabelValues(kind).Inc()
}

func (c *Collector) RecordExpired(count int64) {
	c.expired.Add(float64(count))
}

func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordSubscription(string)                            {}
func (Nop) RecordFollow(string)                                  {}
func (Nop) RecordReview()                                        {}
func (Nop) RecordDenormalizationFailure(string)                  {}
func (Nop) RecordExpired(int64)                                  {}
func (Nop) RecordHTTPRequest(string, string, int, time.Duration) {}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
