// SPDX-License-Identifier: MIT

// Package metrics exports separation progress to Prometheus through the
// engine's observer hook.
//
// Exported series (all labelled with the variant name):
//   - ipsdta_iterations_total            counter of completed iterations
//   - ipsdta_loss                        latest negative log-likelihood
//   - ipsdta_loss_delta                  latest loss minus the previous one
//   - ipsdta_iteration_duration_seconds  wall time between consecutive snapshots
//
// Snapshots without a loss (recording disabled) update only the counter and
// the histogram.
package metrics

import (
	"sync"
	"time"

	"github.com/katalvlaran/ipsdta/ipsdta"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the metric handles of one engine run.
// Observe is safe for concurrent use, although the engine calls it from a
// single goroutine.
type Recorder struct {
	iterations prometheus.Counter
	loss       prometheus.Gauge
	delta      prometheus.Gauge
	duration   prometheus.Observer

	mu       sync.Mutex
	last     time.Time
	prevLoss float64
	hasPrev  bool
	now      func() time.Time
}

// New registers the series on reg and returns a Recorder for one variant.
// Registering the same variant twice on one registry panics, as promauto does.
func New(reg prometheus.Registerer, variant ipsdta.Variant) *Recorder {
	f := promauto.With(reg)
	labels := prometheus.Labels{"variant": variant.String()}

	return &Recorder{
		iterations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ipsdta_iterations_total",
			Help: "Completed separation iterations",
		}, []string{"variant"}).With(labels),
		loss: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ipsdta_loss",
			Help: "Latest negative log-likelihood",
		}, []string{"variant"}).With(labels),
		delta: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ipsdta_loss_delta",
			Help: "Change of the negative log-likelihood over the latest iteration",
		}, []string{"variant"}).With(labels),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ipsdta_iteration_duration_seconds",
			Help:    "Wall time of one separation iteration",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		}, []string{"variant"}).With(labels),
		now: time.Now,
	}
}

// Observe consumes one snapshot. The initial snapshot (Iteration 0) only
// starts the clock and seeds the loss gauge.
func (r *Recorder) Observe(s ipsdta.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if s.Iteration > 0 {
		r.iterations.Inc()
		if !r.last.IsZero() {
			r.duration.Observe(now.Sub(r.last).Seconds())
		}
	}
	r.last = now

	loss, ok := s.LastLoss()
	if !ok {
		return
	}
	r.loss.Set(loss)
	if r.hasPrev {
		r.delta.Set(loss - r.prevLoss)
	}
	r.prevLoss, r.hasPrev = loss, true
}

// Observer returns r.Observe as an engine observer.
func (r *Recorder) Observer() ipsdta.Observer { return r.Observe }

// NewObserver is New(reg, variant).Observer().
func NewObserver(reg prometheus.Registerer, variant ipsdta.Variant) ipsdta.Observer {
	return New(reg, variant).Observer()
}
