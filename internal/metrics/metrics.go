package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder captures block rendering metrics.
type Recorder struct {
	renders        *prometheus.CounterVec
	invalidAmounts prometheus.Counter
	renderDuration prometheus.Histogram
	cartEvents     *prometheus.CounterVec
}

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "checkout",
			Subsystem: "shipping_block",
			Name:      "renders_total",
			Help:      "Shipping block renders by resulting state.",
		}, []string{"state", "editor"}),
		invalidAmounts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "checkout",
			Subsystem: "shipping_block",
			Name:      "invalid_amounts_total",
			Help:      "Rate options rendered with an unparsable price or tax.",
		}),
		renderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "checkout",
			Subsystem: "shipping_block",
			Name:      "render_duration_seconds",
			Help:      "Time spent producing shipping block markup.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
		cartEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "checkout",
			Subsystem: "events",
			Name:      "cart_events_total",
			Help:      "Cart shipping events consumed by outcome.",
		}, []string{"outcome"}),
	}

	if reg != nil {
		reg.MustRegister(r.renders, r.invalidAmounts, r.renderDuration, r.cartEvents)
	}
	return r
}

// ObserveRender records one block render.
func (r *Recorder) ObserveRender(state string, editor bool, invalidAmounts int, took time.Duration) {
	if r == nil {
		return
	}
	ed := "false"
	if editor {
		ed = "true"
	}
	r.renders.WithLabelValues(state, ed).Inc()
	if invalidAmounts > 0 {
		r.invalidAmounts.Add(float64(invalidAmounts))
	}
	r.renderDuration.Observe(took.Seconds())
}

// ObserveCartEvent records the outcome of handling a cart event.
func (r *Recorder) ObserveCartEvent(outcome string) {
	if r == nil {
		return
	}
	r.cartEvents.WithLabelValues(outcome).Inc()
}
