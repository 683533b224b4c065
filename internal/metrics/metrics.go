// Package metrics exports surface activity to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/icco/possumbox/internal/events"
)

const namespace = "possumbox"

var (
	ccSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "midi",
		Name:      "sent_total",
		Help:      "Control changes sent to the host",
	}, []string{"control"})

	ccReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "midi",
		Name:      "received_total",
		Help:      "Control changes received from the host",
	}, []string{"matched"})

	ccDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "midi",
		Name:      "dropped_total",
		Help:      "Inbound control changes discarded before routing",
	}, []string{"reason"})

	trackCount = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "surface",
		Name:      "track_count",
		Help:      "Last track count applied from the host",
	})

	controlsEnabled = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "surface",
		Name:      "controls_enabled",
		Help:      "Controls enabled after the last track-count broadcast",
	})

	controlErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "surface",
		Name:      "control_errors_total",
		Help:      "Hardware errors by control and operation",
	}, []string{"control", "op"})

	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "surface",
		Name:      "tick_duration_seconds",
		Help:      "Time spent draining input and polling controls per tick",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
	})
)

// ObserveTick records how long one poll tick took.
func ObserveTick(d time.Duration) {
	tickDuration.Observe(d.Seconds())
}

// Subscribe feeds the collectors from bus and returns a function that
// detaches them.
func Subscribe(bus *events.Bus) func() {
	unsubs := []func(){
		bus.Subscribe(func(e events.CCSentEvent) {
			ccSent.WithLabelValues(e.Control).Inc()
		}),
		bus.Subscribe(func(e events.CCReceivedEvent) {
			matched := "false"
			if e.Matched {
				matched = "true"
			}
			ccReceived.WithLabelValues(matched).Inc()
		}),
		bus.Subscribe(func(e events.CCDroppedEvent) {
			ccDropped.WithLabelValues(e.Reason).Inc()
		}),
		bus.Subscribe(func(e events.TrackCountEvent) {
			if e.Ignored {
				return
			}
			trackCount.Set(float64(e.Count))
			controlsEnabled.Set(float64(e.Enabled))
		}),
		bus.Subscribe(func(e events.ControlErrorEvent) {
			controlErrors.WithLabelValues(e.Control, e.Op).Inc()
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
