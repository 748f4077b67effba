// Package metrics records command and actuation metrics.
// Components receive a Recorder through dependency injection; the default
// Noop implementation makes metrics strictly optional.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder receives metric events from the dispatcher.
type Recorder interface {
	// CommandApplied is called after a successfully completed command.
	CommandApplied(action string)

	// CommandRejected is called when a command fails, with a short reason
	// ("invalid_input", "out_of_range", "hardware").
	CommandRejected(reason string)

	// PulseObserved is called with the hold duration of a completed pulse.
	PulseObserved(d time.Duration)

	// SaveFailed is called when persisting state after a command failed.
	SaveFailed()
}

// Noop implements Recorder with no-op methods.
type Noop struct{}

func (Noop) CommandApplied(string)       {}
func (Noop) CommandRejected(string)      {}
func (Noop) PulseObserved(time.Duration) {}
func (Noop) SaveFailed()                 {}

// Prometheus implements Recorder on a prometheus registry.
type Prometheus struct {
	registry *prometheus.Registry

	commands     *prometheus.CounterVec
	rejected     *prometheus.CounterVec
	pulseSeconds prometheus.Histogram
	saveFailures prometheus.Counter
}

// NewPrometheus creates a Recorder with its own registry.
func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blind_commands_total",
			Help: "Completed commands by action.",
		}, []string{"action"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blind_command_failures_total",
			Help: "Failed commands by reason.",
		}, []string{"reason"}),
		pulseSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "blind_relay_pulse_seconds",
			Help:    "Relay pulse hold durations.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 8),
		}),
		saveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blind_state_save_failures_total",
			Help: "Failed attempts to persist channel positions.",
		}),
	}
	p.registry.MustRegister(p.commands, p.rejected, p.pulseSeconds, p.saveFailures)
	return p
}

// CommandApplied implements Recorder.
func (p *Prometheus) CommandApplied(action string) {
	p.commands.WithLabelValues(action).Inc()
}

// CommandRejected implements Recorder.
func (p *Prometheus) CommandRejected(reason string) {
	p.rejected.WithLabelValues(reason).Inc()
}

// PulseObserved implements Recorder.
func (p *Prometheus) PulseObserved(d time.Duration) {
	p.pulseSeconds.Observe(d.Seconds())
}

// SaveFailed implements Recorder.
func (p *Prometheus) SaveFailed() {
	p.saveFailures.Inc()
}

// Handler returns an HTTP handler serving the registry in the Prometheus
// exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
