// Package metrics exposes Prometheus instruments for the vending fleet and its front-ends.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Proton-105/vending-machine/internal/vending"
)

var (
	botCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Total number of bot commands received labeled by command and status",
		},
		[]string{"command", "status"},
	)
	commandDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "command_duration_seconds",
			Help:    "Duration of bot commands in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)
	stateTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vending_state_transitions_total",
			Help: "Total number of vending machine state transitions",
		},
		[]string{"from", "to"},
	)
	coinsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vending_coins_total",
			Help: "Coins deposited, labeled by denomination and whether they were accepted",
		},
		[]string{"coin", "status"},
	)
	salesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vending_sales_total",
			Help: "Products dispensed",
		},
		[]string{"product"},
	)
	changeFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vending_change_failures_total",
			Help: "Purchases aborted because exact change could not be made",
		},
		[]string{"product"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by type and severity",
		},
		[]string{"type", "severity"},
	)
	rateLimitChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratelimit_checks_total",
			Help: "Total number of rate limit checks by backend and result",
		},
		[]string{"backend", "result"},
	)
	rateLimitBackendErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratelimit_backend_errors_total",
			Help: "Total number of limiter backend failures",
		},
		[]string{"backend"},
	)
	activeMachines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vending_active_machines",
			Help: "Current number of machines held by the fleet",
		},
	)
	machinesByState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vending_machines_by_state",
			Help: "Number of machines per transaction state",
		},
		[]string{"state"},
	)
)

// RecordCommand increments command counters and records duration.
func RecordCommand(command, status string, duration time.Duration) {
	botCommandsTotal.WithLabelValues(orUnknown(command), orUnknown(status)).Inc()
	commandDurationSeconds.WithLabelValues(orUnknown(command)).Observe(duration.Seconds())
}

// RecordStateTransition tracks machine state transitions; machines take it as a transition recorder.
func RecordStateTransition(from, to string) {
	stateTransitionsTotal.WithLabelValues(orUnknown(from), orUnknown(to)).Inc()
}

// RecordCoin counts a deposited coin.
func RecordCoin(coin string, accepted bool) {
	status := "rejected"
	if accepted {
		status = "accepted"
	}

	coinsTotal.WithLabelValues(orUnknown(coin), status).Inc()
}

// RecordSale counts a dispensed product.
func RecordSale(product string) {
	salesTotal.WithLabelValues(orUnknown(product)).Inc()
}

// RecordChangeFailure counts a purchase aborted for lack of change.
func RecordChangeFailure(product string) {
	changeFailuresTotal.WithLabelValues(orUnknown(product)).Inc()
}

// RecordError increments error counters with metadata.
func RecordError(errType, severity string) {
	errorsTotal.WithLabelValues(orUnknown(errType), orUnknown(severity)).Inc()
}

// RecordRateLimitCheck counts a rate limit decision of backend.
func RecordRateLimitCheck(backend string, allowed bool) {
	result := "rejected"
	if allowed {
		result = "allowed"
	}

	rateLimitChecksTotal.WithLabelValues(orUnknown(backend), result).Inc()
}

// RecordRateLimitBackendError counts a limiter backend failure.
func RecordRateLimitBackendError(backend string) {
	rateLimitBackendErrorsTotal.WithLabelValues(orUnknown(backend)).Inc()
}

// SetActiveMachines updates the gauge for machines currently held.
func SetActiveMachines(count int) {
	activeMachines.Set(float64(count))
}

// SetMachinesByState updates the gauge for the given state.
func SetMachinesByState(state string, count int) {
	machinesByState.WithLabelValues(orUnknown(state)).Set(float64(count))
}

func orUnknown(label string) string {
	if label == "" {
		return "unknown"
	}
	return label
}

// StateSource lists the current state of every machine.
type StateSource interface {
	States(ctx context.Context) map[string]vending.State
}

// StateCollector periodically gathers machine state counts and emits gauge metrics.
type StateCollector struct {
	source   StateSource
	interval time.Duration
}

// NewStateCollector builds a metrics collector bound to the provided state source.
func NewStateCollector(source StateSource, interval time.Duration) *StateCollector {
	if interval <= 0 {
		interval = 10 * time.Second
	}

	return &StateCollector{source: source, interval: interval}
}

// Run polls the source every interval, updating machine gauges until ctx is cancelled.
func (c *StateCollector) Run(ctx context.Context) {
	if c == nil || c.source == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		c.collect(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.interval):
		}
	}
}

func (c *StateCollector) collect(ctx context.Context) {
	states := c.source.States(ctx)

	SetActiveMachines(len(states))

	counts := make(map[vending.State]int, len(states))
	for _, st := range states {
		counts[st]++
	}

	machinesByState.Reset()
	for _, tracked := range vending.States() {
		SetMachinesByState(string(tracked), counts[tracked])
	}
}
