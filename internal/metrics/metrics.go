package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	loopCycles = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "terrariumd",
			Subsystem: "loop",
			Name:      "cycles_total",
			Help:      "Total control loop cycles executed",
		},
	)

	loopCycleErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "terrariumd",
			Subsystem: "loop",
			Name:      "cycle_errors_total",
			Help:      "Total control loop cycles that failed",
		},
	)

	safetyChecks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "terrariumd",
			Subsystem: "safety",
			Name:      "checks_total",
			Help:      "Total safety limit evaluations",
		},
	)

	safetyViolations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "terrariumd",
			Subsystem: "safety",
			Name:      "violations_total",
			Help:      "Total safety violations detected",
		},
		[]string{"parameter"},
	)

	emergencyStops = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "terrariumd",
			Subsystem: "safety",
			Name:      "emergency_stops_total",
			Help:      "Total emergency stop activations",
		},
	)

	watchdogChecks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "terrariumd",
			Subsystem: "watchdog",
			Name:      "checks_total",
			Help:      "Total watchdog poll passes",
		},
	)

	watchdogRestarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "terrariumd",
			Subsystem: "watchdog",
			Name:      "restarts_total",
			Help:      "Total successful service restarts",
		},
		[]string{"service"},
	)

	watchdogRestartFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "terrariumd",
			Subsystem: "watchdog",
			Name:      "restart_failures_total",
			Help:      "Total failed service restart attempts",
		},
		[]string{"service"},
	)

	busEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "terrariumd",
			Subsystem: "bus",
			Name:      "events_total",
			Help:      "Total events emitted on the bus",
		},
		[]string{"type"},
	)

	busHandlerErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "terrariumd",
			Subsystem: "bus",
			Name:      "handler_errors_total",
			Help:      "Total event handlers that panicked during dispatch",
		},
	)
)

func init() {
	prometheus.MustRegister(
		loopCycles, loopCycleErrors,
		safetyChecks, safetyViolations, emergencyStops,
		watchdogChecks, watchdogRestarts, watchdogRestartFailures,
		busEvents, busHandlerErrors,
	)
}

func IncLoopCycle()      { loopCycles.Inc() }
func IncLoopCycleError() { loopCycleErrors.Inc() }

func IncSafetyCheck() { safetyChecks.Inc() }

func IncViolation(parameter string) { safetyViolations.WithLabelValues(parameter).Inc() }

func IncEmergencyStop() { emergencyStops.Inc() }

func IncWatchdogCheck() { watchdogChecks.Inc() }

func IncRestart(service string) { watchdogRestarts.WithLabelValues(service).Inc() }

func IncRestartFailure(service string) { watchdogRestartFailures.WithLabelValues(service).Inc() }

func IncBusEvent(eventType string) { busEvents.WithLabelValues(eventType).Inc() }

func IncBusHandlerError() { busHandlerErrors.Inc() }
