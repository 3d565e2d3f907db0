package types

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: alert index out of range
	Error string `json:"error" example:"alert index out of range"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// AlertView is the wire form of an active alert for GET /alerts.
type AlertView struct {
	// Violation kind that raised this alert.
	// example: temperature_critical_high
	Kind string `json:"kind" example:"temperature_critical_high"`
	// Human-readable alert message.
	Message string `json:"message"`
	// Severity level; currently always "critical".
	// example: critical
	Severity string `json:"severity" example:"critical"`
	// Unix seconds when the alert was raised.
	// example: 1700000000
	Timestamp int64 `json:"timestamp" example:"1700000000"`
	// Whether an operator has acknowledged the alert.
	Acknowledged bool `json:"acknowledged"`
}

// ViolationView is the wire form of a logged safety violation.
type ViolationView struct {
	// Violation kind.
	// example: water_level_critical
	Kind string `json:"kind" example:"water_level_critical"`
	// Offending parameter name.
	// example: water_level
	Parameter string `json:"parameter" example:"water_level"`
	// Measured value at detection time.
	Value float64 `json:"value"`
	// Configured limit that was exceeded.
	Limit float64 `json:"limit"`
	// Severity level.
	// example: critical
	Severity string `json:"severity" example:"critical"`
	// Human-readable description.
	Message string `json:"message"`
	// Unix seconds when the violation was detected.
	Timestamp int64 `json:"timestamp"`
}

// EmergencyStopView reports the emergency stop latch for GET /emergency-stop.
type EmergencyStopView struct {
	// Whether the latch is currently armed.
	Armed bool `json:"armed"`
	// Message of the violation that armed the latch; empty when not armed.
	Reason string `json:"reason,omitempty"`
	// Unix seconds when the latch was armed; zero when not armed.
	Since int64 `json:"since,omitempty"`
}

// LoopStatus summarizes the main loop for GET /status.
type LoopStatus struct {
	// Lifecycle state: stopped, initializing, running, stopping.
	// example: running
	State string `json:"state" example:"running"`
	// Configured cycle interval in seconds.
	// example: 1
	IntervalSeconds float64 `json:"interval_seconds" example:"1"`
	// Cycles executed since start.
	Cycles uint64 `json:"cycles"`
	// Cycle failures since start.
	Errors uint64 `json:"errors"`
	// Unix seconds when the loop started; zero before first start.
	StartedAt int64 `json:"started_at,omitempty"`
	// Unix seconds of the most recent cycle.
	LastCycleAt int64 `json:"last_cycle_at,omitempty"`
}

// WatchdogServiceStatus summarizes one supervised service.
type WatchdogServiceStatus struct {
	Name string `json:"name"`
	// Unix seconds of the last heartbeat or successful restart.
	LastHeartbeat int64 `json:"last_heartbeat"`
	// Per-service heartbeat timeout in seconds.
	TimeoutSeconds float64 `json:"timeout_seconds"`
	RestartCount   int     `json:"restart_count"`
	MaxRestarts    int     `json:"max_restarts"`
	Healthy        bool    `json:"healthy"`
}

// WatchdogStatus summarizes the watchdog for GET /status.
type WatchdogStatus struct {
	Running              bool                    `json:"running"`
	CheckIntervalSeconds float64                 `json:"check_interval_seconds"`
	Checks               uint64                  `json:"checks"`
	Restarts             uint64                  `json:"restarts"`
	LastRestartAt        int64                   `json:"last_restart_at,omitempty"`
	Services             []WatchdogServiceStatus `json:"services"`
}

// SafetyStatus summarizes the safety service for GET /status.
type SafetyStatus struct {
	EmergencyStop  bool   `json:"emergency_stop"`
	ActiveAlerts   int    `json:"active_alerts"`
	TotalAlerts    int    `json:"total_alerts"`
	Violations     int    `json:"violations"`
	Checks         uint64 `json:"checks"`
	EmergencyStops uint64 `json:"emergency_stops"`
}

// BusStatus summarizes the event bus for GET /status.
type BusStatus struct {
	EventsEmitted      uint64 `json:"events_emitted"`
	HandlersInvoked    uint64 `json:"handlers_invoked"`
	HandlersRegistered uint64 `json:"handlers_registered"`
	HandlerErrors      uint64 `json:"handler_errors"`
	EventTypes         int    `json:"event_types"`
	TotalHandlers      int    `json:"total_handlers"`
}

// StatusResponse is the aggregate daemon status for GET /status.
type StatusResponse struct {
	Loop     LoopStatus     `json:"loop"`
	Watchdog WatchdogStatus `json:"watchdog"`
	Safety   SafetyStatus   `json:"safety"`
	Bus      BusStatus      `json:"bus"`
}

// AlertsResponse wraps the active alerts returned by GET /alerts.
type AlertsResponse struct {
	Alerts []AlertView `json:"alerts"`
}

// ViolationsResponse wraps the violations returned by GET /violations.
type ViolationsResponse struct {
	Violations []ViolationView `json:"violations"`
}
