package safety

import "time"

// Severity grades a violation. Every threshold in the current limit set is a
// hard limit, so detections are always critical; the field exists so softer
// grades can be added without changing the wire shape.
type Severity string

const SeverityCritical Severity = "critical"

// Violation records one threshold breach. Violations are immutable once
// appended to the log.
type Violation struct {
	Kind      string
	Parameter string
	Value     float64
	Limit     float64
	Severity  Severity
	Message   string
	Timestamp time.Time
}

// Alert is the operator-facing view of a violation. Acknowledged is the only
// mutable field, flipped by AcknowledgeAlert.
type Alert struct {
	Kind         string
	Message      string
	Severity     Severity
	Timestamp    time.Time
	Acknowledged bool
}

// EmergencyStopEvent is the payload of the emergency_stop event.
type EmergencyStopEvent struct {
	Reason    string
	Timestamp time.Time
	Violation Violation
}

// EmergencyResumeEvent is the payload of the emergency_resume event.
type EmergencyResumeEvent struct {
	Timestamp time.Time
}

// Event types emitted by the safety service.
const (
	EventSafetyAlert     = "safety_alert"
	EventEmergencyStop   = "emergency_stop"
	EventEmergencyResume = "emergency_resume"
)
