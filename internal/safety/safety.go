// Package safety evaluates sensor snapshots against hard limits and owns the
// emergency stop latch. One Service instance guards one enclosure.
package safety

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"terrariumd/internal/bus"
	"terrariumd/internal/metrics"
	"terrariumd/pkg/types"
)

// Stats holds the service's running counters.
type Stats struct {
	Checks         uint64
	Violations     uint64
	EmergencyStops uint64
	Alerts         uint64
	StartTime      time.Time
}

// Service checks safety limits and manages alerts and the emergency stop
// latch. All methods are safe for concurrent use.
type Service struct {
	bus *bus.Bus
	log zerolog.Logger

	mu         sync.Mutex
	limits     Limits
	violations []Violation
	alerts     []Alert

	emergencyStop bool
	stopReason    string
	stopSince     time.Time

	stats Stats

	now func() time.Time
}

// New constructs a Service around the given bus and limits. Zero-valued
// limit sections get the documented defaults.
func New(b *bus.Bus, limits Limits, log zerolog.Logger) *Service {
	return &Service{
		bus:    b,
		limits: limits.withDefaults(),
		log:    log.With().Str("component", "safety").Logger(),
		stats:  Stats{StartTime: time.Now()},
		now:    time.Now,
	}
}

// Limits returns the effective limit set.
func (s *Service) Limits() Limits {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.limits
}

// CheckLimits evaluates every present parameter in the snapshot against its
// limits. It returns true when no violation was found. Each violation is
// logged, turned into an active alert, and published as a safety_alert event;
// any critical violation arms the emergency stop latch (idempotently, with a
// single emergency_stop emission per danger episode).
func (s *Service) CheckLimits(snap types.SensorSnapshot) bool {
	metrics.IncSafetyCheck()

	s.mu.Lock()
	s.stats.Checks++
	limits := s.limits
	s.mu.Unlock()

	temperature, humidity, aqi, waterLevel := normalize(snap)

	// Each parameter is evaluated independently; one detection never masks
	// the others.
	var violations []Violation
	ts := s.now()
	if temperature != nil {
		if v := checkTemperature(*temperature, limits.Temperature, ts); v != nil {
			violations = append(violations, *v)
		}
	}
	if humidity != nil {
		if v := checkHumidity(*humidity, limits.Humidity, ts); v != nil {
			violations = append(violations, *v)
		}
	}
	if aqi != nil {
		if v := checkAirQuality(*aqi, limits.AirQuality, ts); v != nil {
			violations = append(violations, *v)
		}
	}
	if waterLevel != nil {
		if v := checkWaterLevel(*waterLevel, limits.WaterLevel, ts); v != nil {
			violations = append(violations, *v)
		}
	}

	if len(violations) == 0 {
		return true
	}
	s.handleViolations(violations)
	return false
}

// normalize extracts the four parameters from either snapshot shape; grouped
// readings win over flat ones.
func normalize(snap types.SensorSnapshot) (temperature, humidity, aqi, waterLevel *float64) {
	temperature = snap.Temperature
	humidity = snap.Humidity
	if snap.DHT22 != nil {
		temperature = snap.DHT22.Temperature
		humidity = snap.DHT22.Humidity
	}
	aqi = snap.AirQuality
	if snap.AirSensor != nil {
		aqi = snap.AirSensor.AQI
	}
	waterLevel = snap.WaterLevel
	if snap.WaterSensor != nil {
		waterLevel = snap.WaterSensor.Level
	}
	return
}

func checkTemperature(v float64, lim RangeLimit, ts time.Time) *Violation {
	switch {
	case v > lim.CriticalMax:
		return &Violation{
			Kind: "temperature_critical_high", Parameter: "temperature",
			Value: v, Limit: lim.CriticalMax, Severity: SeverityCritical,
			Message:   fmt.Sprintf("temperature critically high: %.1f°C (limit %.1f°C)", v, lim.CriticalMax),
			Timestamp: ts,
		}
	case v < lim.CriticalMin:
		return &Violation{
			Kind: "temperature_critical_low", Parameter: "temperature",
			Value: v, Limit: lim.CriticalMin, Severity: SeverityCritical,
			Message:   fmt.Sprintf("temperature critically low: %.1f°C (limit %.1f°C)", v, lim.CriticalMin),
			Timestamp: ts,
		}
	}
	return nil
}

func checkHumidity(v float64, lim RangeLimit, ts time.Time) *Violation {
	switch {
	case v > lim.CriticalMax:
		return &Violation{
			Kind: "humidity_critical_high", Parameter: "humidity",
			Value: v, Limit: lim.CriticalMax, Severity: SeverityCritical,
			Message:   fmt.Sprintf("humidity critically high: %.1f%% (limit %.1f%%)", v, lim.CriticalMax),
			Timestamp: ts,
		}
	case v < lim.CriticalMin:
		return &Violation{
			Kind: "humidity_critical_low", Parameter: "humidity",
			Value: v, Limit: lim.CriticalMin, Severity: SeverityCritical,
			Message:   fmt.Sprintf("humidity critically low: %.1f%% (limit %.1f%%)", v, lim.CriticalMin),
			Timestamp: ts,
		}
	}
	return nil
}

func checkAirQuality(v float64, lim AirQualityLimit, ts time.Time) *Violation {
	if v >= lim.HazardousThreshold {
		return &Violation{
			Kind: "air_quality_hazardous", Parameter: "air_quality",
			Value: v, Limit: lim.HazardousThreshold, Severity: SeverityCritical,
			Message:   fmt.Sprintf("air quality hazardous: AQI %.0f (limit %.0f)", v, lim.HazardousThreshold),
			Timestamp: ts,
		}
	}
	return nil
}

func checkWaterLevel(v float64, lim WaterLevelLimit, ts time.Time) *Violation {
	if v <= lim.CriticalLevel {
		return &Violation{
			Kind: "water_level_critical", Parameter: "water_level",
			Value: v, Limit: lim.CriticalLevel, Severity: SeverityCritical,
			Message:   fmt.Sprintf("water level critical: %.1f%% (limit %.1f%%)", v, lim.CriticalLevel),
			Timestamp: ts,
		}
	}
	return nil
}

// handleViolations records the batch and publishes events. State mutation
// happens under the lock; bus emission happens with the lock released so
// subscribers may call back into the service.
func (s *Service) handleViolations(violations []Violation) {
	var stops []EmergencyStopEvent

	s.mu.Lock()
	for _, v := range violations {
		s.violations = append(s.violations, v)
		s.stats.Violations++
		s.alerts = append(s.alerts, Alert{
			Kind:      v.Kind,
			Message:   v.Message,
			Severity:  v.Severity,
			Timestamp: v.Timestamp,
		})
		s.stats.Alerts++

		// The latch arms on the first critical violation of an episode;
		// repeats while armed do not re-emit.
		if v.Severity == SeverityCritical && !s.emergencyStop {
			s.emergencyStop = true
			s.stopReason = v.Message
			s.stopSince = v.Timestamp
			s.stats.EmergencyStops++
			stops = append(stops, EmergencyStopEvent{
				Reason:    v.Message,
				Timestamp: v.Timestamp,
				Violation: v,
			})
		}
	}
	s.mu.Unlock()

	for _, v := range violations {
		metrics.IncViolation(v.Parameter)
		s.log.Error().
			Str("kind", v.Kind).
			Str("parameter", v.Parameter).
			Float64("value", v.Value).
			Float64("limit", v.Limit).
			Msg("safety violation")
		s.bus.Emit(EventSafetyAlert, v)
	}
	for _, stop := range stops {
		metrics.IncEmergencyStop()
		s.log.Error().Str("reason", stop.Reason).Msg("emergency stop triggered")
		s.bus.Emit(EventEmergencyStop, stop)
	}
}

// AcknowledgeAlert marks the alert at index acknowledged. It returns false
// and mutates nothing when the index is out of range.
func (s *Service) AcknowledgeAlert(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.alerts) {
		return false
	}
	s.alerts[index].Acknowledged = true
	s.log.Info().Int("index", index).Msg("alert acknowledged")
	return true
}

// ClearEmergencyStop disarms the latch and emits emergency_resume. It is a
// no-op returning false when the latch is not armed. The latch never clears
// on its own; readings returning to range do not disarm it.
func (s *Service) ClearEmergencyStop() bool {
	s.mu.Lock()
	if !s.emergencyStop {
		s.mu.Unlock()
		return false
	}
	s.emergencyStop = false
	s.stopReason = ""
	s.stopSince = time.Time{}
	s.mu.Unlock()

	s.log.Info().Msg("emergency stop cleared")
	s.bus.Emit(EventEmergencyResume, EmergencyResumeEvent{Timestamp: s.now()})
	return true
}

// EmergencyStopped reports the latch state with its reason and arm time.
func (s *Service) EmergencyStopped() (armed bool, reason string, since time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emergencyStop, s.stopReason, s.stopSince
}

// ActiveAlerts returns the unacknowledged alerts, oldest first.
func (s *Service) ActiveAlerts() []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Alert
	for _, a := range s.alerts {
		if !a.Acknowledged {
			out = append(out, a)
		}
	}
	return out
}

// Violations returns violations detected within the given window, oldest
// first. A non-positive window returns the full log.
func (s *Service) Violations(within time.Duration) []Violation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if within <= 0 {
		out := make([]Violation, len(s.violations))
		copy(out, s.violations)
		return out
	}
	cutoff := s.now().Add(-within)
	var out []Violation
	for _, v := range s.violations {
		if !v.Timestamp.Before(cutoff) {
			out = append(out, v)
		}
	}
	return out
}

// Reset clears alerts, the violation log, and the latch. Counters are kept.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = nil
	s.violations = nil
	s.emergencyStop = false
	s.stopReason = ""
	s.stopSince = time.Time{}
	s.log.Info().Msg("safety state reset")
}

// Stats returns a copy of the running counters.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Status projects the service state into the shared status shape.
func (s *Service) Status() types.SafetyStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	active := 0
	for _, a := range s.alerts {
		if !a.Acknowledged {
			active++
		}
	}
	return types.SafetyStatus{
		EmergencyStop:  s.emergencyStop,
		ActiveAlerts:   active,
		TotalAlerts:    len(s.alerts),
		Violations:     len(s.violations),
		Checks:         s.stats.Checks,
		EmergencyStops: s.stats.EmergencyStops,
	}
}
