// Package runtime owns the main control loop: a fixed-cadence scheduler
// that drives the control collaborator, feeds the safety service, and
// publishes cycle events on the bus.
package runtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"terrariumd/internal/bus"
	"terrariumd/internal/control"
	"terrariumd/internal/metrics"
	"terrariumd/pkg/types"
)

// State is the loop's lifecycle state.
type State string

const (
	StateStopped      State = "stopped"
	StateInitializing State = "initializing"
	StateRunning      State = "running"
	StateStopping     State = "stopping"
)

// EventCycle is emitted once per executed cycle.
const EventCycle = "main_loop_cycle"

// CycleEvent is the payload of EventCycle.
type CycleEvent struct {
	Cycle     uint64
	Timestamp time.Time
}

// SafetyChecker is the slice of the safety service the loop needs.
type SafetyChecker interface {
	CheckLimits(types.SensorSnapshot) bool
}

// Heartbeater receives liveness signals each cycle; the watchdog satisfies
// it. Nil disables heartbeating.
type Heartbeater interface {
	Heartbeat(name string)
}

// Defaults applied when corresponding Config fields are unset.
const (
	DefaultInterval  = time.Second
	defaultPollEvery = 100 * time.Millisecond
	defaultBackoff   = time.Second
)

// Config holds loop tunables; zero values take the package defaults.
type Config struct {
	Interval      time.Duration
	Control       control.Service
	Safety        SafetyChecker // optional
	Heartbeat     Heartbeater   // optional
	HeartbeatName string
	Logger        zerolog.Logger
}

// Stats holds the loop's running counters.
type Stats struct {
	Cycles    uint64
	Errors    uint64
	StartTime time.Time
	LastCycle time.Time
}

// Loop is the main control loop. Construct with New; all exported methods
// are safe for concurrent use and Stop is safe from a signal context.
type Loop struct {
	mu        sync.Mutex
	state     State
	ctl       control.Service
	safety    SafetyChecker
	heartbeat Heartbeater
	hbName    string
	bus       *bus.Bus
	interval  time.Duration
	pollEvery time.Duration
	backoff   time.Duration
	lastCycle time.Time
	stats     Stats
	log       zerolog.Logger

	now   func() time.Time
	sleep func(time.Duration)
}

// New constructs a Loop publishing on b.
func New(b *bus.Bus, cfg Config) *Loop {
	l := &Loop{
		state:     StateStopped,
		ctl:       cfg.Control,
		safety:    cfg.Safety,
		heartbeat: cfg.Heartbeat,
		hbName:    cfg.HeartbeatName,
		bus:       b,
		interval:  cfg.Interval,
		pollEvery: defaultPollEvery,
		backoff:   defaultBackoff,
		log:       cfg.Logger.With().Str("component", "main_loop").Logger(),
		now:       time.Now,
		sleep:     time.Sleep,
	}
	if l.interval <= 0 {
		l.interval = DefaultInterval
	}
	return l
}

// Initialize prepares the control collaborator. It is a no-op when already
// past the stopped state.
func (l *Loop) Initialize() error {
	l.mu.Lock()
	if l.state != StateStopped {
		l.mu.Unlock()
		return nil
	}
	l.state = StateInitializing
	ctl := l.ctl
	l.mu.Unlock()

	l.log.Info().Msg("initializing main loop")
	if ctl == nil {
		l.setState(StateStopped)
		return fmt.Errorf("runtime: no control service configured")
	}
	if err := ctl.Initialize(); err != nil {
		l.setState(StateStopped)
		return fmt.Errorf("runtime: initialize control service: %w", err)
	}
	return nil
}

// Start initializes if needed, starts the control collaborator, and marks
// the loop running. Starting a running loop is a no-op.
func (l *Loop) Start() error {
	l.mu.Lock()
	if l.state == StateRunning {
		l.mu.Unlock()
		return nil
	}
	needsInit := l.state == StateStopped
	l.mu.Unlock()

	if needsInit {
		if err := l.Initialize(); err != nil {
			return err
		}
	}
	if err := l.ctl.Start(); err != nil {
		l.setState(StateStopped)
		return fmt.Errorf("runtime: start control service: %w", err)
	}

	l.mu.Lock()
	l.state = StateRunning
	l.stats.StartTime = l.now()
	// First cycle fires one full interval after start.
	l.lastCycle = l.stats.StartTime
	l.mu.Unlock()
	l.log.Info().Dur("interval", l.interval).Msg("main loop started")
	return nil
}

// Run starts the loop and blocks until Stop is called or ctx is canceled.
// The scheduler is a cooperative poll: it wakes every ~100ms and executes a
// cycle when a full interval has elapsed, so cycles coalesce under load and
// never run more often than the interval.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.Start(); err != nil {
		return err
	}
	l.log.Info().Msg("terrarium supervision running")

	for l.Running() {
		select {
		case <-ctx.Done():
			l.Stop()
		default:
		}
		if backoff := l.poll(); backoff {
			l.sleep(l.backoff)
			continue
		}
		l.sleep(l.pollEvery)
	}
	l.Stop()
	return nil
}

// poll executes one cycle when the interval has elapsed. It returns true
// when the cycle failed and the caller should back off.
func (l *Loop) poll() bool {
	l.mu.Lock()
	if l.state != StateRunning {
		l.mu.Unlock()
		return false
	}
	now := l.now()
	if now.Sub(l.lastCycle) < l.interval {
		l.mu.Unlock()
		return false
	}
	l.lastCycle = now
	l.stats.Cycles++
	cycle := l.stats.Cycles
	l.stats.LastCycle = now
	l.mu.Unlock()

	if err := l.runCycle(cycle, now); err != nil {
		l.mu.Lock()
		l.stats.Errors++
		l.mu.Unlock()
		metrics.IncLoopCycleError()
		l.log.Error().Err(err).Uint64("cycle", cycle).Msg("cycle failed")
		return true
	}
	metrics.IncLoopCycle()
	return false
}

// runCycle performs one unit of work: control update, safety check, cycle
// event. A panic anywhere inside is converted to an error; a cycle failure
// is never fatal to the loop.
func (l *Loop) runCycle(cycle uint64, now time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("runtime: cycle panic: %v", r)
		}
	}()

	if err := l.ctl.Update(); err != nil {
		return fmt.Errorf("runtime: control update: %w", err)
	}
	if l.safety != nil {
		snap, err := l.ctl.SensorData()
		if err != nil {
			return fmt.Errorf("runtime: sensor data: %w", err)
		}
		l.safety.CheckLimits(snap)
	}
	if l.heartbeat != nil {
		l.heartbeat.Heartbeat(l.hbName)
	}
	l.bus.Emit(EventCycle, CycleEvent{Cycle: cycle, Timestamp: now})
	return nil
}

// Stop flips the loop out of running and stops the control collaborator.
// It is idempotent and safe to call from a signal handler path.
func (l *Loop) Stop() {
	l.mu.Lock()
	if l.state != StateRunning {
		l.mu.Unlock()
		return
	}
	l.state = StateStopping
	ctl := l.ctl
	l.mu.Unlock()

	l.log.Info().Msg("stopping main loop")
	if ctl != nil {
		ctl.Stop()
	}
	l.setState(StateStopped)
	l.log.Info().Msg("main loop stopped")
}

// Cleanup stops the loop and releases the control collaborator.
func (l *Loop) Cleanup() {
	l.Stop()
	l.mu.Lock()
	l.ctl = nil
	l.mu.Unlock()
	l.log.Info().Msg("main loop cleaned up")
}

func (l *Loop) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}

// State returns the current lifecycle state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Running reports whether the loop is in the running state. It satisfies
// the watchdog's health probe.
func (l *Loop) Running() bool {
	return l.State() == StateRunning
}

// Stats returns a copy of the running counters.
func (l *Loop) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// Status projects the loop state into the shared status shape.
func (l *Loop) Status() types.LoopStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := types.LoopStatus{
		State:           string(l.state),
		IntervalSeconds: l.interval.Seconds(),
		Cycles:          l.stats.Cycles,
		Errors:          l.stats.Errors,
	}
	if !l.stats.StartTime.IsZero() {
		st.StartedAt = l.stats.StartTime.Unix()
	}
	if !l.stats.LastCycle.IsZero() {
		st.LastCycleAt = l.stats.LastCycle.Unix()
	}
	return st
}
