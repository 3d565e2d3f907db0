// Package watchdog supervises registered services: it tracks heartbeats,
// probes health on a fixed cadence, and restarts unhealthy services within a
// bounded retry budget. All restart work runs on the single poll goroutine,
// so restarts are strictly serialized.
package watchdog

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"terrariumd/internal/metrics"
	"terrariumd/pkg/types"
)

// Defaults applied when corresponding Config fields are unset.
const (
	DefaultCheckInterval = 30 * time.Second
	DefaultTimeout       = 5 * time.Minute
	DefaultMaxRestarts   = 3
	DefaultGracePeriod   = 2 * time.Second
	defaultJoinTimeout   = 5 * time.Second
)

// ServiceStatus is the detailed health report a StatusReporter returns.
type ServiceStatus struct {
	Running bool
	Detail  string
}

// StatusReporter is implemented by services that expose a full status.
type StatusReporter interface {
	Status() ServiceStatus
}

// Runnable is implemented by services that expose only a running flag.
// Services implementing neither StatusReporter nor Runnable are assumed
// healthy as long as they heartbeat in time.
type Runnable interface {
	Running() bool
}

// Starter is implemented by services the watchdog can restart. Services
// without it can be detected as dead but not revived.
type Starter interface {
	Start() error
}

// Stopper is implemented by services that want a stop before restart.
type Stopper interface {
	Stop()
}

// Config holds watchdog tunables; zero values take the package defaults.
type Config struct {
	CheckInterval time.Duration
	Timeout       time.Duration
	MaxRestarts   int
	GracePeriod   time.Duration
	Logger        zerolog.Logger
}

// Stats holds the watchdog's running counters.
type Stats struct {
	Checks      uint64
	Restarts    uint64
	LastRestart time.Time
	StartTime   time.Time
}

// record is one supervised service. Capabilities are resolved once at
// registration; the poll loop never type-asserts.
type record struct {
	name          string
	health        func() bool // nil: assume healthy
	start         func() error
	stop          func()
	timeout       time.Duration
	lastHeartbeat time.Time
	restartCount  int
	maxRestarts   int
}

// Watchdog polls a registry of services for liveness. All exported methods
// are safe for concurrent use.
type Watchdog struct {
	mu       sync.Mutex
	services map[string]*record
	order    []string
	running  bool
	stats    Stats

	checkInterval time.Duration
	timeout       time.Duration
	maxRestarts   int
	gracePeriod   time.Duration
	log           zerolog.Logger

	done    chan struct{}
	stopped chan struct{}

	now   func() time.Time
	sleep func(time.Duration)
}

// New constructs a watchdog from cfg, applying defaults for unset fields.
func New(cfg Config) *Watchdog {
	w := &Watchdog{
		services:      make(map[string]*record),
		checkInterval: cfg.CheckInterval,
		timeout:       cfg.Timeout,
		maxRestarts:   cfg.MaxRestarts,
		gracePeriod:   cfg.GracePeriod,
		log:           cfg.Logger.With().Str("component", "watchdog").Logger(),
		now:           time.Now,
		sleep:         time.Sleep,
	}
	if w.checkInterval <= 0 {
		w.checkInterval = DefaultCheckInterval
	}
	if w.timeout <= 0 {
		w.timeout = DefaultTimeout
	}
	if w.maxRestarts <= 0 {
		w.maxRestarts = DefaultMaxRestarts
	}
	if w.gracePeriod <= 0 {
		w.gracePeriod = DefaultGracePeriod
	}
	return w
}

// AddService registers svc for supervision under name. A timeout of zero
// takes the watchdog default. Re-registering a name replaces the old record,
// resetting its restart budget. Capabilities (health probe, start, stop) are
// resolved here, once.
func (w *Watchdog) AddService(name string, svc any, timeout time.Duration) {
	rec := &record{
		name:        name,
		timeout:     timeout,
		maxRestarts: w.maxRestarts,
	}
	if rec.timeout <= 0 {
		rec.timeout = w.timeout
	}
	switch s := svc.(type) {
	case StatusReporter:
		rec.health = func() bool { return s.Status().Running }
	case Runnable:
		rec.health = s.Running
	}
	if s, ok := svc.(Starter); ok {
		rec.start = s.Start
	}
	if s, ok := svc.(Stopper); ok {
		rec.stop = s.Stop
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	rec.lastHeartbeat = w.now()
	if _, exists := w.services[name]; !exists {
		w.order = append(w.order, name)
	}
	w.services[name] = rec
	w.log.Info().Str("service", name).Dur("timeout", rec.timeout).Msg("service registered")
}

// RemoveService drops name from supervision; unknown names are a no-op.
func (w *Watchdog) RemoveService(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.services[name]; !ok {
		return
	}
	delete(w.services, name)
	for i, n := range w.order {
		if n == name {
			w.order = append(w.order[:i:i], w.order[i+1:]...)
			break
		}
	}
	w.log.Info().Str("service", name).Msg("service removed")
}

// Heartbeat records a liveness signal for name; unknown names are a no-op.
func (w *Watchdog) Heartbeat(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if rec, ok := w.services[name]; ok {
		rec.lastHeartbeat = w.now()
	}
}

// Start spawns the poll loop. Starting an already running watchdog is a
// no-op returning nil.
func (w *Watchdog) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		w.log.Warn().Msg("already running")
		return nil
	}
	w.running = true
	w.stats.StartTime = w.now()
	w.done = make(chan struct{})
	w.stopped = make(chan struct{})
	w.mu.Unlock()

	go w.loop()
	w.log.Info().Dur("check_interval", w.checkInterval).Msg("watchdog started")
	return nil
}

// Stop signals the poll loop and joins it with a bounded timeout.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.done)
	stopped := w.stopped
	w.mu.Unlock()

	select {
	case <-stopped:
	case <-time.After(defaultJoinTimeout):
		w.log.Warn().Msg("poll loop did not stop in time")
	}
	w.log.Info().Msg("watchdog stopped")
}

// Running reports whether the poll loop is active.
func (w *Watchdog) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watchdog) loop() {
	defer close(w.stopped)
	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()
	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.checkServices()
		}
	}
}

// checkServices runs one poll pass. A slow restart of one service delays
// the checks of those after it in the same pass.
func (w *Watchdog) checkServices() {
	metrics.IncWatchdogCheck()

	w.mu.Lock()
	w.stats.Checks++
	recs := make([]*record, 0, len(w.order))
	for _, name := range w.order {
		recs = append(recs, w.services[name])
	}
	now := w.now()
	w.mu.Unlock()

	for _, rec := range recs {
		w.mu.Lock()
		last := rec.lastHeartbeat
		timeout := rec.timeout
		w.mu.Unlock()

		if now.Sub(last) > timeout {
			w.log.Warn().Str("service", rec.name).Dur("timeout", timeout).Msg("heartbeat missed")
			w.restart(rec)
			continue
		}
		if rec.health != nil && !w.probe(rec) {
			w.log.Warn().Str("service", rec.name).Msg("service unhealthy")
			w.restart(rec)
		}
	}
}

// probe runs the health check resolved at registration. A panicking probe
// counts as unhealthy.
func (w *Watchdog) probe(rec *record) (healthy bool) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error().Str("service", rec.name).Interface("panic", r).Msg("health probe panicked")
			healthy = false
		}
	}()
	return rec.health()
}

// restart attempts one restart of rec, respecting the budget. Exhausted
// services stay registered but are no longer restarted; RemoveService is
// the only way out of that state.
func (w *Watchdog) restart(rec *record) {
	w.mu.Lock()
	count, max := rec.restartCount, rec.maxRestarts
	w.mu.Unlock()

	if count >= max {
		w.log.Error().
			Str("service", rec.name).
			Int("max_restarts", max).
			Msg("restart budget exhausted, service left unsupervised")
		return
	}
	if rec.start == nil {
		w.log.Warn().Str("service", rec.name).Msg("service has no start capability")
		return
	}

	w.log.Info().Str("service", rec.name).Int("attempt", count+1).Msg("restarting service")
	if rec.stop != nil {
		rec.stop()
	}
	w.sleep(w.gracePeriod)

	if err := rec.start(); err != nil {
		metrics.IncRestartFailure(rec.name)
		w.log.Error().Err(err).Str("service", rec.name).Msg("restart failed")
		return
	}

	w.mu.Lock()
	rec.restartCount++
	rec.lastHeartbeat = w.now()
	w.stats.Restarts++
	w.stats.LastRestart = w.now()
	w.mu.Unlock()

	metrics.IncRestart(rec.name)
	w.log.Info().Str("service", rec.name).Msg("service restarted")
}

// Stats returns a copy of the running counters.
func (w *Watchdog) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// ServiceStatusFor reports the supervision state of one service; ok is false
// for unknown names.
func (w *Watchdog) ServiceStatusFor(name string) (types.WatchdogServiceStatus, bool) {
	w.mu.Lock()
	rec, exists := w.services[name]
	if !exists {
		w.mu.Unlock()
		return types.WatchdogServiceStatus{}, false
	}
	view := types.WatchdogServiceStatus{
		Name:           name,
		LastHeartbeat:  rec.lastHeartbeat.Unix(),
		TimeoutSeconds: rec.timeout.Seconds(),
		RestartCount:   rec.restartCount,
		MaxRestarts:    rec.maxRestarts,
	}
	health := rec.health
	w.mu.Unlock()

	view.Healthy = health == nil || w.probe(rec)
	return view, true
}

// Status projects the watchdog state into the shared status shape.
func (w *Watchdog) Status() types.WatchdogStatus {
	w.mu.Lock()
	names := make([]string, len(w.order))
	copy(names, w.order)
	st := types.WatchdogStatus{
		Running:              w.running,
		CheckIntervalSeconds: w.checkInterval.Seconds(),
		Checks:               w.stats.Checks,
		Restarts:             w.stats.Restarts,
	}
	if !w.stats.LastRestart.IsZero() {
		st.LastRestartAt = w.stats.LastRestart.Unix()
	}
	w.mu.Unlock()

	st.Services = make([]types.WatchdogServiceStatus, 0, len(names))
	for _, name := range names {
		if view, ok := w.ServiceStatusFor(name); ok {
			st.Services = append(st.Services, view)
		}
	}
	return st
}
