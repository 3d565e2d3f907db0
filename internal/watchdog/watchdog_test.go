package watchdog

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeService implements the optional capability interfaces with counters.
type fakeService struct {
	mu       sync.Mutex
	running  bool
	starts   int
	stops    int
	startErr error
}

func (f *fakeService) Status() ServiceStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return ServiceStatus{Running: f.running}
}

func (f *fakeService) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	if f.startErr != nil {
		return f.startErr
	}
	f.running = true
	return nil
}

func (f *fakeService) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	f.running = false
}

// runnableOnly exposes just a running flag.
type runnableOnly struct{ running bool }

func (r *runnableOnly) Running() bool { return r.running }

// bareService has no supervision capabilities at all.
type bareService struct{}

func newTestWatchdog(cfg Config) (*Watchdog, *time.Time) {
	cfg.Logger = zerolog.Nop()
	w := New(cfg)
	now := time.Now()
	w.now = func() time.Time { return now }
	w.sleep = func(time.Duration) {}
	return w, &now
}

func TestMissedHeartbeatTriggersRestart(t *testing.T) {
	w, now := newTestWatchdog(Config{Timeout: time.Second, GracePeriod: time.Millisecond})
	svc := &fakeService{running: true}
	w.AddService("ctl", svc, time.Second)

	// Within the timeout nothing happens.
	w.checkServices()
	if svc.starts != 0 {
		t.Fatalf("expected no restart before timeout, got %d", svc.starts)
	}

	*now = now.Add(2 * time.Second)
	w.checkServices()
	if svc.starts != 1 || svc.stops != 1 {
		t.Fatalf("expected stop+start after missed heartbeat, starts=%d stops=%d", svc.starts, svc.stops)
	}
	view, ok := w.ServiceStatusFor("ctl")
	if !ok || view.RestartCount != 1 {
		t.Fatalf("expected restart count 1 got %+v ok=%v", view, ok)
	}
}

func TestHeartbeatPreventsRestart(t *testing.T) {
	w, now := newTestWatchdog(Config{Timeout: time.Second})
	svc := &fakeService{running: true}
	w.AddService("ctl", svc, time.Second)

	*now = now.Add(900 * time.Millisecond)
	w.Heartbeat("ctl")
	*now = now.Add(900 * time.Millisecond)
	w.checkServices()

	if svc.starts != 0 {
		t.Fatalf("expected heartbeat to prevent restart, starts=%d", svc.starts)
	}
}

func TestRestartBudgetExhausted(t *testing.T) {
	w, now := newTestWatchdog(Config{Timeout: time.Second, MaxRestarts: 2, GracePeriod: time.Millisecond})
	svc := &fakeService{}
	w.AddService("ctl", svc, time.Second)

	for i := 0; i < 2; i++ {
		*now = now.Add(2 * time.Second)
		w.checkServices()
	}
	if svc.starts != 2 {
		t.Fatalf("expected 2 restarts got %d", svc.starts)
	}

	// Budget spent: the third missed heartbeat attempts nothing.
	*now = now.Add(2 * time.Second)
	w.checkServices()
	if svc.starts != 2 {
		t.Fatalf("expected no third restart, got %d", svc.starts)
	}
	view, _ := w.ServiceStatusFor("ctl")
	if view.RestartCount != 2 {
		t.Fatalf("expected restart count to stay at 2, got %d", view.RestartCount)
	}
	// The service remains registered.
	if len(w.Status().Services) != 1 {
		t.Fatal("exhausted service must stay registered")
	}
}

func TestFailedRestartDoesNotConsumeBudget(t *testing.T) {
	w, now := newTestWatchdog(Config{Timeout: time.Second, MaxRestarts: 3, GracePeriod: time.Millisecond})
	svc := &fakeService{startErr: errors.New("hardware absent")}
	w.AddService("ctl", svc, time.Second)

	*now = now.Add(2 * time.Second)
	w.checkServices()

	view, _ := w.ServiceStatusFor("ctl")
	if view.RestartCount != 0 {
		t.Fatalf("failed restart must not consume budget, count=%d", view.RestartCount)
	}
	if svc.starts != 1 {
		t.Fatalf("expected one start attempt, got %d", svc.starts)
	}

	// The next poll retries.
	w.checkServices()
	if svc.starts != 2 {
		t.Fatalf("expected retry on next poll, got %d", svc.starts)
	}
}

func TestUnhealthyServiceIsRestarted(t *testing.T) {
	w, _ := newTestWatchdog(Config{Timeout: time.Hour, GracePeriod: time.Millisecond})
	svc := &fakeService{running: false} // heartbeats fresh, health probe fails
	w.AddService("ctl", svc, time.Hour)

	w.checkServices()
	if svc.starts != 1 {
		t.Fatalf("expected unhealthy service restarted, starts=%d", svc.starts)
	}
}

func TestRunnableCapability(t *testing.T) {
	w, _ := newTestWatchdog(Config{Timeout: time.Hour})
	svc := &runnableOnly{running: true}
	w.AddService("sensor", svc, 0)

	w.checkServices()
	view, _ := w.ServiceStatusFor("sensor")
	if !view.Healthy {
		t.Fatal("running service must report healthy")
	}
	svc.running = false
	view, _ = w.ServiceStatusFor("sensor")
	if view.Healthy {
		t.Fatal("stopped service must report unhealthy")
	}
}

func TestBareServiceAssumedHealthy(t *testing.T) {
	w, _ := newTestWatchdog(Config{Timeout: time.Hour})
	w.AddService("display", &bareService{}, 0)

	w.checkServices()
	view, ok := w.ServiceStatusFor("display")
	if !ok || !view.Healthy {
		t.Fatalf("capability-less service must be assumed healthy, got %+v", view)
	}
}

func TestRemoveService(t *testing.T) {
	w, _ := newTestWatchdog(Config{})
	w.AddService("a", &bareService{}, 0)
	w.AddService("b", &bareService{}, 0)
	w.RemoveService("a")
	w.RemoveService("missing") // no-op

	st := w.Status()
	if len(st.Services) != 1 || st.Services[0].Name != "b" {
		t.Fatalf("unexpected services after removal: %+v", st.Services)
	}
	if _, ok := w.ServiceStatusFor("a"); ok {
		t.Fatal("removed service must not report status")
	}
}

func TestHeartbeatUnknownServiceIsNoop(t *testing.T) {
	w, _ := newTestWatchdog(Config{})
	w.Heartbeat("ghost") // must not panic or register anything
	if n := len(w.Status().Services); n != 0 {
		t.Fatalf("expected no services got %d", n)
	}
}

func TestStartStopLifecycle(t *testing.T) {
	w := New(Config{CheckInterval: 10 * time.Millisecond, Logger: zerolog.Nop()})
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !w.Running() {
		t.Fatal("expected running after Start")
	}
	if err := w.Start(); err != nil { // second start is a no-op
		t.Fatalf("second Start: %v", err)
	}
	time.Sleep(35 * time.Millisecond)
	w.Stop()
	if w.Running() {
		t.Fatal("expected stopped after Stop")
	}
	if w.Stats().Checks == 0 {
		t.Fatal("expected at least one poll pass while running")
	}
	w.Stop() // idempotent
}

func TestDefaultsApplied(t *testing.T) {
	w := New(Config{Logger: zerolog.Nop()})
	if w.checkInterval != DefaultCheckInterval {
		t.Fatalf("expected default check interval, got %v", w.checkInterval)
	}
	if w.maxRestarts != DefaultMaxRestarts {
		t.Fatalf("expected default max restarts, got %d", w.maxRestarts)
	}
	w.AddService("x", &bareService{}, 0)
	view, _ := w.ServiceStatusFor("x")
	if view.TimeoutSeconds != DefaultTimeout.Seconds() {
		t.Fatalf("expected default timeout, got %v", view.TimeoutSeconds)
	}
	if view.MaxRestarts != DefaultMaxRestarts {
		t.Fatalf("expected default max restarts on record, got %d", view.MaxRestarts)
	}
}
