package control

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestSimLifecycle(t *testing.T) {
	s := NewSim(SimConfig{Seed: 1, Logger: zerolog.Nop()})

	if err := s.Update(); err != ErrNotRunning {
		t.Fatalf("expected ErrNotRunning before start, got %v", err)
	}
	if _, err := s.SensorData(); err != ErrNotRunning {
		t.Fatalf("expected ErrNotRunning before start, got %v", err)
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !s.Running() {
		t.Fatal("expected running after start")
	}
	st := s.SystemStatus()
	if !st.Initialized || !st.Running {
		t.Fatalf("unexpected status: %+v", st)
	}

	s.Stop()
	if s.Running() {
		t.Fatal("expected stopped")
	}
}

func TestSimSnapshotShape(t *testing.T) {
	s := NewSim(SimConfig{Seed: 1, Logger: zerolog.Nop()})
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for i := 0; i < 10; i++ {
		if err := s.Update(); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	snap, err := s.SensorData()
	if err != nil {
		t.Fatalf("SensorData: %v", err)
	}
	if snap.DHT22 == nil || snap.DHT22.Temperature == nil || snap.DHT22.Humidity == nil {
		t.Fatal("expected grouped DHT22 reading")
	}
	if snap.AirSensor == nil || snap.AirSensor.AQI == nil {
		t.Fatal("expected grouped air quality reading")
	}
	if snap.WaterSensor == nil || snap.WaterSensor.Level == nil {
		t.Fatal("expected grouped water level reading")
	}
	// The walk starts at the defaults and drifts in small steps; ten updates
	// stay well inside the safety defaults.
	if v := *snap.DHT22.Temperature; v < 20 || v > 32 {
		t.Fatalf("temperature drifted implausibly: %v", v)
	}
	if st := s.SystemStatus(); st.Updates != 10 {
		t.Fatalf("expected 10 updates got %d", st.Updates)
	}
}

func TestSimFaultInjection(t *testing.T) {
	s := NewSim(SimConfig{Seed: 1, FailEvery: 3, Logger: zerolog.Nop()})
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	var failures int
	for i := 0; i < 9; i++ {
		if err := s.Update(); err != nil {
			failures++
		}
	}
	if failures != 3 {
		t.Fatalf("expected 3 injected faults in 9 updates, got %d", failures)
	}
}

func TestSimDeterministicWithSeed(t *testing.T) {
	run := func() float64 {
		s := NewSim(SimConfig{Seed: 42, Logger: zerolog.Nop()})
		if err := s.Start(); err != nil {
			t.Fatalf("Start: %v", err)
		}
		for i := 0; i < 5; i++ {
			if err := s.Update(); err != nil {
				t.Fatalf("Update: %v", err)
			}
		}
		snap, err := s.SensorData()
		if err != nil {
			t.Fatalf("SensorData: %v", err)
		}
		return *snap.DHT22.Temperature
	}
	if a, b := run(), run(); a != b {
		t.Fatalf("expected deterministic walk with fixed seed, got %v vs %v", a, b)
	}
}
