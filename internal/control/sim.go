package control

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"terrariumd/pkg/types"
)

// ErrNotRunning is returned by Update and SensorData before Start.
var ErrNotRunning = errors.New("control: service not running")

// SimConfig tunes the simulated environment. Zero values take the defaults
// of a healthy enclosure.
type SimConfig struct {
	Seed        int64
	Temperature float64 // °C, default 26
	Humidity    float64 // %, default 65
	AirQuality  float64 // AQI, default 40
	WaterLevel  float64 // %, default 90
	// Jitter is the maximum random walk step per update, default 0.4.
	Jitter float64
	// FailEvery makes every Nth update return an error, 0 disables it.
	// Useful for exercising the loop's error backoff without hardware.
	FailEvery uint64
	Logger    zerolog.Logger
}

// Sim is a deterministic control service producing a slow random walk around
// configured baselines. It implements Service plus the watchdog capability
// interfaces, so the daemon can be supervised end to end without hardware.
type Sim struct {
	mu          sync.Mutex
	cfg         SimConfig
	rng         *rand.Rand
	initialized bool
	running     bool
	updates     uint64

	temperature float64
	humidity    float64
	airQuality  float64
	waterLevel  float64

	log zerolog.Logger
}

// NewSim constructs a simulator from cfg.
func NewSim(cfg SimConfig) *Sim {
	if cfg.Temperature == 0 {
		cfg.Temperature = 26
	}
	if cfg.Humidity == 0 {
		cfg.Humidity = 65
	}
	if cfg.AirQuality == 0 {
		cfg.AirQuality = 40
	}
	if cfg.WaterLevel == 0 {
		cfg.WaterLevel = 90
	}
	if cfg.Jitter == 0 {
		cfg.Jitter = 0.4
	}
	return &Sim{
		cfg: cfg,
		log: cfg.Logger.With().Str("component", "control_sim").Logger(),
	}
}

func (s *Sim) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seed := s.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s.rng = rand.New(rand.NewSource(seed))
	s.temperature = s.cfg.Temperature
	s.humidity = s.cfg.Humidity
	s.airQuality = s.cfg.AirQuality
	s.waterLevel = s.cfg.WaterLevel
	s.initialized = true
	s.log.Info().Int64("seed", seed).Msg("simulator initialized")
	return nil
}

func (s *Sim) Start() error {
	s.mu.Lock()
	initialized := s.initialized
	s.mu.Unlock()
	if !initialized {
		if err := s.Initialize(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()
	s.log.Info().Msg("simulator started")
	return nil
}

func (s *Sim) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.log.Info().Msg("simulator stopped")
}

// Update advances the random walk one step.
func (s *Sim) Update() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return ErrNotRunning
	}
	s.updates++
	if s.cfg.FailEvery > 0 && s.updates%s.cfg.FailEvery == 0 {
		return fmt.Errorf("control: injected fault at update %d", s.updates)
	}
	j := s.cfg.Jitter
	s.temperature += s.rng.Float64()*2*j - j
	s.humidity += s.rng.Float64()*2*j - j
	s.airQuality += s.rng.Float64()*4*j - 2*j
	s.waterLevel -= s.rng.Float64() * j * 0.1 // water only evaporates
	if s.waterLevel < 0 {
		s.waterLevel = 0
	}
	return nil
}

func (s *Sim) SensorData() (types.SensorSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return types.SensorSnapshot{}, ErrNotRunning
	}
	return types.SensorSnapshot{
		DHT22: &types.DHT22Reading{
			Temperature: types.Float(s.temperature),
			Humidity:    types.Float(s.humidity),
		},
		AirSensor:   &types.AirQualityReading{AQI: types.Float(s.airQuality)},
		WaterSensor: &types.WaterLevelReading{Level: types.Float(s.waterLevel)},
		Timestamp:   float64(time.Now().UnixNano()) / 1e9,
	}, nil
}

func (s *Sim) SystemStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Initialized: s.initialized,
		Running:     s.running,
		Updates:     s.updates,
	}
}

// Running satisfies the watchdog's health probe.
func (s *Sim) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
