package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"terrariumd/internal/bus"
	"terrariumd/internal/config"
	"terrariumd/internal/control"
	"terrariumd/internal/httpapi"
	"terrariumd/internal/runtime"
	"terrariumd/internal/safety"
	"terrariumd/internal/watchdog"
)

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	// Flags with environment variable defaults
	addr := flag.String("addr", envStr("TERRARIUMD_ADDR", ":8530"), "HTTP listen address, e.g. :8530")
	configPath := flag.String("config", envStr("TERRARIUMD_CONFIG", ""), "Optional daemon config file (.yaml/.json/.toml)")
	configDir := flag.String("config-dir", envStr("TERRARIUMD_CONFIG_DIR", "~/.terrariumd/config"), "Directory holding policies/, species/, terrariums/ profiles")
	limitsPath := flag.String("limits", envStr("TERRARIUMD_LIMITS", "safety_limits.yaml"), "Safety limits file; defaults apply when missing")
	loopInterval := flag.Float64("loop-interval", 1.0, "Main loop cycle interval in seconds")
	logLevel := flag.String("log-level", envStr("TERRARIUMD_LOG_LEVEL", "info"), "Log level: trace|debug|info|warn|error")
	corsEnabled := flag.Bool("cors", false, "Enable CORS for browser dashboards")
	flag.Parse()

	cfg := config.Config{
		Addr:                *addr,
		ConfigDir:           *configDir,
		LogLevel:            *logLevel,
		LoopIntervalSeconds: *loopInterval,
		CORSEnabled:         *corsEnabled,
	}
	if *configPath != "" {
		fileCfg, err := config.Load(*configPath)
		if err != nil {
			l := zerolog.New(os.Stderr)
			l.Fatal().Err(err).Str("path", *configPath).Msg("load config")
		}
		cfg = mergeConfig(fileCfg, cfg, setFlags())
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	limits, err := config.LoadLimits(*limitsPath)
	if err != nil {
		if !errors.Is(err, config.ErrLimitsMissing) {
			log.Fatal().Err(err).Str("path", *limitsPath).Msg("load safety limits")
		}
		log.Warn().Str("path", *limitsPath).Msg("safety limits file not found, using defaults")
	}

	profiles, err := config.LoadProfiles(cfg.ConfigDir)
	if err != nil {
		log.Warn().Err(err).Str("dir", cfg.ConfigDir).Msg("load profiles")
	} else {
		log.Info().
			Int("policies", len(profiles.Policies)).
			Int("species", len(profiles.Species)).
			Int("terrariums", len(profiles.Terrariums)).
			Msg("profiles loaded")
	}

	b := bus.New(log.With().Str("component", "bus").Logger())
	saf := safety.New(b, limits, log.With().Str("component", "safety").Logger())
	sim := control.NewSim(control.SimConfig{Logger: log.With().Str("component", "control").Logger()})

	dog := watchdog.New(watchdog.Config{
		CheckInterval: secondsOrZero(cfg.WatchdogIntervalSecs),
		Timeout:       secondsOrZero(cfg.WatchdogTimeoutSeconds),
		Logger:        log.With().Str("component", "watchdog").Logger(),
	})

	loop := runtime.New(b, runtime.Config{
		Interval:      secondsOrZero(cfg.LoopIntervalSeconds),
		Control:       sim,
		Safety:        saf,
		Heartbeat:     dog,
		HeartbeatName: "main_loop",
		Logger:        log.With().Str("component", "loop").Logger(),
	})

	dog.AddService("control", sim, 0)
	dog.AddService("main_loop", loop, 0)

	httpapi.SetLogger(log.With().Str("component", "http").Logger())
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSOrigins)
	mux := httpapi.NewMux(&app{loop: loop, safety: saf, dog: dog, bus: b})
	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("terrariumd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	if err := dog.Start(); err != nil {
		log.Fatal().Err(err).Msg("start watchdog")
	}

	// Graceful shutdown (Ctrl+C / SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := loop.Run(ctx); err != nil {
		log.Error().Err(err).Msg("main loop error")
	}

	dog.Stop()
	loop.Cleanup()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
	log.Info().Msg("terrariumd stopped")
}

// setFlags reports which flags were given on the command line.
func setFlags() map[string]bool {
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// mergeConfig starts from the file config and overlays only the flags the
// operator actually passed. File values that are zero fall back to the flag
// (or env) defaults; CORS origins come only from the file.
func mergeConfig(file, flags config.Config, set map[string]bool) config.Config {
	out := file
	if set["addr"] || out.Addr == "" {
		out.Addr = flags.Addr
	}
	if set["config-dir"] || out.ConfigDir == "" {
		out.ConfigDir = flags.ConfigDir
	}
	if set["log-level"] || out.LogLevel == "" {
		out.LogLevel = flags.LogLevel
	}
	if set["loop-interval"] || out.LoopIntervalSeconds <= 0 {
		out.LoopIntervalSeconds = flags.LoopIntervalSeconds
	}
	if set["cors"] {
		out.CORSEnabled = flags.CORSEnabled
	}
	return out
}

func secondsOrZero(s float64) time.Duration {
	if s <= 0 {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}
