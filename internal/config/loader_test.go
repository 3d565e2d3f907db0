package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"terrariumd/internal/safety"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "config.yaml", "addr: \":9090\"\nloop_interval_seconds: 2.5\nlog_level: debug\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9090" || cfg.LoopIntervalSeconds != 2.5 || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "config.json", `{"addr":":8081","cors_enabled":true,"cors_origins":["*"]}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":8081" || !cfg.CORSEnabled || len(cfg.CORSOrigins) != 1 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "config.toml", "addr = \":7070\"\nwatchdog_interval_seconds = 15.0\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":7070" || cfg.WatchdogIntervalSecs != 15 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "config.ini", "addr=:1\n")
	if _, err := Load(p); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestLoadEmptyPath(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestLoadLimits(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "safety_limits.json", `{
		"temperature": {"critical_min": 8, "critical_max": 40},
		"air_quality": {"hazardous_threshold": 250},
		"failsafes": {"heater_cutoff": true}
	}`)
	limits, err := LoadLimits(p)
	if err != nil {
		t.Fatalf("LoadLimits: %v", err)
	}
	if limits.Temperature.CriticalMax != 40 || limits.AirQuality.HazardousThreshold != 250 {
		t.Fatalf("unexpected limits: %+v", limits)
	}
	if limits.Failsafes["heater_cutoff"] != true {
		t.Fatalf("expected failsafes passed through, got %+v", limits.Failsafes)
	}
}

func TestLoadLimitsMissingFileReturnsDefaults(t *testing.T) {
	limits, err := LoadLimits(filepath.Join(t.TempDir(), "absent.json"))
	if !errors.Is(err, ErrLimitsMissing) {
		t.Fatalf("expected ErrLimitsMissing got %v", err)
	}
	want := safety.DefaultLimits()
	if limits.Temperature != want.Temperature || limits.Humidity != want.Humidity ||
		limits.AirQuality != want.AirQuality || limits.WaterLevel != want.WaterLevel {
		t.Fatalf("expected defaults, got %+v", limits)
	}
}

func TestLoadLimitsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "safety_limits.json", "{not json")
	if _, err := LoadLimits(p); err == nil || errors.Is(err, ErrLimitsMissing) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestLoadProfiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "policies/heating.json", `{"mode": "gradient"}`)
	writeFile(t, dir, "policies/misting.yaml", "interval_minutes: 30\n")
	writeFile(t, dir, "species/mantis/hierodula.json", `{"temp_optimal": 27}`)
	writeFile(t, dir, "terrariums/left_bay.json", `{"volume_l": 60}`)
	writeFile(t, dir, "terrariums/notes.txt", "ignored")

	p, err := LoadProfiles(dir)
	if err != nil {
		t.Fatalf("LoadProfiles: %v", err)
	}
	if len(p.Policies) != 2 {
		t.Fatalf("expected 2 policies got %d", len(p.Policies))
	}
	if p.Policies["heating"]["mode"] != "gradient" {
		t.Fatalf("unexpected heating policy: %+v", p.Policies["heating"])
	}
	// Species documents nest per genus and are still found.
	if _, ok := p.Species["hierodula"]; !ok {
		t.Fatalf("expected nested species document, got %+v", p.Species)
	}
	if len(p.Terrariums) != 1 {
		t.Fatalf("expected non-config files skipped, got %+v", p.Terrariums)
	}
}

func TestLoadProfilesEmptyDir(t *testing.T) {
	p, err := LoadProfiles(t.TempDir())
	if err != nil {
		t.Fatalf("LoadProfiles: %v", err)
	}
	if len(p.Policies)+len(p.Species)+len(p.Terrariums) != 0 {
		t.Fatalf("expected empty profiles got %+v", p)
	}
}

func TestLoadProfilesNoDir(t *testing.T) {
	p, err := LoadProfiles("")
	if err != nil {
		t.Fatalf("LoadProfiles: %v", err)
	}
	if p.Policies == nil || p.Species == nil || p.Terrariums == nil {
		t.Fatal("expected initialized maps")
	}
}
