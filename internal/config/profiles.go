package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Profiles carries the layered profile documents. The core never interprets
// them; they are passed through to collaborators that do (actuator policies,
// species requirements, terrarium wiring).
type Profiles struct {
	Policies   map[string]map[string]any
	Species    map[string]map[string]any
	Terrariums map[string]map[string]any
}

// LoadProfiles scans dir for the policies/, species/ and terrariums/
// subdirectories and loads every supported document in each, keyed by file
// stem. Missing subdirectories are fine; an empty Profiles is returned for
// an empty or absent dir.
func LoadProfiles(dir string) (Profiles, error) {
	p := Profiles{
		Policies:   make(map[string]map[string]any),
		Species:    make(map[string]map[string]any),
		Terrariums: make(map[string]map[string]any),
	}
	if dir == "" {
		return p, nil
	}
	base, err := expandHome(dir)
	if err != nil {
		return p, err
	}
	if err := loadProfileDir(filepath.Join(base, "policies"), p.Policies); err != nil {
		return p, err
	}
	if err := loadProfileDir(filepath.Join(base, "species"), p.Species); err != nil {
		return p, err
	}
	if err := loadProfileDir(filepath.Join(base, "terrariums"), p.Terrariums); err != nil {
		return p, err
	}
	return p, nil
}

// loadProfileDir loads every *.json/*.yaml/*.yml/*.toml document in dir into
// out, keyed by file stem. Species directories nest one level (per genus),
// so the walk recurses.
func loadProfileDir(dir string, out map[string]map[string]any) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json", ".yaml", ".yml", ".toml":
		default:
			return nil
		}
		doc := make(map[string]any)
		if err := decodeFile(path, &doc); err != nil {
			return fmt.Errorf("config: parse profile %s: %w", path, err)
		}
		stem := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		out[stem] = doc
		return nil
	})
}
