package config

import (
	"errors"
	"fmt"
	"os"

	"terrariumd/internal/safety"
)

// ErrLimitsMissing reports an absent safety limits file. Callers treat it as
// non-fatal: defaults apply and the condition is logged, not raised.
var ErrLimitsMissing = errors.New("config: safety limits file not found")

// LoadLimits reads the safety limits document at path. A missing file
// returns the documented defaults together with ErrLimitsMissing so callers
// can log the downgrade. A malformed file is a real error.
func LoadLimits(path string) (safety.Limits, error) {
	if path == "" {
		return safety.DefaultLimits(), ErrLimitsMissing
	}
	expanded, err := expandHome(path)
	if err != nil {
		return safety.DefaultLimits(), err
	}
	if _, err := os.Stat(expanded); os.IsNotExist(err) {
		return safety.DefaultLimits(), ErrLimitsMissing
	}
	var limits safety.Limits
	if err := decodeFile(expanded, &limits); err != nil {
		return safety.DefaultLimits(), fmt.Errorf("config: parse safety limits: %w", err)
	}
	return limits, nil
}
