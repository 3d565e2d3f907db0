package terractl

import (
	"fmt"
	"os"
	"time"
)

// Config carries the connection settings shared by every subcommand.
type Config struct {
	Addr    string
	Timeout time.Duration
	LogLvl  string
	JSON    bool
}

func defaultConfig() *Config {
	return &Config{
		Addr:    envStr("TERRACTL_ADDR", "http://127.0.0.1:8530"),
		Timeout: time.Duration(envInt("TERRACTL_TIMEOUT_SECONDS", 10)) * time.Second,
		LogLvl:  envStr("TERRACTL_LOG_LEVEL", "info"),
	}
}

// Main parses arguments and dispatches via the Cobra tree. It exits the
// process on error so cmd/terractl stays a one-liner.
func Main() {
	cfg := defaultConfig()
	root := buildRootCmdWith(cfg)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "terractl:", err.Error())
		os.Exit(1)
	}
}
