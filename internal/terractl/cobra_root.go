package terractl

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// buildRootCmd is a convenience for help-only fallbacks.
func buildRootCmd() *cobra.Command { return buildRootCmdWith(defaultConfig()) }

// buildRootCmdWith constructs the Cobra command tree wired to a daemon client.
func buildRootCmdWith(cfg *Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "terractl",
		Short:         "Operator CLI for the terrariumd supervision daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags -> Config
	root.PersistentFlags().String("addr", cfg.Addr, "Daemon base URL (defaults TERRACTL_ADDR or http://127.0.0.1:8530)")
	root.PersistentFlags().Int("timeout", int(cfg.Timeout/time.Second), "Request timeout in seconds (defaults TERRACTL_TIMEOUT_SECONDS or 10)")
	root.PersistentFlags().String("log-level", cfg.LogLvl, "Log level: debug|info|warn|error (defaults TERRACTL_LOG_LEVEL or info)")
	root.PersistentFlags().Bool("json", false, "Print raw JSON instead of formatted output")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if f := cmd.InheritedFlags().Lookup("addr"); f != nil {
			if v := f.Value.String(); v != "" {
				cfg.Addr = v
			}
		}
		if f := cmd.InheritedFlags().Lookup("timeout"); f != nil {
			var n int
			_, _ = fmt.Sscanf(f.Value.String(), "%d", &n)
			if n > 0 {
				cfg.Timeout = time.Duration(n) * time.Second
			}
		}
		if f := cmd.InheritedFlags().Lookup("log-level"); f != nil {
			if v := f.Value.String(); v != "" {
				cfg.LogLvl = v
			}
		}
		if f := cmd.InheritedFlags().Lookup("json"); f != nil {
			cfg.JSON = f.Value.String() == "true"
		}
		SetLogLevel(cfg.LogLvl)
	}

	client := func() *Client { return NewClient(cfg.Addr, cfg.Timeout) }

	// status
	statusCmd := &cobra.Command{Use: "status", Short: "Show aggregate daemon status", Example: "  terractl status", RunE: func(cmd *cobra.Command, args []string) error {
		st, err := client().Status()
		if err != nil {
			return err
		}
		if cfg.JSON {
			return printJSON(st)
		}
		fmt.Printf("loop      state=%s cycles=%d errors=%d interval=%.1fs\n", st.Loop.State, st.Loop.Cycles, st.Loop.Errors, st.Loop.IntervalSeconds)
		fmt.Printf("watchdog  running=%t checks=%d restarts=%d services=%d\n", st.Watchdog.Running, st.Watchdog.Checks, st.Watchdog.Restarts, len(st.Watchdog.Services))
		for _, svc := range st.Watchdog.Services {
			fmt.Printf("          %-12s healthy=%t restarts=%d/%d\n", svc.Name, svc.Healthy, svc.RestartCount, svc.MaxRestarts)
		}
		fmt.Printf("safety    emergency_stop=%t active_alerts=%d violations=%d checks=%d\n", st.Safety.EmergencyStop, st.Safety.ActiveAlerts, st.Safety.Violations, st.Safety.Checks)
		fmt.Printf("bus       events=%d handlers=%d errors=%d\n", st.Bus.EventsEmitted, st.Bus.TotalHandlers, st.Bus.HandlerErrors)
		return nil
	}}
	root.AddCommand(statusCmd)

	// alerts group
	alertsCmd := &cobra.Command{Use: "alerts", Short: "Inspect and acknowledge safety alerts", RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("alerts requires a subcommand: list|ack")
	}}
	alertsList := &cobra.Command{Use: "list", Short: "List unacknowledged alerts", Example: "  terractl alerts list", RunE: func(cmd *cobra.Command, args []string) error {
		alerts, err := client().Alerts()
		if err != nil {
			return err
		}
		if cfg.JSON {
			return printJSON(alerts)
		}
		if len(alerts) == 0 {
			fmt.Println("no active alerts")
			return nil
		}
		for i, a := range alerts {
			fmt.Printf("%3d  %-28s %s  %s\n", i, a.Kind, time.Unix(a.Timestamp, 0).Format(time.RFC3339), a.Message)
		}
		return nil
	}}
	alertsAck := &cobra.Command{Use: "ack <index>", Short: "Acknowledge the alert at index", Example: "  terractl alerts ack 0", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("alert index must be an integer: %q", args[0])
		}
		if err := client().AckAlert(index); err != nil {
			return err
		}
		info("alert %d acknowledged", index)
		return nil
	}}
	alertsCmd.AddCommand(alertsList, alertsAck)
	root.AddCommand(alertsCmd)

	// violations
	violationsCmd := &cobra.Command{Use: "violations", Short: "List recent safety violations", Example: "  terractl violations --hours 6", RunE: func(cmd *cobra.Command, args []string) error {
		hours, _ := cmd.Flags().GetInt("hours")
		violations, err := client().Violations(hours)
		if err != nil {
			return err
		}
		if cfg.JSON {
			return printJSON(violations)
		}
		if len(violations) == 0 {
			fmt.Printf("no violations in the last %dh\n", hours)
			return nil
		}
		for _, v := range violations {
			fmt.Printf("%s  %-28s %s=%.1f (limit %.1f)  %s\n", time.Unix(v.Timestamp, 0).Format(time.RFC3339), v.Kind, v.Parameter, v.Value, v.Limit, v.Message)
		}
		return nil
	}}
	violationsCmd.Flags().Int("hours", 24, "History window in hours")
	root.AddCommand(violationsCmd)

	// stop group
	stopCmd := &cobra.Command{Use: "stop", Short: "Inspect and clear the emergency stop latch", RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("stop requires a subcommand: show|clear")
	}}
	stopShow := &cobra.Command{Use: "show", Short: "Show the latch state", Example: "  terractl stop show", RunE: func(cmd *cobra.Command, args []string) error {
		view, err := client().EmergencyStop()
		if err != nil {
			return err
		}
		if cfg.JSON {
			return printJSON(view)
		}
		if !view.Armed {
			fmt.Println("emergency stop: not armed")
			return nil
		}
		fmt.Printf("emergency stop: ARMED since %s\n", time.Unix(view.Since, 0).Format(time.RFC3339))
		fmt.Printf("reason: %s\n", view.Reason)
		return nil
	}}
	stopClear := &cobra.Command{Use: "clear", Short: "Release the latch after operator inspection", Example: "  terractl stop clear", RunE: func(cmd *cobra.Command, args []string) error {
		if err := client().ClearEmergencyStop(); err != nil {
			return err
		}
		info("emergency stop cleared")
		return nil
	}}
	stopCmd.AddCommand(stopShow, stopClear)
	root.AddCommand(stopCmd)

	// completion command
	completionCmd := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	completionCmd.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(os.Stdout) }})
	completionCmd.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(os.Stdout) }})
	completionCmd.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenFishCompletion(os.Stdout, true) }})
	completionCmd.AddCommand(&cobra.Command{Use: "powershell", Short: "PowerShell completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenPowerShellCompletionWithDesc(os.Stdout) }})
	root.AddCommand(completionCmd)

	return root
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
