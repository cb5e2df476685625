// Package main is the CLI entry point for nocluely.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/cluely_mon/internal/daemon"
	"github.com/eliteGoblin/focusd/cluely_mon/internal/domain"
	"github.com/eliteGoblin/focusd/cluely_mon/internal/infra"
	"github.com/eliteGoblin/focusd/cluely_mon/internal/report"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

const (
	exitDetected = 1
	exitError    = 2
)

// errDetected makes check exit with exitDetected without printing an error.
var errDetected = errors.New("monitoring software detected")

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errDetected) {
			os.Exit(exitDetected)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "nocluely",
	Short: "Detect covert screen-monitoring overlays",
	Long: `nocluely inspects window-server metadata to find Cluely windows and
reports which anti-detection techniques they use: hiding from screen
capture and drawing on an elevated overlay layer.

Running nocluely without a command is the same as "nocluely check".`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runCheck,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check once (exit status 1 when detected)",
	RunE:  runCheck,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print a detailed detection report",
	RunE:  runReport,
}

var jsonCmd = &cobra.Command{
	Use:   "json",
	Short: "Print the detection result as JSON",
	RunE:  runJSON,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print detection statistics",
	RunE:  runStats,
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch for changes until interrupted",
	Long: `Re-runs detection on an interval and prints a line whenever monitoring
software appears or disappears, plus a periodic status line.
Press Ctrl+C to stop.`,
	RunE: runMonitor,
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Dump the current window list as YAML",
	Long: `Writes every window the window server reports in the format read by
--snapshot, so a session can be recorded and replayed later.`,
	RunE: runSnapshot,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last stored result and the background monitor",
	RunE:  runStatus,
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Run the monitor at login (LaunchAgent)",
	RunE:  runInstall,
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the login LaunchAgent",
	RunE:  runUninstall,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Prints version, commit, and build time. Use --json for machine-readable output.`,
	Run:   runVersion,
}

var (
	configPath      string
	snapshotPath    string
	verbose         bool
	reportDetails   bool
	monitorInterval time.Duration
	monitorJSON     bool
	monitorDetach   bool
	jsonOutput      bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.nocluely/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&snapshotPath, "snapshot", "", "Replay a YAML window snapshot instead of querying the OS")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log to stderr at debug level")

	reportCmd.Flags().BoolVar(&reportDetails, "details", false, "Include per-window details")
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", 0, "Check interval (default from config, 10s)")
	monitorCmd.Flags().BoolVar(&monitorJSON, "json", false, "Print one JSON document per check")
	monitorCmd.Flags().BoolVar(&monitorDetach, "detach", false, "Run the monitor in the background and exit")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(jsonCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(versionCmd)
}

// withApp builds the shared wiring for one command invocation.
func withApp(fn func(a *app) error) error {
	a, err := newApp(configPath, snapshotPath, verbose)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}

// detectOnce runs a single analysis and records the result.
func detectOnce(ctx context.Context, a *app) (domain.Analysis, error) {
	detector, err := a.detector()
	if err != nil {
		return domain.Analysis{}, err
	}
	analysis := detector.Analyze(ctx)
	a.record(analysis.Result)
	return analysis, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		analysis, err := detectOnce(cmd.Context(), a)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), report.StatusLine(analysis.Result))
		if analysis.Result.IsDetected {
			return errDetected
		}
		return nil
	})
}

func runReport(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		analysis, err := detectOnce(cmd.Context(), a)
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), report.Text(analysis, report.Options{
			Timestamp: time.Now(),
			Details:   reportDetails,
		}))
		return nil
	})
}

func runJSON(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		analysis, err := detectOnce(cmd.Context(), a)
		if err != nil {
			return err
		}

		data, err := report.JSON(analysis.Result, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	})
}

func runStats(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		analysis, err := detectOnce(cmd.Context(), a)
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), report.Stats(analysis.Result))
		return nil
	})
}

func runMonitor(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		interval := a.cfg.Monitor.Interval
		if monitorInterval != 0 {
			interval = monitorInterval
		}

		if monitorDetach {
			return detachMonitor(cmd.OutOrStdout(), interval)
		}

		detector, err := a.detector()
		if err != nil {
			return err
		}

		var store domain.ResultStore
		if s, err := a.openStore(); err != nil {
			a.logger.Warn("monitoring without state store", zap.Error(err))
		} else {
			defer s.Close()
			store = s
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		if !monitorJSON {
			fmt.Fprintf(out, "Monitoring every %s (Ctrl+C to stop)\n", interval)
		}

		m := daemon.NewMonitor(detector, store, a.logger)
		reg := domain.MonitorRegistration{
			PID:        a.pm.GetCurrentPID(),
			Interval:   interval,
			StartedAt:  time.Now(),
			AppVersion: Version,
		}

		err = m.Run(ctx, reg, monitorCallbacks(out, a.cfg.Monitor.StatusEvery, monitorJSON, time.Now))
		if errors.Is(err, context.Canceled) {
			if !monitorJSON {
				fmt.Fprintln(out, "Monitoring stopped")
			}
			return nil
		}
		return err
	})
}

func detachMonitor(out io.Writer, interval time.Duration) error {
	execPath, err := executablePath()
	if err != nil {
		return err
	}
	pid, err := daemon.SpawnMonitor(execPath, interval, configPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Monitor started in background (pid %d). Use \"nocluely status\" to check it.\n", pid)
	return nil
}

// monitorCallbacks prints transitions, and a status line every statusEvery
// ticks. In JSON mode every tick prints one compact document instead.
func monitorCallbacks(out io.Writer, statusEvery int, asJSON bool, now func() time.Time) daemon.Callbacks {
	if asJSON {
		enc := json.NewEncoder(out)
		return daemon.Callbacks{
			OnChange: func(r domain.DetectionResult) {
				_ = enc.Encode(report.NewDocument(r, now()))
			},
		}
	}

	ticks := 0
	stamp := func() string { return now().Format("15:04:05") }
	return daemon.Callbacks{
		OnDetected: func(r domain.DetectionResult) {
			fmt.Fprintf(out, "[%s] ALERT: %s\n", stamp(), report.StatusLine(r))
		},
		OnRemoved: func() {
			fmt.Fprintf(out, "[%s] Monitoring software no longer detected\n", stamp())
		},
		OnChange: func(r domain.DetectionResult) {
			ticks++
			if ticks%statusEvery == 0 {
				fmt.Fprintf(out, "[%s] Status: %s\n", stamp(), report.StatusLine(r))
			}
		},
	}
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		provider, err := a.windowProvider()
		if err != nil {
			return err
		}
		records, err := provider.Windows(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list windows: %w", err)
		}
		return infra.EncodeSnapshot(cmd.OutOrStdout(), records)
	})
}

func runStatus(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "\n=== nocluely Status ===")

		store, err := a.openStore()
		if err != nil {
			fmt.Fprintf(out, "State store unavailable: %v\n", err)
		} else {
			defer store.Close()
			printStoredState(out, store)
		}

		launchAgent := infra.NewLaunchAgentManager(a.execMode, a.cfg.Monitor.Interval)
		if launchAgent.IsInstalled() {
			fmt.Fprintf(out, "Auto-start: enabled (%s)\n", launchAgent.GetPlistPath())
		} else {
			fmt.Fprintln(out, "Auto-start: disabled")
		}
		fmt.Fprintf(out, "Data dir: %s\n", a.cfg.DataDir)
		fmt.Fprintln(out, "=======================")
		return nil
	})
}

func printStoredState(out io.Writer, store *infra.EncryptedStateStore) {
	last, err := store.LastResult()
	switch {
	case err != nil:
		fmt.Fprintf(out, "Last result: unreadable (%v)\n", err)
	case last == nil:
		fmt.Fprintln(out, "Last result: none recorded")
	default:
		fmt.Fprintf(out, "Last result: %s\n", report.StatusLine(last.Result))
		fmt.Fprintf(out, "Checked: %s ago\n", time.Since(last.ObservedAt).Round(time.Second))
	}

	reg, err := store.GetMonitor()
	if err != nil || reg == nil {
		fmt.Fprintln(out, "Monitor: NOT RUNNING")
		return
	}
	alive, _ := store.IsMonitorAlive()
	if !alive {
		fmt.Fprintf(out, "Monitor: NOT RUNNING (stale registration, pid %d)\n", reg.PID)
		return
	}
	fmt.Fprintf(out, "Monitor: RUNNING (pid %d, every %s, up %s)\n",
		reg.PID, reg.Interval, time.Since(reg.StartedAt).Round(time.Second))
}

func runInstall(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		execPath, err := executablePath()
		if err != nil {
			return err
		}

		launchAgent := infra.NewLaunchAgentManager(a.execMode, a.cfg.Monitor.Interval)
		switch {
		case !launchAgent.IsInstalled():
			if err := launchAgent.Install(execPath); err != nil {
				return fmt.Errorf("failed to install LaunchAgent: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Installed LaunchAgent %s\n", launchAgent.GetPlistPath())
		case launchAgent.NeedsUpdate(execPath):
			if err := launchAgent.Update(execPath); err != nil {
				return fmt.Errorf("failed to update LaunchAgent: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated LaunchAgent %s\n", launchAgent.GetPlistPath())
		default:
			fmt.Fprintln(cmd.OutOrStdout(), "LaunchAgent already installed")
		}

		a.logger.Info("launch agent installed",
			zap.String("plist", launchAgent.GetPlistPath()),
			zap.String("exec", execPath),
			zap.Duration("interval", a.cfg.Monitor.Interval))
		return nil
	})
}

func runUninstall(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		launchAgent := infra.NewLaunchAgentManager(a.execMode, a.cfg.Monitor.Interval)
		if !launchAgent.IsInstalled() {
			fmt.Fprintln(cmd.OutOrStdout(), "LaunchAgent not installed")
			return nil
		}
		if err := launchAgent.Uninstall(); err != nil {
			return fmt.Errorf("failed to uninstall LaunchAgent: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "LaunchAgent removed")
		return nil
	})
}

func executablePath() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(execPath)
	if err != nil {
		return execPath, nil
	}
	return resolved, nil
}

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		data, _ := json.Marshal(versionInfo{Version: Version, Commit: Commit, BuildTime: BuildTime})
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "nocluely %s (commit: %s, built: %s)\n", Version, Commit, BuildTime)
}
