package daemon

import (
	"fmt"
	"os/exec"
	"syscall"
	"time"
)

// monitorArgs is the command line a detached monitor is started with.
func monitorArgs(interval time.Duration, configPath string) []string {
	args := []string{"monitor", "--interval", interval.String()}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	return args
}

// SpawnMonitor starts executable as a background monitor detached from the
// terminal and returns its PID. The child logs to its configured file.
func SpawnMonitor(executable string, interval time.Duration, configPath string) (int, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("%w: got %s", ErrInvalidInterval, interval)
	}

	cmd := exec.Command(executable, monitorArgs(interval, configPath)...)

	// Detach from parent process
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true, // Create new session (detach from terminal)
	}

	// No stdin/stdout/stderr - fully detached
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start monitor: %w", err)
	}
	pid := cmd.Process.Pid

	// Reap the child if it exits while we are still alive.
	go func() { _ = cmd.Wait() }()

	return pid, nil
}
