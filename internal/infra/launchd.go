package infra

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"
	"time"

	"github.com/eliteGoblin/focusd/cluely_mon/internal/domain"
)

// LaunchAgent plist template. Runs the monitor at login in the user's GUI session.
const launchAgentTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>{{.Label}}</string>

    <key>ProgramArguments</key>
    <array>
        <string>{{.ExecutablePath}}</string>
        <string>monitor</string>
        <string>--interval</string>
        <string>{{.Interval}}</string>
    </array>

    <key>RunAtLoad</key>
    <true/>

    <key>KeepAlive</key>
    <dict>
        <key>Crashed</key>
        <true/>
    </dict>

    <key>StandardOutPath</key>
    <string>{{.LogPath}}</string>

    <key>StandardErrorPath</key>
    <string>{{.ErrorLogPath}}</string>

    <key>ProcessType</key>
    <string>Interactive</string>

    <key>ThrottleInterval</key>
    <integer>10</integer>
</dict>
</plist>`

type plistConfig struct {
	Label          string
	ExecutablePath string
	Interval       string
	LogPath        string
	ErrorLogPath   string
}

// LaunchdManagerImpl implements domain.LaunchAgentManager.
type LaunchdManagerImpl struct {
	plistDir  string
	plistPath string
	logDir    string
	interval  time.Duration
	launchctl func(args ...string) error
}

// NewLaunchAgentManager creates a LaunchAgent manager for the resolved paths.
// The installed agent runs "monitor --interval <interval>".
func NewLaunchAgentManager(config *ExecModeConfig, interval time.Duration) domain.LaunchAgentManager {
	return &LaunchdManagerImpl{
		plistDir:  config.PlistDir,
		plistPath: config.PlistPath,
		logDir:    filepath.Dir(config.LogPath),
		interval:  interval,
		launchctl: runLaunchctl,
	}
}

func runLaunchctl(args ...string) error {
	return exec.Command("launchctl", args...).Run()
}

// generatePlistContent creates plist content for the given exec path.
func (m *LaunchdManagerImpl) generatePlistContent(execPath string) ([]byte, error) {
	config := plistConfig{
		Label:          LaunchdLabel,
		ExecutablePath: execPath,
		Interval:       m.interval.String(),
		LogPath:        filepath.Join(m.logDir, "monitor.out.log"),
		ErrorLogPath:   filepath.Join(m.logDir, "monitor.err.log"),
	}

	tmpl, err := template.New("plist").Parse(launchAgentTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse plist template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, config); err != nil {
		return nil, fmt.Errorf("failed to execute plist template: %w", err)
	}

	return buf.Bytes(), nil
}

// Install writes and loads the LaunchAgent plist.
func (m *LaunchdManagerImpl) Install(execPath string) error {
	if err := m.writePlist(execPath); err != nil {
		return err
	}
	return m.load()
}

// Uninstall unloads and removes the plist.
func (m *LaunchdManagerImpl) Uninstall() error {
	// Not loaded is fine.
	_ = m.unload()

	if err := os.Remove(m.plistPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove plist: %w", err)
	}
	return nil
}

// IsInstalled checks if plist is installed.
func (m *LaunchdManagerImpl) IsInstalled() bool {
	_, err := os.Stat(m.plistPath)
	return err == nil
}

// NeedsUpdate checks if plist exists but has different content than expected.
func (m *LaunchdManagerImpl) NeedsUpdate(execPath string) bool {
	if !m.IsInstalled() {
		return false
	}

	current, err := os.ReadFile(m.plistPath)
	if err != nil {
		return true
	}

	expected, err := m.generatePlistContent(execPath)
	if err != nil {
		return true
	}

	return !bytes.Equal(current, expected)
}

// Update unloads, rewrites the plist, and reloads.
func (m *LaunchdManagerImpl) Update(execPath string) error {
	_ = m.unload()

	if err := m.writePlist(execPath); err != nil {
		return err
	}
	return m.load()
}

// GetPlistPath returns the plist file path.
func (m *LaunchdManagerImpl) GetPlistPath() string {
	return m.plistPath
}

func (m *LaunchdManagerImpl) writePlist(execPath string) error {
	if err := os.MkdirAll(m.plistDir, 0755); err != nil {
		return fmt.Errorf("failed to create LaunchAgents directory: %w", err)
	}
	if err := os.MkdirAll(m.logDir, 0700); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	content, err := m.generatePlistContent(execPath)
	if err != nil {
		return fmt.Errorf("failed to generate plist content: %w", err)
	}

	if err := os.WriteFile(m.plistPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write plist: %w", err)
	}
	return nil
}

// load loads the plist using launchctl.
func (m *LaunchdManagerImpl) load() error {
	if err := m.launchctl("load", m.plistPath); err != nil {
		return fmt.Errorf("launchctl load failed: %w", err)
	}
	return nil
}

// unload unloads the plist using launchctl.
func (m *LaunchdManagerImpl) unload() error {
	return m.launchctl("unload", m.plistPath)
}

// Ensure LaunchdManagerImpl implements domain.LaunchAgentManager.
var _ domain.LaunchAgentManager = (*LaunchdManagerImpl)(nil)
