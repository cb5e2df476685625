package infra

import (
	"os"
	"os/user"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// ExecMode represents the execution mode of the application.
type ExecMode string

const (
	// ExecModeUser runs as the logged-in user
	ExecModeUser ExecMode = "user"
	// ExecModeSudo runs as root on behalf of a user (SUDO_USER)
	ExecModeSudo ExecMode = "sudo"
)

const (
	// LaunchdLabel is the LaunchAgent label for the background monitor.
	LaunchdLabel = "com.nocluely.monitor"

	appDirName  = ".nocluely"
	logFileName = "nocluely.log"
)

// ExecModeConfig holds paths resolved for the user whose session is monitored.
// Window metadata is per login session, so everything lives under the user's home.
type ExecModeConfig struct {
	Mode      ExecMode
	PlistDir  string // ~/Library/LaunchAgents
	PlistPath string // Full path to plist file
	DataDir   string // Encrypted state store and key
	LogPath   string // Default log file
	IsRoot    bool   // Whether running as root
}

// DetectExecMode determines the execution mode based on effective UID.
func DetectExecMode() *ExecModeConfig {
	return execModeForHome(GetRealUserHome(), unix.Geteuid() == 0)
}

func execModeForHome(home string, isRoot bool) *ExecModeConfig {
	mode := ExecModeUser
	if isRoot {
		mode = ExecModeSudo
	}
	dataDir := filepath.Join(home, appDirName)
	plistDir := filepath.Join(home, "Library", "LaunchAgents")
	return &ExecModeConfig{
		Mode:      mode,
		PlistDir:  plistDir,
		PlistPath: filepath.Join(plistDir, LaunchdLabel+".plist"),
		DataDir:   dataDir,
		LogPath:   filepath.Join(dataDir, logFileName),
		IsRoot:    isRoot,
	}
}

// String returns a human-readable description of the mode.
func (m ExecMode) String() string {
	switch m {
	case ExecModeUser:
		return "user (LaunchAgent)"
	case ExecModeSudo:
		return "sudo (LaunchAgent for invoking user)"
	default:
		return "unknown"
	}
}

// GetRealUserHome returns the real user's home directory, even when running under sudo.
func GetRealUserHome() string {
	if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" {
		if u, err := user.Lookup(sudoUser); err == nil {
			return u.HomeDir
		}
	}
	home, _ := os.UserHomeDir()
	return home
}
