package infra

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDetectExecMode_ReturnsCorrectPaths(t *testing.T) {
	config := DetectExecMode()
	home := GetRealUserHome()

	if os.Geteuid() == 0 {
		if config.Mode != ExecModeSudo {
			t.Errorf("expected sudo mode when euid=0, got %s", config.Mode)
		}
	} else if config.Mode != ExecModeUser {
		t.Errorf("expected user mode when euid!=0, got %s", config.Mode)
	}

	expectedPlistDir := filepath.Join(home, "Library", "LaunchAgents")
	if config.PlistDir != expectedPlistDir {
		t.Errorf("expected %s, got %s", expectedPlistDir, config.PlistDir)
	}

	expectedDataDir := filepath.Join(home, ".nocluely")
	if config.DataDir != expectedDataDir {
		t.Errorf("expected %s, got %s", expectedDataDir, config.DataDir)
	}
}

func TestExecModeConfig_PathsAreConsistent(t *testing.T) {
	config := execModeForHome("/Users/alice", false)

	if filepath.Dir(config.PlistPath) != config.PlistDir {
		t.Errorf("PlistPath (%s) should be inside PlistDir (%s)", config.PlistPath, config.PlistDir)
	}
	if filepath.Base(config.PlistPath) != LaunchdLabel+".plist" {
		t.Errorf("plist should be named after the label, got %s", config.PlistPath)
	}
	if filepath.Dir(config.LogPath) != config.DataDir {
		t.Errorf("LogPath (%s) should be inside DataDir (%s)", config.LogPath, config.DataDir)
	}
	if config.IsRoot {
		t.Error("IsRoot should be false")
	}
}

func TestExecModeForHome_Sudo(t *testing.T) {
	config := execModeForHome("/Users/alice", true)

	if config.Mode != ExecModeSudo {
		t.Errorf("expected sudo mode, got %s", config.Mode)
	}
	if config.DataDir != "/Users/alice/.nocluely" {
		t.Errorf("sudo mode must keep the invoking user's data dir, got %s", config.DataDir)
	}
}

func TestExecMode_String(t *testing.T) {
	tests := []struct {
		mode ExecMode
		want string
	}{
		{ExecModeUser, "user (LaunchAgent)"},
		{ExecModeSudo, "sudo (LaunchAgent for invoking user)"},
		{ExecMode("other"), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("ExecMode(%q).String() = %q, want %q", string(tt.mode), got, tt.want)
		}
	}
}
