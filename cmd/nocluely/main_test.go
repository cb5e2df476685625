package main

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliteGoblin/focusd/cluely_mon/internal/domain"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
}

func fixedClock() time.Time {
	return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
}

var detected = domain.DetectionResult{
	IsDetected:                true,
	WindowCount:               1,
	ScreenCaptureEvasionCount: 1,
	MaxLayerDetected:          domain.NoLayer,
}

// TestMonitorCallbacks_Text verifies transition lines and the periodic status line
func TestMonitorCallbacks_Text(t *testing.T) {
	var out bytes.Buffer
	cb := monitorCallbacks(&out, 2, false, fixedClock)

	cb.OnChange(domain.EmptyResult())
	assert.Empty(t, out.String(), "no status before statusEvery ticks")

	cb.OnDetected(detected)
	cb.OnChange(detected)
	cb.OnRemoved()

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "[09:30:00] ALERT: DETECTED: 1 window(s)"))
	assert.True(t, strings.HasPrefix(lines[1], "[09:30:00] Status: DETECTED"))
	assert.Equal(t, "[09:30:00] Monitoring software no longer detected", lines[2])
}

// TestMonitorCallbacks_JSON verifies one compact document per tick
func TestMonitorCallbacks_JSON(t *testing.T) {
	var out bytes.Buffer
	cb := monitorCallbacks(&out, 6, true, fixedClock)

	assert.Nil(t, cb.OnDetected)
	assert.Nil(t, cb.OnRemoved)

	cb.OnChange(domain.EmptyResult())
	cb.OnChange(detected)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &doc))
	assert.Equal(t, true, doc["detected"])
	assert.Equal(t, float64(1), doc["screen_capture_evasion_count"])
	assert.Nil(t, doc["max_layer_detected"])
	assert.Equal(t, "2026-03-01T09:30:00Z", doc["timestamp"])
}

// TestRunVersion_JSON verifies the machine-readable version output
func TestRunVersion_JSON(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	jsonOutput = true
	t.Cleanup(func() {
		jsonOutput = false
		versionCmd.SetOut(nil)
	})

	runVersion(versionCmd, nil)

	var info versionInfo
	require.NoError(t, json.Unmarshal(out.Bytes(), &info))
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, Commit, info.Commit)
}

// TestCheck_Snapshot runs the check command against a replayed snapshot
func TestCheck_Snapshot(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NOCLUELY_DATA_DIR", dir)
	t.Setenv("NOCLUELY_LOG_PATH", dir+"/nocluely.log")

	snap := dir + "/windows.yaml"
	writeFile(t, snap, `
windows:
  - owner: Cluely
    id: 7
    sharing_state: 0
    layer: 3
  - owner: Finder
    id: 8
    layer: 0
`)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"check", "--snapshot", snap})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		snapshotPath = ""
	})

	err := rootCmd.Execute()

	assert.ErrorIs(t, err, errDetected)
	assert.Contains(t, out.String(), "DETECTED: 1 window(s), severity High")
}
