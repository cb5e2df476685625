package daemon

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMonitorArgs verifies the detached monitor command line
func TestMonitorArgs(t *testing.T) {
	assert.Equal(t, []string{"monitor", "--interval", "30s"}, monitorArgs(30*time.Second, ""))
	assert.Equal(t,
		[]string{"monitor", "--interval", "1m0s", "--config", "/etc/nocluely.yaml"},
		monitorArgs(time.Minute, "/etc/nocluely.yaml"))
}

// TestSpawnMonitor_InvalidInterval verifies nothing is started for a bad interval
func TestSpawnMonitor_InvalidInterval(t *testing.T) {
	pid, err := SpawnMonitor("/bin/true", 0, "")

	assert.ErrorIs(t, err, ErrInvalidInterval)
	assert.Zero(t, pid)
}

// TestSpawnMonitor_MissingBinary verifies start errors are returned
func TestSpawnMonitor_MissingBinary(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nocluely")

	_, err := SpawnMonitor(missing, time.Second, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start monitor")
}
