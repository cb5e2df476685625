package infra

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessManager_CurrentProcess(t *testing.T) {
	pm := NewProcessManager()

	pid := pm.GetCurrentPID()
	assert.Equal(t, os.Getpid(), pid)
	assert.True(t, pm.IsRunning(pid))

	name, err := pm.NameOf(pid)
	require.NoError(t, err)
	assert.NotEmpty(t, name)
}

func TestProcessManager_InvalidPID(t *testing.T) {
	pm := NewProcessManager()

	for _, pid := range []int{0, -1} {
		assert.False(t, pm.IsRunning(pid))
		_, err := pm.NameOf(pid)
		assert.Error(t, err)
	}
}
