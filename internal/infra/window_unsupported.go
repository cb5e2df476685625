//go:build !darwin || !cgo

package infra

import (
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/cluely_mon/internal/domain"
)

// NewWindowProvider fails on platforms without a window server query.
// Use NewSnapshotProvider to replay a recorded snapshot instead.
func NewWindowProvider(pm domain.ProcessManager, logger *zap.Logger) (domain.WindowProvider, error) {
	return nil, ErrUnsupportedPlatform
}
