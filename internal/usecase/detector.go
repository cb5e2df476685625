// Package usecase contains application business logic.
package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/cluely_mon/internal/domain"
	"github.com/eliteGoblin/focusd/cluely_mon/internal/policy"
)

// DetectorImpl implements domain.Detector.
type DetectorImpl struct {
	provider       domain.WindowProvider
	processManager domain.ProcessManager
	signature      policy.Signature
	logger         *zap.Logger
}

// NewDetector creates a detector for the given signature.
func NewDetector(
	provider domain.WindowProvider,
	sig policy.Signature,
	logger *zap.Logger,
) domain.Detector {
	return &DetectorImpl{
		provider:       provider,
		processManager: nil, // Set via NewDetectorWithProcessManager
		signature:      sig,
		logger:         logger,
	}
}

// NewDetectorWithProcessManager creates a detector that also excludes
// windows owned by the current process.
func NewDetectorWithProcessManager(
	provider domain.WindowProvider,
	pm domain.ProcessManager,
	sig policy.Signature,
	logger *zap.Logger,
) domain.Detector {
	return &DetectorImpl{
		provider:       provider,
		processManager: pm,
		signature:      sig,
		logger:         logger,
	}
}

// Analyze runs one Provider -> Classifier -> Aggregator pass.
// A provider failure is logged and treated as an empty snapshot.
func (d *DetectorImpl) Analyze(ctx context.Context) domain.Analysis {
	start := time.Now()

	records, err := d.provider.Windows(ctx)
	if err != nil {
		d.logger.Warn("window snapshot unavailable, treating as not detected",
			zap.Error(err))
		records = nil
	}

	var selfPID int32
	if d.processManager != nil {
		selfPID = int32(d.processManager.GetCurrentPID())
	}

	for _, w := range records {
		if !policy.Valid(w.OwnerName) {
			d.logger.Debug("skipping window with malformed owner",
				zap.Int32("window_id", w.WindowID),
				zap.Int32("owner_pid", w.OwnerPID))
		}
	}

	windows := Classify(records, d.signature, selfPID)
	result := Aggregate(windows)

	d.logger.Debug("detection completed",
		zap.Int("windows_scanned", len(records)),
		zap.Bool("detected", result.IsDetected),
		zap.Uint32("window_count", result.WindowCount),
		zap.Uint32("screen_capture_evasion", result.ScreenCaptureEvasionCount),
		zap.Uint32("elevated_layer", result.ElevatedLayerCount),
		zap.Duration("took", time.Since(start)))

	return domain.Analysis{Result: result, Windows: windows}
}

// Detect returns the aggregated result for the current snapshot.
func (d *DetectorImpl) Detect(ctx context.Context) domain.DetectionResult {
	return d.Analyze(ctx).Result
}

// IsRunning reports whether the monitored software owns at least one window.
func (d *DetectorImpl) IsRunning(ctx context.Context) bool {
	return d.Detect(ctx).IsDetected
}

// WindowCount returns the number of attributed windows.
func (d *DetectorImpl) WindowCount(ctx context.Context) uint32 {
	return d.Detect(ctx).WindowCount
}

// Ensure DetectorImpl implements domain.Detector.
var _ domain.Detector = (*DetectorImpl)(nil)
