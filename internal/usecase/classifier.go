package usecase

import (
	"github.com/eliteGoblin/focusd/cluely_mon/internal/domain"
	"github.com/eliteGoblin/focusd/cluely_mon/internal/policy"
)

// Classify returns the windows attributed to sig, in snapshot order, with
// their techniques. Windows owned by selfPID are never attributed.
// Malformed records are skipped without aborting the scan.
func Classify(records []domain.WindowRecord, sig policy.Signature, selfPID int32) []domain.ClassifiedWindow {
	var out []domain.ClassifiedWindow

	for _, w := range records {
		if selfPID != 0 && w.OwnerPID == selfPID {
			continue
		}
		if !sig.Matches(w.OwnerName) {
			continue
		}
		out = append(out, domain.ClassifiedWindow{
			Window:     w,
			Techniques: techniquesOf(w),
		})
	}

	return out
}

func techniquesOf(w domain.WindowRecord) []domain.Technique {
	var t []domain.Technique
	if w.SharingState == 0 {
		t = append(t, domain.TechniqueScreenCaptureEvasion)
	}
	if w.Layer > 0 {
		t = append(t, domain.TechniqueElevatedLayer)
	}
	return t
}

// Aggregate folds attributed windows into one result.
// MaxLayerDetected covers every attributed window, not only elevated ones.
func Aggregate(windows []domain.ClassifiedWindow) domain.DetectionResult {
	result := domain.EmptyResult()

	for i, cw := range windows {
		if i == 0 || cw.Window.Layer > result.MaxLayerDetected {
			result.MaxLayerDetected = cw.Window.Layer
		}
		result.WindowCount++
		if cw.Has(domain.TechniqueScreenCaptureEvasion) {
			result.ScreenCaptureEvasionCount++
		}
		if cw.Has(domain.TechniqueElevatedLayer) {
			result.ElevatedLayerCount++
		}
	}

	result.IsDetected = result.WindowCount > 0
	return result
}
