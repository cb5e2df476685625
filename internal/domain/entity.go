// Package domain contains core detection entities and interfaces.
// This is the innermost layer - no external dependencies.
package domain

import (
	"encoding/binary"
	"errors"
	"math"
	"time"
)

// NoLayer is the MaxLayerDetected value of a result with no attributed windows.
// It is distinct from layer 0, which is the normal application layer.
const NoLayer int32 = math.MinInt32

// ResultWireSize is the size of the fixed C layout of DetectionResult:
// bool (+3 padding), uint32, uint32, uint32, int32.
const ResultWireSize = 20

// ErrShortResult is returned when decoding a truncated wire record.
var ErrShortResult = errors.New("detection result: short buffer")

// WindowRecord is one compositor-reported window.
// Records are snapshot values and are never mutated after creation.
type WindowRecord struct {
	OwnerName    string `json:"owner_name" yaml:"owner"`
	OwnerPID     int32  `json:"owner_pid,omitempty" yaml:"pid,omitempty"`
	WindowID     int32  `json:"window_id" yaml:"id"`
	WindowName   string `json:"window_name,omitempty" yaml:"name,omitempty"`
	SharingState int32  `json:"sharing_state" yaml:"sharing_state"` // 0 = excluded from capture
	Layer        int32  `json:"layer" yaml:"layer"`                 // 0 = normal, >0 = overlay
}

// Technique is an anti-detection technique exhibited by a window.
type Technique int

const (
	TechniqueScreenCaptureEvasion Technique = iota
	TechniqueElevatedLayer
)

// String returns the display name of the technique.
func (t Technique) String() string {
	switch t {
	case TechniqueScreenCaptureEvasion:
		return "Screen capture evasion"
	case TechniqueElevatedLayer:
		return "Elevated layer positioning"
	default:
		return "Unknown technique"
	}
}

// ClassifiedWindow is a window attributed to the monitored software,
// together with the techniques it exhibits (possibly none).
type ClassifiedWindow struct {
	Window     WindowRecord
	Techniques []Technique
}

// Has reports whether the window exhibits technique t.
func (c ClassifiedWindow) Has(t Technique) bool {
	for _, got := range c.Techniques {
		if got == t {
			return true
		}
	}
	return false
}

// DetectionResult summarizes one snapshot.
// Field order and widths mirror the record consumed by external bindings.
type DetectionResult struct {
	IsDetected                bool
	WindowCount               uint32
	ScreenCaptureEvasionCount uint32
	ElevatedLayerCount        uint32
	MaxLayerDetected          int32
}

// EmptyResult is the result of a snapshot with no attributed windows.
func EmptyResult() DetectionResult {
	return DetectionResult{MaxLayerDetected: NoLayer}
}

// HasMaxLayer reports whether MaxLayerDetected carries a real layer value.
func (r DetectionResult) HasMaxLayer() bool {
	return r.MaxLayerDetected != NoLayer
}

// Techniques returns the technique categories present, screen capture first.
func (r DetectionResult) Techniques() []Technique {
	var out []Technique
	if r.ScreenCaptureEvasionCount > 0 {
		out = append(out, TechniqueScreenCaptureEvasion)
	}
	if r.ElevatedLayerCount > 0 {
		out = append(out, TechniqueElevatedLayer)
	}
	return out
}

// MarshalBinary encodes the result in its fixed 20-byte little-endian C layout.
func (r DetectionResult) MarshalBinary() ([]byte, error) {
	buf := make([]byte, ResultWireSize)
	if r.IsDetected {
		buf[0] = 1
	}
	binary.LittleEndian.PutUint32(buf[4:], r.WindowCount)
	binary.LittleEndian.PutUint32(buf[8:], r.ScreenCaptureEvasionCount)
	binary.LittleEndian.PutUint32(buf[12:], r.ElevatedLayerCount)
	binary.LittleEndian.PutUint32(buf[16:], uint32(r.MaxLayerDetected))
	return buf, nil
}

// UnmarshalBinary decodes the fixed C layout produced by MarshalBinary.
func (r *DetectionResult) UnmarshalBinary(data []byte) error {
	if len(data) < ResultWireSize {
		return ErrShortResult
	}
	r.IsDetected = data[0] != 0
	r.WindowCount = binary.LittleEndian.Uint32(data[4:])
	r.ScreenCaptureEvasionCount = binary.LittleEndian.Uint32(data[8:])
	r.ElevatedLayerCount = binary.LittleEndian.Uint32(data[12:])
	r.MaxLayerDetected = int32(binary.LittleEndian.Uint32(data[16:]))
	return nil
}

// Analysis is a detection result plus the per-window detail behind it.
type Analysis struct {
	Result  DetectionResult
	Windows []ClassifiedWindow
}

// StoredResult is the most recent result persisted by the monitor.
type StoredResult struct {
	Result     DetectionResult
	Severity   Severity
	ObservedAt time.Time
}

// MonitorRegistration records the running monitor process for the status command.
type MonitorRegistration struct {
	PID        int
	Interval   time.Duration
	StartedAt  time.Time
	AppVersion string
}
