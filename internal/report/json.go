package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/eliteGoblin/focusd/cluely_mon/internal/domain"
)

// Document is the machine-readable form of a detection result.
type Document struct {
	Detected                  bool     `json:"detected"`
	WindowCount               uint32   `json:"window_count"`
	ScreenCaptureEvasionCount uint32   `json:"screen_capture_evasion_count"`
	ElevatedLayerCount        uint32   `json:"elevated_layer_count"`
	MaxLayerDetected          *int32   `json:"max_layer_detected"` // null when nothing detected
	Severity                  string   `json:"severity"`
	EvasionTechniques         []string `json:"evasion_techniques"`
	Timestamp                 string   `json:"timestamp,omitempty"`
}

// NewDocument converts a result; a zero ts omits the timestamp.
func NewDocument(r domain.DetectionResult, ts time.Time) Document {
	doc := Document{
		Detected:                  r.IsDetected,
		WindowCount:               r.WindowCount,
		ScreenCaptureEvasionCount: r.ScreenCaptureEvasionCount,
		ElevatedLayerCount:        r.ElevatedLayerCount,
		Severity:                  domain.SeverityOf(r).String(),
		EvasionTechniques:         TechniqueSummaries(r),
	}
	if r.HasMaxLayer() {
		layer := r.MaxLayerDetected
		doc.MaxLayerDetected = &layer
	}
	if !ts.IsZero() {
		doc.Timestamp = ts.UTC().Format(time.RFC3339)
	}
	return doc
}

// JSON renders a result as indented JSON.
func JSON(r domain.DetectionResult, ts time.Time) ([]byte, error) {
	data, err := json.MarshalIndent(NewDocument(r, ts), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode detection result: %w", err)
	}
	return data, nil
}

// Stats renders a result as an aligned key/value table.
func Stats(r domain.DetectionResult) string {
	var b strings.Builder

	b.WriteString("Detection Statistics\n")
	b.WriteString("====================\n\n")

	status := "NOT DETECTED"
	if r.IsDetected {
		status = "DETECTED"
	}
	fmt.Fprintf(&b, "%-30s %s\n", "Detection Status:", status)

	if !r.IsDetected {
		return b.String()
	}

	fmt.Fprintf(&b, "%-30s %d\n", "Total Windows:", r.WindowCount)
	fmt.Fprintf(&b, "%-30s %d\n", "Screen Capture Evasion:", r.ScreenCaptureEvasionCount)
	fmt.Fprintf(&b, "%-30s %d\n", "Elevated Layer Usage:", r.ElevatedLayerCount)
	if r.HasMaxLayer() {
		fmt.Fprintf(&b, "%-30s %d\n", "Max Layer Detected:", r.MaxLayerDetected)
	}
	fmt.Fprintf(&b, "%-30s %s\n", "Severity Level:", domain.SeverityOf(r))

	if techniques := TechniqueSummaries(r); len(techniques) > 0 {
		b.WriteString("\nEvasion Techniques:\n")
		for _, t := range techniques {
			fmt.Fprintf(&b, "  - %s\n", t)
		}
	}

	return b.String()
}
