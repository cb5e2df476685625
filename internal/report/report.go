// Package report renders detection results for humans and machines.
// Renderers are deterministic; any timestamp is supplied by the caller.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/eliteGoblin/focusd/cluely_mon/internal/domain"
)

// DefaultProduct is the display name used when Options.Product is empty.
const DefaultProduct = "Cluely"

// Options controls text rendering.
type Options struct {
	Product   string    // Display name of the monitored software
	Timestamp time.Time // Printed as "Checked at" when non-zero
	Details   bool      // Include the per-window detail block
}

func (o Options) product() string {
	if o.Product == "" {
		return DefaultProduct
	}
	return o.Product
}

// Generate runs one detection pass and renders it as text.
func Generate(ctx context.Context, d domain.Detector, opts Options) string {
	return Text(d.Analyze(ctx), opts)
}

// Text renders an analysis as a fixed-structure report.
func Text(a domain.Analysis, opts Options) string {
	var b strings.Builder
	r := a.Result
	product := opts.product()

	if !r.IsDetected {
		writeHeader(&b, fmt.Sprintf("NO %s MONITORING DETECTED", strings.ToUpper(product)), opts.Timestamp)
		fmt.Fprintf(&b, "No %s monitoring software found.\n", product)
		b.WriteString("Your system appears to be free from this monitoring tool.\n")
		return b.String()
	}

	writeHeader(&b, fmt.Sprintf("%s MONITORING DETECTED", strings.ToUpper(product)), opts.Timestamp)

	b.WriteString("Summary:\n")
	fmt.Fprintf(&b, "  - Total %s windows: %d\n", product, r.WindowCount)
	fmt.Fprintf(&b, "  - Screen capture evasion: %d\n", r.ScreenCaptureEvasionCount)
	fmt.Fprintf(&b, "  - Elevated layer usage: %d\n", r.ElevatedLayerCount)
	if r.HasMaxLayer() {
		fmt.Fprintf(&b, "  - Highest layer detected: %d\n", r.MaxLayerDetected)
	}
	fmt.Fprintf(&b, "  - Severity: %s\n", domain.SeverityOf(r))
	b.WriteString("\n")

	b.WriteString("Evasion techniques detected:\n")
	if r.ScreenCaptureEvasionCount > 0 {
		fmt.Fprintf(&b, "  - %d window(s) configured to avoid screen capture\n", r.ScreenCaptureEvasionCount)
	}
	if r.ElevatedLayerCount > 0 {
		fmt.Fprintf(&b, "  - %d window(s) using elevated display layers\n", r.ElevatedLayerCount)
	}
	if len(r.Techniques()) == 0 {
		b.WriteString("  - none\n")
	}
	b.WriteString("\n")

	if opts.Details && len(a.Windows) > 0 {
		b.WriteString("Window details:\n")
		for i, cw := range a.Windows {
			writeWindow(&b, i+1, cw)
		}
	}

	b.WriteString("WARNING:\n")
	b.WriteString("  This software is designed to monitor your activity\n")
	b.WriteString("  while remaining hidden during screen sharing sessions.\n")
	b.WriteString("  Your activities may be recorded even when sharing your screen.\n")

	return b.String()
}

func writeHeader(b *strings.Builder, title string, ts time.Time) {
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", len(title)))
	b.WriteString("\n")
	if !ts.IsZero() {
		fmt.Fprintf(b, "Checked at: %s\n", ts.UTC().Format(time.RFC3339))
	}
	b.WriteString("\n")
}

func writeWindow(b *strings.Builder, n int, cw domain.ClassifiedWindow) {
	w := cw.Window
	fmt.Fprintf(b, "  %d. Window ID: %d [%s]\n", n, w.WindowID, w.OwnerName)

	sharing := "(normal)"
	if cw.Has(domain.TechniqueScreenCaptureEvasion) {
		sharing = "(avoiding screen capture)"
	}
	fmt.Fprintf(b, "     - Sharing state: %d %s\n", w.SharingState, sharing)

	layer := "(normal)"
	if cw.Has(domain.TechniqueElevatedLayer) {
		layer = "(elevated - potential overlay)"
	}
	fmt.Fprintf(b, "     - Layer: %d %s\n", w.Layer, layer)

	if len(cw.Techniques) > 0 {
		names := make([]string, len(cw.Techniques))
		for i, t := range cw.Techniques {
			names[i] = t.String()
		}
		fmt.Fprintf(b, "     - Techniques: %s\n", strings.Join(names, ", "))
	}
	b.WriteString("\n")
}

// TechniqueSummaries lists present technique categories with their window counts.
func TechniqueSummaries(r domain.DetectionResult) []string {
	out := make([]string, 0, 2)
	for _, t := range r.Techniques() {
		switch t {
		case domain.TechniqueScreenCaptureEvasion:
			out = append(out, fmt.Sprintf("%s (%d windows)", t, r.ScreenCaptureEvasionCount))
		case domain.TechniqueElevatedLayer:
			out = append(out, fmt.Sprintf("%s (%d windows)", t, r.ElevatedLayerCount))
		}
	}
	return out
}

// StatusLine is the one-line verdict used by check and the monitor.
func StatusLine(r domain.DetectionResult) string {
	if !r.IsDetected {
		return "NOT DETECTED"
	}
	line := fmt.Sprintf("DETECTED: %d window(s), severity %s", r.WindowCount, domain.SeverityOf(r))
	if s := TechniqueSummaries(r); len(s) > 0 {
		line += " [" + strings.Join(s, "; ") + "]"
	}
	return line
}
