package domain

// Severity is a coarse ordinal summary of how many technique categories are in use.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
)

// String returns "None", "Low", "Medium" or "High".
func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "None"
	case SeverityLow:
		return "Low"
	case SeverityMedium:
		return "Medium"
	case SeverityHigh:
		return "High"
	default:
		return "Unknown"
	}
}

// SeverityOf scores a result by the number of technique categories present.
func SeverityOf(r DetectionResult) Severity {
	if !r.IsDetected {
		return SeverityNone
	}
	switch len(r.Techniques()) {
	case 0:
		return SeverityLow
	case 1:
		return SeverityMedium
	default:
		return SeverityHigh
	}
}
