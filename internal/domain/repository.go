package domain

import "context"

// WindowProvider returns the current compositor window list.
// Implementation: CoreGraphics on macOS, a YAML snapshot file for replay.
type WindowProvider interface {
	// Windows returns one record per on-screen or off-screen window.
	// An error means the snapshot is unavailable (e.g. permission denied).
	Windows(ctx context.Context) ([]WindowRecord, error)
}

// ProcessManager handles OS process lookups.
// Implementation: uses gopsutil for cross-platform support.
type ProcessManager interface {
	// NameOf returns the executable name of a running PID.
	NameOf(pid int) (string, error)

	// IsRunning checks if a PID exists and is running.
	IsRunning(pid int) bool

	// GetCurrentPID returns the current process PID.
	GetCurrentPID() int
}

// Detector runs the Provider -> Classifier -> Aggregator pipeline.
// All methods are stateless and safe for concurrent use.
type Detector interface {
	// Analyze returns the result together with the per-window detail.
	Analyze(ctx context.Context) Analysis

	// Detect returns the aggregated result for the current snapshot.
	Detect(ctx context.Context) DetectionResult

	// IsRunning reports whether at least one window is attributed.
	IsRunning(ctx context.Context) bool

	// WindowCount equals Detect(ctx).WindowCount.
	WindowCount(ctx context.Context) uint32
}

// ResultStore persists the most recent detection result and the monitor registration.
// Implementation: SQLCipher encrypted SQLite database.
type ResultStore interface {
	// SaveResult replaces the stored result.
	SaveResult(r StoredResult) error

	// LastResult returns the stored result, or nil if none was saved.
	LastResult() (*StoredResult, error)

	// RegisterMonitor records the running monitor process.
	RegisterMonitor(reg MonitorRegistration) error

	// GetMonitor returns the registered monitor, or nil if none.
	GetMonitor() (*MonitorRegistration, error)

	// ClearMonitor removes the monitor registration.
	ClearMonitor() error

	// Close releases resources (e.g., database connection).
	Close() error
}

// KeyProvider abstracts the source of the store encryption key.
type KeyProvider interface {
	// GetKey returns the encryption key bytes.
	GetKey() ([]byte, error)

	// StoreKey persists a new encryption key.
	StoreKey(key []byte) error

	// KeyExists checks if a key has been generated.
	KeyExists() bool
}

// LaunchAgentManager handles the macOS LaunchAgent that runs the monitor at login.
type LaunchAgentManager interface {
	// Install creates and loads the LaunchAgent plist.
	Install(execPath string) error

	// Uninstall unloads and removes the LaunchAgent plist.
	Uninstall() error

	// IsInstalled checks if LaunchAgent is installed.
	IsInstalled() bool

	// GetPlistPath returns the plist file path.
	GetPlistPath() string

	// NeedsUpdate checks if plist exists but has different content than expected.
	NeedsUpdate(execPath string) bool

	// Update unloads, updates plist content, and reloads.
	Update(execPath string) error
}
