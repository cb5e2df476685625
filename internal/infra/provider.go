package infra

import "errors"

var (
	// ErrUnsupportedPlatform is returned when no real window source exists for this OS.
	ErrUnsupportedPlatform = errors.New("window metadata is only available on macOS")

	// ErrSnapshotUnavailable is returned when the OS refuses a window listing.
	ErrSnapshotUnavailable = errors.New("window list unavailable")
)

// sharingReadOnly is kCGWindowSharingReadOnly, assumed when a window omits its sharing state.
const sharingReadOnly int32 = 1
