// Package fixtures provides test helpers for integration tests.
package fixtures

import (
	"os"
	"path/filepath"

	"github.com/eliteGoblin/focusd/cluely_mon/internal/domain"
	"github.com/eliteGoblin/focusd/cluely_mon/internal/infra"
)

// FakeSession writes window snapshots that a snapshot provider replays,
// simulating the monitoring software appearing and disappearing.
type FakeSession struct {
	Path string
}

// NewFakeSession creates a session backed by windows.yaml inside dir.
func NewFakeSession(dir string) *FakeSession {
	return &FakeSession{Path: filepath.Join(dir, "windows.yaml")}
}

// Set replaces the current window list.
func (s *FakeSession) Set(records ...domain.WindowRecord) error {
	f, err := os.Create(s.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	return infra.EncodeSnapshot(f, records)
}

// Clean writes a desktop with ordinary windows only.
func (s *FakeSession) Clean() error {
	return s.Set(Desktop()...)
}

// Hidden writes a desktop plus a capture-excluded overlay window.
func (s *FakeSession) Hidden() error {
	return s.Set(append(Desktop(), HiddenOverlay(501))...)
}

// Desktop returns ordinary windows that never match.
func Desktop() []domain.WindowRecord {
	return []domain.WindowRecord{
		{OwnerName: "Finder", OwnerPID: 310, WindowID: 1, SharingState: 1, Layer: 0},
		{OwnerName: "Dock", OwnerPID: 311, WindowID: 2, SharingState: 1, Layer: 20},
		{OwnerName: "Safari", OwnerPID: 402, WindowID: 3, SharingState: 1, Layer: 0},
	}
}

// HiddenOverlay returns a Cluely window that evades capture on an elevated layer.
func HiddenOverlay(id int32) domain.WindowRecord {
	return domain.WindowRecord{
		OwnerName:    "Cluely",
		OwnerPID:     777,
		WindowID:     id,
		WindowName:   "Assistant",
		SharingState: 0,
		Layer:        3,
	}
}
