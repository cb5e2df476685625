package infra

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/eliteGoblin/focusd/cluely_mon/internal/domain"
)

// Snapshot is the YAML document format for recorded window lists:
//
//	windows:
//	  - owner: Cluely
//	    pid: 812
//	    id: 11
//	    sharing_state: 0
//	    layer: 3
type Snapshot struct {
	Windows []domain.WindowRecord `yaml:"windows"`
}

// snapshotWindow mirrors domain.WindowRecord with an optional sharing state.
type snapshotWindow struct {
	OwnerName    string `yaml:"owner"`
	OwnerPID     int32  `yaml:"pid"`
	WindowID     int32  `yaml:"id"`
	WindowName   string `yaml:"name"`
	SharingState *int32 `yaml:"sharing_state"`
	Layer        int32  `yaml:"layer"`
}

type snapshotDocument struct {
	Windows []snapshotWindow `yaml:"windows"`
}

// FileSnapshotProvider implements domain.WindowProvider by replaying a YAML file.
// The file is re-read on every call so it can be edited while a monitor runs.
type FileSnapshotProvider struct {
	path string
}

// NewSnapshotProvider creates a provider backed by the YAML file at path.
func NewSnapshotProvider(path string) domain.WindowProvider {
	return &FileSnapshotProvider{path: path}
}

// Windows loads the snapshot file.
func (p *FileSnapshotProvider) Windows(ctx context.Context) ([]domain.WindowRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(p.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	records, err := DecodeSnapshot(f)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", p.path, err)
	}
	return records, nil
}

// DecodeSnapshot parses a YAML snapshot. A window without sharing_state is
// treated as capturable. An empty document is an empty snapshot.
func DecodeSnapshot(r io.Reader) ([]domain.WindowRecord, error) {
	var doc snapshotDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	records := make([]domain.WindowRecord, 0, len(doc.Windows))
	for _, w := range doc.Windows {
		sharing := sharingReadOnly
		if w.SharingState != nil {
			sharing = *w.SharingState
		}
		records = append(records, domain.WindowRecord{
			OwnerName:    w.OwnerName,
			OwnerPID:     w.OwnerPID,
			WindowID:     w.WindowID,
			WindowName:   w.WindowName,
			SharingState: sharing,
			Layer:        w.Layer,
		})
	}
	return records, nil
}

// EncodeSnapshot writes records in the format read by DecodeSnapshot.
func EncodeSnapshot(w io.Writer, records []domain.WindowRecord) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(Snapshot{Windows: records}); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Ensure FileSnapshotProvider implements domain.WindowProvider.
var _ domain.WindowProvider = (*FileSnapshotProvider)(nil)
