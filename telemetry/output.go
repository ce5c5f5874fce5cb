package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// OutputManager writes frame telemetry as CSV. A nil manager is valid and
// disables output, so call sites don't need to branch.
type OutputManager struct {
	dir       string
	frameFile *os.File
}

// NewOutputManager creates the output directory and frames.csv. Returns nil
// if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, "frames.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating frames.csv: %w", err)
	}
	return &OutputManager{dir: dir, frameFile: f}, nil
}

// WriteFrames flushes the collector's window to frames.csv, replacing the
// previous contents.
func (om *OutputManager) WriteFrames(records []FrameRecord) error {
	if om == nil {
		return nil
	}
	if err := om.frameFile.Truncate(0); err != nil {
		return fmt.Errorf("truncating frames.csv: %w", err)
	}
	if _, err := om.frameFile.Seek(0, 0); err != nil {
		return fmt.Errorf("rewinding frames.csv: %w", err)
	}
	return gocsv.MarshalFile(&records, om.frameFile)
}

// Close flushes and closes the output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	return om.frameFile.Close()
}
