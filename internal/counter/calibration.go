package counter

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Validation failures reported by LoadTable and Table.Validate.
var (
	ErrNoCheckpoints        = errors.New("calibration table has no checkpoints")
	ErrDuplicateCheckpoint  = errors.New("duplicate checkpoint time")
	ErrNegativeCheckpoint   = errors.New("checkpoint values must not be negative")
	ErrUnknownInterpolation = errors.New("unknown interpolation")
)

// Checkpoint is a single user-measured correspondence between elapsed
// recording time and the deck's counter reading.
type Checkpoint struct {
	TimeSeconds float64 `json:"time_seconds"`
	Counter     int     `json:"counter"`
	Note        string  `json:"note,omitempty"`
}

// Table is a set of calibration checkpoints for one deck and tape type
// combination, as produced by the calibration wizard.
type Table struct {
	Checkpoints     []Checkpoint `json:"checkpoints"`
	DeckModel       string       `json:"deck_model,omitempty"`
	TapeType        string       `json:"tape_type,omitempty"`
	CalibrationDate string       `json:"calibration_date,omitempty"`
	Interpolation   string       `json:"interpolation"`
}

// LoadTable reads a calibration table from path, sorts its checkpoints
// by time and validates it. Tables that would make Manual.CounterAt
// misbehave (duplicate times, negative values) are rejected here so the
// readout loop never has to.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read calibration file: %w", err)
	}

	var table Table
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse calibration file %s: %w", path, err)
	}

	table.normalize()
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("invalid calibration file %s: %w", path, err)
	}
	return &table, nil
}

// Save writes the table as indented JSON, creating parent directories
// as needed. The table is normalized and validated first so a saved
// file always loads back cleanly.
func (t *Table) Save(path string) error {
	t.normalize()
	if err := t.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode calibration table: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create calibration directory: %w", err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write calibration file: %w", err)
	}
	return nil
}

// Validate reports the first problem that would corrupt interpolation.
func (t *Table) Validate() error {
	if len(t.Checkpoints) == 0 {
		return ErrNoCheckpoints
	}
	if t.Interpolation != "linear" {
		return fmt.Errorf("%w %q (only linear is supported)", ErrUnknownInterpolation, t.Interpolation)
	}
	for _, cp := range t.Checkpoints {
		if cp.TimeSeconds < 0 || cp.Counter < 0 {
			return fmt.Errorf("%w: got (%.1f s, %d)", ErrNegativeCheckpoint, cp.TimeSeconds, cp.Counter)
		}
	}
	for i := 1; i < len(t.Checkpoints); i++ {
		if t.Checkpoints[i].TimeSeconds == t.Checkpoints[i-1].TimeSeconds {
			return fmt.Errorf("%w: two checkpoints at %.1f s", ErrDuplicateCheckpoint, t.Checkpoints[i].TimeSeconds)
		}
	}
	return nil
}

// normalize sorts checkpoints by time and fills in defaults. The sort
// is stable so duplicate times survive in entry order for Validate to
// report.
func (t *Table) normalize() {
	sort.SliceStable(t.Checkpoints, func(i, j int) bool {
		return t.Checkpoints[i].TimeSeconds < t.Checkpoints[j].TimeSeconds
	})
	if t.Interpolation == "" {
		t.Interpolation = "linear"
	}
}
