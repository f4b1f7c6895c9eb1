package model

import (
	"fmt"
	"time"
)

// UnitState is the lifecycle state of an archive unit
type UnitState uint8

const (
	// Staged units sit in the staging root, waiting to be bundled
	Staged UnitState = iota
	// Bundled units have been moved into a bundle directory. This is terminal.
	Bundled
)

func (s UnitState) String() string {
	switch s {
	case Staged:
		return "staged"
	case Bundled:
		return "bundled"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name
func (s UnitState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name
func (s *UnitState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "staged":
		*s = Staged
	case "bundled":
		*s = Bundled
	default:
		return fmt.Errorf("unknown unit state %q", text)
	}
	return nil
}

// ArchiveUnit is one completed export, e.g. the export of a single history.
//
// The ID is the name of the unit directory in the staging root and matches
// the id of the originating history.
type ArchiveUnit struct {
	ID       string    `json:"id" yaml:"id"`
	Path     string    `json:"path" yaml:"path"`
	Size     int64     `json:"size" yaml:"size"`
	Complete bool      `json:"complete" yaml:"complete"`
	State    UnitState `json:"state" yaml:"state"`
	_        struct{}
}

// ScanResult is the snapshot of a staging root taken at the start of a cycle
type ScanResult struct {
	ScannedAt time.Time
	Units     []ArchiveUnit
	NotReady  []string
	Skipped   []Issue
}

// TotalSize of all eligible units in the snapshot
func (r ScanResult) TotalSize() int64 {
	var total int64
	for _, u := range r.Units {
		total += u.Size
	}
	return total
}
