package core

import (
	"os"
	"path/filepath"

	"github.com/oneconcern/gxyarchiver/pkg/model"
	"github.com/oneconcern/gxyarchiver/pkg/storage/localfs"
	"github.com/spf13/afero"
)

// Readiness decides whether a staged unit is fully materialized and may be bundled.
//
// Implementations must not modify the unit.
type Readiness interface {
	Ready(fs afero.Fs, unitPath string) (bool, error)
}

// ReadinessFunc adapts a function into a Readiness check
type ReadinessFunc func(fs afero.Fs, unitPath string) (bool, error)

// Ready calls f
func (f ReadinessFunc) Ready(fs afero.Fs, unitPath string) (bool, error) {
	return f(fs, unitPath)
}

// MarkerFile is the completion marker convention: the exporter writes an
// (empty) marker file in the unit as its very last write.
type MarkerFile struct {
	Name string
}

// DefaultMarker is the readiness check used when none is configured
var DefaultMarker = MarkerFile{Name: model.DefaultMarkerFileName}

func (m MarkerFile) name() string {
	if m.Name == "" {
		return model.DefaultMarkerFileName
	}
	return m.Name
}

// Ready tells if the marker is present in the unit.
//
// A missing unit is reported as a not-exist error, so that callers may tell a vanished unit from an incomplete one.
func (m MarkerFile) Ready(fs afero.Fs, unitPath string) (bool, error) {
	fi, err := fs.Stat(filepath.Join(unitPath, m.name()))
	if err == nil {
		return fi.Mode().IsRegular(), nil
	}
	if !os.IsNotExist(err) {
		return false, err
	}
	if _, err = fs.Stat(unitPath); err != nil {
		return false, err
	}
	return false, nil
}

// Mark writes the completion marker in a unit. This is the hand-off performed by an exporter.
func (m MarkerFile) Mark(fs afero.Fs, unitPath string) error {
	fi, err := fs.Stat(unitPath)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return &os.PathError{Op: "mark", Path: unitPath, Err: os.ErrInvalid}
	}
	f, err := fs.OpenFile(filepath.Join(unitPath, m.name()), os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return localfs.SyncDir(fs, unitPath)
}
