package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/oneconcern/gxyarchiver/pkg/core/status"
	"github.com/oneconcern/gxyarchiver/pkg/errors"
	"github.com/oneconcern/gxyarchiver/pkg/model"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestScan(t *testing.T) {
	defer goleak.VerifyNone(t)

	archive := newTestArchive(t, 1000)
	archive.stage("C", 800, true)
	archive.stage("A", 300, true)
	archive.stage("B", 400, true)
	archive.stage("partial", 10, false)
	require.NoError(t, afero.WriteFile(archive.fs, filepath.Join(testStaging, "README"), []byte("not a unit"), 0600))
	require.NoError(t, archive.fs.MkdirAll(filepath.Join(testStaging, ".tmp"), 0700))
	require.NoError(t, DefaultMarker.Mark(archive.fs, filepath.Join(testStaging, ".tmp")))

	at := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	scanner := NewScanner(archive.fs, testStaging, archive.opts(Clock(func() time.Time { return at }))...)
	result, err := scanner.Scan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, at, result.ScannedAt)
	require.Len(t, result.Units, 3)
	for i, expected := range []struct {
		id   string
		size int64
	}{{"A", 300}, {"B", 400}, {"C", 800}} {
		unit := result.Units[i]
		assert.Equal(t, expected.id, unit.ID)
		assert.Equal(t, expected.size, unit.Size)
		assert.Equal(t, filepath.Join(testStaging, expected.id), unit.Path)
		assert.True(t, unit.Complete)
		assert.Equal(t, model.Staged, unit.State)
	}
	assert.Equal(t, []string{"partial"}, result.NotReady)
	assert.Empty(t, result.Skipped)
	assert.Equal(t, int64(1500), result.TotalSize())
}

func TestScanEmpty(t *testing.T) {
	archive := newTestArchive(t, 1000)
	result, err := NewScanner(archive.fs, testStaging).Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Units)
	assert.NotNil(t, result.Units)
}

func TestScanStagingRoot(t *testing.T) {
	archive := newTestArchive(t, 1000)

	_, err := NewScanner(archive.fs, "/missing").Scan(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrConfig))

	require.NoError(t, afero.WriteFile(archive.fs, "/file", []byte{}, 0600))
	_, err = NewScanner(archive.fs, "/file").Scan(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrConfig))
}

func TestScanReservedName(t *testing.T) {
	archive := newTestArchive(t, 1000)
	archive.stage(model.ManifestFileName, 10, true)
	archive.stage("A", 10, true)

	result, err := NewScanner(archive.fs, testStaging).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Units, 1)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, model.ManifestFileName, result.Skipped[0].UnitID)
	assert.Equal(t, model.IssueIO, result.Skipped[0].Kind)
}

func TestScanCustomReadiness(t *testing.T) {
	archive := newTestArchive(t, 1000)
	archive.stage("A", 10, false)
	archive.stage("B", 10, false)
	archive.stage("broken", 10, false)

	readiness := ReadinessFunc(func(_ afero.Fs, unitPath string) (bool, error) {
		switch filepath.Base(unitPath) {
		case "A":
			return true, nil
		case "broken":
			return false, &os.PathError{Op: "stat", Path: unitPath, Err: os.ErrNotExist}
		default:
			return false, nil
		}
	})
	result, err := NewScanner(archive.fs, testStaging, WithReadiness(readiness)).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Units, 1)
	assert.Equal(t, "A", result.Units[0].ID)
	assert.Equal(t, []string{"B"}, result.NotReady)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "broken", result.Skipped[0].UnitID)
	assert.Contains(t, result.Skipped[0].Reason, "unit disappeared")
}

func TestMarkerFile(t *testing.T) {
	archive := newTestArchive(t, 1000)
	unit := archive.stage("A", 10, false)
	marker := MarkerFile{Name: "DONE"}

	ready, err := marker.Ready(archive.fs, unit.Path)
	require.NoError(t, err)
	assert.False(t, ready)

	require.NoError(t, marker.Mark(archive.fs, unit.Path))
	ready, err = marker.Ready(archive.fs, unit.Path)
	require.NoError(t, err)
	assert.True(t, ready)
	assert.True(t, archive.exists(filepath.Join(unit.Path, "DONE")))

	// marking twice is harmless
	require.NoError(t, marker.Mark(archive.fs, unit.Path))

	_, err = marker.Ready(archive.fs, filepath.Join(testStaging, "missing"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))

	require.Error(t, marker.Mark(archive.fs, filepath.Join(testStaging, "missing")))
}
