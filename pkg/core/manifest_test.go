package core

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/oneconcern/gxyarchiver/pkg/core/status"
	"github.com/oneconcern/gxyarchiver/pkg/errors"
	"github.com/oneconcern/gxyarchiver/pkg/model"
	"github.com/oneconcern/gxyarchiver/pkg/storage"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestWritePending(t *testing.T) {
	defer goleak.VerifyNone(t)

	archive := newTestArchive(t, 1000)
	a := archive.stage("A", 300, true)
	b := archive.stage("B", 400, true)
	store := archive.store()

	at := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	writer := NewManifestWriter(archive.fs, store, archive.opts(Clock(func() time.Time { return at }), LeafSize(64))...)
	manifest, err := writer.WritePending(context.Background(), "bundle-1", model.NewBundlePlan(a, b))
	require.NoError(t, err)

	assert.Equal(t, "bundle-1", manifest.BundleID)
	assert.Equal(t, at, manifest.CreatedAt)
	assert.Equal(t, int64(700), manifest.TotalSize)
	assert.Equal(t, []string{"A", "B"}, manifest.IDs())
	for _, e := range manifest.Units {
		assert.Equal(t, "export/"+e.ID, e.SourcePath)
		assert.True(t, strings.HasPrefix(e.Checksum, "blake2b:"))
	}

	// only the pending manifest exists
	has, err := store.Has(context.Background(), model.GetPathToManifest("bundle-1"))
	require.NoError(t, err)
	assert.False(t, has)

	data, err := storage.ReadAll(context.Background(), store, model.GetPathToPendingManifest("bundle-1"))
	require.NoError(t, err)
	persisted, err := model.ReadManifest(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, manifest.Units, persisted.Units)
	assert.Equal(t, manifest.TotalSize, persisted.TotalSize)

	// units are untouched
	assert.ElementsMatch(t, []string{"A", "B"}, archive.staged())
}

func TestWritePendingSizeChanged(t *testing.T) {
	archive := newTestArchive(t, 1000)
	a := archive.stage("A", 300, true)
	b := archive.stage("B", 400, true)
	store := archive.store()

	// B grows after the scan
	require.NoError(t, afero.WriteFile(archive.fs, filepath.Join(b.Path, "late.log"), []byte("late"), 0600))

	writer := NewManifestWriter(archive.fs, store, archive.opts()...)
	_, err := writer.WritePending(context.Background(), "bundle-1", model.NewBundlePlan(a, b))
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrIntegrity))
	assert.True(t, errors.Is(err, status.ErrSizeMismatch))

	issues := issuesFromError("bundle-1", err)
	require.Len(t, issues, 1)
	assert.Equal(t, "B", issues[0].UnitID)
	assert.Equal(t, model.IssueIntegrity, issues[0].Kind)

	has, err := store.Has(context.Background(), model.GetPathToPendingManifest("bundle-1"))
	require.NoError(t, err)
	assert.False(t, has, "nothing must be written for an aborted bundle")
}

func TestWritePendingUnitVanished(t *testing.T) {
	archive := newTestArchive(t, 1000)
	a := archive.stage("A", 300, true)
	b := archive.stage("B", 400, true)
	require.NoError(t, archive.fs.RemoveAll(b.Path))

	writer := NewManifestWriter(archive.fs, archive.store(), archive.opts()...)
	_, err := writer.WritePending(context.Background(), "bundle-1", model.NewBundlePlan(a, b))
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrIO))
	assert.False(t, errors.Is(err, status.ErrIntegrity))

	issues := issuesFromError("bundle-1", err)
	require.Len(t, issues, 1)
	assert.Equal(t, model.IssueIO, issues[0].Kind)
	assert.Equal(t, "B", issues[0].UnitID)
}
