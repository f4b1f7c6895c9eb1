package core

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/oneconcern/gxyarchiver/internal/rand"
	"github.com/oneconcern/gxyarchiver/pkg/config"
	"github.com/oneconcern/gxyarchiver/pkg/model"
	"github.com/oneconcern/gxyarchiver/pkg/storage"
	"github.com/oneconcern/gxyarchiver/pkg/storage/localfs"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	testStaging = "/archive/export"
	testBundled = "/archive/bundled"
)

// testArchive is an archive root in a temporary directory, with OS rename semantics
type testArchive struct {
	t   testing.TB
	fs  afero.Fs
	cfg config.Engine
}

func newTestArchive(t testing.TB, maxSize int64) *testArchive {
	fs := afero.NewBasePathFs(afero.NewOsFs(), t.TempDir())
	require.NoError(t, fs.MkdirAll(testStaging, 0700))
	return &testArchive{
		t:  t,
		fs: fs,
		cfg: config.Engine{
			MaxBundleSize: maxSize,
			StagingRoot:   testStaging,
			BundledRoot:   testBundled,
			Marker:        model.DefaultMarkerFileName,
			Concurrency:   2,
		},
	}
}

func (a *testArchive) store() storage.Store {
	require.NoError(a.t, a.fs.MkdirAll(testBundled, 0700))
	return localfs.New(afero.NewBasePathFs(a.fs, testBundled))
}

func (a *testArchive) opts(extra ...Option) []Option {
	return append([]Option{Logger(zaptest.NewLogger(a.t))}, extra...)
}

// stage creates a unit with a payload of the given size. Ready units get a completion marker.
func (a *testArchive) stage(id string, size int64, ready bool) model.ArchiveUnit {
	dir := filepath.Join(testStaging, id)
	require.NoError(a.t, a.fs.MkdirAll(filepath.Join(dir, "datasets"), 0700))
	require.NoError(a.t, afero.WriteFile(a.fs, filepath.Join(dir, "datasets", "payload.dat"), rand.Bytes(int(size)), 0600))
	if ready {
		require.NoError(a.t, DefaultMarker.Mark(a.fs, dir))
	}
	return model.ArchiveUnit{ID: id, Path: dir, Size: size, Complete: ready}
}

func (a *testArchive) staged() []string {
	infos, err := afero.ReadDir(a.fs, testStaging)
	require.NoError(a.t, err)
	ids := make([]string, 0, len(infos))
	for _, info := range infos {
		ids = append(ids, info.Name())
	}
	return ids
}

func (a *testArchive) exists(path string) bool {
	_, err := a.fs.Stat(path)
	return err == nil
}

// hookFs intercepts renames of unit directories
type hookFs struct {
	afero.Fs
	mx     sync.Mutex
	before func(oldname, newname string) error
	after  func(oldname, newname string)
}

func (h *hookFs) Rename(oldname, newname string) error {
	h.mx.Lock()
	defer h.mx.Unlock()
	if h.before != nil {
		if err := h.before(oldname, newname); err != nil {
			return err
		}
	}
	if err := h.Fs.Rename(oldname, newname); err != nil {
		return err
	}
	if h.after != nil {
		h.after(oldname, newname)
	}
	return nil
}

// failUnits makes renames of the given staged units fail
func failUnits(ids ...string) func(string, string) error {
	fail := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		fail[id] = struct{}{}
	}
	return func(oldname, _ string) error {
		if filepath.Dir(oldname) != testStaging {
			return nil
		}
		if _, ok := fail[filepath.Base(oldname)]; ok {
			return &os.LinkError{Op: "rename", Old: oldname, New: "", Err: os.ErrPermission}
		}
		return nil
	}
}
