// Copyright © 2018 One Concern

package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/oneconcern/gxyarchiver/pkg/storage"
	"github.com/oneconcern/gxyarchiver/pkg/storage/status"
	"github.com/spf13/afero"
)

// New creates a new local file system backed storage model.
//
// Writes are fsync'ed, and so is the parent directory after a create or a rename,
// whenever the underlying afero.Fs supports it.
func New(fs afero.Fs) storage.Store {
	if fs == nil {
		fs = afero.NewBasePathFs(afero.NewOsFs(), "bundled")
	}
	return &localFS{
		fs: fs,
	}
}

type localFS struct {
	fs afero.Fs
}

func cleanKey(key string) (string, error) {
	k := path.Clean("/" + filepath.ToSlash(key))
	if k == "/" {
		return "", status.ErrInvalidKey.Wrap(fmt.Errorf("%q", key))
	}
	return strings.TrimPrefix(k, "/"), nil
}

func (l *localFS) Has(ctx context.Context, key string) (bool, error) {
	k, err := cleanKey(key)
	if err != nil {
		return false, err
	}
	fi, err := l.fs.Stat(k)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, status.ErrStorageAPI.Wrap(err)
	}

	return !fi.IsDir(), nil
}

func (l *localFS) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	k, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	has, err := l.Has(ctx, k)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, status.ErrNotExists.Wrap(fmt.Errorf("%q", k))
	}
	f, err := l.fs.Open(k)
	if err != nil {
		return nil, status.ErrStorageAPI.Wrap(err)
	}
	return f, nil
}

func (l *localFS) Put(ctx context.Context, key string, source io.Reader, exclusive storage.NewKey) error {
	k, err := cleanKey(key)
	if err != nil {
		return err
	}
	dir := path.Dir(k)
	if err = l.fs.MkdirAll(dir, 0700); err != nil {
		return status.ErrStorageAPI.Wrap(fmt.Errorf("ensuring directories for %q: %w", k, err))
	}
	flag := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if exclusive {
		flag |= os.O_EXCL
	}
	target, err := l.fs.OpenFile(k, flag, 0600)
	if err != nil {
		if os.IsExist(err) {
			return status.ErrExists.Wrap(fmt.Errorf("%q", k))
		}
		return status.ErrStorageAPI.Wrap(fmt.Errorf("create record for %q: %w", k, err))
	}
	if _, err = io.Copy(target, source); err != nil {
		_ = target.Close()
		return status.ErrStorageAPI.Wrap(fmt.Errorf("write record for %q: %w", k, err))
	}
	if err = target.Sync(); err != nil {
		_ = target.Close()
		return status.ErrStorageAPI.Wrap(fmt.Errorf("sync record for %q: %w", k, err))
	}
	if err = target.Close(); err != nil {
		return status.ErrStorageAPI.Wrap(err)
	}
	return SyncDir(l.fs, dir)
}

func (l *localFS) Delete(ctx context.Context, key string) error {
	k, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := l.fs.Remove(k); err != nil && !os.IsNotExist(err) {
		return status.ErrStorageAPI.Wrap(fmt.Errorf("removing %q: %w", k, err))
	}
	return nil
}

func (l *localFS) Rename(ctx context.Context, from, to string) error {
	src, err := cleanKey(from)
	if err != nil {
		return err
	}
	dst, err := cleanKey(to)
	if err != nil {
		return err
	}
	if _, err = l.fs.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return status.ErrNotExists.Wrap(fmt.Errorf("%q", src))
		}
		return status.ErrStorageAPI.Wrap(err)
	}
	/* Rename() doesn't create directories automatically */
	if err = l.fs.MkdirAll(path.Dir(dst), 0700); err != nil {
		return status.ErrStorageAPI.Wrap(fmt.Errorf("ensuring directories for %q: %w", dst, err))
	}
	if err = l.fs.Rename(src, dst); err != nil {
		return status.ErrStorageAPI.Wrap(fmt.Errorf("renaming %q to %q: %w", src, dst, err))
	}
	return SyncDir(l.fs, path.Dir(dst))
}

func (l *localFS) List(ctx context.Context, prefix string) ([]string, error) {
	dir := "."
	if strings.Trim(prefix, "/") != "" {
		k, err := cleanKey(prefix)
		if err != nil {
			return nil, err
		}
		dir = k
	}
	infos, err := afero.ReadDir(l.fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, status.ErrStorageAPI.Wrap(err)
	}
	names := make([]string, 0, len(infos))
	for _, fi := range infos {
		names = append(names, fi.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (l *localFS) String() string {
	const localfs = "localfs"
	switch fs := l.fs.(type) {
	case *afero.BasePathFs:
		pp, err := fs.RealPath("")
		if err != nil {
			return localfs
		}
		return localfs + "@" + pp
	default:
		return localfs
	}
}

// SyncDir flushes a directory entry to stable storage, so a create or rename within it survives a crash.
//
// Filesystems which cannot sync directories are silently tolerated.
func SyncDir(fs afero.Fs, dir string) error {
	d, err := fs.Open(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return status.ErrNotExists.Wrap(err)
		}
		return nil
	}
	defer d.Close()
	if err = d.Sync(); err != nil && !isUnsupportedSync(err) {
		return status.ErrStorageAPI.Wrap(fmt.Errorf("sync directory %q: %w", dir, err))
	}
	return nil
}
