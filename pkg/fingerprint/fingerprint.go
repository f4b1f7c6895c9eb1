// Package fingerprint computes content checksums of files and directory trees.
//
// A tree digest covers the relative path, size and content of every regular
// file below the root, as well as the directory structure, so that any
// rename, truncation or in-place edit of a unit changes its fingerprint.
package fingerprint

import (
	"context"
	"encoding/hex"
	"hash"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"

	units "github.com/docker/go-units"
	blake2b "github.com/minio/blake2b-simd"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// Algorithm is the prefix of the string form of digests
const Algorithm = "blake2b"

// Option tunes a Maker
type Option func(*Maker)

// LeafSize sets the size of the read buffer used when hashing file content
func LeafSize(sz int64) Option {
	return func(m *Maker) {
		if sz > 0 {
			m.leafSize = uint32(sz)
		}
	}
}

// NumberOfWorkers sets how many files of a tree are hashed concurrently
func NumberOfWorkers(no int) Option {
	return func(m *Maker) {
		if no > 0 {
			m.numberOfWorkers = no
		}
	}
}

// New fingerprint maker reading from fs
func New(fs afero.Fs, opts ...Option) *Maker {
	m := &Maker{
		fs:              fs,
		leafSize:        uint32(units.MiB),
		numberOfWorkers: runtime.NumCPU(),
		size:            blake2b.Size,
	}

	for _, apply := range opts {
		apply(m)
	}
	return m
}

// Maker computes blake2b fingerprints
type Maker struct {
	fs              afero.Fs
	size            uint8
	leafSize        uint32
	numberOfWorkers int
}

// Digest is the fingerprint of a tree
type Digest struct {
	Sum   []byte
	Size  int64
	Files int
}

// String renders the digest as "blake2b:<hex>"
func (d Digest) String() string {
	return Algorithm + ":" + hex.EncodeToString(d.Sum)
}

// Entry is a node found while walking a tree
type Entry struct {
	Rel   string
	Size  int64
	IsDir bool
}

// Walk lists the regular files and directories below root, sorted by relative path.
//
// Symlinks and other special files are ignored. The root itself is not listed.
func Walk(fs afero.Fs, root string) ([]Entry, error) {
	var entries []Entry
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		switch {
		case info.IsDir():
			entries = append(entries, Entry{Rel: filepath.ToSlash(rel), IsDir: true})
		case info.Mode().IsRegular():
			entries = append(entries, Entry{Rel: filepath.ToSlash(rel), Size: info.Size()})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Rel < entries[j].Rel })
	return entries, nil
}

// TreeSize sums the size of all regular files below root
func TreeSize(fs afero.Fs, root string) (int64, error) {
	entries, err := Walk(fs, root)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, e := range entries {
		total += e.Size
	}
	return total, nil
}

// Tree computes the digest of the directory tree at root.
//
// File contents are hashed concurrently, then combined in path order.
func (m *Maker) Tree(ctx context.Context, root string) (Digest, error) {
	entries, err := Walk(m.fs, root)
	if err != nil {
		return Digest{}, err
	}

	digests := make([][]byte, len(entries))
	sizes := make([]int64, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.numberOfWorkers)
	for i, e := range entries {
		if e.IsDir {
			continue
		}
		i, e := i, e
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			d, n, err := m.file(filepath.Join(root, filepath.FromSlash(e.Rel)))
			if err != nil {
				return err
			}
			digests[i], sizes[i] = d, n
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return Digest{}, err
	}

	rootHash, err := m.hasher()
	if err != nil {
		return Digest{}, err
	}
	var result Digest
	for i, e := range entries {
		if e.IsDir {
			_, _ = io.WriteString(rootHash, e.Rel+"/\x00")
			continue
		}
		_, _ = io.WriteString(rootHash, e.Rel+"\x00"+strconv.FormatInt(sizes[i], 10)+"\x00")
		_, _ = rootHash.Write(digests[i])
		result.Size += sizes[i]
		result.Files++
	}
	result.Sum = rootHash.Sum(nil)
	return result, nil
}

// file hashes the content of a file, returning the digest and the number of bytes read
func (m *Maker) file(path string) ([]byte, int64, error) {
	f, err := m.fs.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	h, err := m.hasher()
	if err != nil {
		return nil, 0, err
	}
	n, err := io.CopyBuffer(h, f, make([]byte, m.leafSize))
	if err != nil {
		return nil, n, err
	}
	return h.Sum(nil), n, nil
}

func (m *Maker) hasher() (hash.Hash, error) {
	// New only fails when configuration is wrong
	return blake2b.New(&blake2b.Config{Size: m.size})
}
