package core

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"path/filepath"

	"github.com/oneconcern/gxyarchiver/pkg/core/status"
	"github.com/oneconcern/gxyarchiver/pkg/fingerprint"
	"github.com/oneconcern/gxyarchiver/pkg/model"
	"github.com/oneconcern/gxyarchiver/pkg/storage"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ManifestWriter computes the manifest of a planned bundle and persists it under its pending name
type ManifestWriter struct {
	Settings
	fs    afero.Fs
	store storage.Store
	maker *fingerprint.Maker
}

// NewManifestWriter builds a manifest writer, reading units from fs and writing manifests to the bundled store
func NewManifestWriter(fs afero.Fs, store storage.Store, opts ...Option) *ManifestWriter {
	w := &ManifestWriter{
		Settings: newSettings(opts),
		fs:       fs,
		store:    store,
	}
	w.maker = newMaker(fs, w.Settings)
	return w
}

func newMaker(fs afero.Fs, s Settings) *fingerprint.Maker {
	opts := []fingerprint.Option{fingerprint.NumberOfWorkers(s.concurrency)}
	if s.leafSize > 0 {
		opts = append(opts, fingerprint.LeafSize(s.leafSize))
	}
	return fingerprint.New(fs, opts...)
}

// sourcePath is the location of a unit relative to the archive root, e.g. "export/<unit-id>"
func sourcePath(unit model.ArchiveUnit) string {
	return path.Join(filepath.Base(filepath.Dir(unit.Path)), unit.ID)
}

// WritePending checksums every unit of the plan and durably writes the resulting manifest
// under the pending name of the bundle.
//
// If any unit changed size since the scan, or cannot be read, nothing is written and the
// returned error reports every failing unit.
func (w *ManifestWriter) WritePending(ctx context.Context, bundleID string, plan model.BundlePlan) (*model.Manifest, error) {
	units := plan.Units()
	entries := make([]model.ManifestEntry, len(units))
	errs := make([]error, len(units))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for i := range units {
		i := i
		g.Go(func() error {
			unit := units[i]
			digest, err := w.maker.Tree(gctx, unit.Path)
			if err != nil {
				if gctx.Err() != nil {
					return err
				}
				errs[i] = unitError(unit.ID, ioError(err))
				return nil
			}
			if err = checkScanned(unit, digest); err != nil {
				errs[i] = unitError(unit.ID, err)
				return nil
			}
			entries[i] = model.ManifestEntry{
				ID:         unit.ID,
				Size:       digest.Size,
				Checksum:   digest.String(),
				SourcePath: sourcePath(unit),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, status.ErrIO.Wrap(err)
	}
	if err := multierr.Combine(errs...); err != nil {
		return nil, err
	}

	manifest := model.NewManifest(bundleID, w.now())
	for _, e := range entries {
		manifest.Add(e)
	}

	exists, err := w.store.Has(ctx, model.GetPathToManifest(bundleID))
	if err != nil {
		return nil, status.ErrIO.Wrap(err)
	}
	if exists {
		return nil, status.ErrIO.Wrap(fmt.Errorf("bundle %s is already committed", bundleID))
	}
	if err = putPending(ctx, w.store, manifest, storage.IfNotPresent); err != nil {
		return nil, err
	}

	w.l.Info("pending manifest written",
		zap.String("bundle", bundleID),
		zap.Int("units", len(manifest.Units)),
		zap.Int64("size", manifest.TotalSize),
	)
	return manifest, nil
}

func putPending(ctx context.Context, store storage.Store, manifest *model.Manifest, newKey storage.NewKey) error {
	data, err := model.MarshalManifest(manifest)
	if err != nil {
		return status.ErrIO.Wrap(err)
	}
	if err = store.Put(ctx, model.GetPathToPendingManifest(manifest.BundleID), bytes.NewReader(data), newKey); err != nil {
		return status.ErrIO.Wrap(fmt.Errorf("writing pending manifest of bundle %s: %w", manifest.BundleID, err))
	}
	return nil
}
