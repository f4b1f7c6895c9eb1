package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oneconcern/gxyarchiver/pkg/core/status"
	"github.com/oneconcern/gxyarchiver/pkg/fingerprint"
	"github.com/oneconcern/gxyarchiver/pkg/model"
	"github.com/oneconcern/gxyarchiver/pkg/storage"
	"github.com/oneconcern/gxyarchiver/pkg/storage/localfs"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Relocator moves the units of a bundle from staging into the bundle directory, then commits its manifest
type Relocator struct {
	Settings
	fs          afero.Fs
	store       storage.Store
	bundledRoot string
	maker       *fingerprint.Maker
}

// NewRelocator builds a relocator for bundles located under bundledRoot.
//
// The store must be rooted at bundledRoot on the same filesystem.
func NewRelocator(fs afero.Fs, bundledRoot string, store storage.Store, opts ...Option) *Relocator {
	r := &Relocator{
		Settings:    newSettings(opts),
		fs:          fs,
		store:       store,
		bundledRoot: bundledRoot,
	}
	r.maker = newMaker(fs, r.Settings)
	return r
}

// Relocate moves every unit of the plan into its bundle, each with a single rename, then
// verifies moved units against the pending manifest and commits it under its final name.
//
// A unit which cannot be moved stays in staging and is removed from the manifest before commit.
// Moved units failing verification are flagged, never moved back. When no unit could be moved,
// the pending manifest is discarded and nothing is committed.
//
// The returned error combines every problem met: the result tells whether the bundle was committed.
func (r *Relocator) Relocate(ctx context.Context, manifest *model.Manifest, plan model.BundlePlan) (model.BundleResult, error) {
	bundleID := manifest.BundleID
	result := model.BundleResult{
		BundleID: bundleID,
		Moved:    []string{},
	}
	bundleDir := filepath.Join(r.bundledRoot, bundleID)
	if err := r.fs.MkdirAll(bundleDir, 0700); err != nil {
		return result, status.ErrIO.Wrap(fmt.Errorf("creating bundle directory: %w", err))
	}

	var (
		errs   []error
		failed []string
	)
	for _, unit := range plan.Units() {
		if err := r.move(manifest, unit); err != nil {
			r.l.Warn("unit left in staging", zap.String("bundle", bundleID), zap.String("unit", unit.ID), zap.Error(err))
			errs = append(errs, unitError(unit.ID, err))
			failed = append(failed, unit.ID)
			continue
		}
		r.l.Debug("unit moved", zap.String("bundle", bundleID), zap.String("unit", unit.ID))
		unit.Path = r.unitPath(bundleID, unit.ID)
		unit.State = model.Bundled
		result.Moved = append(result.Moved, unit.ID)
		result.Units = append(result.Units, unit)
	}

	if len(result.Moved) == 0 {
		errs = append(errs, r.discard(ctx, bundleID, bundleDir))
		return result, multierr.Combine(errs...)
	}

	if len(failed) > 0 {
		manifest = manifest.Without(failed...)
		if err := putPending(ctx, r.store, manifest, storage.OverWrite); err != nil {
			errs = append(errs, err)
			return result, multierr.Combine(errs...)
		}
	}

	errs = append(errs, r.verify(ctx, manifest)...)

	if err := r.store.Rename(ctx, model.GetPathToPendingManifest(bundleID), model.GetPathToManifest(bundleID)); err != nil {
		errs = append(errs, status.ErrIO.Wrap(fmt.Errorf("committing manifest of bundle %s: %w", bundleID, err)))
		return result, multierr.Combine(errs...)
	}
	result.Committed = true
	result.TotalSize = manifest.TotalSize

	r.l.Info("bundle committed",
		zap.String("bundle", bundleID),
		zap.Int("units", len(result.Moved)),
		zap.Int64("size", result.TotalSize),
	)
	return result, multierr.Combine(errs...)
}

func (r *Relocator) unitPath(bundleID, unitID string) string {
	return filepath.Join(r.bundledRoot, model.GetPathToBundledUnit(bundleID, unitID))
}

// move renames a single unit directory into the bundle
func (r *Relocator) move(manifest *model.Manifest, unit model.ArchiveUnit) error {
	if _, listed := manifest.Entry(unit.ID); !listed {
		return status.ErrIO.Wrap(fmt.Errorf("unit is not listed in the manifest of bundle %s", manifest.BundleID))
	}
	target := r.unitPath(manifest.BundleID, unit.ID)
	bundleDir := filepath.Dir(target)
	if _, err := r.fs.Stat(target); err == nil {
		return status.ErrUnitExists.Wrap(fmt.Errorf("%q", target))
	} else if !os.IsNotExist(err) {
		return status.ErrIO.Wrap(err)
	}
	if err := r.fs.Rename(unit.Path, target); err != nil {
		return ioError(err)
	}
	for _, dir := range []string{bundleDir, filepath.Dir(unit.Path)} {
		if err := localfs.SyncDir(r.fs, dir); err != nil {
			r.l.Warn("could not sync directory", zap.String("dir", dir), zap.Error(err))
		}
	}
	return nil
}

// verify checksums the moved units at their new location and collects the mismatches with the manifest
func (r *Relocator) verify(ctx context.Context, manifest *model.Manifest) []error {
	errs := make([]error, len(manifest.Units))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i := range manifest.Units {
		i := i
		g.Go(func() error {
			entry := manifest.Units[i]
			digest, err := r.maker.Tree(gctx, r.unitPath(manifest.BundleID, entry.ID))
			if err != nil {
				errs[i] = unitError(entry.ID, ioError(err))
				return nil
			}
			if err = checkEntry(entry, digest); err != nil {
				r.l.Error("unit flagged after move", zap.String("bundle", manifest.BundleID), zap.String("unit", entry.ID), zap.Error(err))
				errs[i] = unitError(entry.ID, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return errs
}

// discard removes the pending manifest of a bundle which received no unit
func (r *Relocator) discard(ctx context.Context, bundleID, bundleDir string) error {
	if err := r.store.Delete(ctx, model.GetPathToPendingManifest(bundleID)); err != nil {
		return status.ErrIO.Wrap(err)
	}
	// only succeeds when the directory is empty
	_ = r.fs.Remove(bundleDir)
	r.l.Info("bundle discarded", zap.String("bundle", bundleID))
	return nil
}
