package core

import (
	"context"
	"fmt"

	"github.com/oneconcern/gxyarchiver/pkg/config"
	"github.com/oneconcern/gxyarchiver/pkg/core/status"
	"github.com/oneconcern/gxyarchiver/pkg/errors"
	"github.com/oneconcern/gxyarchiver/pkg/model"
	"github.com/oneconcern/gxyarchiver/pkg/storage"
	"github.com/oneconcern/gxyarchiver/pkg/storage/localfs"
	"github.com/segmentio/ksuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Orchestrator runs bundling cycles: scan, plan, then write and relocate each planned bundle in turn.
//
// It keeps no state across cycles besides what is on disk, so that a cycle may be re-run at any time,
// in particular after a crash.
type Orchestrator struct {
	Settings
	fs      afero.Fs
	cfg     config.Engine
	store   storage.Store
	scanner *Scanner
	writer  *ManifestWriter
	mover   *Relocator
}

// NewOrchestrator builds an orchestrator for the staging and bundled roots found in the configuration.
//
// Readiness defaults to the marker file configured, and concurrency to the configured value.
func NewOrchestrator(fs afero.Fs, cfg config.Engine, opts ...Option) *Orchestrator {
	defaults := []Option{
		WithReadiness(MarkerFile{Name: cfg.Marker}),
		Concurrency(cfg.Concurrency),
	}
	opts = append(defaults, opts...)
	store := localfs.New(afero.NewBasePathFs(fs, cfg.BundledRoot))

	return &Orchestrator{
		Settings: newSettings(opts),
		fs:       fs,
		cfg:      cfg,
		store:    store,
		scanner:  NewScanner(fs, cfg.StagingRoot, opts...),
		writer:   NewManifestWriter(fs, store, opts...),
		mover:    NewRelocator(fs, cfg.BundledRoot, store, opts...),
	}
}

// Store holding the manifests of bundles
func (o *Orchestrator) Store() storage.Store {
	return o.store
}

// Run one bundling cycle.
//
// Failures confined to a unit or a bundle are reported in the summary and the cycle proceeds.
// An invalid configuration or an unreadable staging root abort the cycle with an error.
//
// Cancelling the context stops the cycle before the next bundle: a bundle in progress is always
// carried through to its commit. The summary then reports the bundles not started and the
// error is status.ErrInterrupted.
func (o *Orchestrator) Run(ctx context.Context) (model.CycleSummary, error) {
	summary := model.CycleSummary{
		StartedAt: o.now().UTC(),
		Bundles:   []model.BundleResult{},
	}
	finish := func(err error) (model.CycleSummary, error) {
		summary.FinishedAt = o.now().UTC()
		if err == nil || errors.Is(err, status.ErrInterrupted) {
			o.metrics.Observe(summary)
		}
		return summary, err
	}

	if err := o.cfg.Validate(); err != nil {
		return finish(err)
	}
	if err := o.fs.MkdirAll(o.cfg.BundledRoot, 0700); err != nil {
		return finish(status.ErrIO.Wrap(fmt.Errorf("creating bundled root: %w", err)))
	}

	scan, err := o.scanner.Scan(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			summary.Interrupted = true
			o.l.Warn("cycle interrupted while scanning", zap.Error(ctxErr))
			return finish(status.ErrInterrupted.Wrap(ctxErr))
		}
		return finish(err)
	}
	summary.UnitsScanned = len(scan.Units) + len(scan.NotReady) + len(scan.Skipped)
	summary.UnitsPending = len(scan.Units)
	summary.Issues = append(summary.Issues, scan.Skipped...)

	plans, err := Plan(scan.Units, o.cfg.MaxBundleSize)
	if err != nil {
		return finish(err)
	}
	summary.Planned = len(plans)
	o.l.Info("bundles planned",
		zap.Int("bundles", len(plans)),
		zap.Int("units", len(scan.Units)),
		zap.Int64("max_size", o.cfg.MaxBundleSize),
	)

	seed, err := ksuid.NewRandomWithTime(summary.StartedAt)
	if err != nil {
		return finish(status.ErrIO.Wrap(err))
	}
	ids := ksuid.Sequence{Seed: seed}

	// bundles in progress are never interrupted
	bundleCtx := context.WithoutCancel(ctx)
	for i, plan := range plans {
		if err = ctx.Err(); err != nil {
			summary.Interrupted = true
			summary.NotStarted = len(plans) - i
			o.l.Warn("cycle interrupted", zap.Int("not_started", summary.NotStarted), zap.Error(err))
			return finish(status.ErrInterrupted.Wrap(err))
		}

		id, err := ids.Next()
		if err != nil {
			return finish(status.ErrIO.Wrap(err))
		}
		result := o.bundle(bundleCtx, id.String(), plan)
		summary.Bundles = append(summary.Bundles, result)
		summary.Issues = append(summary.Issues, result.Issues...)
	}

	o.l.Info("cycle complete",
		zap.Int("bundles", len(summary.Committed())),
		zap.Int("units_moved", summary.UnitsMoved()),
		zap.Int("issues", len(summary.Issues)),
	)
	return finish(nil)
}

// bundle realizes a single plan, isolating its failures from other bundles
func (o *Orchestrator) bundle(ctx context.Context, bundleID string, plan model.BundlePlan) model.BundleResult {
	manifest, err := o.writer.WritePending(ctx, bundleID, plan)
	if err != nil {
		o.l.Error("bundle skipped", zap.String("bundle", bundleID), zap.Error(err))
		return model.BundleResult{
			BundleID: bundleID,
			Moved:    []string{},
			Issues:   issuesFromError(bundleID, err),
		}
	}

	result, err := o.mover.Relocate(ctx, manifest, plan)
	result.Issues = issuesFromError(bundleID, err)
	return result
}
