package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/oneconcern/gxyarchiver/pkg/core/status"
	"github.com/oneconcern/gxyarchiver/pkg/fingerprint"
	"github.com/oneconcern/gxyarchiver/pkg/model"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Scanner enumerates the archive units found in a staging root
type Scanner struct {
	Settings
	fs   afero.Fs
	root string
}

// NewScanner builds a scanner for the units staged under root
func NewScanner(fs afero.Fs, root string, opts ...Option) *Scanner {
	s := &Scanner{
		Settings: newSettings(opts),
		fs:       fs,
		root:     root,
	}
	if s.readiness == nil {
		s.readiness = DefaultMarker
	}
	return s
}

// Scan takes a snapshot of the eligible units in the staging root, ordered by unit id.
//
// Units which are not ready are listed in NotReady. Units which cannot be sized
// (e.g. removed while scanning) are reported as skipped, and the scan goes on.
// Failing to read the staging root itself is an error.
func (s *Scanner) Scan(ctx context.Context) (model.ScanResult, error) {
	result := model.ScanResult{
		ScannedAt: s.now().UTC(),
		Units:     []model.ArchiveUnit{},
	}

	fi, err := s.fs.Stat(s.root)
	switch {
	case os.IsNotExist(err):
		return result, status.ErrConfig.Wrap(fmt.Errorf("staging root %q does not exist", s.root))
	case err != nil:
		return result, status.ErrIO.Wrap(err)
	case !fi.IsDir():
		return result, status.ErrConfig.Wrap(fmt.Errorf("staging root %q is not a directory", s.root))
	}

	infos, err := afero.ReadDir(s.fs, s.root)
	if err != nil {
		return result, status.ErrIO.Wrap(fmt.Errorf("listing staging root %q: %w", s.root, err))
	}

	candidates := make([]model.ArchiveUnit, 0, len(infos))
	for _, info := range infos {
		id := info.Name()
		if model.IsHidden(id) || !info.IsDir() {
			continue
		}
		if id == model.ManifestFileName {
			result.Skipped = append(result.Skipped, unitIssue(id, status.ErrIO.Wrap(fmt.Errorf("%q is a reserved name", id))))
			continue
		}

		unitPath := filepath.Join(s.root, id)
		ready, err := s.readiness.Ready(s.fs, unitPath)
		if err != nil {
			result.Skipped = append(result.Skipped, unitIssue(id, ioError(err)))
			continue
		}
		if !ready {
			s.l.Debug("unit not ready", zap.String("unit", id))
			result.NotReady = append(result.NotReady, id)
			continue
		}
		candidates = append(candidates, model.ArchiveUnit{
			ID:       id,
			Path:     unitPath,
			Complete: true,
			State:    model.Staged,
		})
	}

	sizeErrs := make([]error, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range candidates {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			size, err := fingerprint.TreeSize(s.fs, candidates[i].Path)
			if err != nil {
				sizeErrs[i] = err
				return nil
			}
			candidates[i].Size = size
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return result, err
	}

	for i, unit := range candidates {
		if sizeErrs[i] != nil {
			s.l.Warn("skipping unit", zap.String("unit", unit.ID), zap.Error(sizeErrs[i]))
			result.Skipped = append(result.Skipped, unitIssue(unit.ID, ioError(sizeErrs[i])))
			continue
		}
		result.Units = append(result.Units, unit)
	}
	sort.Slice(result.Units, func(i, j int) bool { return result.Units[i].ID < result.Units[j].ID })

	s.l.Info("scanned staging root",
		zap.String("root", s.root),
		zap.Int("units", len(result.Units)),
		zap.Int("not_ready", len(result.NotReady)),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int64("size", result.TotalSize()),
	)
	return result, nil
}

// ioError qualifies a filesystem error, telling apart units that vanished
func ioError(err error) error {
	if os.IsNotExist(err) {
		return status.ErrUnitVanished.Wrap(err)
	}
	return status.ErrIO.Wrap(err)
}

func unitIssue(id string, err error) model.Issue {
	return model.Issue{Kind: KindOf(err), UnitID: id, Reason: err.Error()}
}
