package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oneconcern/gxyarchiver/pkg/core/status"
	"github.com/oneconcern/gxyarchiver/pkg/errors"
	"github.com/oneconcern/gxyarchiver/pkg/fingerprint"
	"github.com/oneconcern/gxyarchiver/pkg/model"
	"github.com/oneconcern/gxyarchiver/pkg/storage"
	"github.com/oneconcern/gxyarchiver/pkg/storage/localfs"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// VerifyReport is the outcome of checking a committed bundle against its manifest
type VerifyReport struct {
	BundleID string        `json:"bundle_id" yaml:"bundle_id"`
	Checked  int           `json:"checked" yaml:"checked"`
	Issues   []model.Issue `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// OK tells if the bundle content matches its manifest
func (r VerifyReport) OK() bool {
	return len(r.Issues) == 0
}

// Verifier checks committed bundles against their manifests
type Verifier struct {
	Settings
	fs          afero.Fs
	bundledRoot string
	store       storage.Store
	maker       *fingerprint.Maker
}

// NewVerifier builds a verifier for the bundles under bundledRoot
func NewVerifier(fs afero.Fs, bundledRoot string, opts ...Option) *Verifier {
	v := &Verifier{
		Settings:    newSettings(opts),
		fs:          fs,
		bundledRoot: bundledRoot,
		store:       localfs.New(afero.NewBasePathFs(fs, bundledRoot)),
	}
	v.maker = newMaker(fs, v.Settings)
	return v
}

// Verify recomputes the checksum of every unit in a committed bundle.
//
// Missing units, unlisted entries, mismatches and an unreadable manifest are all reported as integrity issues.
func (v *Verifier) Verify(ctx context.Context, bundleID string) (VerifyReport, error) {
	report := VerifyReport{BundleID: bundleID}
	manifest, err := GetBundle(ctx, v.store, bundleID)
	if errors.Is(err, status.ErrIntegrity) {
		report.Issues = append(report.Issues, model.Issue{Kind: model.IssueIntegrity, BundleID: bundleID, Reason: err.Error()})
		v.l.Error("bundle failed verification", zap.String("bundle", bundleID), zap.Error(err))
		return report, nil
	}
	if err != nil {
		return report, err
	}

	bundleDir := filepath.Join(v.bundledRoot, bundleID)
	issues := make([]*model.Issue, len(manifest.Units))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.concurrency)
	for i := range manifest.Units {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			entry := manifest.Units[i]
			digest, err := v.maker.Tree(gctx, filepath.Join(v.bundledRoot, model.GetPathToBundledUnit(bundleID, entry.ID)))
			if err != nil {
				if os.IsNotExist(err) {
					err = status.ErrIntegrity.Wrap(fmt.Errorf("unit is missing from bundle: %w", err))
				} else {
					err = status.ErrIO.Wrap(err)
				}
			} else {
				err = checkEntry(entry, digest)
			}
			if err != nil {
				issues[i] = &model.Issue{Kind: KindOf(err), BundleID: bundleID, UnitID: entry.ID, Reason: err.Error()}
			}
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return report, err
	}
	for _, issue := range issues {
		if issue != nil {
			report.Issues = append(report.Issues, *issue)
		}
	}
	report.Checked = len(manifest.Units)

	infos, err := afero.ReadDir(v.fs, bundleDir)
	if err != nil {
		return report, status.ErrIO.Wrap(err)
	}
	for _, info := range infos {
		if model.IsHidden(info.Name()) || info.Name() == model.ManifestFileName {
			continue
		}
		if _, listed := manifest.Entry(info.Name()); !listed {
			err := status.ErrIntegrity.Wrap(fmt.Errorf("entry is not listed in the manifest"))
			report.Issues = append(report.Issues, model.Issue{
				Kind: model.IssueIntegrity, BundleID: bundleID, UnitID: info.Name(), Reason: err.Error(),
			})
		}
	}

	if report.OK() {
		v.l.Info("bundle verified", zap.String("bundle", bundleID), zap.Int("units", report.Checked))
	} else {
		v.l.Error("bundle failed verification", zap.String("bundle", bundleID), zap.Int("issues", len(report.Issues)))
	}
	return report, nil
}

// VerifyAll verifies every committed bundle. Pending and orphan bundles are ignored.
//
// A bundle that cannot be checked gets a failed report, and verification proceeds with the next one.
func (v *Verifier) VerifyAll(ctx context.Context) ([]VerifyReport, error) {
	bundles, err := ListBundles(ctx, v.store)
	if err != nil {
		return nil, err
	}
	reports := make([]VerifyReport, 0, len(bundles))
	for _, b := range bundles {
		if b.State != BundleCommitted && b.State != BundleCorrupt {
			continue
		}
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		report, err := v.Verify(ctx, b.BundleID)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return reports, ctxErr
			}
			report.Issues = append(report.Issues, model.Issue{Kind: KindOf(err), BundleID: b.BundleID, Reason: err.Error()})
		}
		reports = append(reports, report)
	}
	return reports, nil
}
