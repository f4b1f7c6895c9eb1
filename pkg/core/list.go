package core

import (
	"bytes"
	"context"
	"fmt"

	"github.com/oneconcern/gxyarchiver/pkg/core/status"
	"github.com/oneconcern/gxyarchiver/pkg/model"
	"github.com/oneconcern/gxyarchiver/pkg/storage"
)

// BundleState tells whether a bundle directory holds a committed bundle
type BundleState string

const (
	// BundleCommitted bundles have a final manifest
	BundleCommitted BundleState = "committed"

	// BundlePending bundles only have a pending manifest: the bundling of these was interrupted
	BundlePending BundleState = "pending"

	// BundleOrphan directories have no manifest at all
	BundleOrphan BundleState = "orphan"

	// BundleCorrupt bundles have a final manifest which cannot be read
	BundleCorrupt BundleState = "corrupt"
)

// BundleInfo describes a bundle found in the bundled root.
//
// Only committed bundles carry a manifest: pending manifests are never read.
// Corrupt bundles carry the reason why their manifest could not be read.
type BundleInfo struct {
	BundleID string          `json:"bundle_id" yaml:"bundle_id"`
	State    BundleState     `json:"state" yaml:"state"`
	Manifest *model.Manifest `json:"manifest,omitempty" yaml:"manifest,omitempty"`
	Reason   string          `json:"reason,omitempty" yaml:"reason,omitempty"`

	err error
}

// Err returns the integrity error of a corrupt bundle, nil otherwise
func (b BundleInfo) Err() error {
	return b.err
}

// ListBundles lists the bundles in a bundled store, sorted by bundle id, that is, by creation time.
//
// Interrupted bundles are listed too, for operators to review. A bundle with an unreadable manifest
// is listed as corrupt and does not prevent listing the others.
func ListBundles(ctx context.Context, store storage.Store) ([]BundleInfo, error) {
	names, err := store.List(ctx, "")
	if err != nil {
		return nil, status.ErrIO.Wrap(err)
	}
	bundles := make([]BundleInfo, 0, len(names))
	for _, name := range names {
		if model.IsHidden(name) {
			continue
		}
		info, isBundle, err := getBundleInfo(ctx, store, name)
		if err != nil {
			return nil, err
		}
		if isBundle {
			bundles = append(bundles, info)
		}
	}
	return bundles, nil
}

// GetBundle retrieves a committed bundle manifest
func GetBundle(ctx context.Context, store storage.Store, bundleID string) (*model.Manifest, error) {
	info, isBundle, err := getBundleInfo(ctx, store, bundleID)
	if err != nil {
		return nil, err
	}
	if info.State == BundleCorrupt {
		return nil, info.err
	}
	if !isBundle || info.State != BundleCommitted {
		return nil, status.ErrNotFound.Wrap(fmt.Errorf("no committed bundle %s in %v", bundleID, store))
	}
	return info.Manifest, nil
}

func getBundleInfo(ctx context.Context, store storage.Store, name string) (BundleInfo, bool, error) {
	info := BundleInfo{BundleID: name}

	// a plain file is not a bundle
	isFile, err := store.Has(ctx, name)
	if err != nil {
		return info, false, status.ErrIO.Wrap(err)
	}
	if isFile {
		return info, false, nil
	}

	committed, err := store.Has(ctx, model.GetPathToManifest(name))
	if err != nil {
		return info, false, status.ErrIO.Wrap(err)
	}
	if committed {
		data, err := storage.ReadAll(ctx, store, model.GetPathToManifest(name))
		if err != nil {
			return info, false, status.ErrIO.Wrap(err)
		}
		manifest, err := model.ReadManifest(bytes.NewReader(data))
		if err != nil {
			info.State = BundleCorrupt
			info.err = status.ErrIntegrity.Wrap(fmt.Errorf("invalid manifest for bundle %s: %w", name, err))
			info.Reason = info.err.Error()
			return info, true, nil
		}
		info.State = BundleCommitted
		info.Manifest = manifest
		return info, true, nil
	}

	pending, err := store.Has(ctx, model.GetPathToPendingManifest(name))
	if err != nil {
		return info, false, status.ErrIO.Wrap(err)
	}
	if pending {
		info.State = BundlePending
		return info, true, nil
	}

	info.State = BundleOrphan
	return info, true, nil
}
