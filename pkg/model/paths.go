package model

import (
	"path"
	"strings"
)

const (
	// ManifestFileName is the final name of a bundle manifest. Readers only consider this name.
	ManifestFileName = "manifest.json"

	// PendingManifestFileName is the name of a manifest until its bundle is committed
	PendingManifestFileName = ".manifest.json.part"

	// DefaultMarkerFileName is the completion marker written last by the exporter
	DefaultMarkerFileName = ".export_complete"

	// DefaultStagingDir is the staging directory under the archive root
	DefaultStagingDir = "export"

	// DefaultBundledDir is the directory of finalized bundles under the archive root
	DefaultBundledDir = "bundled"
)

// GetPathToManifest is the key of a committed manifest, relative to the bundled root
func GetPathToManifest(bundleID string) string {
	return path.Join(bundleID, ManifestFileName)
}

// GetPathToPendingManifest is the key of a not yet committed manifest, relative to the bundled root
func GetPathToPendingManifest(bundleID string) string {
	return path.Join(bundleID, PendingManifestFileName)
}

// GetPathToBundledUnit is the location of a relocated unit, relative to the bundled root
func GetPathToBundledUnit(bundleID, unitID string) string {
	return path.Join(bundleID, unitID)
}

// IsHidden tells if an entry name should never be considered as a unit or a bundle
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
