package core

import (
	"fmt"

	"github.com/oneconcern/gxyarchiver/pkg/core/status"
	"github.com/oneconcern/gxyarchiver/pkg/fingerprint"
	"github.com/oneconcern/gxyarchiver/pkg/model"
)

// checkScanned compares the content observed while checksumming a unit with its size at scan time.
//
// It returns nil when they agree.
func checkScanned(unit model.ArchiveUnit, digest fingerprint.Digest) error {
	if digest.Size != unit.Size {
		return status.ErrSizeMismatch.Wrap(fmt.Errorf("expected %d bytes, got %d", unit.Size, digest.Size))
	}
	return nil
}

// checkEntry compares the digest of a unit with its manifest baseline.
//
// It returns nil when they agree.
func checkEntry(entry model.ManifestEntry, digest fingerprint.Digest) error {
	if digest.Size != entry.Size {
		return status.ErrSizeMismatch.Wrap(fmt.Errorf("expected %d bytes, got %d", entry.Size, digest.Size))
	}
	if sum := digest.String(); sum != entry.Checksum {
		return status.ErrChecksumMismatch.Wrap(fmt.Errorf("expected %s, got %s", entry.Checksum, sum))
	}
	return nil
}
