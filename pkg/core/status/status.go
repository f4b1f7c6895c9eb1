// Package status exports errors produced by the core package.
//
// Errors fall into three families, which drive how a bundling cycle proceeds:
//   - ErrIO: the affected unit or bundle is skipped, the cycle continues
//   - ErrConfig: fatal, the cycle does not start
//   - ErrIntegrity: the bundle is flagged for operator attention, other bundles proceed
//
// More specific errors wrap one of these, so callers may test either level with errors.Is.
package status

import (
	"github.com/oneconcern/gxyarchiver/pkg/errors"
)

var (
	// ErrIO indicates that the filesystem was unavailable, denied access, or that an entry disappeared mid-operation
	ErrIO = errors.New("i/o error")

	// ErrConfig indicates an invalid bundling configuration
	ErrConfig = errors.New("invalid configuration")

	// ErrIntegrity indicates a size or checksum mismatch on a unit
	ErrIntegrity = errors.New("integrity error")

	// ErrMaxBundleSize indicates a non-positive maximum bundle size
	ErrMaxBundleSize = ErrConfig.Wrap(errors.New("max bundle size must be greater than 0"))

	// ErrSizeMismatch indicates that a unit changed size between scan and checksum computation
	ErrSizeMismatch = ErrIntegrity.Wrap(errors.New("unit size changed since scan"))

	// ErrChecksumMismatch indicates that a unit's content differs from its manifest baseline
	ErrChecksumMismatch = ErrIntegrity.Wrap(errors.New("unit checksum does not match manifest"))

	// ErrUnitVanished indicates that a unit disappeared from staging while being processed
	ErrUnitVanished = ErrIO.Wrap(errors.New("unit disappeared"))

	// ErrUnitExists indicates that the destination of a unit move is already taken
	ErrUnitExists = ErrIO.Wrap(errors.New("destination already exists"))

	// ErrInterrupted signals that the cycle was stopped before all planned bundles were processed
	ErrInterrupted = errors.New("bundling cycle interrupted")

	// ErrNotFound indicates that a bundle or manifest was not found
	ErrNotFound = errors.New("not found")
)
