// Package model describes the base objects manipulated by gxyarchiver.
//
// The object model for gxyarchiver is composed of:
//
//  Archive units:
//    A unit is a completed export, e.g. the export of a single history, staged as a
//    directory named after its id. A unit is either staged or bundled, never both.
//
//  Bundle plans:
//    A plan is an ordered, immutable list of units meant to be packed together,
//    not exceeding a maximum size unless it holds a single oversized unit.
//
//  Manifests:
//    A manifest is the durable record of a bundle: the units it holds, with their
//    size, checksum and original location.
//
//  Cycle summaries:
//    A summary reports what a bundling cycle did: bundles committed, units moved,
//    units skipped or flagged.
//
// On disk, an archive root holds:
//
//  export/<unit-id>/...                  staged units
//  bundled/<bundle-id>/manifest.json     committed manifest
//  bundled/<bundle-id>/<unit-id>/...     bundled units
package model
