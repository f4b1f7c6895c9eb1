/*
Package gxyarchiver consolidates exported Galaxy histories into size-bounded bundles.

Histories are exported independently, each into its own directory under a staging area.
gxyarchiver periodically packs the complete ones into bundles suitable for shipment to
a downstream storage tier such as tape: it decides which histories go into which bundle,
records what went in with a manifest, and moves each history into its bundle without
ever losing, duplicating or corrupting one, even when interrupted.

The bundling engine lives in pkg/core, and the command line tool in cmd/gxyarchiver.
*/
package gxyarchiver
