package model

import (
	"sort"
	"time"
)

// IssueKind classifies failures reported in a cycle summary
type IssueKind string

const (
	// IssueIO is a filesystem failure: the unit or bundle was skipped and stays in staging
	IssueIO IssueKind = "io"

	// IssueIntegrity is a checksum or size mismatch, which requires operator attention
	IssueIntegrity IssueKind = "integrity"
)

// Issue reports a unit or bundle which could not be processed cleanly.
//
// UnitID is empty when the issue concerns a whole bundle.
type Issue struct {
	Kind     IssueKind `json:"kind" yaml:"kind"`
	BundleID string    `json:"bundle_id,omitempty" yaml:"bundle_id,omitempty"`
	UnitID   string    `json:"unit_id,omitempty" yaml:"unit_id,omitempty"`
	Reason   string    `json:"reason" yaml:"reason"`
}

// BundleResult is the outcome of writing and relocating a single planned bundle.
//
// Units holds the moved units at their location in the bundle, in the Bundled state.
type BundleResult struct {
	BundleID  string        `json:"bundle_id" yaml:"bundle_id"`
	Committed bool          `json:"committed" yaml:"committed"`
	TotalSize int64         `json:"total_size" yaml:"total_size"`
	Moved     []string      `json:"moved" yaml:"moved"`
	Units     []ArchiveUnit `json:"units,omitempty" yaml:"units,omitempty"`
	Issues    []Issue       `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// CycleSummary reports what a bundling cycle did
type CycleSummary struct {
	StartedAt    time.Time      `json:"started_at" yaml:"started_at"`
	FinishedAt   time.Time      `json:"finished_at" yaml:"finished_at"`
	UnitsScanned int            `json:"units_scanned" yaml:"units_scanned"`
	UnitsPending int            `json:"units_pending" yaml:"units_pending"`
	Planned      int            `json:"planned" yaml:"planned"`
	Bundles      []BundleResult `json:"bundles" yaml:"bundles"`
	Issues       []Issue        `json:"issues,omitempty" yaml:"issues,omitempty"`
	Interrupted  bool           `json:"interrupted,omitempty" yaml:"interrupted,omitempty"`
	NotStarted   int            `json:"not_started,omitempty" yaml:"not_started,omitempty"`
}

// Committed returns the ids of the bundles finalized during the cycle
func (s CycleSummary) Committed() []string {
	ids := make([]string, 0, len(s.Bundles))
	for _, b := range s.Bundles {
		if b.Committed {
			ids = append(ids, b.BundleID)
		}
	}
	return ids
}

// UnitsMoved counts units relocated into a committed bundle
func (s CycleSummary) UnitsMoved() int {
	var n int
	for _, b := range s.Bundles {
		if b.Committed {
			n += len(b.Moved)
		}
	}
	return n
}

// Filter issues by kind
func (s CycleSummary) Filter(kind IssueKind) []Issue {
	var issues []Issue
	for _, issue := range s.Issues {
		if issue.Kind == kind {
			issues = append(issues, issue)
		}
	}
	return issues
}

// HasIntegrityFailures tells if any unit or bundle was flagged with a mismatch
func (s CycleSummary) HasIntegrityFailures() bool {
	return len(s.Filter(IssueIntegrity)) > 0
}

// FlaggedIDs returns the sorted, deduplicated ids of units and bundles flagged during the cycle
func (s CycleSummary) FlaggedIDs() []string {
	seen := make(map[string]struct{})
	for _, issue := range s.Issues {
		if issue.UnitID != "" {
			seen[issue.UnitID] = struct{}{}
			continue
		}
		if issue.BundleID != "" {
			seen[issue.BundleID] = struct{}{}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
