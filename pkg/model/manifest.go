package model

import (
	"io"
	"time"

	jsoniter "github.com/json-iterator/go"
)

const (
	// CurrentManifestVersion is the version of the manifest format written by this package
	CurrentManifestVersion = 1
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Manifest is the durable record of a realized bundle.
//
// It is the single source of truth for what a bundle contains.
type Manifest struct {
	BundleID  string          `json:"bundle_id" yaml:"bundle_id"`
	CreatedAt time.Time       `json:"created_at" yaml:"created_at"`
	TotalSize int64           `json:"total_size" yaml:"total_size"`
	Version   uint64          `json:"version,omitempty" yaml:"version,omitempty"`
	Units     []ManifestEntry `json:"units" yaml:"units"`
	_         struct{}
}

// ManifestEntry describes one unit in a bundle
type ManifestEntry struct {
	ID         string `json:"id" yaml:"id"`
	Size       int64  `json:"size" yaml:"size"`
	Checksum   string `json:"checksum" yaml:"checksum"`
	SourcePath string `json:"source_path" yaml:"source_path"`
	_          struct{}
}

// NewManifest builds an empty manifest for a bundle
func NewManifest(bundleID string, createdAt time.Time) *Manifest {
	return &Manifest{
		BundleID:  bundleID,
		CreatedAt: createdAt.UTC(),
		Version:   CurrentManifestVersion,
		Units:     []ManifestEntry{},
	}
}

// Add appends a unit entry and updates the total size
func (m *Manifest) Add(e ManifestEntry) {
	m.Units = append(m.Units, e)
	m.TotalSize += e.Size
}

// Entry looks up the entry for a unit
func (m *Manifest) Entry(id string) (ManifestEntry, bool) {
	for _, e := range m.Units {
		if e.ID == id {
			return e, true
		}
	}
	return ManifestEntry{}, false
}

// IDs of the units in the manifest, in order
func (m *Manifest) IDs() []string {
	ids := make([]string, 0, len(m.Units))
	for _, e := range m.Units {
		ids = append(ids, e.ID)
	}
	return ids
}

// Without returns a copy of the manifest which no longer lists the given units
func (m *Manifest) Without(ids ...string) *Manifest {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	c := NewManifest(m.BundleID, m.CreatedAt)
	c.Version = m.Version
	for _, e := range m.Units {
		if _, found := drop[e.ID]; found {
			continue
		}
		c.Add(e)
	}
	return c
}

// MarshalManifest renders a manifest as indented JSON
func MarshalManifest(m *Manifest) ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// ReadManifest decodes a manifest from a reader
func ReadManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}
