// Package config describes the configuration of the bundling engine.
package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	units "github.com/docker/go-units"
	"github.com/oneconcern/gxyarchiver/pkg/core/status"
	"github.com/oneconcern/gxyarchiver/pkg/model"
)

const (
	// DefaultMaxBundleSize is the default upper bound of a bundle, as a human readable size
	DefaultMaxBundleSize = "300GB"
)

// Settings is the configuration as read from flags, environment and config file.
//
// Sizes are human readable strings (e.g. "300GB", binary units).
type Settings struct {
	Root          string `mapstructure:"root" json:"root,omitempty" yaml:"root,omitempty"`
	StagingRoot   string `mapstructure:"staging_root" json:"staging_root,omitempty" yaml:"staging_root,omitempty"`
	BundledRoot   string `mapstructure:"bundled_root" json:"bundled_root,omitempty" yaml:"bundled_root,omitempty"`
	MaxBundleSize string `mapstructure:"max_bundle_size" json:"max_bundle_size,omitempty" yaml:"max_bundle_size,omitempty"`
	Marker        string `mapstructure:"marker" json:"marker,omitempty" yaml:"marker,omitempty"`
	Concurrency   int    `mapstructure:"concurrency" json:"concurrency,omitempty" yaml:"concurrency,omitempty"`
	MetricsFile   string `mapstructure:"metrics_file" json:"metrics_file,omitempty" yaml:"metrics_file,omitempty"`
	LogLevel      string `mapstructure:"log_level" json:"log_level,omitempty" yaml:"log_level,omitempty"`
	LogEncoding   string `mapstructure:"log_encoding" json:"log_encoding,omitempty" yaml:"log_encoding,omitempty"`
}

// Defaults returns the settings used when nothing is configured
func Defaults() Settings {
	return Settings{
		MaxBundleSize: DefaultMaxBundleSize,
		Marker:        model.DefaultMarkerFileName,
		Concurrency:   runtime.NumCPU(),
		LogLevel:      "info",
		LogEncoding:   "console",
	}
}

// Engine is the resolved configuration recognized by the bundling engine
type Engine struct {
	MaxBundleSize int64  `json:"max_bundle_size" yaml:"max_bundle_size"`
	StagingRoot   string `json:"staging_root" yaml:"staging_root"`
	BundledRoot   string `json:"bundled_root" yaml:"bundled_root"`
	Marker        string `json:"marker" yaml:"marker"`
	Concurrency   int    `json:"concurrency" yaml:"concurrency"`
}

// Engine resolves the settings into an engine configuration.
//
// When a root is set, the staging and bundled roots default to <root>/export and <root>/bundled.
func (s Settings) Engine() (Engine, error) {
	e := Engine{
		StagingRoot: s.StagingRoot,
		BundledRoot: s.BundledRoot,
		Marker:      s.Marker,
		Concurrency: s.Concurrency,
	}
	if s.Root != "" {
		if e.StagingRoot == "" {
			e.StagingRoot = filepath.Join(s.Root, model.DefaultStagingDir)
		}
		if e.BundledRoot == "" {
			e.BundledRoot = filepath.Join(s.Root, model.DefaultBundledDir)
		}
	}
	if e.Marker == "" {
		e.Marker = model.DefaultMarkerFileName
	}
	if e.Concurrency == 0 {
		e.Concurrency = 1
	}
	size, err := ParseSize(s.MaxBundleSize)
	if err != nil {
		return Engine{}, err
	}
	e.MaxBundleSize = size
	return e, e.Validate()
}

// ParseSize parses a human readable size such as "300GB" or "1000" (bytes)
func ParseSize(size string) (int64, error) {
	if strings.TrimSpace(size) == "" {
		return 0, status.ErrMaxBundleSize
	}
	n, err := units.RAMInBytes(strings.TrimSpace(size))
	if err != nil {
		return 0, status.ErrConfig.Wrap(fmt.Errorf("invalid size %q: %w", size, err))
	}
	return n, nil
}

// Validate the engine configuration. All errors match status.ErrConfig.
func (e Engine) Validate() error {
	if e.MaxBundleSize <= 0 {
		return status.ErrMaxBundleSize.Wrap(fmt.Errorf("got %d", e.MaxBundleSize))
	}
	if e.StagingRoot == "" {
		return status.ErrConfig.Wrap(fmt.Errorf("staging root is required"))
	}
	if e.BundledRoot == "" {
		return status.ErrConfig.Wrap(fmt.Errorf("bundled root is required"))
	}
	if e.Concurrency < 1 {
		return status.ErrConfig.Wrap(fmt.Errorf("concurrency must be at least 1, got %d", e.Concurrency))
	}
	if strings.ContainsRune(e.Marker, filepath.Separator) || e.Marker == "." || e.Marker == ".." {
		return status.ErrConfig.Wrap(fmt.Errorf("marker must be a plain file name, got %q", e.Marker))
	}
	staging, err := filepath.Abs(e.StagingRoot)
	if err != nil {
		return status.ErrConfig.Wrap(err)
	}
	bundled, err := filepath.Abs(e.BundledRoot)
	if err != nil {
		return status.ErrConfig.Wrap(err)
	}
	if isWithin(staging, bundled) || isWithin(bundled, staging) {
		return status.ErrConfig.Wrap(fmt.Errorf("staging root %q and bundled root %q must be distinct and not nested", staging, bundled))
	}
	return nil
}

// isWithin tells if path is parent or equal to other
func isWithin(parent, other string) bool {
	rel, err := filepath.Rel(parent, other)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
