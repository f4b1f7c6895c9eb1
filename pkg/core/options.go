package core

import (
	"runtime"
	"time"

	"github.com/oneconcern/gxyarchiver/pkg/metrics"
	"go.uber.org/zap"
)

// Option sets options shared by the components of the bundling engine
type Option func(*Settings)

// Settings defines various settings for core features
type Settings struct {
	l           *zap.Logger
	concurrency int
	leafSize    int64
	readiness   Readiness
	now         func() time.Time
	metrics     *metrics.Cycle
}

var (
	defaultConcurrency = runtime.NumCPU()
)

// Logger injects a logging facility into core operations
func Logger(l *zap.Logger) Option {
	return func(s *Settings) {
		if l != nil {
			s.l = l
		}
	}
}

// Concurrency sets how many units are checksummed in parallel. It defaults to #cpus.
//
// This only affects read-only phases: units are always moved one at a time.
func Concurrency(n int) Option {
	return func(s *Settings) {
		if n <= 0 {
			s.concurrency = defaultConcurrency
			return
		}
		s.concurrency = n
	}
}

// LeafSize sets the read buffer size used when checksumming unit content
func LeafSize(sz int64) Option {
	return func(s *Settings) {
		s.leafSize = sz
	}
}

// WithReadiness overrides the signal used to decide that a staged unit is complete
func WithReadiness(r Readiness) Option {
	return func(s *Settings) {
		if r != nil {
			s.readiness = r
		}
	}
}

// Clock overrides the time source, for manifests timestamps and cycle summaries
func Clock(now func() time.Time) Option {
	return func(s *Settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMetrics records cycle metrics
func WithMetrics(m *metrics.Cycle) Option {
	return func(s *Settings) {
		s.metrics = m
	}
}

func defaultSettings() Settings {
	return Settings{
		l:           zap.NewNop(),
		concurrency: defaultConcurrency,
		now:         time.Now,
	}
}

func newSettings(opts []Option) Settings {
	s := defaultSettings()
	for _, apply := range opts {
		apply(&s)
	}
	return s
}
