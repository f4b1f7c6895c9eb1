package metrics

// Option defines some options to the metrics initialization
type Option func(*settings)

type settings struct {
	namespace string
	labels    map[string]string
}

func defaultSettings() settings {
	return settings{
		namespace: "gxyarchiver",
	}
}

// WithNamespace defines the prefix of all registered metric names. The default is "gxyarchiver".
func WithNamespace(ns string) Option {
	return func(s *settings) {
		if ns != "" {
			s.namespace = ns
		}
	}
}

// WithLabels sets constant labels on all metrics, e.g. the archive root being served
func WithLabels(labels map[string]string) Option {
	return func(s *settings) {
		s.labels = labels
	}
}
