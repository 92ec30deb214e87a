package service

import (
	"io"
	"time"

	"github.com/okian/labelaudit/internal/domain/join"
	"github.com/okian/labelaudit/internal/domain/types"
	"github.com/okian/labelaudit/pkg/logger"
	"github.com/okian/labelaudit/pkg/metrics"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics manager runs are recorded on.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithMetricsTextfile writes run metrics to path after every run.
func WithMetricsTextfile(path string) Option {
	return func(s *Service) {
		s.metricsTextfile = path
	}
}

// WithClock replaces time.Now, e.g. for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLookback sets how far back events are fetched.
func WithLookback(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.lookback = d
		}
	}
}

// WithOutDir sets the directory CSV reports are written to.
func WithOutDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.outDir = dir
		}
	}
}

// WithStdout sets where the underperformer message is written.
func WithStdout(w io.Writer) Option {
	return func(s *Service) {
		if w != nil {
			s.stdout = w
		}
	}
}

// WithJoinPolicy overrides each report's default join policy.
func WithJoinPolicy(p join.Policy) Option {
	return func(s *Service) {
		s.policy = &p
	}
}

// WithTopN sets how many annotators are listed per label.
func WithTopN(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topN = n
		}
	}
}

// WithLabels sets the catalogue of watched label types.
func WithLabels(labels []types.LabelOfInterest) Option {
	return func(s *Service) {
		if len(labels) > 0 {
			s.labels = labels
		}
	}
}
