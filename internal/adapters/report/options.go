package report

import "github.com/okian/labelaudit/pkg/logger"

// Option applies a configuration option to a CSV writer.
type Option func(*CSV)

// WithLogger sets the logger used to announce written files.
func WithLogger(l logger.Logger) Option {
	return func(c *CSV) {
		if l != nil {
			c.logger = l
		}
	}
}
