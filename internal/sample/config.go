package sample

import "time"

// Config shapes a synthetic label log.
type Config struct {
	Annotators   int           // annotators submitting labels
	Reviewers    int           // reviewers approving or rejecting
	Objects      int           // labeled objects
	ObjectsPer   int           // objects per data unit (task)
	Labels       []string      // label types to draw from
	Start        time.Time     // first submission
	Span         time.Duration // submissions spread over this window
	ResubmitRate float64       // chance a rejected object is relabeled
	Seed         uint64        // same seed, same log
}

// Default configuration constants.
const (
	DefaultAnnotators   = 12
	DefaultReviewers    = 3
	DefaultObjects      = 500
	DefaultObjectsPer   = 4
	DefaultSpan         = 5 * 24 * time.Hour
	DefaultResubmitRate = 0.6
)

// DefaultConfig returns a config spanning the five days before now.
func DefaultConfig(now time.Time, labels []string) Config {
	return Config{
		Annotators:   DefaultAnnotators,
		Reviewers:    DefaultReviewers,
		Objects:      DefaultObjects,
		ObjectsPer:   DefaultObjectsPer,
		Labels:       labels,
		Start:        now.Add(-DefaultSpan),
		Span:         DefaultSpan,
		ResubmitRate: DefaultResubmitRate,
		Seed:         1,
	}
}
