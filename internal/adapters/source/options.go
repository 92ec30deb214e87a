package source

import (
	"net/http"
	"time"

	"github.com/okian/labelaudit/pkg/logger"
)

// Option applies a configuration option to a File source.
type Option func(*File)

// WithLogger sets the logger used to report unreadable lines.
func WithLogger(l logger.Logger) Option {
	return func(f *File) {
		if l != nil {
			f.logger = l
		}
	}
}

// HTTPOption applies a configuration option to an HTTP source.
type HTTPOption func(*HTTP)

// WithHTTPLogger sets the logger used for retries and paging.
func WithHTTPLogger(l logger.Logger) HTTPOption {
	return func(h *HTTP) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithClient replaces the HTTP client.
func WithClient(c *http.Client) HTTPOption {
	return func(h *HTTP) {
		if c != nil {
			h.client = c
		}
	}
}

// WithCredentialPath sets the file holding the bearer token.
func WithCredentialPath(path string) HTTPOption {
	return func(h *HTTP) { h.credentialPath = path }
}

// WithRetries sets how many times a failed page is retried.
func WithRetries(n int) HTTPOption {
	return func(h *HTTP) {
		if n >= 0 {
			h.retries = n
		}
	}
}

// WithBackoff sets the initial delay between retries; it doubles per attempt.
func WithBackoff(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		if d > 0 {
			h.backoff = d
		}
	}
}
