package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/okian/labelaudit/internal/domain/model"
	"github.com/okian/labelaudit/pkg/logger"
)

const (
	defaultTimeout = 30 * time.Second
	defaultRetries = 3
	defaultBackoff = 500 * time.Millisecond
	maxPages       = 10_000
)

// page is one response of the label-log endpoint.
type page struct {
	Logs          []RawLog `json:"logs"`
	NextPageToken string   `json:"next_page_token"`
}

// HTTP pages through GET <base>/projects/<id>/label-logs.
type HTTP struct {
	baseURL        string
	projectID      string
	credentialPath string
	client         *http.Client
	retries        int
	backoff        time.Duration
	logger         logger.Logger
}

// NewHTTP creates an HTTP source for one project.
func NewHTTP(baseURL, projectID string, opts ...HTTPOption) *HTTP {
	h := &HTTP{
		baseURL:   strings.TrimRight(baseURL, "/"),
		projectID: projectID,
		client:    &http.Client{Timeout: defaultTimeout},
		retries:   defaultRetries,
		backoff:   defaultBackoff,
		logger:    logger.Get().Named("source"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// retryable marks failures worth another attempt.
type retryable struct{ err error }

func (r retryable) Error() string { return r.err.Error() }
func (r retryable) Unwrap() error { return r.err }

// Fetch reads every page of events created after since.
func (h *HTTP) Fetch(ctx context.Context, since time.Time) ([]model.Event, error) {
	token, err := h.token()
	if err != nil {
		return nil, err
	}

	var events []model.Event
	next := ""
	for n := 0; n < maxPages; n++ {
		p, err := h.fetchPage(ctx, token, since, next)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %w", ErrFetch, n, err)
		}
		for _, r := range p.Logs {
			e := r.Event(int64(len(events)))
			if inWindow(e, since) {
				events = append(events, e)
			}
		}
		h.logger.Debug(ctx, "fetched page", logger.Int("page", n), logger.Int("logs", len(p.Logs)))
		if p.NextPageToken == "" {
			return events, nil
		}
		next = p.NextPageToken
	}
	return nil, fmt.Errorf("%w: more than %d pages", ErrFetch, maxPages)
}

func (h *HTTP) token() (string, error) {
	if h.credentialPath == "" {
		return "", nil
	}
	b, err := os.ReadFile(h.credentialPath)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCredentials, err)
	}
	return strings.TrimSpace(string(b)), nil
}

func (h *HTTP) fetchPage(ctx context.Context, token string, since time.Time, pageToken string) (page, error) {
	wait := h.backoff
	for attempt := 0; ; attempt++ {
		p, err := h.get(ctx, token, since, pageToken)
		var rerr retryable
		if err == nil || !errors.As(err, &rerr) || attempt >= h.retries {
			return p, err
		}
		h.logger.Warn(ctx, "retrying label-log page",
			logger.Int("attempt", attempt+1),
			logger.Duration("wait", wait),
			logger.Error(err),
		)
		select {
		case <-ctx.Done():
			return page{}, ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
}

func (h *HTTP) get(ctx context.Context, token string, since time.Time, pageToken string) (page, error) {
	q := url.Values{}
	q.Set("after", since.UTC().Format(time.RFC3339))
	if pageToken != "" {
		q.Set("page_token", pageToken)
	}
	u := fmt.Sprintf("%s/projects/%s/label-logs?%s", h.baseURL, url.PathEscape(h.projectID), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return page{}, err
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return page{}, err
		}
		return page{}, retryable{err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			return page{}, retryable{err}
		}
		return page{}, err
	}

	var p page
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return page{}, fmt.Errorf("decode page: %w", err)
	}
	return p, nil
}
