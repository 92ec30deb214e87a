// Package dedupe drops label-log records delivered more than once, e.g. when
// paginated fetches overlap.
package dedupe

import (
	"context"
	"sync"

	"github.com/okian/labelaudit/internal/domain/model"
)

// Deduper records seen event IDs.
type Deduper interface {
	// SeenAndRecord reports whether id was already seen and records it if not.
	SeenAndRecord(ctx context.Context, id string) bool

	Size() int64
}

// inMemoryDeduper keeps seen IDs in a map. With maxSize > 0 the oldest ID is
// forgotten once the limit is reached; with maxSize <= 0 it never forgets.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string // insertion ring, bounded mode only
	next    int
	maxSize int
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{})
	if d.maxSize > 0 {
		d.order = make([]string, 0, d.maxSize)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	if d.maxSize > 0 {
		if len(d.order) < d.maxSize {
			d.order = append(d.order, id)
		} else {
			delete(d.seen, d.order[d.next])
			d.order[d.next] = id
			d.next = (d.next + 1) % d.maxSize
		}
	}
	d.seen[id] = struct{}{}
	return false
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}

// Unique returns events with repeated IDs removed, keeping the first
// occurrence, and the number of duplicates dropped.
func Unique(ctx context.Context, d Deduper, events []model.Event) ([]model.Event, int) {
	out := make([]model.Event, 0, len(events))
	dups := 0
	for _, e := range events {
		if e.EventID != "" && d.SeenAndRecord(ctx, e.EventID) {
			dups++
			continue
		}
		out = append(out, e)
	}
	return out, dups
}
