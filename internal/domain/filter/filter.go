// Package filter selects events of interest from a fetched label log.
package filter

import (
	"fmt"
	"iter"

	"github.com/okian/labelaudit/internal/domain/model"
)

// SkipFunc observes events dropped because they failed validation.
type SkipFunc func(e model.Event, err error)

// Filter yields the events whose action is in a wanted set.
type Filter struct {
	kinds  map[model.ActionKind]struct{}
	onSkip SkipFunc
}

// New creates a Filter for the given action kinds.
func New(kinds []model.ActionKind, opts ...Option) *Filter {
	f := &Filter{
		kinds:  make(map[model.ActionKind]struct{}, len(kinds)),
		onSkip: func(model.Event, error) {},
	}
	for _, k := range kinds {
		f.kinds[k] = struct{}{}
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Wants reports whether the kind passes the filter.
func (f *Filter) Wants(k model.ActionKind) bool {
	_, ok := f.kinds[k]
	return ok
}

// Apply lazily yields matching events in their original order. Malformed
// events are reported to the skip callback and never yielded.
func (f *Filter) Apply(events []model.Event) iter.Seq[model.Event] {
	return func(yield func(model.Event) bool) {
		for _, e := range events {
			if !f.Wants(e.Action) {
				continue
			}
			if err := e.Validate(); err != nil {
				f.onSkip(e, fmt.Errorf("%w: %w", ErrMalformedEvent, err))
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

// Submissions returns a filter for submit actions of the given scope.
func Submissions(scope model.Scope, opts ...Option) *Filter {
	return New(kindsFor(scope, model.ActionKind.IsSubmit), opts...)
}

// Reviews returns a filter for approve/reject actions of the given scope.
func Reviews(scope model.Scope, opts ...Option) *Filter {
	return New(kindsFor(scope, model.ActionKind.IsReview), opts...)
}

func kindsFor(scope model.Scope, pred func(model.ActionKind) bool) []model.ActionKind {
	var out []model.ActionKind
	for k := model.ActionUnknown; k <= model.ActionTaskReject; k++ {
		if k.Known() && k.Scope() == scope && pred(k) {
			out = append(out, k)
		}
	}
	return out
}
