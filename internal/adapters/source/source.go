// Package source reads label-log events from the labeling platform boundary.
package source

import (
	"context"
	"strings"
	"time"

	"github.com/okian/labelaudit/internal/domain/model"
)

// Source provides the label log of one project since a point in time.
type Source interface {
	// Fetch returns events in delivery order with Seq assigned. Errors are
	// fatal for the run.
	Fetch(ctx context.Context, since time.Time) ([]model.Event, error)
}

// RawLog mirrors one label-log line as served by the platform.
type RawLog struct {
	LogHash     string   `json:"log_hash"`
	UserHash    string   `json:"user_hash"`
	UserEmail   string   `json:"user_email"`
	DataHash    string   `json:"data_hash"`
	Action      *int     `json:"action"`
	CreatedAt   string   `json:"created_at"`
	Identifier  string   `json:"identifier"`
	FeatureHash string   `json:"feature_hash"`
	LabelName   string   `json:"label_name"`
	TimeTaken   *float64 `json:"time_taken"`
	Frame       *int     `json:"frame"`
}

// timestamp layouts seen in exports, most specific first.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999-07:00",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
}

// parseTime returns the zero time for values it cannot read; such events are
// rejected later by validation.
func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// Event converts the raw line. Task actions are keyed by data hash, label
// actions by label identifier.
func (r RawLog) Event(seq int64) model.Event {
	action := model.ActionUnknown
	if r.Action != nil {
		action = model.ActionFromCode(*r.Action)
	}
	entity := r.Identifier
	if action.Scope() == model.ScopeTask {
		entity = r.DataHash
	}
	return model.Event{
		EventID:    r.LogHash,
		ActorEmail: strings.TrimSpace(r.UserEmail),
		EntityID:   entity,
		DataID:     r.DataHash,
		Action:     action,
		OccurredAt: parseTime(r.CreatedAt),
		LabelType:  r.LabelName,
		Frame:      r.Frame,
		Seq:        seq,
	}
}

// inWindow keeps undated events so validation can report them.
func inWindow(e model.Event, since time.Time) bool {
	return e.OccurredAt.IsZero() || !e.OccurredAt.Before(since)
}
