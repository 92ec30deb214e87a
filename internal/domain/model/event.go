// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"strings"
	"time"
)

// Validation errors reported for malformed events.
var (
	ErrMissingEventID   = errors.New("missing event id")
	ErrMissingActor     = errors.New("missing actor email")
	ErrMissingEntity    = errors.New("missing entity id")
	ErrMissingTimestamp = errors.New("missing timestamp")
	ErrMissingLabelType = errors.New("missing label type")
	ErrUnknownAction    = errors.New("unknown action")
)

// Event is one immutable label-log record.
type Event struct {
	EventID    string     // log hash
	ActorEmail string     // who performed the action
	EntityID   string     // label identifier, or data hash for task actions
	DataID     string     // data unit the entity belongs to
	Action     ActionKind // closed action enumeration
	OccurredAt time.Time
	LabelType  string // empty for task-level actions
	Frame      *int   // set for frame-level labels
	Seq        int64  // ingestion order within a fetch
}

// Validate reports the first missing required field.
func (e Event) Validate() error {
	switch {
	case !e.Action.Known():
		return ErrUnknownAction
	case strings.TrimSpace(e.EventID) == "":
		return ErrMissingEventID
	case strings.TrimSpace(e.ActorEmail) == "":
		return ErrMissingActor
	case strings.TrimSpace(e.EntityID) == "":
		return ErrMissingEntity
	case e.OccurredAt.IsZero():
		return ErrMissingTimestamp
	case e.Action.Scope() == ScopeLabel && strings.TrimSpace(e.LabelType) == "":
		return ErrMissingLabelType
	}
	return nil
}

// Before orders events by time, then by ingestion order.
func (e Event) Before(o Event) bool {
	if !e.OccurredAt.Equal(o.OccurredAt) {
		return e.OccurredAt.Before(o.OccurredAt)
	}
	return e.Seq < o.Seq
}
