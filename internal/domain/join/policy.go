package join

import (
	"fmt"
	"strings"
)

// Policy selects how reviews are matched to submissions.
type Policy int

const (
	// LabelKeyed matches on (entity, label type) and takes the latest
	// submission regardless of when the review happened.
	LabelKeyed Policy = iota
	// TimeOrdered matches on entity only, takes the latest submission strictly
	// before the review and keeps the last review per submission.
	TimeOrdered
)

func (p Policy) String() string {
	switch p {
	case LabelKeyed:
		return "label-keyed"
	case TimeOrdered:
		return "time-ordered"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy accepts "label-keyed" or "time-ordered" (case-insensitive).
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "label-keyed", "label_keyed", "label":
		return LabelKeyed, nil
	case "time-ordered", "time_ordered", "time":
		return TimeOrdered, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}
