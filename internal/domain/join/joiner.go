package join

import (
	"iter"
	"sort"

	"github.com/okian/labelaudit/internal/domain/model"
)

// Result holds the joined outcomes of one run.
type Result struct {
	Outcomes []model.ReviewOutcome
	// Dropped counts reviews with no preceding submission in the window.
	Dropped int
	// Superseded counts reviews replaced by a later review of the same
	// submission (time-ordered policy only).
	Superseded int
}

// Joiner pairs reviews with submissions under a Policy.
type Joiner struct {
	policy Policy
}

// New creates a Joiner.
func New(policy Policy) *Joiner {
	return &Joiner{policy: policy}
}

// Policy returns the configured join policy.
func (j *Joiner) Policy() Policy { return j.policy }

// Join matches every review to a submission. Outcomes are ordered by review
// time, then ingestion order.
func (j *Joiner) Join(submits, reviews iter.Seq[model.Event]) Result {
	var res Result
	switch j.policy {
	case TimeOrdered:
		res = joinTimeOrdered(submits, reviews)
	default:
		res = joinLabelKeyed(submits, reviews)
	}
	sort.Slice(res.Outcomes, func(a, b int) bool {
		x, y := res.Outcomes[a], res.Outcomes[b]
		if !x.ReviewedAt.Equal(y.ReviewedAt) {
			return x.ReviewedAt.Before(y.ReviewedAt)
		}
		return x.Seq < y.Seq
	})
	return res
}

func joinLabelKeyed(submits, reviews iter.Seq[model.Event]) Result {
	latest := LatestSubmissions(submits)
	var res Result
	for r := range reviews {
		sub, ok := latest[model.SubmissionKey{EntityID: r.EntityID, LabelType: r.LabelType}]
		if !ok {
			res.Dropped++
			continue
		}
		res.Outcomes = append(res.Outcomes, outcome(sub, r))
	}
	return res
}

// pairKey identifies one submission; Seq alone is not enough when callers
// leave it unset.
type pairKey struct {
	entity  string
	eventID string
	at      int64
	seq     int64
}

func joinTimeOrdered(submits, reviews iter.Seq[model.Event]) Result {
	byEntity := make(map[string][]model.SubmissionRecord)
	for e := range submits {
		byEntity[e.EntityID] = append(byEntity[e.EntityID], model.SubmissionFromEvent(e))
	}
	for _, subs := range byEntity {
		sort.Slice(subs, func(a, b int) bool {
			return later(subs[b].SubmittedAt, subs[b].Seq, subs[a].SubmittedAt, subs[a].Seq)
		})
	}

	var res Result
	pairs := make(map[pairKey]model.ReviewOutcome)
	for r := range reviews {
		subs := byEntity[r.EntityID]
		// first submission at or after the review; the one before it qualifies
		i := sort.Search(len(subs), func(i int) bool {
			return !subs[i].SubmittedAt.Before(r.OccurredAt)
		})
		if i == 0 {
			res.Dropped++
			continue
		}
		sub := subs[i-1]
		key := pairKey{entity: sub.EntityID, eventID: sub.EventID, at: sub.SubmittedAt.UnixNano(), seq: sub.Seq}
		if cur, ok := pairs[key]; ok {
			res.Superseded++
			if !later(r.OccurredAt, r.Seq, cur.ReviewedAt, cur.Seq) {
				continue
			}
		}
		pairs[key] = outcome(sub, r)
	}

	res.Outcomes = make([]model.ReviewOutcome, 0, len(pairs))
	for _, o := range pairs {
		res.Outcomes = append(res.Outcomes, o)
	}
	return res
}

func outcome(sub model.SubmissionRecord, review model.Event) model.ReviewOutcome {
	dataID := review.DataID
	if dataID == "" {
		dataID = sub.DataID
	}
	return model.ReviewOutcome{
		EntityID:    review.EntityID,
		DataID:      dataID,
		Annotator:   sub.Annotator,
		Reviewer:    review.ActorEmail,
		LabelType:   review.LabelType,
		Outcome:     review.Action.Outcome(),
		SubmittedAt: sub.SubmittedAt,
		ReviewedAt:  review.OccurredAt,
		Seq:         review.Seq,
	}
}
