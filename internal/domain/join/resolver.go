// Package join attributes review events to the submissions they judged.
package join

import (
	"iter"
	"time"

	"github.com/okian/labelaudit/internal/domain/model"
)

// LatestSubmissions keeps, per (entity, label type), the submit event with the
// greatest timestamp. Equal timestamps resolve to the later ingested event.
func LatestSubmissions(submits iter.Seq[model.Event]) map[model.SubmissionKey]model.SubmissionRecord {
	latest := make(map[model.SubmissionKey]model.SubmissionRecord)
	for e := range submits {
		key := model.SubmissionKey{EntityID: e.EntityID, LabelType: e.LabelType}
		if cur, ok := latest[key]; ok && !later(e.OccurredAt, e.Seq, cur.SubmittedAt, cur.Seq) {
			continue
		}
		latest[key] = model.SubmissionFromEvent(e)
	}
	return latest
}

// later reports whether (at, seq) sorts after (curAt, curSeq).
func later(at time.Time, seq int64, curAt time.Time, curSeq int64) bool {
	if !at.Equal(curAt) {
		return at.After(curAt)
	}
	return seq > curSeq
}
