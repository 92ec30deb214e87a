package model

import "time"

// SubmissionKey identifies the unit a submission is resolved for.
type SubmissionKey struct {
	EntityID  string
	LabelType string
}

// SubmissionRecord is the submit event a review is attributed to.
type SubmissionRecord struct {
	EventID     string
	EntityID    string
	DataID      string
	LabelType   string
	Annotator   string
	SubmittedAt time.Time
	Seq         int64
}

// SubmissionFromEvent projects a submit event.
func SubmissionFromEvent(e Event) SubmissionRecord {
	return SubmissionRecord{
		EventID:     e.EventID,
		EntityID:    e.EntityID,
		DataID:      e.DataID,
		LabelType:   e.LabelType,
		Annotator:   e.ActorEmail,
		SubmittedAt: e.OccurredAt,
		Seq:         e.Seq,
	}
}

// ReviewOutcome pairs a review with the submission it judged.
type ReviewOutcome struct {
	EntityID    string
	DataID      string
	Annotator   string
	Reviewer    string
	LabelType   string
	Outcome     Outcome
	SubmittedAt time.Time
	ReviewedAt  time.Time
	Seq         int64
}

// Turnaround is the time between submission and review.
func (r ReviewOutcome) Turnaround() time.Duration {
	return r.ReviewedAt.Sub(r.SubmittedAt)
}

// AnnotatorMetric aggregates review outcomes for one annotator and label type.
// LabelType is empty for task-level aggregates.
type AnnotatorMetric struct {
	Annotator       string
	LabelType       string
	Approves        int
	Rejects         int
	TotalTurnaround time.Duration
}

// Reviews is the number of approvals plus rejections.
func (m AnnotatorMetric) Reviews() int { return m.Approves + m.Rejects }

// RejectionRate returns rejects/(approves+rejects). ok is false with no reviews.
func (m AnnotatorMetric) RejectionRate() (rate float64, ok bool) {
	n := m.Reviews()
	if n == 0 {
		return 0, false
	}
	return float64(m.Rejects) / float64(n), true
}

// MeanTurnaround averages submit-to-review time. ok is false with no reviews.
func (m AnnotatorMetric) MeanTurnaround() (time.Duration, bool) {
	n := m.Reviews()
	if n == 0 {
		return 0, false
	}
	return m.TotalTurnaround / time.Duration(n), true
}
