// Package aggregate turns joined review outcomes into per-annotator metrics.
package aggregate

import (
	"math"
	"sort"

	"github.com/okian/labelaudit/internal/domain/model"
)

// DisplayDigits is the precision used for reported rates.
const DisplayDigits = 3

type groupKey struct {
	annotator string
	label     string
}

// ByAnnotatorLabel counts outcomes per (annotator, label type).
func ByAnnotatorLabel(outcomes []model.ReviewOutcome) []model.AnnotatorMetric {
	return group(outcomes, func(o model.ReviewOutcome) groupKey {
		return groupKey{annotator: o.Annotator, label: o.LabelType}
	})
}

// ByAnnotator counts outcomes per annotator across all label types.
func ByAnnotator(outcomes []model.ReviewOutcome) []model.AnnotatorMetric {
	return group(outcomes, func(o model.ReviewOutcome) groupKey {
		return groupKey{annotator: o.Annotator}
	})
}

func group(outcomes []model.ReviewOutcome, keyOf func(model.ReviewOutcome) groupKey) []model.AnnotatorMetric {
	groups := make(map[groupKey]*model.AnnotatorMetric)
	for _, o := range outcomes {
		if o.Outcome == model.OutcomeNone {
			continue
		}
		k := keyOf(o)
		m, ok := groups[k]
		if !ok {
			m = &model.AnnotatorMetric{Annotator: k.annotator, LabelType: k.label}
			groups[k] = m
		}
		if o.Outcome == model.OutcomeApprove {
			m.Approves++
		} else {
			m.Rejects++
		}
		m.TotalTurnaround += o.Turnaround()
	}

	out := make([]model.AnnotatorMetric, 0, len(groups))
	for _, m := range groups {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Annotator != out[j].Annotator {
			return out[i].Annotator < out[j].Annotator
		}
		return out[i].LabelType < out[j].LabelType
	})
	return out
}

// Round rounds x half away from zero to the given number of decimal digits.
func Round(x float64, digits int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	p := math.Pow10(digits)
	return math.Round(x*p) / p
}

// DisplayRate is the rejection rate rounded for reports. ok is false when the
// metric has no reviews.
func DisplayRate(m model.AnnotatorMetric) (float64, bool) {
	rate, ok := m.RejectionRate()
	if !ok {
		return 0, false
	}
	return Round(rate, DisplayDigits), true
}
