// Package leaderboard picks the annotators with the highest rejection rates
// for a catalogue of watched label types.
package leaderboard

import (
	"sort"

	"github.com/okian/labelaudit/internal/domain/aggregate"
	"github.com/okian/labelaudit/internal/domain/model"
	"github.com/okian/labelaudit/internal/domain/types"
)

// DefaultLimit is the number of annotators listed per label.
const DefaultLimit = 5

type candidate struct {
	annotator string
	rate      float64
}

// less returns true if a should be listed before b: higher rate first, then
// annotator ascending.
func less(a, b candidate) bool {
	if a.rate != b.rate {
		return a.rate > b.rate
	}
	return a.annotator < b.annotator
}

// Select builds the report rows: per label of interest, in catalogue order, a
// heading, up to limit annotators with a non-zero rate and a divider.
// Selection and ordering use the exact rate; Entry.Rate is rounded for display.
// A non-positive limit falls back to DefaultLimit.
func Select(metrics []model.AnnotatorMetric, catalogue []types.LabelOfInterest, limit int) []types.Entry {
	if limit <= 0 {
		limit = DefaultLimit
	}

	byLabel := make(map[string][]candidate)
	for _, m := range metrics {
		rate, ok := m.RejectionRate()
		if !ok || rate <= 0 {
			continue
		}
		byLabel[m.LabelType] = append(byLabel[m.LabelType], candidate{annotator: m.Annotator, rate: rate})
	}

	entries := make([]types.Entry, 0, len(catalogue)*(limit+2))
	for _, loi := range catalogue {
		entries = append(entries, types.Entry{Kind: types.EntryHeading, Label: loi.Name})

		cands := byLabel[loi.Label]
		sort.SliceStable(cands, func(i, j int) bool { return less(cands[i], cands[j]) })
		if len(cands) > limit {
			cands = cands[:limit]
		}
		for _, c := range cands {
			entries = append(entries, types.Entry{
				Kind:      types.EntryLine,
				Label:     loi.Name,
				Annotator: c.annotator,
				Rate:      aggregate.Round(c.rate, aggregate.DisplayDigits),
			})
		}

		entries = append(entries, types.Entry{Kind: types.EntryDivider, Label: loi.Name})
	}
	return entries
}
