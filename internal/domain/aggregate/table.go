package aggregate

import (
	"sort"

	"github.com/okian/labelaudit/internal/domain/model"
)

// RateTable pivots rejection rates into annotator rows and label columns.
type RateTable struct {
	Annotators []string
	Labels     []string
	cells      map[string]map[string]float64
}

// NewRateTable builds a table from per-(annotator, label) metrics. Metrics
// without reviews leave their cell empty.
func NewRateTable(metrics []model.AnnotatorMetric) *RateTable {
	t := &RateTable{cells: make(map[string]map[string]float64)}
	annotators := make(map[string]struct{})
	labels := make(map[string]struct{})
	for _, m := range metrics {
		annotators[m.Annotator] = struct{}{}
		labels[m.LabelType] = struct{}{}
		rate, ok := DisplayRate(m)
		if !ok {
			continue
		}
		row, ok := t.cells[m.Annotator]
		if !ok {
			row = make(map[string]float64)
			t.cells[m.Annotator] = row
		}
		row[m.LabelType] = rate
	}
	t.Annotators = sortedKeys(annotators)
	t.Labels = sortedKeys(labels)
	return t
}

// Cell returns the rounded rate; ok is false for combinations never reviewed.
func (t *RateTable) Cell(annotator, label string) (float64, bool) {
	rate, ok := t.cells[annotator][label]
	return rate, ok
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
