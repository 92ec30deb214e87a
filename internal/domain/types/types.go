// Package types contains common types used across the application
package types

// LabelOfInterest names a label type watched by the underperformer report.
type LabelOfInterest struct {
	Name  string `koanf:"name" json:"name"`
	Label string `koanf:"label" json:"label"`
}

// EntryKind distinguishes the rows of an underperformer report.
type EntryKind int

const (
	EntryHeading EntryKind = iota
	EntryLine
	EntryDivider
)

// Entry is one row of the underperformer report, in display order.
// Annotator and Rate are only set on EntryLine rows.
type Entry struct {
	Kind      EntryKind
	Label     string
	Annotator string
	Rate      float64
}
