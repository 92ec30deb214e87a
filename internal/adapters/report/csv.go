// Package report writes report outputs: CSV tables and chat message blocks.
package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/okian/labelaudit/internal/domain/aggregate"
	"github.com/okian/labelaudit/internal/domain/model"
	"github.com/okian/labelaudit/pkg/logger"
)

// File name prefixes of the CSV reports.
const (
	RateTablePrefix     = "annotator_accuracy"
	TaskOutcomePrefix   = "task_outcome"
	TaskRejectionPrefix = "task_rejection"

	fileMode = 0o644
)

var (
	taskOutcomeHeader = []string{
		"data_hash", "annotator", "submitted_at", "reviewer", "action", "reviewed_at", "turnaround_seconds",
	}
	taskRejectionHeader = []string{
		"annotator", "approves", "rejects", "rejection_rate", "mean_turnaround_seconds",
	}
)

// FileName returns <prefix>_<YYYY-MM-DD>.csv for the given day.
func FileName(prefix string, day time.Time) string {
	return fmt.Sprintf("%s_%s.csv", prefix, day.Format(time.DateOnly))
}

// CSV writes report tables into a directory.
type CSV struct {
	dir    string
	logger logger.Logger
}

// NewCSV creates a writer for dir; the directory is created on first write.
func NewCSV(dir string, opts ...Option) *CSV {
	if dir == "" {
		dir = "."
	}
	c := &CSV{dir: dir, logger: logger.Get().Named("report")}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RateTable writes annotator rows against label columns. Cells never
// reviewed are written as 0.
func (c *CSV) RateTable(ctx context.Context, day time.Time, t *aggregate.RateTable) (string, error) {
	rows := make([][]string, 0, len(t.Annotators)+1)
	rows = append(rows, append([]string{"user_email"}, t.Labels...))
	for _, a := range t.Annotators {
		row := make([]string, 0, len(t.Labels)+1)
		row = append(row, a)
		for _, l := range t.Labels {
			rate, _ := t.Cell(a, l)
			row = append(row, formatFloat(rate))
		}
		rows = append(rows, row)
	}
	return c.write(ctx, FileName(RateTablePrefix, day), rows)
}

// TaskOutcomes writes one row per joined task review, ordered by annotator
// and keeping review order within an annotator.
func (c *CSV) TaskOutcomes(ctx context.Context, day time.Time, outcomes []model.ReviewOutcome) (string, error) {
	sorted := make([]model.ReviewOutcome, len(outcomes))
	copy(sorted, outcomes)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Annotator < sorted[j].Annotator })

	rows := make([][]string, 0, len(sorted)+1)
	rows = append(rows, taskOutcomeHeader)
	for _, o := range sorted {
		rows = append(rows, []string{
			o.DataID,
			o.Annotator,
			formatTime(o.SubmittedAt),
			o.Reviewer,
			o.Outcome.String(),
			formatTime(o.ReviewedAt),
			formatFloat(aggregate.Round(o.Turnaround().Seconds(), aggregate.DisplayDigits)),
		})
	}
	return c.write(ctx, FileName(TaskOutcomePrefix, day), rows)
}

// TaskRejections writes per-annotator task totals.
func (c *CSV) TaskRejections(ctx context.Context, day time.Time, metrics []model.AnnotatorMetric) (string, error) {
	rows := make([][]string, 0, len(metrics)+1)
	rows = append(rows, taskRejectionHeader)
	for _, m := range metrics {
		rate, _ := aggregate.DisplayRate(m)
		mean, _ := m.MeanTurnaround()
		rows = append(rows, []string{
			m.Annotator,
			strconv.Itoa(m.Approves),
			strconv.Itoa(m.Rejects),
			formatFloat(rate),
			formatFloat(aggregate.Round(mean.Seconds(), aggregate.DisplayDigits)),
		})
	}
	return c.write(ctx, FileName(TaskRejectionPrefix, day), rows)
}

func (c *CSV) write(ctx context.Context, name string, rows [][]string) (string, error) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %w", ErrWrite, err)
	}
	path := filepath.Join(c.dir, name)
	tmp, err := os.CreateTemp(c.dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrWrite, err)
	}
	defer os.Remove(tmp.Name())

	if err := encode(tmp, rows); err != nil {
		tmp.Close()
		return "", fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}
	if err := tmp.Chmod(fileMode); err != nil {
		tmp.Close()
		return "", fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}

	c.logger.Info(ctx, "report written", logger.String("path", path), logger.Int("rows", len(rows)-1))
	return path, nil
}

// encode writes all rows and flushes, returning the first write error.
func encode(w io.Writer, rows [][]string) error {
	return csv.NewWriter(w).WriteAll(rows)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
