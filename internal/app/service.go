// Package service runs reviewer-quality reports: it fetches the label log,
// joins reviews to submissions and writes the report outputs.
package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/okian/labelaudit/internal/adapters/report"
	"github.com/okian/labelaudit/internal/adapters/source"
	"github.com/okian/labelaudit/internal/config"
	"github.com/okian/labelaudit/internal/domain/aggregate"
	"github.com/okian/labelaudit/internal/domain/dedupe"
	"github.com/okian/labelaudit/internal/domain/filter"
	"github.com/okian/labelaudit/internal/domain/join"
	"github.com/okian/labelaudit/internal/domain/leaderboard"
	"github.com/okian/labelaudit/internal/domain/model"
	"github.com/okian/labelaudit/internal/domain/types"
	"github.com/okian/labelaudit/pkg/logger"
	"github.com/okian/labelaudit/pkg/metrics"
)

// Report names one report kind.
type Report string

const (
	ReportRejectionRates  Report = "rejection-rates"
	ReportTaskOutcomes    Report = "task-outcomes"
	ReportUnderperformers Report = "underperformers"
)

// Summary describes one finished run.
type Summary struct {
	RunID      string
	Report     Report
	Policy     join.Policy
	Since      time.Time
	Fetched    int
	Duplicates int
	Skipped    int
	Joined     int
	Dropped    int
	Superseded int
	Annotators int
	Files      []string
}

// Service runs reports against one event source.
type Service struct {
	source  source.Source
	logger  logger.Logger
	metrics *metrics.Manager
	stdout  io.Writer
	now     func() time.Time

	// Configuration
	lookback        time.Duration
	outDir          string
	policy          *join.Policy
	topN            int
	labels          []types.LabelOfInterest
	metricsTextfile string
}

// New constructs a Service reading from src.
func New(src source.Source, opts ...Option) *Service {
	s := &Service{
		source:   src,
		stdout:   os.Stdout,
		now:      time.Now,
		lookback: 7 * 24 * time.Hour,
		outDir:   ".",
		topN:     leaderboard.DefaultLimit,
		labels:   config.DefaultLabelsOfInterest(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.metrics == nil {
		s.metrics = metrics.NewManager()
	}
	return s
}

// Run dispatches to the named report.
func (s *Service) Run(ctx context.Context, r Report) (Summary, error) {
	switch r {
	case ReportRejectionRates:
		return s.RejectionRates(ctx)
	case ReportTaskOutcomes:
		return s.TaskOutcomes(ctx)
	case ReportUnderperformers:
		return s.Underperformers(ctx)
	}
	return Summary{}, fmt.Errorf("%w: %q", ErrUnknownReport, r)
}

// RejectionRates writes the per-(annotator, label type) rejection rate table.
func (s *Service) RejectionRates(ctx context.Context) (sum Summary, err error) {
	r := s.begin(ctx, ReportRejectionRates, join.LabelKeyed)
	defer func() { s.finish(ctx, r, err) }()

	res, err := s.collect(ctx, r, model.ScopeLabel)
	if err != nil {
		return r.sum, err
	}
	table := aggregate.NewRateTable(aggregate.ByAnnotatorLabel(res.Outcomes))
	r.sum.Annotators = len(table.Annotators)

	path, err := report.NewCSV(s.outDir, report.WithLogger(r.logger)).RateTable(ctx, r.start, table)
	if err != nil {
		return r.sum, err
	}
	r.sum.Files = append(r.sum.Files, path)
	return r.sum, nil
}

// TaskOutcomes writes one row per reviewed task and per-annotator task totals.
func (s *Service) TaskOutcomes(ctx context.Context) (sum Summary, err error) {
	r := s.begin(ctx, ReportTaskOutcomes, join.TimeOrdered)
	defer func() { s.finish(ctx, r, err) }()

	res, err := s.collect(ctx, r, model.ScopeTask)
	if err != nil {
		return r.sum, err
	}
	totals := aggregate.ByAnnotator(res.Outcomes)
	r.sum.Annotators = len(totals)

	w := report.NewCSV(s.outDir, report.WithLogger(r.logger))
	path, err := w.TaskOutcomes(ctx, r.start, res.Outcomes)
	if err != nil {
		return r.sum, err
	}
	r.sum.Files = append(r.sum.Files, path)
	if path, err = w.TaskRejections(ctx, r.start, totals); err != nil {
		return r.sum, err
	}
	r.sum.Files = append(r.sum.Files, path)
	return r.sum, nil
}

// Underperformers writes the worst annotators per watched label as a chat
// message on stdout.
func (s *Service) Underperformers(ctx context.Context) (sum Summary, err error) {
	r := s.begin(ctx, ReportUnderperformers, join.LabelKeyed)
	defer func() { s.finish(ctx, r, err) }()

	res, err := s.collect(ctx, r, model.ScopeLabel)
	if err != nil {
		return r.sum, err
	}
	entries := leaderboard.Select(aggregate.ByAnnotatorLabel(res.Outcomes), s.labels, s.topN)
	for _, e := range entries {
		if e.Kind == types.EntryLine {
			r.sum.Annotators++
		}
	}
	if err := report.WriteBlocks(s.stdout, entries); err != nil {
		return r.sum, err
	}
	return r.sum, nil
}

// run carries the state of one report invocation.
type run struct {
	sum    Summary
	start  time.Time
	logger logger.Logger
}

func (s *Service) begin(ctx context.Context, name Report, def join.Policy) *run {
	policy := def
	if s.policy != nil {
		policy = *s.policy
	}
	start := s.now()
	r := &run{
		start: start,
		sum: Summary{
			RunID:  uuid.NewString(),
			Report: name,
			Policy: policy,
			Since:  start.Add(-s.lookback),
		},
	}
	r.logger = s.logger.With(
		logger.String("run_id", r.sum.RunID),
		logger.String("report", string(name)),
	)
	r.logger.Info(ctx, "report started",
		logger.String("policy", policy.String()),
		logger.Time("since", r.sum.Since),
	)
	return r
}

// collect fetches, deduplicates, filters and joins the events of one scope.
func (s *Service) collect(ctx context.Context, r *run, scope model.Scope) (join.Result, error) {
	if s.source == nil {
		return join.Result{}, ErrNoSource
	}
	events, err := s.source.Fetch(ctx, r.sum.Since)
	if err != nil {
		return join.Result{}, err
	}
	r.sum.Fetched = len(events)
	s.metrics.RecordFetched(len(events))

	events = s.window(r, events)
	events, dups := dedupe.Unique(ctx, dedupe.NewInMemoryDeduper(), events)
	r.sum.Duplicates = dups
	s.metrics.RecordDuplicates(dups)

	skip := filter.WithSkipFunc(func(e model.Event, err error) {
		r.sum.Skipped++
		s.metrics.RecordSkipped(metrics.ReasonMalformed)
		r.logger.Warn(ctx, "skipping malformed event",
			logger.String("event_id", e.EventID),
			logger.String("action", e.Action.String()),
			logger.Error(err),
		)
	})
	submits := filter.Submissions(scope, skip).Apply(events)
	reviews := filter.Reviews(scope, skip).Apply(events)

	res := join.New(r.sum.Policy).Join(submits, reviews)
	r.sum.Joined = len(res.Outcomes)
	r.sum.Dropped = res.Dropped
	r.sum.Superseded = res.Superseded
	s.metrics.RecordJoin(string(r.sum.Report), len(res.Outcomes), res.Dropped, res.Superseded)
	return res, nil
}

// window drops dated events older than the run window. Sources filter too;
// this holds for sources that ignore the lower bound.
func (s *Service) window(r *run, events []model.Event) []model.Event {
	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if !e.OccurredAt.IsZero() && e.OccurredAt.Before(r.sum.Since) {
			r.sum.Skipped++
			s.metrics.RecordSkipped(metrics.ReasonStale)
			continue
		}
		out = append(out, e)
	}
	return out
}

func (s *Service) finish(ctx context.Context, r *run, err error) {
	elapsed := s.now().Sub(r.start)
	s.metrics.SetAnnotators(string(r.sum.Report), r.sum.Annotators)
	s.metrics.ObserveRun(string(r.sum.Report), elapsed, err == nil)

	if s.metricsTextfile != "" {
		if werr := s.metrics.WriteTextfile(s.metricsTextfile); werr != nil {
			r.logger.Warn(ctx, "failed to write metrics textfile",
				logger.String("path", s.metricsTextfile),
				logger.Error(werr),
			)
		}
	}

	if err != nil {
		r.logger.Error(ctx, "report failed", logger.Error(err), logger.Duration("elapsed", elapsed))
		return
	}
	r.logger.Info(ctx, "report finished",
		logger.Int("fetched", r.sum.Fetched),
		logger.Int("duplicates", r.sum.Duplicates),
		logger.Int("skipped", r.sum.Skipped),
		logger.Int("joined", r.sum.Joined),
		logger.Int("dropped", r.sum.Dropped),
		logger.Int("superseded", r.sum.Superseded),
		logger.Int("annotators", r.sum.Annotators),
		logger.Duration("elapsed", elapsed),
	)
}
