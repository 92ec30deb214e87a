// Package sample generates synthetic label logs for demos and end-to-end runs.
package sample

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/okian/labelaudit/internal/adapters/source"
	"github.com/okian/labelaudit/internal/domain/model"
	"github.com/okian/labelaudit/pkg/logger"
)

// Reject probability ranges per performer tier.
const (
	eliteRejectMin   = 0.0
	eliteRejectRange = 0.05
	avgRejectMin     = 0.1
	avgRejectRange   = 0.2
	lowRejectMin     = 0.4
	lowRejectRange   = 0.3

	caseElitePerformer = 0
	caseLowPerformer   = 1
	tierCount          = 4 // elite, low and two average slots

	minReviewDelay   = 10 * time.Minute
	reviewDelayRange = 110 * time.Minute
	maxResubmits     = 2

	// fixed width so creation times sort as strings
	stampLayout = "2006-01-02T15:04:05.000000Z07:00"
)

type annotator struct {
	email      string
	rejectRate float64
}

type generator struct {
	cfg        Config
	rng        *rand.Rand
	ids        *rand.ChaCha8
	annotators []annotator
	reviewers  []string
	logs       []source.RawLog
}

// Generate builds a synthetic label log sorted by creation time. Label and
// task submissions are each followed by reviews, and some rejected labels are
// relabeled by another annotator.
func Generate(ctx context.Context, cfg Config) ([]source.RawLog, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	var seed [32]byte
	for i := range 8 {
		seed[i] = byte(cfg.Seed >> (8 * i))
	}
	g := &generator{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		ids: rand.NewChaCha8(seed),
	}
	g.people()

	dataHash := ""
	var first annotator
	var taskAt time.Time
	for i := range cfg.Objects {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("sample generation cancelled: %w", err)
		}
		if i%cfg.ObjectsPer == 0 {
			if dataHash != "" {
				g.task(dataHash, first, taskAt)
			}
			dataHash = g.id()
			first = g.annotators[g.rng.IntN(len(g.annotators))]
			taskAt = time.Time{}
		}
		at := cfg.Start.Add(time.Duration(g.rng.Int64N(int64(cfg.Span))))
		if end := g.object(dataHash, first, at); end.After(taskAt) {
			taskAt = end
		}
	}
	if dataHash != "" {
		g.task(dataHash, first, taskAt)
	}

	sort.SliceStable(g.logs, func(i, j int) bool { return g.logs[i].CreatedAt < g.logs[j].CreatedAt })
	logger.Get().Info(ctx, "generated sample label log",
		logger.Int("objects", cfg.Objects),
		logger.Int("logs", len(g.logs)),
	)
	return g.logs, nil
}

func (g *generator) people() {
	for i := range g.cfg.Annotators {
		g.annotators = append(g.annotators, annotator{
			email:      fmt.Sprintf("annotator%02d@example.com", i+1),
			rejectRate: g.rejectRate(),
		})
	}
	for i := range g.cfg.Reviewers {
		g.reviewers = append(g.reviewers, fmt.Sprintf("reviewer%02d@example.com", i+1))
	}
}

// rejectRate draws a performer tier; average performers are the most common.
func (g *generator) rejectRate() float64 {
	switch g.rng.IntN(tierCount) {
	case caseElitePerformer:
		return eliteRejectMin + g.rng.Float64()*eliteRejectRange
	case caseLowPerformer:
		return lowRejectMin + g.rng.Float64()*lowRejectRange
	default:
		return avgRejectMin + g.rng.Float64()*avgRejectRange
	}
}

// object labels one object and reviews it until approved or no longer
// relabeled. It returns the time of the last review.
func (g *generator) object(dataHash string, by annotator, at time.Time) time.Time {
	identifier := g.id()
	label := g.cfg.Labels[g.rng.IntN(len(g.cfg.Labels))]
	for attempt := 0; ; attempt++ {
		g.emit(model.ActionLabelSubmit, by.email, dataHash, identifier, label, at)
		at = at.Add(g.reviewDelay())
		rejected := g.rng.Float64() < by.rejectRate
		action := model.ActionLabelApprove
		if rejected {
			action = model.ActionLabelReject
		}
		g.emit(action, g.reviewer(), dataHash, identifier, label, at)
		if !rejected || attempt >= maxResubmits || g.rng.Float64() >= g.cfg.ResubmitRate {
			return at
		}
		by = g.annotators[g.rng.IntN(len(g.annotators))]
		at = at.Add(g.reviewDelay())
	}
}

// task submits the whole data unit after its last label review and reviews it.
func (g *generator) task(dataHash string, by annotator, after time.Time) {
	at := after.Add(g.reviewDelay())
	g.emit(model.ActionTaskSubmit, by.email, dataHash, "", "", at)
	action := model.ActionTaskApprove
	if g.rng.Float64() < by.rejectRate {
		action = model.ActionTaskReject
	}
	g.emit(action, g.reviewer(), dataHash, "", "", at.Add(g.reviewDelay()))
}

func (g *generator) emit(a model.ActionKind, email, dataHash, identifier, label string, at time.Time) {
	code := a.Code()
	g.logs = append(g.logs, source.RawLog{
		LogHash:    g.id(),
		UserEmail:  email,
		DataHash:   dataHash,
		Action:     &code,
		CreatedAt:  at.UTC().Format(stampLayout),
		Identifier: identifier,
		LabelName:  label,
	})
}

func (g *generator) reviewer() string {
	return g.reviewers[g.rng.IntN(len(g.reviewers))]
}

func (g *generator) reviewDelay() time.Duration {
	return minReviewDelay + time.Duration(g.rng.Int64N(int64(reviewDelayRange)))
}

func (g *generator) id() string {
	return uuid.Must(uuid.NewRandomFromReader(g.ids)).String()
}

// WriteJSONL writes one log per line, the export format source.File reads.
func WriteJSONL(w io.Writer, logs []source.RawLog) error {
	enc := json.NewEncoder(w)
	for _, l := range logs {
		if err := enc.Encode(l); err != nil {
			return fmt.Errorf("%w: %w", ErrWrite, err)
		}
	}
	return nil
}

func (c Config) validate() error {
	switch {
	case c.Annotators <= 0 || c.Reviewers <= 0:
		return fmt.Errorf("%w: annotators and reviewers must be positive", ErrInvalidConfig)
	case c.Objects < 0 || c.ObjectsPer <= 0:
		return fmt.Errorf("%w: objects must not be negative and objects per task must be positive", ErrInvalidConfig)
	case len(c.Labels) == 0:
		return fmt.Errorf("%w: at least one label is required", ErrInvalidConfig)
	case c.Span <= 0:
		return fmt.Errorf("%w: span must be positive", ErrInvalidConfig)
	}
	return nil
}
