package service_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	service "github.com/okian/labelaudit/internal/app"
	"github.com/okian/labelaudit/internal/domain/join"
	"github.com/okian/labelaudit/internal/domain/model"
	"github.com/okian/labelaudit/internal/domain/types"
	"github.com/okian/labelaudit/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

var (
	now = time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	t0  = now.Add(-48 * time.Hour)
)

type stubSource struct {
	events []model.Event
	err    error
	since  time.Time
}

func (s *stubSource) Fetch(_ context.Context, since time.Time) ([]model.Event, error) {
	s.since = since
	return slices.Clone(s.events), s.err
}

func ev(id string, a model.ActionKind, actor, entity, label string, at time.Time) model.Event {
	return model.Event{
		EventID:    id,
		ActorEmail: actor,
		EntityID:   entity,
		DataID:     entity,
		Action:     a,
		OccurredAt: at,
		LabelType:  label,
	}
}

func sequence(events ...model.Event) []model.Event {
	for i := range events {
		events[i].Seq = int64(i)
	}
	return events
}

func hours(n int) time.Time { return t0.Add(time.Duration(n) * time.Hour) }

func labelEvents() []model.Event {
	return sequence(
		ev("e1", model.ActionLabelSubmit, "alice@example.com", "obj1", "Box", hours(1)),
		ev("e2", model.ActionLabelApprove, "bob@example.com", "obj1", "Box", hours(2)),
		ev("e3", model.ActionLabelSubmit, "carol@example.com", "obj2", "Box", hours(1)),
		ev("e4", model.ActionLabelReject, "bob@example.com", "obj2", "Box", hours(3)),
		ev("e5", model.ActionLabelSubmit, "carol@example.com", "obj3", "Polygon", hours(1)),
		ev("e6", model.ActionLabelReject, "bob@example.com", "obj3", "Polygon", hours(4)),
		ev("e2", model.ActionLabelApprove, "bob@example.com", "obj1", "Box", hours(2)),
		ev("e7", model.ActionLabelReject, "", "obj1", "Box", hours(5)),
		ev("e8", model.ActionLabelSubmit, "alice@example.com", "obj9", "Box", now.Add(-8*24*time.Hour)),
		ev("e9", model.ActionLabelReject, "bob@example.com", "obj7", "Box", hours(6)),
	)
}

func taskEvents() []model.Event {
	return sequence(
		ev("t1", model.ActionTaskSubmit, "amy@example.com", "d1", "", hours(1)),
		ev("t2", model.ActionTaskReject, "rev@example.com", "d1", "", hours(2)),
		ev("t3", model.ActionTaskSubmit, "ben@example.com", "d1", "", hours(3)),
		ev("t4", model.ActionTaskApprove, "rev@example.com", "d1", "", hours(4)),
	)
}

func readCSV(path string) [][]string {
	f, err := os.Open(path)
	So(err, ShouldBeNil)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	So(err, ShouldBeNil)
	return rows
}

func newService(src *stubSource, dir string, opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithClock(func() time.Time { return now }),
		service.WithOutDir(dir),
	}
	return service.New(src, append(base, opts...)...)
}

func TestService_RejectionRates(t *testing.T) {
	Convey("Given a label log with duplicates, malformed, stale and orphan events", t, func() {
		dir := t.TempDir()
		src := &stubSource{events: labelEvents()}
		textfile := filepath.Join(dir, "labelaudit.prom")
		svc := newService(src, dir, service.WithMetricsTextfile(textfile))

		Convey("When the rejection rate report runs", func() {
			sum, err := svc.RejectionRates(context.Background())

			Convey("Then the source is asked for the lookback window", func() {
				So(err, ShouldBeNil)
				So(src.since.Equal(now.Add(-7*24*time.Hour)), ShouldBeTrue)
			})

			Convey("And the run is accounted for", func() {
				So(sum.RunID, ShouldNotBeEmpty)
				So(sum.Report, ShouldEqual, service.ReportRejectionRates)
				So(sum.Policy, ShouldEqual, join.LabelKeyed)
				So(sum.Fetched, ShouldEqual, 10)
				So(sum.Duplicates, ShouldEqual, 1)
				So(sum.Skipped, ShouldEqual, 2)
				So(sum.Joined, ShouldEqual, 3)
				So(sum.Dropped, ShouldEqual, 1)
				So(sum.Annotators, ShouldEqual, 2)
			})

			Convey("And the table is written with missing cells as 0", func() {
				So(sum.Files, ShouldResemble, []string{filepath.Join(dir, "annotator_accuracy_2025-08-18.csv")})
				So(readCSV(sum.Files[0]), ShouldResemble, [][]string{
					{"user_email", "Box", "Polygon"},
					{"alice@example.com", "0", "0"},
					{"carol@example.com", "1", "1"},
				})
			})

			Convey("And run metrics are written as a textfile", func() {
				b, err := os.ReadFile(textfile)
				So(err, ShouldBeNil)
				So(string(b), ShouldContainSubstring, "labelaudit_report_events_duplicate_total 1")
				So(string(b), ShouldContainSubstring, `labelaudit_report_reviews_joined_total{report="rejection-rates"} 3`)
			})
		})
	})

	Convey("Given a failing source", t, func() {
		boom := errors.New("boom")
		svc := newService(&stubSource{err: boom}, t.TempDir())

		Convey("When the report runs", func() {
			_, err := svc.Run(context.Background(), service.ReportRejectionRates)

			Convey("Then the source error is returned", func() {
				So(errors.Is(err, boom), ShouldBeTrue)
			})
		})
	})
}

func TestService_TaskOutcomes(t *testing.T) {
	Convey("Given a task that was rejected and then resubmitted by someone else", t, func() {
		dir := t.TempDir()
		src := &stubSource{events: taskEvents()}

		Convey("When the task report runs with its default policy", func() {
			sum, err := newService(src, dir).TaskOutcomes(context.Background())

			Convey("Then each review goes to the submission it followed", func() {
				So(err, ShouldBeNil)
				So(sum.Policy, ShouldEqual, join.TimeOrdered)
				So(len(sum.Files), ShouldEqual, 2)
				rows := readCSV(sum.Files[0])
				So(len(rows), ShouldEqual, 3)
				So(rows[1][1], ShouldEqual, "amy@example.com")
				So(rows[1][4], ShouldEqual, "reject")
				So(rows[2][1], ShouldEqual, "ben@example.com")
				So(rows[2][4], ShouldEqual, "approve")
			})

			Convey("And totals are written per annotator", func() {
				So(filepath.Base(sum.Files[1]), ShouldEqual, "task_rejection_2025-08-18.csv")
				So(readCSV(sum.Files[1]), ShouldResemble, [][]string{
					{"annotator", "approves", "rejects", "rejection_rate", "mean_turnaround_seconds"},
					{"amy@example.com", "0", "1", "1", "3600"},
					{"ben@example.com", "1", "0", "0", "3600"},
				})
			})
		})

		Convey("When the label-keyed policy is forced", func() {
			sum, err := newService(src, dir, service.WithJoinPolicy(join.LabelKeyed)).TaskOutcomes(context.Background())

			Convey("Then both reviews go to the latest submitter", func() {
				So(err, ShouldBeNil)
				So(sum.Policy, ShouldEqual, join.LabelKeyed)
				So(sum.Annotators, ShouldEqual, 1)
				So(readCSV(sum.Files[1])[1], ShouldResemble, []string{"ben@example.com", "1", "1", "0.5", "0"})
			})
		})
	})
}

func TestService_Underperformers(t *testing.T) {
	Convey("Given a catalogue of watched labels", t, func() {
		var out bytes.Buffer
		labels := []types.LabelOfInterest{
			{Name: "Boxes", Label: "Box"},
			{Name: "Polygons", Label: "Polygon"},
			{Name: "Points", Label: "Point"},
		}
		svc := newService(&stubSource{events: labelEvents()}, t.TempDir(),
			service.WithStdout(&out),
			service.WithLabels(labels),
			service.WithTopN(3),
		)

		Convey("When the underperformer report runs", func() {
			sum, err := svc.Run(context.Background(), service.ReportUnderperformers)

			Convey("Then a chat message is written to stdout", func() {
				So(err, ShouldBeNil)
				So(sum.Annotators, ShouldEqual, 2)

				var msg struct {
					Blocks []struct {
						Type string `json:"type"`
						Text struct {
							Text string `json:"text"`
						} `json:"text"`
					} `json:"blocks"`
				}
				So(json.Unmarshal(out.Bytes(), &msg), ShouldBeNil)
				texts := make([]string, 0, len(msg.Blocks))
				for _, b := range msg.Blocks {
					if b.Type == "divider" {
						texts = append(texts, "---")
						continue
					}
					texts = append(texts, b.Text.Text)
				}
				So(texts, ShouldResemble, []string{
					"*Boxes*", "- carol@example.com | Review rate: 100.0%", "---",
					"*Polygons*", "- carol@example.com | Review rate: 100.0%", "---",
					"*Points*", "---",
				})
			})
		})
	})
}

func TestService_Run(t *testing.T) {
	Convey("Given a service", t, func() {
		svc := newService(&stubSource{}, t.TempDir())

		Convey("When an unknown report is requested", func() {
			_, err := svc.Run(context.Background(), service.Report("weekly"))

			Convey("Then it is rejected", func() {
				So(errors.Is(err, service.ErrUnknownReport), ShouldBeTrue)
			})
		})
	})

	Convey("Given a service without a source", t, func() {
		svc := service.New(nil, service.WithOutDir(t.TempDir()))

		Convey("When a report runs", func() {
			_, err := svc.RejectionRates(context.Background())

			Convey("Then it fails", func() {
				So(errors.Is(err, service.ErrNoSource), ShouldBeTrue)
			})
		})
	})
}
