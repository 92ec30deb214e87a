package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	dedupe "github.com/okian/labelaudit/internal/domain/dedupe"
	"github.com/okian/labelaudit/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		ctx := context.Background()

		Convey("When creating a deduper with default options", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then it should be empty", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When recording events", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("And the event is new", func() {
				seen := d.SeenAndRecord(ctx, "log-1")

				Convey("Then it should return false and record the event", func() {
					So(seen, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And the event was already seen", func() {
				d.SeenAndRecord(ctx, "log-1")
				seen := d.SeenAndRecord(ctx, "log-1")

				Convey("Then it should return true", func() {
					So(seen, ShouldBeTrue)
					So(d.Size(), ShouldEqual, 1)
				})
			})
		})

		Convey("When using bounded mode", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
			for _, id := range []string{"log-1", "log-2", "log-3", "log-4"} {
				So(d.SeenAndRecord(ctx, id), ShouldBeFalse)
			}

			Convey("Then the oldest id is forgotten", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "log-4"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "log-3"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "log-1"), ShouldBeFalse)
				So(d.Size(), ShouldEqual, 3)
			})
		})

		Convey("When using unbounded mode", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
			const numEvents = 1000
			for i := 0; i < numEvents; i++ {
				So(d.SeenAndRecord(ctx, fmt.Sprintf("log-%d", i)), ShouldBeFalse)
			}

			Convey("Then nothing is evicted", func() {
				So(d.Size(), ShouldEqual, int64(numEvents))
				So(d.SeenAndRecord(ctx, "log-0"), ShouldBeTrue)
			})
		})
	})
}

func TestUnique(t *testing.T) {
	Convey("Given a fetched log with an overlapping page", t, func() {
		ts := time.Date(2025, 8, 11, 0, 0, 0, 0, time.UTC)
		events := []model.Event{
			{EventID: "log-1", ActorEmail: "alice", OccurredAt: ts, Seq: 0},
			{EventID: "log-2", ActorEmail: "bob", OccurredAt: ts, Seq: 1},
			{EventID: "log-1", ActorEmail: "alice", OccurredAt: ts, Seq: 2},
		}

		Convey("When removing duplicates", func() {
			out, dups := dedupe.Unique(context.Background(), dedupe.NewInMemoryDeduper(), events)

			Convey("Then the first occurrence is kept", func() {
				So(dups, ShouldEqual, 1)
				So(len(out), ShouldEqual, 2)
				So(out[0].Seq, ShouldEqual, 0)
				So(out[1].EventID, ShouldEqual, "log-2")
			})
		})
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given a deduper with concurrent access", t, func() {
		d := dedupe.NewInMemoryDeduper()
		const numGoroutines = 10
		const eventsPerGoroutine = 100

		Convey("When multiple goroutines record events concurrently", func() {
			var wg sync.WaitGroup
			for i := 0; i < numGoroutines; i++ {
				wg.Add(1)
				go func(g int) {
					defer wg.Done()
					for j := 0; j < eventsPerGoroutine; j++ {
						d.SeenAndRecord(context.Background(), fmt.Sprintf("log-%d-%d", g, j))
					}
				}(i)
			}
			wg.Wait()

			Convey("Then all events should be recorded", func() {
				So(d.Size(), ShouldEqual, int64(numGoroutines*eventsPerGoroutine))
			})
		})
	})
}
