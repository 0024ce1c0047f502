package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/skillswap/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryQueue(t *testing.T) {
	Convey("Given a queue with capacity 2", t, func() {
		ctx := context.Background()
		q := NewInMemoryQueue(WithCapacity(2))

		Convey("When enqueuing within capacity", func() {
			So(q.Enqueue(ctx, model.Event{ID: "e1"}), ShouldBeTrue)
			So(q.Enqueue(ctx, model.Event{ID: "e2"}), ShouldBeTrue)

			Convey("Then events come out in order", func() {
				So(q.Len(ctx), ShouldEqual, 2)
				ch := q.Dequeue(ctx)
				So((<-ch).ID, ShouldEqual, "e1")
				So((<-ch).ID, ShouldEqual, "e2")
				So(q.Len(ctx), ShouldEqual, 0)
			})

			Convey("Then a third event is rejected", func() {
				So(q.Enqueue(ctx, model.Event{ID: "e3"}), ShouldBeFalse)
				err := q.Notify(ctx, model.Event{ID: "e3", Type: model.EventMatchCreated})
				So(errors.Is(err, ErrQueueFull), ShouldBeTrue)
			})
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			Convey("Then enqueue fails", func() {
				So(q.Enqueue(cctx, model.Event{ID: "x"}), ShouldBeFalse)
			})
		})

		Convey("When closed", func() {
			So(q.Enqueue(ctx, model.Event{ID: "left"}), ShouldBeTrue)
			So(q.Close(), ShouldBeNil)
			So(q.Close(), ShouldBeNil)

			Convey("Then new events are refused and buffered ones drain", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(errors.Is(q.Notify(ctx, model.Event{ID: "late"}), ErrQueueClosed), ShouldBeTrue)
				var got []string
				for e := range q.Dequeue(ctx) {
					got = append(got, e.ID)
				}
				So(got, ShouldResemble, []string{"left"})
			})
		})
	})
}
