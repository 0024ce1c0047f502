package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	service "github.com/okian/skillswap/internal/app"
	"github.com/okian/skillswap/internal/domain/lifecycle"
	"github.com/okian/skillswap/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func TestService_MatchFlow(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		clk := &clock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
		svc, sink := newService(service.WithClock(clk.Now), service.WithMatchTTL(24*time.Hour))
		So(svc.Start(ctx), ShouldBeNil)

		rec, err := svc.CreateMatch(ctx, lifecycle.CreateRequest{
			InitiatorID: "alice",
			OtherUserID: "bob",
			Skill:       "Guitar",
			Message:     "teach me?",
		})
		So(err, ShouldBeNil)

		Convey("Then the match is pending with a score and an expiry", func() {
			So(rec.Status, ShouldEqual, model.StatusPending)
			So(rec.Score, ShouldBeGreaterThan, 0)
			So(rec.ExpiresAt.Equal(clk.now.Add(24*time.Hour)), ShouldBeTrue)

			pending, err := svc.PendingMatches(ctx, "bob")
			So(err, ShouldBeNil)
			So(len(pending), ShouldEqual, 1)
		})

		Convey("When bob accepts and a session is recorded", func() {
			accepted, err := svc.AcceptMatch(ctx, rec.ID, "bob")
			So(err, ShouldBeNil)
			So(accepted.Status, ShouldEqual, model.StatusAccepted)

			updated, err := svc.RecordSession(ctx, rec.ID, "alice")
			So(err, ShouldBeNil)
			So(updated.SessionsCreated, ShouldEqual, 1)

			Convey("Then both users are matched and notified after drain", func() {
				ok, err := svc.AreMatched(ctx, "bob", "alice", "")
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)

				So(svc.Stop(ctx), ShouldBeNil)
				events := sink.snapshot()
				So(len(events), ShouldEqual, 2)
				byType := map[model.EventType]string{}
				for _, e := range events {
					byType[e.Type] = e.RecipientID
				}
				So(byType[model.EventMatchCreated], ShouldEqual, "bob")
				So(byType[model.EventMatchAccepted], ShouldEqual, "alice")
			})

			Convey("Then a second response is rejected", func() {
				_, err := svc.DeclineMatch(ctx, rec.ID, "bob")
				So(errors.Is(err, lifecycle.ErrNotPending), ShouldBeTrue)
			})
		})

		Convey("When an outsider reads or touches the match", func() {
			_, getErr := svc.GetMatch(ctx, rec.ID, "carol")
			_, sessErr := svc.RecordSession(ctx, rec.ID, "carol")
			_, expErr := svc.ExpireMatch(ctx, rec.ID, "carol")

			Convey("Then each call is refused", func() {
				So(errors.Is(getErr, lifecycle.ErrNotParticipant), ShouldBeTrue)
				So(errors.Is(sessErr, lifecycle.ErrNotParticipant), ShouldBeTrue)
				So(errors.Is(expErr, lifecycle.ErrNotParticipant), ShouldBeTrue)
			})
		})

		Convey("When the deadline passes", func() {
			clk.now = clk.now.Add(25 * time.Hour)

			Convey("Then the sweep expires it and stats reflect it", func() {
				n, err := svc.SweepExpired(ctx, 0)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)

				got, err := svc.GetMatch(ctx, rec.ID, "alice")
				So(err, ShouldBeNil)
				So(got.Status, ShouldEqual, model.StatusExpired)

				stats := svc.GetStats(ctx)
				So(stats["matches"], ShouldResemble, map[string]int{"expired": 1})

				list, err := svc.ListMatches(ctx, "alice", model.StatusExpired)
				So(err, ShouldBeNil)
				So(len(list), ShouldEqual, 1)
			})

			Convey("Then a single expire call is idempotent", func() {
				first, err := svc.ExpireMatch(ctx, rec.ID, "bob")
				So(err, ShouldBeNil)
				second, err := svc.ExpireMatch(ctx, rec.ID, "bob")
				So(err, ShouldBeNil)
				So(first.Status, ShouldEqual, model.StatusExpired)
				So(second.Status, ShouldEqual, model.StatusExpired)
			})
		})

		Convey("When the same request is sent again", func() {
			_, err := svc.CreateMatch(ctx, lifecycle.CreateRequest{InitiatorID: "bob", OtherUserID: "alice", Skill: "guitar"})

			Convey("Then it is a duplicate", func() {
				So(errors.Is(err, lifecycle.ErrDuplicateMatch), ShouldBeTrue)
			})
		})

		Reset(func() {
			_ = svc.Stop(ctx)
		})
	})
}
