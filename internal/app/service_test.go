package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/okian/skillswap/internal/adapters/repository"
	service "github.com/okian/skillswap/internal/app"
	"github.com/okian/skillswap/internal/domain/lifecycle"
	"github.com/okian/skillswap/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type captureSink struct {
	mu     sync.Mutex
	events []model.Event
}

func (c *captureSink) Name() string { return "capture" }

func (c *captureSink) Deliver(_ context.Context, e model.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *captureSink) snapshot() []model.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Event(nil), c.events...)
}

func users() []model.UserSnapshot {
	return []model.UserSnapshot{
		{
			ID:            "alice",
			Location:      "Berlin, Germany",
			DesiredSkills: []model.DesiredSkill{{Name: "Guitar", Level: model.LevelBeginner}},
			OfferedSkills: []model.OfferedSkill{{Name: "Python", Level: model.LevelExpert}},
			Active:        true,
			Verified:      true,
		},
		{
			ID:            "bob",
			Location:      "Berlin, Germany",
			OfferedSkills: []model.OfferedSkill{{Name: "guitar", Level: model.LevelIntermediate}},
			DesiredSkills: []model.DesiredSkill{{Name: "python", Level: model.LevelBeginner}},
			Active:        true,
			Verified:      true,
		},
		{
			ID:            "carol",
			OfferedSkills: []model.OfferedSkill{{Name: "Cooking", Level: model.LevelAdvanced}},
			Active:        true,
			Verified:      true,
		},
		{
			ID:            "dave",
			OfferedSkills: []model.OfferedSkill{{Name: "Guitar", Level: model.LevelExpert}},
			Active:        false,
			Verified:      true,
		},
	}
}

func newService(opts ...service.Option) (*service.Service, *captureSink) {
	sink := &captureSink{}
	base := []service.Option{
		service.WithDirectory(repository.NewMemoryDirectory(users()...)),
		service.WithSinks(sink),
		service.WithWorkerCount(2),
	}
	svc, err := service.New(append(base, opts...)...)
	So(err, ShouldBeNil)
	return svc, sink
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		ctx := context.Background()
		svc, _ := newService()

		Convey("When starting it twice", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)

			Convey("Then it reports started", func() {
				So(svc.GetStats(ctx)["started"], ShouldEqual, true)
				So(svc.GetStats(ctx)["workerCount"], ShouldEqual, 2)
			})

			Convey("Then stopping marks it stopped and a restart fails", func() {
				So(svc.Stop(ctx), ShouldBeNil)
				So(svc.Stop(ctx), ShouldBeNil)
				So(svc.GetStats(ctx)["started"], ShouldEqual, false)
				So(errors.Is(svc.Start(ctx), service.ErrNotStarted), ShouldBeTrue)
			})
		})
	})
}

func TestService_Suggestions(t *testing.T) {
	Convey("Given a service with four users", t, func() {
		ctx := context.Background()
		svc, _ := newService()

		Convey("When alice asks for guitar teachers", func() {
			entries, err := svc.Suggestions(ctx, "alice", "guitar", 0)

			Convey("Then bob ranks first and inactive users are excluded", func() {
				So(err, ShouldBeNil)
				So(len(entries), ShouldBeGreaterThan, 0)
				So(entries[0].UserID, ShouldEqual, "bob")
				So(entries[0].Rank, ShouldEqual, 1)
				for _, e := range entries {
					So(e.UserID, ShouldNotEqual, "alice")
					So(e.UserID, ShouldNotEqual, "dave")
				}
			})
		})

		Convey("When a limit is given", func() {
			entries, err := svc.Suggestions(ctx, "alice", "", 1)

			Convey("Then results are truncated", func() {
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 1)
			})
		})

		Convey("When the user is unknown", func() {
			_, err := svc.Suggestions(ctx, "zed", "", 0)

			Convey("Then ErrUserNotFound is returned", func() {
				So(errors.Is(err, lifecycle.ErrUserNotFound), ShouldBeTrue)
				So(lifecycle.Code(err), ShouldEqual, "user_not_found")
			})
		})

		Convey("When scoring one pair", func() {
			res, err := svc.Score(ctx, "alice", "bob", "Guitar")

			Convey("Then the result matches the suggestion score", func() {
				So(err, ShouldBeNil)
				entries, _ := svc.Suggestions(ctx, "alice", "Guitar", 0)
				So(res.Total, ShouldEqual, entries[0].Score)
				So(res.HasReason(model.ReasonExactSkillMatch), ShouldBeTrue)
			})
		})

		Convey("When a profile changes", func() {
			before, err := svc.Score(ctx, "alice", "bob", "Guitar")
			So(err, ShouldBeNil)
			bob := users()[1]
			bob.OfferedSkills = nil
			_, err = svc.UpsertUser(ctx, bob)
			So(err, ShouldBeNil)

			Convey("Then the cached score is not reused", func() {
				after, err := svc.Score(ctx, "alice", "bob", "Guitar")
				So(err, ShouldBeNil)
				So(after.Total, ShouldBeLessThan, before.Total)
			})
		})
	})
}
