package repository_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/skillswap/internal/adapters/repository"
	"github.com/okian/skillswap/internal/domain/lifecycle"
	"github.com/okian/skillswap/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// openTestPool connects to SKILLSWAP_TEST_DATABASE_URL and migrates it, or
// skips the test when the variable is unset.
func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("SKILLSWAP_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("SKILLSWAP_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := repository.OpenPool(ctx, url, repository.WithMaxConns(8))
	if err != nil {
		t.Fatalf("open pool: %v", err)
	}
	if err := repository.Migrate(ctx, pool); err != nil {
		pool.Close()
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func TestPostgresStoreContract(t *testing.T) {
	pool := openTestPool(t)
	runStoreContract(t, "postgres", func() lifecycle.Store {
		return repository.NewPostgresStore(pool)
	}, uniquePrefix())
}

func TestPostgresDirectory(t *testing.T) {
	pool := openTestPool(t)
	prefix := uniquePrefix()

	Convey("Given a postgres directory", t, func() {
		ctx := context.Background()
		d := repository.NewPostgresDirectory(pool)
		user := model.UserSnapshot{
			ID:            prefix + "u1",
			Location:      "Colombo",
			OfferedSkills: []model.OfferedSkill{{Name: "Go", Level: model.LevelExpert}},
			Availability: model.Availability{Schedule: []model.DaySchedule{{
				Day:   model.Monday,
				Slots: []model.TimeSlot{{Start: model.MustTimeOfDay("09:00"), End: model.MustTimeOfDay("10:00")}},
			}}},
			Stats:    model.Stats{AverageRating: 4.5, TotalRatings: 3},
			Active:   true,
			Verified: true,
		}

		Convey("When upserting twice", func() {
			first, err := d.Upsert(ctx, user)
			So(err, ShouldBeNil)
			second, err := d.Upsert(ctx, user)
			So(err, ShouldBeNil)

			Convey("Then the version increases and data round-trips", func() {
				So(second.Version, ShouldEqual, first.Version+1)
				got, err := d.Snapshot(ctx, user.ID)
				So(err, ShouldBeNil)
				So(got.OfferedSkills, ShouldResemble, user.OfferedSkills)
				So(got.Availability.Schedule[0].Slots[0].End, ShouldEqual, model.MustTimeOfDay("10:00"))
				So(got.Stats.TotalRatings, ShouldEqual, 3)
			})

			Convey("Then the user is a candidate for others", func() {
				got, err := d.Candidates(ctx, prefix+"someone")
				So(err, ShouldBeNil)
				found := false
				for _, u := range got {
					if u.ID == user.ID {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When the user is unknown", func() {
			_, err := d.Snapshot(ctx, prefix+"nobody")

			Convey("Then user not found is reported", func() {
				So(errors.Is(err, lifecycle.ErrUserNotFound), ShouldBeTrue)
			})
		})
	})
}
