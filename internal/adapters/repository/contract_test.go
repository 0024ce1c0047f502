package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/skillswap/internal/domain/lifecycle"
	"github.com/okian/skillswap/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newRecord(id, a, b, skill string, score int) model.MatchRecord {
	return model.MatchRecord{
		ID:          id,
		User1ID:     a,
		User2ID:     b,
		Skill:       skill,
		Type:        model.MatchSkillExchange,
		Score:       score,
		Reasons:     []model.Reason{model.ReasonSkillMatch},
		Status:      model.StatusPending,
		InitiatedBy: a,
		ExpiresAt:   baseTime.Add(7 * 24 * time.Hour),
		Preferences: model.Preferences{SessionType: model.SessionOnline, PreferredDuration: 60},
		CreatedAt:   baseTime,
		UpdatedAt:   baseTime,
	}
}

// runStoreContract exercises behaviour every lifecycle.Store must share.
// base keeps ids unique across runs against a persistent database.
func runStoreContract(t *testing.T, name string, newStore func() lifecycle.Store, base string) {
	run := 0
	Convey("Given a "+name+" store", t, func() {
		ctx := context.Background()
		store := newStore()
		// goconvey re-runs this setup for every leaf.
		run++
		prefix := fmt.Sprintf("%s%d-", base, run)
		alice, bob, carol := prefix+"alice", prefix+"bob", prefix+"carol"

		Convey("When creating a record with reversed users", func() {
			rec := newRecord(prefix+"m1", bob, alice, "Guitar", 70)
			So(store.Create(ctx, rec), ShouldBeNil)

			Convey("Then the pair is stored canonically", func() {
				got, err := store.Get(ctx, prefix+"m1")
				So(err, ShouldBeNil)
				So(got.User1ID, ShouldEqual, alice)
				So(got.User2ID, ShouldEqual, bob)
				So(got.Reasons, ShouldResemble, []model.Reason{model.ReasonSkillMatch})
				So(got.Preferences.PreferredDuration, ShouldEqual, 60)
				So(got.ExpiresAt.Equal(rec.ExpiresAt), ShouldBeTrue)
			})

			Convey("Then the key lookup is symmetric and case-insensitive", func() {
				got, err := store.FindByKey(ctx, model.PairKey{User1ID: bob, User2ID: alice, Skill: " guitar "})
				So(err, ShouldBeNil)
				So(got.ID, ShouldEqual, prefix+"m1")
			})

			Convey("Then a second record for the same pair and skill is rejected", func() {
				err := store.Create(ctx, newRecord(prefix+"m2", alice, bob, "GUITAR", 10))
				So(errors.Is(err, lifecycle.ErrDuplicateMatch), ShouldBeTrue)
			})

			Convey("Then a different skill is accepted", func() {
				So(store.Create(ctx, newRecord(prefix+"m3", alice, bob, "Piano", 10)), ShouldBeNil)
			})
		})

		Convey("When the ids differ only in case ordering", func() {
			upper, lower := prefix+"Bob", prefix+"alice"
			err := store.Create(ctx, newRecord(prefix+"mixed", lower, upper, "Chess", 40))

			Convey("Then the pair is ordered bytewise", func() {
				So(err, ShouldBeNil)
				got, err := store.Get(ctx, prefix+"mixed")
				So(err, ShouldBeNil)
				So(got.User1ID, ShouldEqual, upper)
				So(got.User2ID, ShouldEqual, lower)
			})

			Convey("Then the reversed pair is a duplicate", func() {
				err := store.Create(ctx, newRecord(prefix+"mixed2", upper, lower, "chess", 40))
				So(errors.Is(err, lifecycle.ErrDuplicateMatch), ShouldBeTrue)
			})
		})

		Convey("When the record does not exist", func() {
			_, err := store.Get(ctx, prefix+"missing")
			_, keyErr := store.FindByKey(ctx, model.NewPairKey(alice, carol, "chess"))

			Convey("Then not found is reported", func() {
				So(errors.Is(err, lifecycle.ErrMatchNotFound), ShouldBeTrue)
				So(errors.Is(keyErr, lifecycle.ErrMatchNotFound), ShouldBeTrue)
			})
		})

		Convey("When swapping status", func() {
			So(store.Create(ctx, newRecord(prefix+"cas", alice, bob, "Go", 50)), ShouldBeNil)
			at := baseTime.Add(time.Hour)
			updated, err := store.CompareAndSwapStatus(ctx, prefix+"cas", model.StatusPending, lifecycle.Transition{
				To: model.StatusAccepted, RespondedBy: bob, RespondedAt: &at, At: at,
			})

			Convey("Then the first swap wins", func() {
				So(err, ShouldBeNil)
				So(updated.Status, ShouldEqual, model.StatusAccepted)
				So(updated.RespondedBy, ShouldEqual, bob)
				So(updated.RespondedAt, ShouldNotBeNil)
			})

			Convey("Then a swap with a stale expectation conflicts", func() {
				current, err := store.CompareAndSwapStatus(ctx, prefix+"cas", model.StatusPending, lifecycle.Transition{
					To: model.StatusDeclined, RespondedBy: alice, RespondedAt: &at, At: at,
				})
				So(errors.Is(err, lifecycle.ErrStatusConflict), ShouldBeTrue)
				So(current.Status, ShouldEqual, model.StatusAccepted)
			})

			Convey("Then sessions can be counted", func() {
				rec, err := store.IncrementSessions(ctx, prefix+"cas", at)
				So(err, ShouldBeNil)
				So(rec.SessionsCreated, ShouldEqual, 1)
				So(rec.LastSessionAt, ShouldNotBeNil)
				So(rec.Status, ShouldEqual, model.StatusAccepted)
			})
		})

		Convey("When incrementing sessions on a pending record", func() {
			So(store.Create(ctx, newRecord(prefix+"pend", alice, carol, "Go", 50)), ShouldBeNil)
			_, err := store.IncrementSessions(ctx, prefix+"pend", baseTime)

			Convey("Then it conflicts", func() {
				So(errors.Is(err, lifecycle.ErrStatusConflict), ShouldBeTrue)
			})
		})

		Convey("When swapping status concurrently", func() {
			So(store.Create(ctx, newRecord(prefix+"race", alice, bob, "Race", 50)), ShouldBeNil)
			var (
				wg     sync.WaitGroup
				mu     sync.Mutex
				wins   int
				losses int
			)
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					to := model.StatusAccepted
					if i%2 == 1 {
						to = model.StatusDeclined
					}
					_, err := store.CompareAndSwapStatus(ctx, prefix+"race", model.StatusPending, lifecycle.Transition{To: to, RespondedBy: bob, At: baseTime})
					mu.Lock()
					defer mu.Unlock()
					if err == nil {
						wins++
					} else if errors.Is(err, lifecycle.ErrStatusConflict) {
						losses++
					}
				}(i)
			}
			wg.Wait()

			Convey("Then exactly one writer wins", func() {
				So(wins, ShouldEqual, 1)
				So(losses, ShouldEqual, 7)
			})
		})

		Convey("When listing", func() {
			low := newRecord(prefix+"l1", alice, bob, "A", 10)
			high := newRecord(prefix+"l2", alice, carol, "B", 90)
			other := newRecord(prefix+"l3", bob, carol, "C", 50)
			overdue := newRecord(prefix+"l4", alice, bob, "D", 20)
			overdue.ExpiresAt = baseTime.Add(-time.Minute)
			for _, r := range []model.MatchRecord{low, high, other, overdue} {
				So(store.Create(ctx, r), ShouldBeNil)
			}

			Convey("Then a user's records come ordered by score", func() {
				recs, err := store.ListByUser(ctx, alice, "")
				So(err, ShouldBeNil)
				So(idsOf(recs), ShouldResemble, []string{prefix + "l2", prefix + "l4", prefix + "l1"})
			})

			Convey("Then a status filter applies", func() {
				recs, err := store.ListByUser(ctx, alice, model.StatusAccepted)
				So(err, ShouldBeNil)
				So(recs, ShouldBeEmpty)
			})

			Convey("Then overdue pending records are listed for the sweep", func() {
				recs, err := store.ListExpired(ctx, baseTime, 10)
				So(err, ShouldBeNil)
				So(idsOf(recs), ShouldContain, prefix+"l4")
				So(idsOf(recs), ShouldNotContain, prefix+"l1")
			})
		})
	})
}

func idsOf(recs []model.MatchRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func uniquePrefix() string {
	return fmt.Sprintf("t%d-", time.Now().UnixNano())
}
