package processor

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/ppy/osu-performance/internal/beatmap"
	"github.com/ppy/osu-performance/internal/config"
	"github.com/ppy/osu-performance/internal/mods"
	"github.com/ppy/osu-performance/internal/store"
	"github.com/ppy/osu-performance/pkg/logger"
)

func init() {
	_ = logger.Init()
}

func newTaikoFake() *store.Fake {
	f := store.NewFake()
	f.AttribNames = map[int32]string{1: "strain", 2: "hit_window_300"}
	f.BeatmapRows[mods.Taiko] = []beatmap.Row{
		{BeatmapID: 10, NumHitCircles: 900, MaxCombo: 900, Mods: 0, AttribID: 1, Value: 4.5, Approved: 1, ScoreVersion: 1},
		{BeatmapID: 10, NumHitCircles: 900, MaxCombo: 900, Mods: 0, AttribID: 2, Value: 35, Approved: 1, ScoreVersion: 1},
	}
	return f
}

func newTestConfig() *config.Config {
	cfg := config.New()
	cfg.UserPPColumnName = "pp"
	cfg.BeatmapRangeSize = 10000
	cfg.UpdateBatchHWM = 0
	return cfg
}

func TestProcessSingleUserSchedulesUpdateThenIsIdempotent(t *testing.T) {
	Convey("Given a user with one unscored Taiko play", t, func() {
		f := newTaikoFake()
		f.UserScores[mods.Taiko] = map[int64][]store.ScoreRow{
			1: {{ScoreID: 100, UserID: 1, BeatmapID: 10, RawScore: 1000000, MaxCombo: 900,
				Count300: 900, HasStoredPP: false}},
		}

		ctx := context.Background()
		p, err := New(ctx, mods.Taiko, f, newTestConfig(), logger.Get())
		So(err, ShouldBeNil)

		Convey("When ProcessSingleUser runs the first time", func() {
			pp, err := p.ProcessSingleUser(ctx, 0, 1)
			So(err, ShouldBeNil)
			So(pp.Value, ShouldBeGreaterThan, 0)

			So(p.newScores.Flush(ctx), ShouldBeNil)
			So(p.newUsers.Flush(ctx), ShouldBeNil)
			firstExecCount := len(f.Execs())
			So(firstExecCount, ShouldBeGreaterThan, 0)

			Convey("Then re-running with the now-stored pp produces no further score UPDATEs", func() {
				stored := f.UserScores[mods.Taiko][1][0]
				stored.HasStoredPP = true
				stored.StoredPP = pp.Value
				f.UserScores[mods.Taiko][1][0] = stored

				_, err := p.ProcessSingleUser(ctx, 0, 1)
				So(err, ShouldBeNil)
				So(p.newScores.Flush(ctx), ShouldBeNil)
				So(p.newUsers.Flush(ctx), ShouldBeNil)

				// Only the user-level UPDATE should have been appended the
				// second time; no per-score UPDATE since the diff is 0.
				So(len(f.Execs()), ShouldEqual, firstExecCount+1)
			})
		})
	})
}

func TestProcessSingleUserSkipsBlacklistedAndOutOfWindowBeatmaps(t *testing.T) {
	Convey("Given beatmaps 10 (blacklisted) and 11 (unranked)", t, func() {
		f := newTaikoFake()
		f.BeatmapRows[mods.Taiko] = append(f.BeatmapRows[mods.Taiko],
			beatmap.Row{BeatmapID: 11, NumHitCircles: 100, MaxCombo: 100, Mods: 0, AttribID: 1, Value: 3.0, Approved: 0, ScoreVersion: 1},
			beatmap.Row{BeatmapID: 11, NumHitCircles: 100, MaxCombo: 100, Mods: 0, AttribID: 2, Value: 30, Approved: 0, ScoreVersion: 1},
		)
		f.Blacklist[mods.Taiko] = map[int32]struct{}{10: {}}
		f.UserScores[mods.Taiko] = map[int64][]store.ScoreRow{
			2: {
				{ScoreID: 200, UserID: 2, BeatmapID: 10, RawScore: 1000000, MaxCombo: 900, Count300: 900},
				{ScoreID: 201, UserID: 2, BeatmapID: 11, RawScore: 1000000, MaxCombo: 100, Count300: 100},
			},
		}

		ctx := context.Background()
		p, err := New(ctx, mods.Taiko, f, newTestConfig(), logger.Get())
		So(err, ShouldBeNil)

		Convey("Then neither score contributes a PP record", func() {
			pp, err := p.ProcessSingleUser(ctx, 0, 2)
			So(err, ShouldBeNil)
			So(pp.Value, ShouldEqual, 0)
			So(pp.Accuracy, ShouldEqual, 0)
		})
	})
}

func TestNotableEventInsertsPerformanceChangeRow(t *testing.T) {
	Convey("Given a user whose only updated score dominates their total", t, func() {
		f := newTaikoFake()
		f.UserScores[mods.Taiko] = map[int64][]store.ScoreRow{
			3: {{ScoreID: 300, UserID: 3, BeatmapID: 10, RawScore: 1000000, MaxCombo: 900, Count300: 900}},
		}
		f.UserPP[mods.Taiko] = map[int64]float64{3: 0}

		ctx := context.Background()
		p, err := New(ctx, mods.Taiko, f, newTestConfig(), logger.Get())
		So(err, ShouldBeNil)

		pp, err := p.ProcessSingleUser(ctx, 300, 3)
		So(err, ShouldBeNil)

		Convey("Then a performance-change row is recorded since old pp (0) is far below the new total", func() {
			So(pp.Value, ShouldBeGreaterThan, notableEventMinChange)
			So(f.PerformanceChanges, ShouldHaveLength, 1)
			So(f.PerformanceChanges[0].UserID, ShouldEqual, int64(3))
		})
	})
}

func TestProcessAllUsersAdvancesUserCheckpoint(t *testing.T) {
	Convey("Given three users in range", t, func() {
		f := newTaikoFake()
		f.UserIDs[mods.Taiko] = []int64{1, 2, 3}
		f.UserScores[mods.Taiko] = map[int64][]store.ScoreRow{
			1: {{ScoreID: 100, UserID: 1, BeatmapID: 10, Count300: 900}},
			2: {{ScoreID: 101, UserID: 2, BeatmapID: 10, Count300: 900}},
			3: {{ScoreID: 102, UserID: 3, BeatmapID: 10, Count300: 900}},
		}

		ctx := context.Background()
		p, err := New(ctx, mods.Taiko, f, newTestConfig(), logger.Get())
		So(err, ShouldBeNil)

		err = p.ProcessAllUsers(ctx, true, 2)
		So(err, ShouldBeNil)

		Convey("Then pp_last_user_id is persisted at or beyond the max user id seen", func() {
			got, ok, err := f.GetCount(ctx, countKeyLastUserPrefix+mods.Taiko.Suffix())
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(got, ShouldBeGreaterThanOrEqualTo, int64(3))
		})
	})
}

func TestProcessUsersSkipsNonNumericIdentifiers(t *testing.T) {
	f := newTaikoFake()
	f.UserScores[mods.Taiko] = map[int64][]store.ScoreRow{
		1: {{ScoreID: 100, UserID: 1, BeatmapID: 10, Count300: 900}},
	}

	ctx := context.Background()
	p, err := New(ctx, mods.Taiko, f, newTestConfig(), logger.Get())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := p.ProcessUsers(ctx, []string{"1", "some_player_name"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
