package store

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/ppy/osu-performance/internal/beatmap"
	"github.com/ppy/osu-performance/internal/mods"
)

func TestFakeQueryBeatmapRangeFiltersByIDAndMode(t *testing.T) {
	Convey("Given a fake with beatmap rows in two modes", t, func() {
		f := NewFake()
		f.BeatmapRows[mods.Standard] = []beatmap.Row{
			{BeatmapID: 1}, {BeatmapID: 5}, {BeatmapID: 10},
		}
		f.BeatmapRows[mods.Taiko] = []beatmap.Row{{BeatmapID: 1}}

		Convey("QueryBeatmapRange returns only Standard rows within range", func() {
			rows, err := f.QueryBeatmapRange(context.Background(), mods.Standard, 0, 6)
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 2)
		})
	})
}

func TestFakeNewScoresFiltersAndOrders(t *testing.T) {
	Convey("Given new scores with out-of-order ids", t, func() {
		f := NewFake()
		f.NewScores[mods.Standard] = []NewScoreRow{
			{ScoreID: 30, UserID: 3},
			{ScoreID: 10, UserID: 1},
			{ScoreID: 20, UserID: 2},
		}

		Convey("QueryNewScores returns only ids after the watermark, ascending", func() {
			rows, err := f.QueryNewScores(context.Background(), mods.Standard, 10)
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 2)
			So(rows[0].ScoreID, ShouldEqual, 20)
			So(rows[1].ScoreID, ShouldEqual, 30)
		})
	})
}

func TestFakeCountRoundTrip(t *testing.T) {
	Convey("Given an empty fake", t, func() {
		f := NewFake()
		ctx := context.Background()

		Convey("GetCount on a missing key reports not found", func() {
			_, ok, err := f.GetCount(ctx, "missing_scores_watermark")
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})

		Convey("SetCount then GetCount round-trips", func() {
			So(f.SetCount(ctx, "missing_scores_watermark", 42), ShouldBeNil)
			v, ok, err := f.GetCount(ctx, "missing_scores_watermark")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 42)
		})
	})
}

func TestFakeApplyUserStatsUpdateRecordsAndUpdatesPP(t *testing.T) {
	Convey("Given an empty fake", t, func() {
		f := NewFake()
		ctx := context.Background()

		Convey("ApplyUserStatsUpdate records the call and future QueryUserPP sees it", func() {
			f.ApplyUserStatsUpdate(mods.Standard, "pp", 7, 1234.5, 0.95)
			So(f.StatsUpdates, ShouldHaveLength, 1)

			v, ok, err := f.QueryUserPP(ctx, mods.Standard, "pp", 7)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 1234.5)
		})
	})
}

func TestFakeNewBatchSharesExecLog(t *testing.T) {
	f := NewFake()
	b := f.NewBatch(0)
	if err := b.AppendAndCommit(context.Background(), "DELETE FROM x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.Execs(); len(got) != 1 || got[0] != "DELETE FROM x" {
		t.Fatalf("expected one recorded exec, got %v", got)
	}
}
