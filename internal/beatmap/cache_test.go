package beatmap

import (
	"context"
	"sync/atomic"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/ppy/osu-performance/internal/mods"
	"github.com/ppy/osu-performance/pkg/logger"
)

func init() {
	_ = logger.Init()
}

type fakeLoader struct {
	rangeCalls int32
	singleHits map[int32][]Row
	ranges     [][]Row
}

func (f *fakeLoader) QueryBeatmapRange(_ context.Context, _ mods.Gamemode, _, _ int32) ([]Row, error) {
	i := atomic.AddInt32(&f.rangeCalls, 1) - 1
	if int(i) >= len(f.ranges) {
		return nil, nil
	}
	return f.ranges[i], nil
}

func (f *fakeLoader) QueryBeatmapByID(_ context.Context, _ mods.Gamemode, id int32) ([]Row, error) {
	return f.singleHits[id], nil
}

func TestCacheBootstrapAll(t *testing.T) {
	Convey("Given a loader with two non-empty ranges then an empty one", t, func() {
		loader := &fakeLoader{
			ranges: [][]Row{
				{{BeatmapID: 1, NumHitCircles: 100, Mods: 0, AttribID: 1, Value: 5.0, Approved: 1, ScoreVersion: 1}},
				{{BeatmapID: 2, NumHitCircles: 200, Mods: 0, AttribID: 1, Value: 6.0, Approved: 1, ScoreVersion: 1}},
			},
		}
		kinds := map[int32]AttribKind{1: AttribAim}
		c := NewCache(mods.Standard, loader, kinds, 10000, logger.Get())

		err := c.BootstrapAll(context.Background())

		Convey("Then no error occurs and both beatmaps are cached", func() {
			So(err, ShouldBeNil)
			So(c.Len(), ShouldEqual, 2)

			b, ok := c.Get(1)
			So(ok, ShouldBeTrue)
			So(b.Attribute(mods.Standard, 0, AttribAim), ShouldEqual, float32(5.0))
		})
	})
}

func TestCacheGetOrLoad(t *testing.T) {
	Convey("Given an empty cache backed by a loader that knows beatmap 7", t, func() {
		loader := &fakeLoader{
			singleHits: map[int32][]Row{
				7: {{BeatmapID: 7, NumHitCircles: 50, Mods: 0, AttribID: 1, Value: 3.0, Approved: 1, ScoreVersion: 1}},
			},
		}
		kinds := map[int32]AttribKind{1: AttribAim}
		c := NewCache(mods.Standard, loader, kinds, 10000, logger.Get())

		Convey("When GetOrLoad is called for 7", func() {
			b, err := c.GetOrLoad(context.Background(), 7)

			Convey("Then it lazily loads and returns the beatmap", func() {
				So(err, ShouldBeNil)
				So(b, ShouldNotBeNil)
				So(b.ID, ShouldEqual, int32(7))
			})
		})

		Convey("When GetOrLoad is called for an unknown id", func() {
			b, err := c.GetOrLoad(context.Background(), 999)

			Convey("Then it returns nil without error", func() {
				So(err, ShouldBeNil)
				So(b, ShouldBeNil)
			})
		})
	})
}

func TestResolveAttribNames(t *testing.T) {
	names := map[int32]string{1: "aim", 2: "bogus_name"}
	resolved := ResolveAttribNames(names, logger.Get())
	if resolved[1] != AttribAim {
		t.Fatalf("expected AttribAim, got %v", resolved[1])
	}
	if resolved[2] != AttribUnknown {
		t.Fatalf("expected AttribUnknown for bogus name, got %v", resolved[2])
	}
}
