package store

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestBatchHWMZeroFlushesEveryAppend(t *testing.T) {
	Convey("Given a batch with hwm 0", t, func() {
		f := NewFake()
		b := newBatch(f, 0, nil)

		Convey("When a statement is appended", func() {
			err := b.AppendAndCommit(context.Background(), "UPDATE t SET x = 1")

			Convey("Then it flushes immediately", func() {
				So(err, ShouldBeNil)
				So(b.PendingCount(), ShouldEqual, 0)
				So(f.Execs(), ShouldResemble, []string{"UPDATE t SET x = 1"})
			})
		})
	})
}

func TestBatchDefersUntilHWM(t *testing.T) {
	Convey("Given a batch with hwm 2", t, func() {
		f := NewFake()
		b := newBatch(f, 2, nil)
		ctx := context.Background()

		Convey("When two statements are appended", func() {
			So(b.AppendAndCommit(ctx, "A"), ShouldBeNil)
			So(b.AppendAndCommit(ctx, "B"), ShouldBeNil)

			Convey("Then nothing has flushed yet", func() {
				So(b.PendingCount(), ShouldEqual, 2)
				So(f.Execs(), ShouldBeEmpty)
			})

			Convey("When a third statement crosses the high-water mark", func() {
				So(b.AppendAndCommit(ctx, "C"), ShouldBeNil)

				Convey("Then all three flush together", func() {
					So(b.PendingCount(), ShouldEqual, 0)
					So(f.Execs(), ShouldResemble, []string{"A", "B", "C"})
				})
			})
		})
	})
}

func TestBatchFlushIsIdempotentOnEmpty(t *testing.T) {
	b := newBatch(NewFake(), 50, nil)
	if err := b.Flush(context.Background()); err != nil {
		t.Fatalf("flushing an empty batch should not error, got %v", err)
	}
}

func TestBatchMutexSerializesCallers(t *testing.T) {
	b := newBatch(NewFake(), 50, nil)
	mu := b.Mutex()
	mu.Lock()
	defer mu.Unlock()
	if mu != b.Mutex() {
		t.Fatalf("Mutex() should return the same lock across calls")
	}
}
