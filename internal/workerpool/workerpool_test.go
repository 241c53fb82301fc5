package workerpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestPoolRunsSubmittedTasks(t *testing.T) {
	Convey("Given a pool of 4 workers", t, func() {
		p := New(4, nil)
		defer p.Close()

		var ran int64
		Convey("When 50 tasks are submitted", func() {
			for i := 0; i < 50; i++ {
				p.Submit(func(ctx context.Context) error {
					atomic.AddInt64(&ran, 1)
					return nil
				})
			}
			p.Wait()

			Convey("Then every task has run and Processed matches", func() {
				So(atomic.LoadInt64(&ran), ShouldEqual, 50)
				So(p.Processed(), ShouldEqual, 50)
			})
		})
	})
}

func TestPoolWaitIsQuiescenceBarrier(t *testing.T) {
	Convey("Given a pool processing a slow task", t, func() {
		p := New(1, nil)
		defer p.Close()

		done := make(chan struct{})
		p.Submit(func(ctx context.Context) error {
			time.Sleep(20 * time.Millisecond)
			close(done)
			return nil
		})

		Convey("Wait does not return before the task finishes", func() {
			p.Wait()
			select {
			case <-done:
			default:
				t.Fatalf("Wait returned before the submitted task completed")
			}
		})
	})
}

func TestPoolToleratesTaskErrors(t *testing.T) {
	p := New(2, nil)
	defer p.Close()

	p.Submit(func(ctx context.Context) error { return errors.New("boom") })
	p.Wait()

	if p.Processed() != 1 {
		t.Fatalf("expected the failed task to still count as processed, got %d", p.Processed())
	}
}

func TestPoolCloseIsIdempotent(t *testing.T) {
	p := New(1, nil)
	p.Close()
	p.Close()
}

func TestNewClampsNonPositiveWorkerCount(t *testing.T) {
	p := New(0, nil)
	defer p.Close()

	var ran int64
	p.Submit(func(ctx context.Context) error {
		atomic.AddInt64(&ran, 1)
		return nil
	})
	p.Wait()

	if atomic.LoadInt64(&ran) != 1 {
		t.Fatalf("expected task to run even with n=0")
	}
}
