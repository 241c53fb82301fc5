package procerr

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestWrap(t *testing.T) {
	Convey("Given a wrapped sentinel", t, func() {
		err := Wrap(ErrMissingData, "beatmap 123 not found")

		Convey("Then errors.Is still matches the sentinel", func() {
			So(errors.Is(err, ErrMissingData), ShouldBeTrue)
			So(errors.Is(err, ErrTransientDB), ShouldBeFalse)
		})

		Convey("Then the message is preserved", func() {
			So(err.Error(), ShouldContainSubstring, "beatmap 123 not found")
		})
	})
}

func TestWrapf(t *testing.T) {
	err := Wrapf(ErrTransientDB, "query %s failed after %d rows", "osu_scores_high", 3)
	if !errors.Is(err, ErrTransientDB) {
		t.Fatalf("expected ErrTransientDB, got %v", err)
	}
}

func TestIsFatal(t *testing.T) {
	Convey("Given the four error kinds", t, func() {
		Convey("Transient DB and config-invalid are fatal", func() {
			So(IsFatal(ErrTransientDB), ShouldBeTrue)
			So(IsFatal(ErrConfigInvalid), ShouldBeTrue)
		})

		Convey("Missing-data and shutdown are not fatal", func() {
			So(IsFatal(ErrMissingData), ShouldBeFalse)
			So(IsFatal(ErrShutdown), ShouldBeFalse)
		})
	})
}
