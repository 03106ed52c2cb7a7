package requestid

import (
	"context"
	"testing"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRequestID(t *testing.T) {
	Convey("Given a bare context", t, func() {
		ctx := context.Background()

		Convey("Then no id is present", func() {
			So(FromContext(ctx), ShouldBeEmpty)
		})

		Convey("When Ensure is called", func() {
			ctx2, id := Ensure(ctx)

			Convey("Then a valid uuid is attached", func() {
				_, err := uuid.Parse(id)
				So(err, ShouldBeNil)
				So(FromContext(ctx2), ShouldEqual, id)
			})

			Convey("Then a second Ensure keeps the same id", func() {
				_, again := Ensure(ctx2)
				So(again, ShouldEqual, id)
			})
		})

		Convey("When an explicit id is stored", func() {
			ctx2 := WithID(ctx, "abc")
			So(FromContext(ctx2), ShouldEqual, "abc")
		})
	})
}
