package identity_test

import (
	"testing"

	"github.com/okian/boothwise/internal/domain/identity"
	"github.com/okian/boothwise/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestUnion(t *testing.T) {
	Convey("Given an existing set", t, func() {
		set := []string{"go", "python"}

		Convey("When new values overlap", func() {
			out := identity.Union(set, []string{"python", "rust", "go", "rust"})

			Convey("Then only unseen values are appended in order", func() {
				So(out, ShouldResemble, []string{"go", "python", "rust"})
			})
		})

		Convey("When values differ only by case", func() {
			out := identity.Union(set, []string{"Go"})

			Convey("Then they are kept as distinct entries", func() {
				So(out, ShouldResemble, []string{"go", "python", "Go"})
			})
		})

		Convey("When nothing is added", func() {
			out := identity.Union(set, nil)

			Convey("Then nothing is removed", func() {
				So(out, ShouldResemble, set)
			})
		})
	})

	Convey("Given two empty sets", t, func() {
		out := identity.Union(nil, nil)
		So(out, ShouldNotBeNil)
		So(out, ShouldBeEmpty)
	})
}

func TestMerge(t *testing.T) {
	Convey("Given a profile with history", t, func() {
		p := model.Profile{UserID: "u1", Skills: []string{"go"}, Interests: []string{"ai"}, InteractionCount: 3}

		out := identity.Merge(p, []string{"rust"}, []string{"ai", "climate"})

		Convey("Then skills and interests are unioned and the count bumped", func() {
			So(out.Skills, ShouldResemble, []string{"go", "rust"})
			So(out.Interests, ShouldResemble, []string{"ai", "climate"})
			So(out.InteractionCount, ShouldEqual, 4)
			So(out.UserID, ShouldEqual, "u1")
		})
	})
}

func TestShouldRecommend(t *testing.T) {
	Convey("Given interaction counts", t, func() {
		So(identity.ShouldRecommend(0), ShouldBeFalse)
		So(identity.ShouldRecommend(1), ShouldBeTrue)
		So(identity.ShouldRecommend(2), ShouldBeTrue)
		So(identity.ShouldRecommend(3), ShouldBeFalse)
		So(identity.ShouldRecommend(4), ShouldBeTrue)
		So(identity.ShouldRecommend(5), ShouldBeFalse)
		So(identity.ShouldRecommend(10), ShouldBeTrue)
		So(identity.ShouldRecommend(-2), ShouldBeFalse)
	})
}
