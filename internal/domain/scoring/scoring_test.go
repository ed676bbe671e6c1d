package scoring_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/beatclash/internal/domain/dedupe"
	"github.com/okian/beatclash/internal/domain/model"
	"github.com/okian/beatclash/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func fire(seq, repeat, owner, weight int, kind model.AttackKind) model.Fire {
	return model.Fire{
		ID:         model.FireID("s", seq, repeat),
		Seq:        seq,
		Repeat:     repeat,
		Kind:       model.KindAttack,
		OwnerID:    owner,
		AttackKind: kind,
		Weight:     weight,
	}
}

func TestLedger(t *testing.T) {
	ctx := context.Background()

	Convey("Given a ledger with a laser multiplier", t, func() {
		l := scoring.NewLedger(scoring.WithKindMultipliers(map[model.AttackKind]float64{
			model.AttackLaser:      1.5,
			model.AttackProjectile: 0,
		}))

		Convey("When attacks from two owners are applied", func() {
			r1, err := l.Apply(ctx, fire(0, 0, 1, 10, model.AttackProjectile))
			So(err, ShouldBeNil)
			r2, err := l.Apply(ctx, fire(1, 0, 2, 4, model.AttackLaser))
			So(err, ShouldBeNil)
			_, err = l.Apply(ctx, fire(1, 1, 2, 2, model.AttackLaser))
			So(err, ShouldBeNil)

			Convey("Then each owner is credited with the scaled weight", func() {
				So(r1.Delta, ShouldEqual, 10)
				So(r2.Delta, ShouldEqual, 6)
				So(l.Total(1), ShouldEqual, 10)
				So(l.Total(2), ShouldEqual, 9)
				So(l.Totals(), ShouldResemble, map[int]float64{1: 10, 2: 9})
			})

			Convey("Then attack kinds are counted", func() {
				So(l.Counts(), ShouldResemble, map[model.AttackKind]int{
					model.AttackProjectile: 1,
					model.AttackLaser:      2,
				})
				So(l.Applied(), ShouldEqual, 3)
			})
		})

		Convey("When the same notice is applied twice", func() {
			f := fire(5, 0, 1, 3, model.AttackProjectile)
			_, err := l.Apply(ctx, f)
			So(err, ShouldBeNil)
			_, err = l.Apply(ctx, f)

			Convey("Then the second is rejected and not counted", func() {
				So(errors.Is(err, scoring.ErrDuplicate), ShouldBeTrue)
				So(l.Total(1), ShouldEqual, 3)
				So(l.Applied(), ShouldEqual, 1)
			})
		})

		Convey("When a segment notice is applied", func() {
			res, err := l.Apply(ctx, model.Fire{ID: "s/9/0", Kind: model.KindSegment, Weight: 50})

			Convey("Then no score changes", func() {
				So(err, ShouldBeNil)
				So(res.Delta, ShouldEqual, 0)
				So(l.Totals(), ShouldBeEmpty)
				So(l.Applied(), ShouldEqual, 1)
			})
		})

		Convey("When a notice has no ID", func() {
			_, err := l.Apply(ctx, model.Fire{Kind: model.KindAttack})

			Convey("Then it is rejected", func() {
				So(errors.Is(err, scoring.ErrInvalidFire), ShouldBeTrue)
			})
		})
	})

	Convey("Given a ledger sharing a deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()
		d.SeenAndRecord(ctx, model.FireID("s", 0, 0))
		l := scoring.NewLedger(scoring.WithDeduper(d))

		Convey("Then IDs already seen are duplicates", func() {
			_, err := l.Apply(ctx, fire(0, 0, 1, 1, model.AttackLaser))
			So(errors.Is(err, scoring.ErrDuplicate), ShouldBeTrue)
		})
	})
}
