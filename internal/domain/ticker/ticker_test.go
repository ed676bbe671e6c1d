package ticker_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/beatclash/internal/domain/model"
	"github.com/okian/beatclash/internal/domain/ticker"
	"github.com/okian/beatclash/internal/domain/timing"
	. "github.com/smartystreets/goconvey/convey"
)

var fourFour = timing.Signature{BPM: 120, BeatsPerBar: 4, StepsPerBeat: 4}

type recorder struct {
	beats []model.Position
	bars  []model.Position
}

func (r *recorder) OnBeat(_ context.Context, p model.Position) { r.beats = append(r.beats, p) }
func (r *recorder) OnBar(_ context.Context, p model.Position)  { r.bars = append(r.bars, p) }

type timeline struct {
	started bool
	elapsed float64
}

func (tl *timeline) HasStarted() bool { return tl.started }
func (tl *timeline) Elapsed() float64 { return tl.elapsed }

func TestNew(t *testing.T) {
	Convey("Given a valid signature", t, func() {
		tk, err := ticker.New(fourFour)
		So(err, ShouldBeNil)

		Convey("Then the ticker starts at the lead-in position", func() {
			So(tk.Position(), ShouldResemble, model.Position{Bar: 1, Beat: 2, Step: 0})
			So(tk.TotalSteps(), ShouldEqual, 0)
			So(tk.TimeSinceLastStep(), ShouldEqual, 0)
		})
	})

	Convey("Given an invalid signature", t, func() {
		_, err := ticker.New(timing.Signature{BPM: 0, BeatsPerBar: 4, StepsPerBeat: 4})

		Convey("Then construction fails", func() {
			So(errors.Is(err, timing.ErrInvalidSignature), ShouldBeTrue)
		})
	})
}

func TestTick(t *testing.T) {
	Convey("Given a 4/4 ticker with four steps per beat at 1:1:1", t, func() {
		ctx := context.Background()
		rec := &recorder{}
		tk, err := ticker.New(fourFour,
			ticker.WithInitialPosition(model.Position{Bar: 1, Beat: 1, Step: 1}),
			ticker.WithListener(rec))
		So(err, ShouldBeNil)

		Convey("When ticking zero steps", func() {
			So(tk.Tick(ctx, 0), ShouldBeNil)

			Convey("Then nothing changes", func() {
				So(tk.Position(), ShouldResemble, model.Position{Bar: 1, Beat: 1, Step: 1})
				So(tk.TotalSteps(), ShouldEqual, 0)
			})
		})

		Convey("When ticking a negative count", func() {
			err := tk.Tick(ctx, -3)

			Convey("Then it is rejected and the state is unchanged", func() {
				So(errors.Is(err, ticker.ErrInvalidArgument), ShouldBeTrue)
				So(tk.Position(), ShouldResemble, model.Position{Bar: 1, Beat: 1, Step: 1})
				So(tk.TotalSteps(), ShouldEqual, 0)
				So(tk.TimeSinceLastStep(), ShouldEqual, 0)
				So(rec.beats, ShouldBeEmpty)
			})
		})

		Convey("When ticking five steps", func() {
			So(tk.Tick(ctx, 5), ShouldBeNil)

			Convey("Then the position is 1:2:2", func() {
				So(tk.Position(), ShouldResemble, model.Position{Bar: 1, Beat: 2, Step: 2})
				So(tk.TotalSteps(), ShouldEqual, 5)
				So(rec.beats, ShouldResemble, []model.Position{{Bar: 1, Beat: 2, Step: 1}})
				So(rec.bars, ShouldBeEmpty)
			})

			Convey("Then the consumed time is subtracted", func() {
				So(tk.TimeSinceLastStep(), ShouldEqual, -5*0.125)
			})
		})

		Convey("When ticking a full bar in one call", func() {
			So(tk.Tick(ctx, 16), ShouldBeNil)

			Convey("Then every beat and the bar boundary are signalled", func() {
				So(tk.Position(), ShouldResemble, model.Position{Bar: 2, Beat: 1, Step: 1})
				So(rec.beats, ShouldResemble, []model.Position{
					{Bar: 1, Beat: 2, Step: 1},
					{Bar: 1, Beat: 3, Step: 1},
					{Bar: 1, Beat: 4, Step: 1},
					{Bar: 2, Beat: 1, Step: 1},
				})
				So(rec.bars, ShouldResemble, []model.Position{{Bar: 2, Beat: 1, Step: 1}})
			})
		})

		Convey("When the signature changes", func() {
			So(tk.SetSignature(ctx, timing.Signature{BPM: 0}), ShouldNotBeNil)
			So(tk.SetSignature(ctx, timing.Signature{BPM: 60, BeatsPerBar: 3, StepsPerBeat: 2}), ShouldBeNil)
			So(tk.Tick(ctx, 2), ShouldBeNil)

			Convey("Then rollover uses the new meter", func() {
				So(tk.Position(), ShouldResemble, model.Position{Bar: 1, Beat: 2, Step: 1})
				So(tk.Signature().StepsPerBeat, ShouldEqual, 2)
			})
		})
	})
}

func TestUpdate(t *testing.T) {
	Convey("Given a ticker following a clock", t, func() {
		ctx := context.Background()
		tk, err := ticker.New(fourFour, ticker.WithInitialPosition(model.Position{Bar: 1, Beat: 1, Step: 1}))
		So(err, ShouldBeNil)
		clk := &timeline{elapsed: 0.5}

		Convey("When the clock has not started", func() {
			So(tk.Update(ctx, clk), ShouldBeNil)

			Convey("Then only bookkeeping happens", func() {
				So(tk.Position(), ShouldResemble, model.Position{Bar: 1, Beat: 1, Step: 1})
				So(tk.TimeSinceLastStep(), ShouldEqual, 0)
			})

			Convey("Then time after start accumulates into steps", func() {
				clk.started = true
				clk.elapsed = 0.875
				So(tk.Update(ctx, clk), ShouldBeNil)
				So(tk.Position(), ShouldResemble, model.Position{Bar: 1, Beat: 1, Step: 4})
				So(tk.TimeSinceLastStep(), ShouldEqual, 0)

				clk.elapsed = 0.9375
				So(tk.Update(ctx, clk), ShouldBeNil)
				So(tk.StepsAccumulated(), ShouldEqual, 0)
				So(tk.TimeSinceLastStep(), ShouldEqual, 0.0625)

				clk.elapsed = 1.0
				So(tk.Update(ctx, clk), ShouldBeNil)
				So(tk.Position(), ShouldResemble, model.Position{Bar: 1, Beat: 2, Step: 1})
				So(tk.TotalSteps(), ShouldEqual, 4)
			})
		})
	})
}
