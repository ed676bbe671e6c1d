package clock_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/okian/beatclash/internal/domain/clock"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeAudio struct {
	pos      float64
	playing  bool
	paused   bool
	plays    int
	pauses   int
	unpauses int
}

func (a *fakeAudio) Position() float64 { return a.pos }
func (a *fakeAudio) Play()             { a.playing = true; a.plays++ }
func (a *fakeAudio) Pause()            { a.paused = true; a.pauses++ }
func (a *fakeAudio) Unpause()          { a.paused = false; a.unpauses++ }

// advance moves the audio forward when it is playing and unpaused.
func (a *fakeAudio) advance(dt float64) {
	if a.playing && !a.paused {
		a.pos += dt
	}
}

type fakeGate struct{ open bool }

func (g *fakeGate) Allowed() bool { return g.open }

func step(ctx context.Context, c *clock.Clock, a *fakeAudio, dt float64) {
	a.advance(dt)
	c.Update(ctx, dt)
}

func TestNew(t *testing.T) {
	Convey("Given bad constructor arguments", t, func() {
		_, err := clock.New(nil, 0)
		So(errors.Is(err, clock.ErrNilAudio), ShouldBeTrue)

		_, err = clock.New(&fakeAudio{}, math.NaN())
		So(errors.Is(err, clock.ErrInvalidOffset), ShouldBeTrue)

		_, err = clock.New(&fakeAudio{}, math.Inf(1))
		So(errors.Is(err, clock.ErrInvalidOffset), ShouldBeTrue)
	})
}

func TestZeroOffset(t *testing.T) {
	Convey("Given a clock with no start offset behind a closed gate", t, func() {
		ctx := context.Background()
		audio := &fakeAudio{}
		gate := &fakeGate{}
		c, err := clock.New(audio, 0, clock.WithGate(gate))
		So(err, ShouldBeNil)

		Convey("When the gate stays closed", func() {
			for i := 0; i < 10; i++ {
				step(ctx, c, audio, 0.02)
			}

			Convey("Then nothing starts", func() {
				So(c.State(), ShouldEqual, clock.StateNotStarted)
				So(c.HasStarted(), ShouldBeFalse)
				So(audio.plays, ShouldEqual, 0)
				So(c.Elapsed(), ShouldEqual, 0)
			})
		})

		Convey("When the gate opens", func() {
			gate.open = true
			step(ctx, c, audio, 0.02)

			Convey("Then the clock runs immediately with audio", func() {
				So(c.State(), ShouldEqual, clock.StateRunning)
				So(c.HasStarted(), ShouldBeTrue)
				So(audio.plays, ShouldEqual, 1)
			})

			Convey("Then elapsed follows the audio position", func() {
				audio.pos = 1.25
				So(c.Elapsed(), ShouldEqual, 1.25)
			})

			Convey("Then running is terminal", func() {
				gate.open = false
				step(ctx, c, audio, 0.02)
				So(c.State(), ShouldEqual, clock.StateRunning)
				So(audio.plays, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a clock without a gate", t, func() {
		audio := &fakeAudio{}
		c, err := clock.New(audio, 0)
		So(err, ShouldBeNil)

		Convey("Then the first update starts it", func() {
			c.Update(context.Background(), 0.01)
			So(c.HasStarted(), ShouldBeTrue)
		})
	})
}

func TestPositiveOffset(t *testing.T) {
	Convey("Given a clock with a 0.5 second start offset", t, func() {
		ctx := context.Background()
		audio := &fakeAudio{}
		c, err := clock.New(audio, 0.5)
		So(err, ShouldBeNil)

		Convey("When the first update opens the gate", func() {
			step(ctx, c, audio, 0.1)

			Convey("Then audio is held while the timer runs", func() {
				So(c.State(), ShouldEqual, clock.StateAudioDelayed)
				So(audio.plays, ShouldEqual, 0)
				So(c.Remaining(), ShouldEqual, 0.5)
			})
		})

		Convey("When the timer reaches the offset", func() {
			step(ctx, c, audio, 0.1)
			for i := 0; i < 3; i++ {
				step(ctx, c, audio, 0.125)
			}
			So(c.HasStarted(), ShouldBeFalse)
			So(c.Elapsed(), ShouldEqual, 0.375)
			step(ctx, c, audio, 0.125)

			Convey("Then audio starts and the clock runs", func() {
				So(c.State(), ShouldEqual, clock.StateRunning)
				So(audio.plays, ShouldEqual, 1)
				So(c.Remaining(), ShouldEqual, 0)
			})

			Convey("Then elapsed continues from the offset", func() {
				So(c.Elapsed(), ShouldEqual, 0.5)
				step(ctx, c, audio, 0.25)
				So(c.Elapsed(), ShouldEqual, 0.75)
			})
		})

		Convey("When paused during the hold", func() {
			step(ctx, c, audio, 0.1)
			c.Pause(ctx)
			for i := 0; i < 10; i++ {
				step(ctx, c, audio, 0.125)
			}

			Convey("Then the timer does not advance", func() {
				So(c.State(), ShouldEqual, clock.StateAudioDelayed)
				So(c.Elapsed(), ShouldEqual, 0)
				So(audio.pauses, ShouldEqual, 0)
			})
		})
	})
}

func TestNegativeOffset(t *testing.T) {
	Convey("Given a clock with a -2 second start offset", t, func() {
		ctx := context.Background()
		audio := &fakeAudio{}
		c, err := clock.New(audio, -2)
		So(err, ShouldBeNil)

		Convey("When the gate opens", func() {
			c.Update(ctx, 0.02)

			Convey("Then audio starts immediately and the ticker is held", func() {
				So(audio.plays, ShouldEqual, 1)
				So(c.State(), ShouldEqual, clock.StateTickerDelayed)
				So(c.HasStarted(), ShouldBeFalse)
				So(c.Remaining(), ShouldEqual, 2)
				So(c.Elapsed(), ShouldEqual, -2)
			})
		})

		Convey("When audio plays for less than two seconds", func() {
			c.Update(ctx, 0.02)
			for i := 0; i < 15; i++ {
				step(ctx, c, audio, 0.125)
			}

			Convey("Then the clock is still held", func() {
				So(c.HasStarted(), ShouldBeFalse)
				So(c.Remaining(), ShouldEqual, 0.125)
			})

			Convey("Then it runs once audio reaches two seconds", func() {
				step(ctx, c, audio, 0.125)
				So(c.HasStarted(), ShouldBeTrue)
				So(c.Elapsed(), ShouldEqual, 0)
				So(audio.plays, ShouldEqual, 1)
			})
		})
	})
}

func TestPauseResume(t *testing.T) {
	Convey("Given a running clock", t, func() {
		ctx := context.Background()
		audio := &fakeAudio{}
		c, err := clock.New(audio, 0)
		So(err, ShouldBeNil)
		step(ctx, c, audio, 0.1)
		step(ctx, c, audio, 0.5)
		So(c.Elapsed(), ShouldEqual, 0.5)

		Convey("When paused", func() {
			c.Pause(ctx)
			c.Pause(ctx)
			step(ctx, c, audio, 0.5)

			Convey("Then the audio is paused once and time freezes", func() {
				So(audio.pauses, ShouldEqual, 1)
				So(c.Paused(), ShouldBeTrue)
				So(c.Elapsed(), ShouldEqual, 0.5)
			})

			Convey("Then resume continues the audio", func() {
				c.Resume(ctx)
				step(ctx, c, audio, 0.25)
				So(audio.unpauses, ShouldEqual, 1)
				So(c.Elapsed(), ShouldEqual, 0.75)
			})
		})
	})
}

func TestStateString(t *testing.T) {
	Convey("Given the states", t, func() {
		So(clock.StateNotStarted.String(), ShouldEqual, "not_started")
		So(clock.StateAudioDelayed.String(), ShouldEqual, "audio_delayed")
		So(clock.StateTickerDelayed.String(), ShouldEqual, "ticker_delayed")
		So(clock.StateRunning.String(), ShouldEqual, "running")
		So(clock.State(9).String(), ShouldEqual, "state(9)")
	})
}
