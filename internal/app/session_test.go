package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/beatclash/internal/adapters/repository"
	service "github.com/okian/beatclash/internal/app"
	"github.com/okian/beatclash/internal/config"
	"github.com/okian/beatclash/internal/domain/model"
)

const fixedStep = 0.02

func testConfig() *config.Config {
	cfg := config.New(context.Background())
	cfg.FireWorkers = 1
	cfg.FireQueueSize = 64
	return cfg
}

func attack(owner, weight, duration int, kind model.AttackKind, bar, beat, step int) model.Event {
	return model.Event{
		Kind:     model.KindAttack,
		Position: model.Position{Bar: bar, Beat: beat, Step: step},
		Attack: &model.Attack{
			OwnerID:             owner,
			Kind:                kind,
			ScoreWeight:         weight,
			ExtendedScoreWeight: 1,
			DurationSteps:       duration,
		},
	}
}

func advance(ctx context.Context, s *service.Session, seconds float64) {
	for i := 0; i < int(seconds/fixedStep); i++ {
		s.FixedUpdate(ctx, fixedStep)
		s.Frame(ctx)
	}
}

func TestSession_New(t *testing.T) {
	Convey("Given the default config", t, func() {
		s, err := service.New(context.Background(), nil)

		Convey("Then a session with a UUID is created", func() {
			So(err, ShouldBeNil)
			_, perr := uuid.Parse(s.ID())
			So(perr, ShouldBeNil)
			So(s.Stats().Started, ShouldBeFalse)
			So(s.Stats().Clock, ShouldEqual, "not_started")
		})
	})

	Convey("Given an invalid config", t, func() {
		cfg := testConfig()
		cfg.BPM = 0
		_, err := service.New(context.Background(), cfg)

		Convey("Then creation fails with ErrInvalidConfig", func() {
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})
	})

	Convey("Given a missing beatmap file", t, func() {
		cfg := testConfig()
		cfg.BeatmapPath = "testdata/does-not-exist.json"
		s, err := service.New(context.Background(), cfg)

		Convey("Then the session plays an empty beatmap", func() {
			So(err, ShouldBeNil)
			So(s.Stats().Dispatch.WindowSize, ShouldEqual, 0)
		})
	})

	Convey("Given a session that has not started", t, func() {
		s, err := service.New(context.Background(), testConfig())
		So(err, ShouldBeNil)

		Convey("Then Run refuses to drive it", func() {
			So(errors.Is(s.Run(context.Background()), service.ErrNotStarted), ShouldBeTrue)
		})

		Convey("Then Stop is a no-op", func() {
			So(s.Stop(context.Background()), ShouldBeNil)
		})
	})
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestSession_FiringOrder(t *testing.T) {
	Convey("Given a started session over a two-bar beatmap", t, func() {
		ctx := context.Background()
		cfg := testConfig()
		cfg.LoadedBarCount = 1

		// 120 BPM, four steps per beat: one step is 0.125s.
		events := []model.Event{
			attack(1, 2, 0, model.AttackProjectile, 1, 3, 1), // 1.0s
			{Kind: model.KindSegment, Position: model.Position{Bar: 1, Beat: 4, Step: 1}},
			attack(2, 3, 0, model.AttackLaser, 2, 1, 1),      // 2.0s
			attack(1, 1, 2, model.AttackProjectile, 2, 2, 1), // 2.5s, two repeats
		}
		b, err := repository.NewBeatmap(ctx, cfg.Track(), events)
		So(err, ShouldBeNil)

		s, err := service.New(ctx, cfg, service.WithBeatmap(b), service.WithSessionID("e2e"))
		So(err, ShouldBeNil)
		So(s.Start(ctx), ShouldBeNil)
		defer func() { _ = s.Stop(ctx) }()

		Convey("When the clock passes the first attack only", func() {
			advance(ctx, s, 1.1)

			Convey("Then only that attack is scored", func() {
				So(waitFor(func() bool { return s.Stats().Processed == 1 }), ShouldBeTrue)
				So(s.Ledger().Total(1), ShouldEqual, 2)
				So(s.Ledger().Total(2), ShouldEqual, 0)
				So(s.Stats().Clock, ShouldEqual, "running")
			})
		})

		Convey("When the clock passes the laser", func() {
			advance(ctx, s, 2.1)

			Convey("Then the segment and laser have fired too", func() {
				So(waitFor(func() bool { return s.Stats().Processed == 3 }), ShouldBeTrue)
				So(s.Ledger().Total(2), ShouldEqual, 3)
				So(s.Stats().Dispatch.Fired, ShouldEqual, 3)
			})
		})

		Convey("When the whole beatmap has played", func() {
			advance(ctx, s, 3.5)
			So(s.Finished(), ShouldBeTrue)
			So(s.Stop(ctx), ShouldBeNil)

			Convey("Then the sustained attack repeated once per step", func() {
				st := s.Stats()
				So(st.Dispatch.Fired, ShouldEqual, 6)
				So(st.Dispatch.Repeats, ShouldEqual, 2)
				So(st.Dispatch.Exhausted, ShouldBeTrue)
				So(st.Processed, ShouldEqual, 6)
				So(st.Dropped, ShouldEqual, 0)
				So(s.Ledger().Total(1), ShouldEqual, 5)
				So(s.Ledger().Total(2), ShouldEqual, 3)
			})

			Convey("Then the session cannot be restarted", func() {
				So(errors.Is(s.Start(ctx), service.ErrStopped), ShouldBeTrue)
			})
		})
	})
}

func TestSession_Pause(t *testing.T) {
	Convey("Given a running session", t, func() {
		ctx := context.Background()
		s, err := service.New(ctx, testConfig())
		So(err, ShouldBeNil)
		So(s.Start(ctx), ShouldBeNil)
		defer func() { _ = s.Stop(ctx) }()
		advance(ctx, s, 0.5)
		before := s.Stats()

		Convey("When paused", func() {
			s.Pause(ctx)
			advance(ctx, s, 0.5)

			Convey("Then time and steps freeze", func() {
				st := s.Stats()
				So(st.Elapsed, ShouldAlmostEqual, before.Elapsed, 1e-9)
				So(st.Steps, ShouldEqual, before.Steps)
			})

			Convey("Then resuming moves time again", func() {
				s.Resume(ctx)
				advance(ctx, s, 0.5)
				So(s.Stats().Elapsed, ShouldBeGreaterThan, before.Elapsed+0.4)
			})
		})
	})
}

func TestSession_Gate(t *testing.T) {
	Convey("Given a session without auto start", t, func() {
		ctx := context.Background()
		cfg := testConfig()
		cfg.AutoStart = false
		cfg.Metronome = true
		s, err := service.New(ctx, cfg)
		So(err, ShouldBeNil)
		So(s.Start(ctx), ShouldBeNil)
		defer func() { _ = s.Stop(ctx) }()

		Convey("When updated before Begin", func() {
			advance(ctx, s, 0.5)

			Convey("Then the clock does not start", func() {
				So(s.Stats().Clock, ShouldEqual, "not_started")
				So(s.Stats().Steps, ShouldEqual, 0)
			})
		})

		Convey("When begun and played for a bar", func() {
			s.Begin()
			advance(ctx, s, 2.1)

			Convey("Then the metronome clicks on beats", func() {
				So(s.Stats().Clock, ShouldEqual, "running")
				So(s.Stats().Clicks, ShouldBeGreaterThanOrEqualTo, 3)
			})
		})
	})
}

func TestSession_Run(t *testing.T) {
	Convey("Given a started session with one early attack", t, func() {
		ctx := context.Background()
		cfg := testConfig()
		cfg.LoadedBarCount = 0
		cfg.FixedRateHz = 200
		cfg.FrameRateHz = 250
		b, err := repository.NewBeatmap(ctx, cfg.Track(), []model.Event{
			attack(7, 4, 0, model.AttackLaser, 1, 1, 2),
		})
		So(err, ShouldBeNil)
		s, err := service.New(ctx, cfg, service.WithBeatmap(b))
		So(err, ShouldBeNil)
		So(s.Start(ctx), ShouldBeNil)

		Convey("When run in real time", func() {
			rctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			err := s.Run(rctx)

			Convey("Then it returns once the beatmap is done", func() {
				So(err, ShouldBeNil)
				So(s.Stop(ctx), ShouldBeNil)
				So(s.Ledger().Total(7), ShouldEqual, 4)
			})
		})

		Convey("When the context is cancelled", func() {
			rctx, cancel := context.WithCancel(ctx)
			cancel()

			Convey("Then Run stops with the context error", func() {
				So(errors.Is(s.Run(rctx), context.Canceled), ShouldBeTrue)
				So(s.Stop(ctx), ShouldBeNil)
			})
		})
	})
}
