package main

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	app "github.com/okian/beatclash/internal/app"
	"github.com/okian/beatclash/internal/config"
	"github.com/okian/beatclash/pkg/logger"
)

func init() {
	if err := logger.Init(logger.WithOutput(&bytes.Buffer{})); err != nil {
		panic(err)
	}
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("BEATCLASH_BPM", "140")
			_ = os.Setenv("BEATCLASH_FIRE_WORKERS", "3")
			defer func() {
				_ = os.Unsetenv("BEATCLASH_BPM")
				_ = os.Unsetenv("BEATCLASH_FIRE_WORKERS")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.BPM, convey.ShouldEqual, 140)
				convey.So(cfg.FireWorkers, convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When running a short track", func() {
			cfg := config.New(context.Background())
			cfg.TrackLengthSeconds = 0.2
			cfg.FixedRateHz = 200
			cfg.FrameRateHz = 200
			cfg.LogLevel = "warn"

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			err := run(ctx, cfg)

			convey.Convey("Then it returns once the track has played", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(ctx.Err(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the context is cancelled mid-track", func() {
			cfg := config.New(context.Background())
			cfg.TrackLengthSeconds = 60
			cfg.LogLevel = "bogus"

			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			err := run(ctx, cfg)

			convey.Convey("Then it shuts down cleanly", func() {
				convey.So(err, convey.ShouldBeNil)
			})
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When testing system metrics updater", func() {
			convey.Convey("Then it should stop with its context", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startSystemMetricsUpdater(ctx)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing session metrics", func() {
			session, err := app.New(context.Background(), config.New(context.Background()))
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the updater stops with its context", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startSessionMetricsUpdater(ctx, session)
				}, convey.ShouldNotPanic)
			})

			convey.Convey("Then stats can be logged before start", func() {
				convey.So(func() {
					logSessionStats(context.Background(), session)
					updateSystemMetrics()
				}, convey.ShouldNotPanic)
			})
		})
	})
}
