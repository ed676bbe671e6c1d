// Package ticker advances the bar/beat/step counters from clock time.
package ticker

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/beatclash/internal/domain/model"
	"github.com/okian/beatclash/internal/domain/timing"
	"github.com/okian/beatclash/pkg/logger"
	"github.com/okian/beatclash/pkg/metrics"
)

// Initial counters. The beat starts at 2 with step 0, a lead-in kept for
// compatibility with existing beatmaps.
const (
	initialBar  = 1
	initialBeat = 2
	initialStep = 0
)

// Timeline is the read-only view of the playback clock the ticker follows.
type Timeline interface {
	HasStarted() bool
	Elapsed() float64
}

// Listener receives beat and bar boundary signals.
type Listener interface {
	OnBeat(ctx context.Context, pos model.Position)
	OnBar(ctx context.Context, pos model.Position)
}

// Ticker owns the step counters. It is the only writer of its state and is
// not safe for concurrent use.
type Ticker struct {
	sig       timing.Signature
	listeners []Listener
	log       logger.Logger

	bar, beat, step int
	total           int64

	sinceLastStep float64
	prevElapsed   float64
}

// New returns a ticker at the initial lead-in position.
func New(sig timing.Signature, opts ...Option) (*Ticker, error) {
	if err := sig.Validate(); err != nil {
		return nil, err
	}

	t := &Ticker{
		sig:  sig,
		log:  logger.NamedOrNop("ticker"),
		bar:  initialBar,
		beat: initialBeat,
		step: initialStep,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// AddListener registers l for boundary signals.
func (t *Ticker) AddListener(l Listener) {
	if l != nil {
		t.listeners = append(t.listeners, l)
	}
}

// SetSignature changes tempo and meter. The next tick uses the new values.
func (t *Ticker) SetSignature(ctx context.Context, sig timing.Signature) error {
	if err := sig.Validate(); err != nil {
		return err
	}
	t.log.Info(ctx, "signature changed",
		logger.Float64("bpm", sig.BPM),
		logger.Int("beats_per_bar", sig.BeatsPerBar),
		logger.Int("steps_per_beat", sig.StepsPerBeat),
		logger.String("position", t.Position().String()))
	t.sig = sig
	return nil
}

// Signature returns the current signature.
func (t *Ticker) Signature() timing.Signature {
	return t.sig
}

// StepsAccumulated is the number of whole steps in the time since the last step.
func (t *Ticker) StepsAccumulated() int {
	return int(math.Floor(t.sinceLastStep / t.sig.SecondsPerStep()))
}

// Tick advances the counters by n steps. Zero is a no-op; negative counts are
// rejected with ErrInvalidArgument and leave the state unchanged.
func (t *Ticker) Tick(ctx context.Context, n int) error {
	if n == 0 {
		return nil
	}
	if n < 0 {
		metrics.RecordTickerInvalidTick()
		metrics.RecordErrorByComponent("ticker", "invalid_argument")
		t.log.Warn(ctx, "rejected negative tick", logger.Int("steps", n))
		return fmt.Errorf("%w: step count %d", ErrInvalidArgument, n)
	}

	t.step += n
	t.total += int64(n)
	t.sinceLastStep -= float64(n) * t.sig.SecondsPerStep()
	metrics.RecordTickerSteps(n)

	for t.step > t.sig.StepsPerBeat {
		t.step -= t.sig.StepsPerBeat
		t.beat++
		barStart := false
		for t.beat > t.sig.BeatsPerBar {
			t.beat -= t.sig.BeatsPerBar
			t.bar++
			barStart = true
		}

		at := model.Position{Bar: t.bar, Beat: t.beat, Step: 1}
		metrics.RecordTickerBeat()
		for _, l := range t.listeners {
			l.OnBeat(ctx, at)
		}
		if barStart {
			metrics.RecordTickerBar()
			t.log.Debug(ctx, "bar", logger.Int("bar", t.bar))
			for _, l := range t.listeners {
				l.OnBar(ctx, at)
			}
		}
	}
	return nil
}

// Update follows the clock for one fixed-rate update. While the clock has not
// started only the elapsed bookkeeping runs.
func (t *Ticker) Update(ctx context.Context, clk Timeline) error {
	elapsed := clk.Elapsed()
	delta := elapsed - t.prevElapsed
	t.prevElapsed = elapsed
	if !clk.HasStarted() {
		return nil
	}
	t.sinceLastStep += delta
	return t.Tick(ctx, t.StepsAccumulated())
}

// Position returns the current bar, beat and step.
func (t *Ticker) Position() model.Position {
	return model.Position{Bar: t.bar, Beat: t.beat, Step: t.step}
}

// TotalSteps is the number of steps ticked since creation.
func (t *Ticker) TotalSteps() int64 {
	return t.total
}

// TimeSinceLastStep is the time accumulated towards the next step.
func (t *Ticker) TimeSinceLastStep() float64 {
	return t.sinceLastStep
}
