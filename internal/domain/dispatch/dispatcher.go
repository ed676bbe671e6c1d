// Package dispatch fires beatmap events in time order.
//
// The dispatcher streams bar windows from a Source, fires every event whose
// time has come, and repeats sustained attacks once per ticker step until
// their duration runs out. It runs on the frame loop and only reads clock and
// ticker state.
package dispatch

import (
	"context"
	"sort"
	"time"

	"github.com/okian/beatclash/internal/domain/model"
	"github.com/okian/beatclash/pkg/logger"
	"github.com/okian/beatclash/pkg/metrics"
)

// Source streams live events by bar range.
type Source interface {
	Query(ctx context.Context, startBar, endBar int) []model.Event
	FirstBarFrom(startBar int) (int, bool)
}

// Sink receives fire notices. Fire must not block.
type Sink interface {
	Fire(ctx context.Context, f model.Fire)
}

// Timeline is the read-only view of the playback clock.
type Timeline interface {
	HasStarted() bool
	Elapsed() float64
}

// Steps is the read-only view of the ticker.
type Steps interface {
	Position() model.Position
	TotalSteps() int64
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, f model.Fire)

// Fire calls fn.
func (fn SinkFunc) Fire(ctx context.Context, f model.Fire) { fn(ctx, f) }

type fireKey struct {
	at  float64
	seq int
}

func (k fireKey) after(o fireKey) bool {
	if k.at != o.at {
		return k.at > o.at
	}
	return k.seq > o.seq
}

// Stats is a snapshot of dispatcher state.
type Stats struct {
	WindowSize    int
	LongAttacks   int
	LoadedThrough int
	Fired         int
	Repeats       int
	Exhausted     bool
	Err           error // ErrExhausted once prefetching has stopped
}

// Dispatcher owns the active window and the sustained attack set. It is not
// safe for concurrent use.
type Dispatcher struct {
	src   Source
	sink  Sink
	clock Timeline
	steps Steps
	log   logger.Logger

	loadedBarCount int
	sessionID      string

	window        []model.Event
	longAttacks   []model.Event
	lastFired     fireKey
	hasFired      bool
	loadedThrough int
	exhausted     bool

	fired   int
	repeats int
}

// New builds a dispatcher and performs the initial window load.
func New(ctx context.Context, src Source, sink Sink, clk Timeline, steps Steps, opts ...Option) (*Dispatcher, error) {
	if src == nil || sink == nil || clk == nil || steps == nil {
		return nil, ErrNilDependency
	}

	d := &Dispatcher{
		src:            src,
		sink:           sink,
		clock:          clk,
		steps:          steps,
		log:            logger.NamedOrNop("dispatch"),
		loadedBarCount: defaultLoadedBarCount,
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.loadedBarCount == 0 {
		d.load(ctx, src.Query(ctx, 0, 0))
		d.log.Info(ctx, "loaded whole beatmap", logger.Int("events", len(d.window)))
	} else {
		d.loadedThrough = d.loadedBarCount
		d.load(ctx, src.Query(ctx, 1, d.loadedBarCount))
	}
	metrics.UpdateBeatmapExhausted(false)
	return d, nil
}

// Update runs one frame: prefetch, fire due events, then continue sustained
// attacks. It does nothing until the clock has started.
func (d *Dispatcher) Update(ctx context.Context) {
	if !d.clock.HasStarted() {
		return
	}
	start := time.Now()
	defer func() {
		metrics.RecordDispatchLatency(float64(time.Since(start).Microseconds()) / 1000)
		metrics.UpdateWindowSize(len(d.window))
		metrics.UpdateLongAttacksActive(len(d.longAttacks))
	}()

	d.prefetch(ctx)

	now := d.clock.Elapsed()
	step := d.steps.TotalSteps()
	d.fireDue(ctx, now, step)
	d.continueLongAttacks(ctx, now, step)
}

// Stats returns a snapshot of the dispatcher state.
func (d *Dispatcher) Stats() Stats {
	s := Stats{
		WindowSize:    len(d.window),
		LongAttacks:   len(d.longAttacks),
		LoadedThrough: d.loadedThrough,
		Fired:         d.fired,
		Repeats:       d.repeats,
		Exhausted:     d.exhausted,
	}
	if d.exhausted {
		s.Err = ErrExhausted
	}
	return s
}

// Done reports whether nothing is left to fire.
func (d *Dispatcher) Done() bool {
	noMore := d.exhausted || d.loadedBarCount == 0
	return noMore && len(d.window) == 0 && len(d.longAttacks) == 0
}

func (d *Dispatcher) prefetch(ctx context.Context) {
	if len(d.window) > 0 || d.loadedBarCount <= 0 || d.exhausted {
		return
	}

	next := d.loadedThrough + 1
	events := d.src.Query(ctx, next, next+d.loadedBarCount-1)
	if len(events) == 0 {
		if bar, ok := d.src.FirstBarFrom(next); ok {
			next = bar
			events = d.src.Query(ctx, next, next+d.loadedBarCount-1)
		}
	}
	if len(events) == 0 {
		d.exhausted = true
		metrics.UpdateBeatmapExhausted(true)
		d.log.Info(ctx, "no more events", logger.Int("after_bar", d.loadedThrough))
		return
	}

	d.loadedThrough = next + d.loadedBarCount - 1
	d.load(ctx, events)
	metrics.RecordWindowPrefetched()
	d.log.Debug(ctx, "window prefetched",
		logger.Int("start_bar", next),
		logger.Int("end_bar", d.loadedThrough),
		logger.Int("events", len(events)),
		logger.String("ticker", d.steps.Position().String()))
}

func (d *Dispatcher) load(_ context.Context, events []model.Event) {
	d.window = append(d.window, events...)
	sort.SliceStable(d.window, func(i, j int) bool {
		return d.window[i].Before(&d.window[j])
	})
	metrics.UpdateWindowSize(len(d.window))
}

func (d *Dispatcher) fireDue(ctx context.Context, now float64, step int64) {
	n := 0
	for ; n < len(d.window); n++ {
		e := &d.window[n]
		if e.FireAt() > now {
			break
		}
		key := fireKey{at: e.FireAt(), seq: e.Seq}
		if d.hasFired && !key.after(d.lastFired) {
			d.log.Debug(ctx, "skipping event at or before last fired",
				logger.Int("seq", e.Seq),
				logger.Float64("fire_at", e.FireAt()))
			continue
		}

		d.fire(ctx, e, model.PhaseInitial, now, step)
		d.lastFired = key
		d.hasFired = true

		if e.IsSustained() {
			e.Sustained.LastStepFired = step
			d.longAttacks = append(d.longAttacks, *e)
		}
	}
	if n > 0 {
		d.window = append(d.window[:0], d.window[n:]...)
	}
}

func (d *Dispatcher) continueLongAttacks(ctx context.Context, now float64, step int64) {
	kept := d.longAttacks[:0]
	for i := range d.longAttacks {
		e := &d.longAttacks[i]
		s := e.Sustained
		if s.LastStepFired == step {
			kept = append(kept, *e)
			continue
		}

		d.fire(ctx, e, model.PhaseRepeat, now, step)
		s.LastStepFired = step
		s.RemainingDurationSteps--
		d.repeats++
		metrics.RecordSustainedRepeat()

		if s.RemainingDurationSteps > 0 {
			kept = append(kept, *e)
		} else {
			d.log.Debug(ctx, "sustained attack finished", logger.Int("seq", e.Seq))
		}
	}
	for i := len(kept); i < len(d.longAttacks); i++ {
		d.longAttacks[i] = model.Event{}
	}
	d.longAttacks = kept
}

func (d *Dispatcher) fire(ctx context.Context, e *model.Event, phase model.Phase, now float64, step int64) {
	f := model.NewFire(d.sessionID, e, phase, now, step)
	d.sink.Fire(ctx, f)
	d.fired++
	metrics.RecordEventFired(e.Kind.String())
	d.log.Debug(ctx, "event fired",
		logger.String("id", f.ID),
		logger.String("kind", e.Kind.String()),
		logger.String("phase", phase.String()),
		logger.String("position", e.Position.String()),
		logger.Float64("fire_at", e.FireAt()),
		logger.Float64("elapsed", now),
		logger.Int("weight", f.Weight))
}
