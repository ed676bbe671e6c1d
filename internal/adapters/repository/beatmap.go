package repository

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/okian/beatclash/internal/adapters/beatmapfile"
	"github.com/okian/beatclash/internal/domain/model"
	"github.com/okian/beatclash/internal/domain/timing"
	"github.com/okian/beatclash/pkg/logger"
	"github.com/okian/beatclash/pkg/metrics"
)

// Beatmap is the in-memory Store for one track.
//
// Events are kept sorted by bar, beat, step. Seq is the index in that order.
type Beatmap struct {
	meta    model.TrackMetadata
	sig     timing.Signature
	events  []model.Event
	loadErr error
	log     logger.Logger
}

var _ Store = (*Beatmap)(nil)

// NewBeatmap validates and orders events for a track. Events with invalid
// positions or payloads are dropped with a warning; sub-step offsets are
// clamped to one step.
func NewBeatmap(ctx context.Context, meta model.TrackMetadata, events []model.Event, opts ...Option) (*Beatmap, error) {
	sig := timing.FromTrack(meta)
	if err := sig.Validate(); err != nil {
		return nil, err
	}
	if math.IsNaN(meta.StartOffsetSeconds) || math.IsInf(meta.StartOffsetSeconds, 0) {
		return nil, fmt.Errorf("%w: start offset %v", timing.ErrInvalidSignature, meta.StartOffsetSeconds)
	}

	b := &Beatmap{
		meta: meta,
		sig:  sig,
		log:  logger.NamedOrNop("beatmap"),
	}
	for _, opt := range opts {
		opt(b)
	}

	b.events = make([]model.Event, 0, len(events))
	for i := range events {
		e, err := b.normalize(ctx, events[i])
		if err != nil {
			metrics.RecordBeatmapEventDropped()
			b.log.Warn(ctx, "dropping beatmap event",
				logger.Int("index", i),
				logger.String("position", events[i].Position.String()),
				logger.Error(err))
			continue
		}
		b.events = append(b.events, e)
	}

	sort.SliceStable(b.events, func(i, j int) bool {
		return b.events[i].Position.Less(b.events[j].Position)
	})
	for i := range b.events {
		b.events[i].Seq = i
	}

	metrics.UpdateBeatmapEventsLoaded(len(b.events))
	b.log.Info(ctx, "beatmap loaded",
		logger.String("track", meta.Name),
		logger.Int("events", len(b.events)),
		logger.Float64("bpm", meta.BPM),
		logger.Float64("start_offset", meta.StartOffsetSeconds))
	return b, nil
}

// Open loads the beatmap file at path. A missing or malformed file yields an
// empty beatmap; the cause is logged and kept in LoadErr. Only an invalid
// signature in meta is returned as an error.
func Open(ctx context.Context, path string, meta model.TrackMetadata, opts ...Option) (*Beatmap, error) {
	records, readErr := beatmapfile.ReadFile(path)
	events, recordErrs := beatmapfile.Events(records)

	b, err := NewBeatmap(ctx, meta, events, opts...)
	if err != nil {
		return nil, err
	}

	for _, rerr := range recordErrs {
		metrics.RecordBeatmapEventDropped()
		b.log.Warn(ctx, "dropping beatmap record", logger.String("path", path), logger.Error(rerr))
	}

	if readErr != nil {
		b.loadErr = fmt.Errorf("%w: %w", ErrLoad, readErr)
		metrics.RecordBeatmapLoadError()
		metrics.RecordErrorByComponent("beatmap", "load")
		b.log.Warn(ctx, "beatmap unavailable, continuing without events",
			logger.String("path", path),
			logger.Error(b.loadErr))
	}
	return b, nil
}

// LoadErr returns the load failure of Open, or nil.
func (b *Beatmap) LoadErr() error {
	return b.loadErr
}

// LoadEvents returns the whole track as live events.
func (b *Beatmap) LoadEvents(ctx context.Context) []model.Event {
	return b.Query(ctx, 0, 0)
}

// Seconds converts p to clock seconds using the track tempo and offset.
func (b *Beatmap) Seconds(p model.Position) float64 {
	return b.sig.Seconds(p, b.meta.StartOffsetSeconds)
}

// Metadata returns the track metadata.
func (b *Beatmap) Metadata() model.TrackMetadata {
	return b.meta
}

// Signature returns the track signature.
func (b *Beatmap) Signature() timing.Signature {
	return b.sig
}

// Len returns the number of loaded events.
func (b *Beatmap) Len() int {
	return len(b.events)
}

// Records returns the beatmap in file form.
func (b *Beatmap) Records() []beatmapfile.Record {
	out := make([]beatmapfile.Record, len(b.events))
	for i := range b.events {
		out[i] = beatmapfile.FromEvent(&b.events[i])
	}
	return out
}

func (b *Beatmap) live(e *model.Event) model.Event {
	return e.Live(b.Seconds(e.Position))
}

func (b *Beatmap) normalize(ctx context.Context, e model.Event) (model.Event, error) {
	if !e.Kind.Valid() {
		return e, fmt.Errorf("%w: kind %d", ErrInvalidEvent, int(e.Kind))
	}
	if err := b.sig.ValidatePosition(e.Position); err != nil {
		return e, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}

	if e.Kind == model.KindAttack {
		if e.Attack == nil {
			return e, fmt.Errorf("%w: attack without payload", ErrInvalidEvent)
		}
		if !e.Attack.Kind.Valid() {
			return e, fmt.Errorf("%w: attack kind %d", ErrInvalidEvent, int(e.Attack.Kind))
		}
		if e.Attack.DurationSteps < 0 {
			return e, fmt.Errorf("%w: duration %d", ErrInvalidEvent, e.Attack.DurationSteps)
		}
		a := *e.Attack
		e.Attack = &a
	} else {
		e.Attack = nil
	}
	e.Sustained = nil
	e.AbsoluteStart = 0

	limit := b.sig.SecondsPerStep()
	offset := e.SubStepOffset
	switch {
	case math.IsNaN(offset) || offset < 0:
		offset = 0
	case offset > limit:
		offset = limit
	}
	if offset != e.SubStepOffset {
		b.log.Warn(ctx, "clamped sub-step offset",
			logger.String("position", e.Position.String()),
			logger.Float64("offset", e.SubStepOffset),
			logger.Float64("clamped", offset))
		e.SubStepOffset = offset
	}
	return e, nil
}
