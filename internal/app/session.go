// Package service wires one playback session: audio, clock, ticker,
// dispatcher and the fire pipeline that resolves what the dispatcher emits.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gopxl/beep"

	"github.com/okian/beatclash/internal/adapters/audio"
	"github.com/okian/beatclash/internal/adapters/mq/queue"
	"github.com/okian/beatclash/internal/adapters/mq/worker"
	"github.com/okian/beatclash/internal/adapters/repository"
	"github.com/okian/beatclash/internal/config"
	"github.com/okian/beatclash/internal/domain/clock"
	"github.com/okian/beatclash/internal/domain/dedupe"
	"github.com/okian/beatclash/internal/domain/dispatch"
	"github.com/okian/beatclash/internal/domain/model"
	"github.com/okian/beatclash/internal/domain/scoring"
	"github.com/okian/beatclash/internal/domain/ticker"
	"github.com/okian/beatclash/pkg/logger"
	"github.com/okian/beatclash/pkg/metrics"
)

const nanosecondsPerMillisecond = 1e6

// Stats is a snapshot of a session.
type Stats struct {
	SessionID string
	Started   bool
	Clock     string
	Elapsed   float64
	Position  model.Position
	Steps     int64
	Dispatch  dispatch.Stats
	QueueLen  int
	Dropped   int64
	Processed int64
	Totals    map[int]float64
	Clicks    int64
}

// Session owns one of each component for a track. FixedUpdate and Frame must
// be driven from a single goroutine, which Run does.
type Session struct {
	mu sync.RWMutex

	id      string
	cfg     config.Config
	track   model.TrackMetadata
	beatmap *repository.Beatmap

	stream     *audio.Stream
	gate       *audio.Gate
	metronome  *audio.Metronome
	clock      *clock.Clock
	ticker     *ticker.Ticker
	dispatcher *dispatch.Dispatcher

	queue  *queue.InMemoryQueue
	sink   *queue.Sink
	ledger *scoring.Ledger
	pool   *worker.Pool

	started bool
	stopped bool

	logger logger.Logger
}

// New builds a session from cfg. A beatmap that fails to load, or an audio
// track that fails to decode, degrades to an empty beatmap or silence.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Session, error) {
	if cfg == nil {
		cfg = config.New(ctx)
	}
	if err := cfg.Validate(ctx); err != nil {
		return nil, err
	}

	s := &Session{
		id:     uuid.NewString(),
		cfg:    *cfg,
		track:  cfg.Track(),
		gate:   &audio.Gate{},
		logger: logger.NamedOrNop("session"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.loadBeatmap(ctx); err != nil {
		return nil, err
	}
	s.track = s.beatmap.Metadata()
	s.openStream(ctx)

	tickerOpts := []ticker.Option{ticker.WithLogger(s.logger.Named("ticker"))}
	if cfg.Metronome {
		s.metronome = audio.NewMetronome(s.stream, audio.WithLogger(s.logger.Named("metronome")))
		tickerOpts = append(tickerOpts, ticker.WithListener(s.metronome))
	}

	var err error
	s.ticker, err = ticker.New(s.beatmap.Signature(), tickerOpts...)
	if err != nil {
		return nil, fmt.Errorf("create ticker: %w", err)
	}
	s.clock, err = clock.New(s.stream, s.track.StartOffsetSeconds,
		clock.WithGate(s.gate),
		clock.WithLogger(s.logger.Named("clock")))
	if err != nil {
		return nil, fmt.Errorf("create clock: %w", err)
	}

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(cfg.FireQueueSize))
	s.sink = queue.NewSink(s.queue, queue.WithSinkLogger(s.logger.Named("fire-sink")))
	s.ledger = scoring.NewLedger(scoring.WithDeduper(dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(cfg.DedupeSize))))
	s.pool = worker.NewPool(cfg.FireWorkers, s.queue, s.ledger, worker.WithLogger(s.logger.Named("worker")))

	s.dispatcher, err = dispatch.New(ctx, s.beatmap, s.sink, s.clock, s.ticker,
		dispatch.WithLoadedBarCount(cfg.LoadedBarCount),
		dispatch.WithSessionID(s.id),
		dispatch.WithLogger(s.logger.Named("dispatch")))
	if err != nil {
		return nil, fmt.Errorf("create dispatcher: %w", err)
	}

	s.logger.Info(ctx, "session created",
		logger.String("session", s.id),
		logger.String("track", s.track.Name),
		logger.Float64("bpm", s.track.BPM),
		logger.Int("events", s.beatmap.Len()),
		logger.Float64("offset", s.track.StartOffsetSeconds))
	return s, nil
}

func (s *Session) loadBeatmap(ctx context.Context) error {
	if s.beatmap != nil {
		return nil
	}
	opts := []repository.Option{repository.WithLogger(s.logger.Named("beatmap"))}
	if s.cfg.BeatmapPath == "" {
		b, err := repository.NewBeatmap(ctx, s.track, nil, opts...)
		if err != nil {
			return fmt.Errorf("create beatmap: %w", err)
		}
		s.beatmap = b
		return nil
	}
	b, err := repository.Open(ctx, s.cfg.BeatmapPath, s.track, opts...)
	if err != nil {
		return fmt.Errorf("open beatmap: %w", err)
	}
	if loadErr := b.LoadErr(); loadErr != nil {
		s.logger.Warn(ctx, "beatmap not loaded, playing an empty beatmap",
			logger.String("path", s.cfg.BeatmapPath), logger.Error(loadErr))
	}
	s.beatmap = b
	return nil
}

func (s *Session) openStream(ctx context.Context) {
	if s.stream != nil {
		return
	}
	rate := beep.SampleRate(s.cfg.SampleRate)
	if s.cfg.AudioPath != "" {
		st, err := audio.OpenWAV(s.cfg.AudioPath, rate)
		if err == nil {
			s.stream = st
			return
		}
		metrics.RecordErrorByComponent("session", "audio_open")
		s.logger.Warn(ctx, "audio track not loaded, playing silence",
			logger.String("path", s.cfg.AudioPath), logger.Error(err))
	}
	s.stream = audio.NewStream(rate, nil)
}

// ID returns the session ID stamped on every fire notice.
func (s *Session) ID() string {
	return s.id
}

// Start runs the worker pool and, with auto_start, opens the start gate.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}
	if s.started {
		return nil
	}

	// Workers outlive ctx so Stop can drain what the dispatcher already fired.
	s.pool.Start(context.WithoutCancel(ctx))
	metrics.UpdateFireQueueCapacity(s.queue.Capacity())
	if s.cfg.AutoStart {
		s.gate.Open()
	}
	s.started = true

	s.logger.Info(ctx, "session started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queue.Capacity()),
		logger.Bool("autoStart", s.cfg.AutoStart))
	return nil
}

// Begin opens the start gate. The clock starts on the next fixed update.
func (s *Session) Begin() {
	s.gate.Open()
}

// Stop drains outstanding fire notices and releases the audio track.
func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.stopped {
		return nil
	}
	s.logger.Info(ctx, "stopping session...")

	var firstErr error
	if err := s.pool.Drain(ctx); err != nil {
		firstErr = fmt.Errorf("drain fire workers: %w", err)
	}
	if err := s.stream.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close audio: %w", err)
	}

	s.stopped = true
	s.started = false
	s.logger.Info(ctx, "session stopped",
		logger.Int64("processed", s.pool.Processed()),
		logger.Int64("dropped", s.sink.Dropped()))
	return firstErr
}

// FixedUpdate advances time by dt seconds: audio output, then clock, then
// ticker.
func (s *Session) FixedUpdate(ctx context.Context, dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	if dt > 0 {
		s.stream.Pump(time.Duration(dt * float64(time.Second)))
	}
	s.clock.Update(ctx, dt)
	if err := s.ticker.Update(ctx, s.clock); err != nil {
		metrics.RecordErrorByComponent("session", "ticker_update")
		s.logger.Error(ctx, "ticker update failed", logger.Error(err))
	}
	metrics.RecordFixedUpdateLatency(float64(time.Since(start).Nanoseconds()) / nanosecondsPerMillisecond)
}

// Frame fires whatever is due against the current clock and ticker state.
func (s *Session) Frame(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dispatcher.Update(ctx)
	metrics.UpdateFireQueueSize(s.queue.Len(ctx))
}

// Finished reports whether the track length has been played out or, for
// tracks of unknown length, whether the beatmap has nothing left to fire.
func (s *Session) Finished() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.finished()
}

func (s *Session) finished() bool {
	if s.track.LengthSeconds > 0 {
		return s.clock.HasStarted() && s.clock.Elapsed() >= s.track.LengthSeconds
	}
	return s.dispatcher.Done()
}

// Run drives fixed updates and frames at their configured rates until ctx is
// cancelled or the session finishes. A due fixed update always runs before
// the frame that follows it.
func (s *Session) Run(ctx context.Context) error {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}

	fixedEvery := time.Second / time.Duration(s.cfg.FixedRateHz)
	frameEvery := time.Second / time.Duration(s.cfg.FrameRateHz)
	dt := fixedEvery.Seconds()

	fixed := time.NewTicker(fixedEvery)
	defer fixed.Stop()
	frame := time.NewTicker(frameEvery)
	defer frame.Stop()

	s.logger.Info(ctx, "session running",
		logger.Duration("fixedEvery", fixedEvery),
		logger.Duration("frameEvery", frameEvery))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-fixed.C:
			s.FixedUpdate(ctx, dt)
		case <-frame.C:
			select {
			case <-fixed.C:
				s.FixedUpdate(ctx, dt)
			default:
			}
			s.Frame(ctx)
			if s.Finished() {
				s.logger.Info(ctx, "session finished")
				return nil
			}
		}
	}
}

// Pause holds playback; the clock and ticker freeze with it.
func (s *Session) Pause(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock.Pause(ctx)
}

// Resume continues playback after Pause.
func (s *Session) Resume(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock.Resume(ctx)
}

// Stats returns a snapshot of the session.
func (s *Session) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		SessionID: s.id,
		Started:   s.started,
		Clock:     s.clock.State().String(),
		Elapsed:   s.clock.Elapsed(),
		Position:  s.ticker.Position(),
		Steps:     s.ticker.TotalSteps(),
		Dispatch:  s.dispatcher.Stats(),
		QueueLen:  s.queue.Len(context.Background()),
		Dropped:   s.sink.Dropped(),
		Processed: s.pool.Processed(),
		Totals:    s.ledger.Totals(),
	}
	if s.metronome != nil {
		st.Clicks = s.metronome.Clicks()
	}
	return st
}

// Ledger exposes the score ledger fed by the fire workers.
func (s *Session) Ledger() *scoring.Ledger {
	return s.ledger
}
