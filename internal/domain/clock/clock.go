// Package clock tracks playback time against the audio stream.
//
// The clock reconciles the track's start offset between audio start and
// ticker start with an explicit state machine advanced once per fixed-rate
// update. Elapsed time is read from the audio position, never from wall-clock
// deltas, once audio is playing.
package clock

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/beatclash/pkg/logger"
	"github.com/okian/beatclash/pkg/metrics"
)

// State is the startup reconciliation state.
type State int

const (
	StateNotStarted State = iota
	StateAudioDelayed
	StateTickerDelayed
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateAudioDelayed:
		return "audio_delayed"
	case StateTickerDelayed:
		return "ticker_delayed"
	case StateRunning:
		return "running"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Audio is the playback collaborator. Position is in seconds since Play.
type Audio interface {
	Position() float64
	Play()
	Pause()
	Unpause()
}

// Gate grants permission to start the track.
type Gate interface {
	Allowed() bool
}

// Clock is the playback clock for one track. It is not safe for concurrent use.
type Clock struct {
	audio  Audio
	gate   Gate
	offset float64
	log    logger.Logger

	state   State
	timer   float64
	playing bool
	paused  bool
}

// New returns a clock in StateNotStarted.
func New(audio Audio, offset float64, opts ...Option) (*Clock, error) {
	if audio == nil {
		return nil, ErrNilAudio
	}
	if math.IsNaN(offset) || math.IsInf(offset, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOffset, offset)
	}

	c := &Clock{
		audio:  audio,
		offset: offset,
		log:    logger.NamedOrNop("clock"),
	}
	for _, opt := range opts {
		opt(c)
	}

	metrics.UpdateClockState(int(c.state))
	return c, nil
}

// Update advances the state machine by dt seconds of fixed-rate time.
func (c *Clock) Update(ctx context.Context, dt float64) {
	defer func() { metrics.UpdateClockElapsed(c.Elapsed()) }()

	switch c.state {
	case StateRunning:
		return

	case StateNotStarted:
		if c.gate != nil && !c.gate.Allowed() {
			return
		}
		switch {
		case c.offset > 0:
			c.transition(ctx, StateAudioDelayed)
		case c.offset < 0:
			c.play()
			c.transition(ctx, StateTickerDelayed)
		default:
			c.play()
			c.transition(ctx, StateRunning)
		}

	case StateAudioDelayed:
		if c.paused || dt <= 0 {
			return
		}
		c.timer += dt
		if c.timer >= c.offset {
			c.timer = c.offset
			c.play()
			c.transition(ctx, StateRunning)
		}

	case StateTickerDelayed:
		if c.audio.Position() >= -c.offset {
			c.transition(ctx, StateRunning)
		}
	}
}

// Elapsed is the current time on the beatmap timeline: the audio position
// plus the start offset while audio plays, the hold timer before that.
func (c *Clock) Elapsed() float64 {
	if c.playing {
		return c.audio.Position() + c.offset
	}
	return c.timer
}

// HasStarted reports whether the clock reached StateRunning.
func (c *Clock) HasStarted() bool {
	return c.state == StateRunning
}

// State returns the current reconciliation state.
func (c *Clock) State() State {
	return c.state
}

// Offset returns the track start offset in seconds.
func (c *Clock) Offset() float64 {
	return c.offset
}

// Remaining is the time left before the clock starts running.
func (c *Clock) Remaining() float64 {
	switch c.state {
	case StateNotStarted:
		return math.Abs(c.offset)
	case StateAudioDelayed:
		return c.offset - c.timer
	case StateTickerDelayed:
		return math.Max(0, -c.offset-c.audio.Position())
	default:
		return 0
	}
}

// Paused reports whether playback is paused.
func (c *Clock) Paused() bool {
	return c.paused
}

// Pause holds playback. Elapsed freezes with the audio position.
func (c *Clock) Pause(ctx context.Context) {
	if c.paused {
		return
	}
	c.paused = true
	if c.playing {
		c.audio.Pause()
	}
	c.log.Info(ctx, "playback paused", logger.Float64("elapsed", c.Elapsed()))
}

// Resume continues paused playback.
func (c *Clock) Resume(ctx context.Context) {
	if !c.paused {
		return
	}
	c.paused = false
	if c.playing {
		c.audio.Unpause()
	}
	c.log.Info(ctx, "playback resumed", logger.Float64("elapsed", c.Elapsed()))
}

func (c *Clock) play() {
	if c.playing {
		return
	}
	c.playing = true
	c.audio.Play()
	if c.paused {
		c.audio.Pause()
	}
}

func (c *Clock) transition(ctx context.Context, next State) {
	prev := c.state
	c.state = next
	metrics.UpdateClockState(int(next))
	c.log.Info(ctx, "clock state changed",
		logger.String("from", prev.String()),
		logger.String("to", next.String()),
		logger.Float64("offset", c.offset),
		logger.Float64("elapsed", c.Elapsed()))
}
