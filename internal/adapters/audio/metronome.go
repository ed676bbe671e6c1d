package audio

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"

	"github.com/okian/beatclash/internal/domain/model"
	"github.com/okian/beatclash/pkg/logger"
)

const (
	defaultClickFreq   = 880.0
	defaultAccentFreq  = 1320.0
	defaultClickLength = 30 * time.Millisecond
	defaultAccentGain  = 1.6
	clickAmplitude     = 0.25
)

// Mixer receives click streamers. Stream satisfies it.
type Mixer interface {
	Add(streamers ...beep.Streamer)
	SampleRate() beep.SampleRate
}

// Metronome queues a click on every beat, accented on bar boundaries.
// It implements ticker.Listener.
type Metronome struct {
	out        Mixer
	freq       float64
	accentFreq float64
	length     time.Duration
	accentGain float64
	log        logger.Logger

	beats   atomic.Int64
	bars    atomic.Int64
	clicks  atomic.Int64
	accents atomic.Int64
}

// NewMetronome returns a metronome mixing into out.
func NewMetronome(out Mixer, opts ...MetronomeOption) *Metronome {
	m := &Metronome{
		out:        out,
		freq:       defaultClickFreq,
		accentFreq: defaultAccentFreq,
		length:     defaultClickLength,
		accentGain: defaultAccentGain,
		log:        logger.NamedOrNop("metronome"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnBeat queues a plain click. Downbeats are left to OnBar.
func (m *Metronome) OnBeat(ctx context.Context, pos model.Position) {
	m.beats.Add(1)
	if pos.Beat == 1 {
		return
	}
	m.click(ctx, pos, false)
}

// OnBar queues an accented click.
func (m *Metronome) OnBar(ctx context.Context, pos model.Position) {
	m.bars.Add(1)
	m.click(ctx, pos, true)
}

// Beats returns the number of beat signals received.
func (m *Metronome) Beats() int64 { return m.beats.Load() }

// Bars returns the number of bar signals received.
func (m *Metronome) Bars() int64 { return m.bars.Load() }

// Clicks returns the number of clicks queued, accents included.
func (m *Metronome) Clicks() int64 { return m.clicks.Load() }

// Accents returns the number of accented clicks queued.
func (m *Metronome) Accents() int64 { return m.accents.Load() }

func (m *Metronome) click(ctx context.Context, pos model.Position, accent bool) {
	if m.out == nil {
		return
	}
	sr := m.out.SampleRate()
	freq := m.freq
	if accent {
		freq = m.accentFreq
	}

	var s beep.Streamer = beep.Take(sr.N(m.length), newClickGenerator(sr, freq, sr.N(m.length)))
	if accent {
		s = &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(m.accentGain)}
		m.accents.Add(1)
	}
	m.out.Add(s)
	m.clicks.Add(1)
	m.log.Debug(ctx, "click queued", logger.String("position", pos.String()), logger.Bool("accent", accent))
}

// clickGenerator is a sine burst with a linear decay.
type clickGenerator struct {
	sr    beep.SampleRate
	freq  float64
	pos   int
	total int
}

func newClickGenerator(sr beep.SampleRate, freq float64, total int) *clickGenerator {
	if total < 1 {
		total = 1
	}
	return &clickGenerator{sr: sr, freq: freq, total: total}
}

func (g *clickGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(g.pos) / float64(g.sr)
		env := 1 - float64(g.pos)/float64(g.total)
		if env < 0 {
			env = 0
		}
		v := clickAmplitude * env * math.Sin(2*math.Pi*g.freq*t)
		samples[i][0] = v
		samples[i][1] = v
		g.pos++
	}
	return len(samples), true
}

func (g *clickGenerator) Err() error {
	return nil
}
