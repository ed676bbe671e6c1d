package audio

import (
	"time"

	"github.com/okian/beatclash/pkg/logger"
)

// MetronomeOption configures a Metronome.
type MetronomeOption func(*Metronome)

// WithClickFrequencies sets the plain and accented click pitches in Hz.
func WithClickFrequencies(plain, accent float64) MetronomeOption {
	return func(m *Metronome) {
		if plain > 0 {
			m.freq = plain
		}
		if accent > 0 {
			m.accentFreq = accent
		}
	}
}

// WithClickLength sets how long each click sounds.
func WithClickLength(d time.Duration) MetronomeOption {
	return func(m *Metronome) {
		if d > 0 {
			m.length = d
		}
	}
}

// WithAccentGain sets the linear gain applied to accented clicks.
func WithAccentGain(gain float64) MetronomeOption {
	return func(m *Metronome) {
		if gain > 0 {
			m.accentGain = gain
		}
	}
}

// WithLogger sets a custom logger for the metronome.
func WithLogger(l logger.Logger) MetronomeOption {
	return func(m *Metronome) {
		if l != nil {
			m.log = l
		}
	}
}
