// Package config defines session configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - All functions accept context.Context as the first parameter.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/okian/beatclash/internal/domain/model"
	"github.com/okian/beatclash/internal/domain/timing"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// BeatmapPath is the JSON beatmap to play. Empty plays an empty beatmap.
	BeatmapPath string `koanf:"beatmap_path"`

	// AudioPath is an optional WAV track. Empty plays silence.
	AudioPath string `koanf:"audio_path"`

	// TrackName, Artist and BeatmapCreator are informational.
	TrackName      string `koanf:"track_name"`
	Artist         string `koanf:"artist"`
	BeatmapCreator string `koanf:"beatmap_creator"`

	BPM          float64 `koanf:"bpm"`
	BeatsPerBar  int     `koanf:"beats_per_bar"`
	StepsPerBeat int     `koanf:"steps_per_beat"`

	// StartOffsetSeconds is signed. Positive delays the audio, negative
	// delays the ticker.
	StartOffsetSeconds float64 `koanf:"start_offset_seconds"`

	// TrackLengthSeconds ends the session once the clock passes it. Zero
	// runs until the beatmap is exhausted.
	TrackLengthSeconds float64 `koanf:"track_length_seconds"`

	// LoadedBarCount is the dispatcher prefetch window in bars. Zero loads
	// the whole beatmap at once.
	LoadedBarCount int `koanf:"loaded_bar_count"`

	// FixedRateHz drives clock and ticker updates; FrameRateHz drives
	// dispatching.
	FixedRateHz int `koanf:"fixed_rate_hz"`
	FrameRateHz int `koanf:"frame_rate_hz"`

	// SampleRate of the audio output.
	SampleRate int `koanf:"sample_rate"`

	// Metronome queues clicks on beats and bars.
	Metronome bool `koanf:"metronome"`

	// FireQueueSize bounds the queue between the dispatcher and the workers.
	FireQueueSize int `koanf:"fire_queue_size"`

	// FireWorkers sets the number of scoring workers.
	FireWorkers int `koanf:"fire_workers"`

	// DedupeSize bounds the fire notice deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MetricsAddr serves /metrics when set, e.g. ":9090".
	MetricsAddr string `koanf:"metrics_addr"`

	// AutoStart opens the start gate as soon as the session runs.
	AutoStart bool `koanf:"auto_start"`
}

// New creates a Config with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:       "info",
		TrackName:      "untitled",
		BPM:            120,
		BeatsPerBar:    4,
		StepsPerBeat:   4,
		LoadedBarCount: 2,
		FixedRateHz:    50,
		FrameRateHz:    60,
		SampleRate:     44100,
		FireQueueSize:  4096,
		FireWorkers:    2,
		DedupeSize:     50_000,
		AutoStart:      true,
	}
}

// Track returns the track metadata described by the config.
func (c *Config) Track() model.TrackMetadata {
	return model.TrackMetadata{
		Name:               c.TrackName,
		Artist:             c.Artist,
		BeatmapCreator:     c.BeatmapCreator,
		BPM:                c.BPM,
		BeatsPerBar:        c.BeatsPerBar,
		StepsPerBeat:       c.StepsPerBeat,
		StartOffsetSeconds: c.StartOffsetSeconds,
		LengthSeconds:      c.TrackLengthSeconds,
	}
}

// Validate checks the config for values the session cannot run with.
func (c *Config) Validate(_ context.Context) error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	if err := timing.FromTrack(c.Track()).Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if math.IsNaN(c.StartOffsetSeconds) || math.IsInf(c.StartOffsetSeconds, 0) {
		return fmt.Errorf("%w: start_offset_seconds must be finite", ErrInvalidConfig)
	}
	if c.TrackLengthSeconds < 0 {
		return fmt.Errorf("%w: track_length_seconds must not be negative", ErrInvalidConfig)
	}
	if c.LoadedBarCount < 0 {
		return fmt.Errorf("%w: loaded_bar_count must not be negative", ErrInvalidConfig)
	}
	if c.FixedRateHz <= 0 || c.FrameRateHz <= 0 {
		return fmt.Errorf("%w: fixed_rate_hz and frame_rate_hz must be positive", ErrInvalidConfig)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample_rate must be positive", ErrInvalidConfig)
	}
	if c.FireQueueSize <= 0 {
		return fmt.Errorf("%w: fire_queue_size must be positive", ErrInvalidConfig)
	}
	if c.FireWorkers <= 0 {
		return fmt.Errorf("%w: fire_workers must be positive", ErrInvalidConfig)
	}
	if c.DedupeSize < 0 {
		return fmt.Errorf("%w: dedupe_size must not be negative", ErrInvalidConfig)
	}
	return nil
}
