package beatmapgen

import (
	"context"
	"fmt"

	"github.com/okian/beatclash/internal/domain/model"
	"github.com/okian/beatclash/internal/domain/timing"
)

// Config holds the shape of a generated beatmap.
type Config struct {
	Track model.TrackMetadata

	Bars    int // number of bars to fill
	Players int // owners are numbered 1..Players

	// Density is the chance that any step carries an attack.
	Density float64

	// SustainedChance is the chance that an attack repeats for 1..MaxDuration steps.
	SustainedChance float64
	MaxDuration     int

	// SegmentEvery places a segment marker on the downbeat of every n-th bar.
	// Zero disables segments.
	SegmentEvery int

	// MaxOffsetFraction bounds the sub-step offset as a fraction of a step.
	MaxOffsetFraction float64

	// Seed makes generation reproducible.
	Seed int64
}

// DefaultConfig returns a two-player, eight-bar config at 120 BPM in 4/4.
func DefaultConfig() Config {
	return Config{
		Track: model.TrackMetadata{
			Name:         "generated",
			BPM:          120,
			BeatsPerBar:  4,
			StepsPerBeat: 4,
		},
		Bars:              8,
		Players:           2,
		Density:           0.25,
		SustainedChance:   0.1,
		MaxDuration:       4,
		SegmentEvery:      4,
		MaxOffsetFraction: 0,
		Seed:              1,
	}
}

// Validate rejects configs that cannot produce a loadable beatmap.
func (c *Config) Validate(_ context.Context) error {
	if err := timing.FromTrack(c.Track).Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Bars < 1 {
		return fmt.Errorf("%w: bars must be at least 1", ErrInvalidConfig)
	}
	if c.Players < 1 {
		return fmt.Errorf("%w: players must be at least 1", ErrInvalidConfig)
	}
	if c.Density < 0 || c.Density > 1 {
		return fmt.Errorf("%w: density must be within [0,1]", ErrInvalidConfig)
	}
	if c.SustainedChance < 0 || c.SustainedChance > 1 {
		return fmt.Errorf("%w: sustained chance must be within [0,1]", ErrInvalidConfig)
	}
	if c.SustainedChance > 0 && c.MaxDuration < 1 {
		return fmt.Errorf("%w: max duration must be at least 1", ErrInvalidConfig)
	}
	if c.SegmentEvery < 0 {
		return fmt.Errorf("%w: segment interval must not be negative", ErrInvalidConfig)
	}
	if c.MaxOffsetFraction < 0 || c.MaxOffsetFraction > 1 {
		return fmt.Errorf("%w: offset fraction must be within [0,1]", ErrInvalidConfig)
	}
	return nil
}
