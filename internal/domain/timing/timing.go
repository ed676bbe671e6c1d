// Package timing converts beatmap positions to playback seconds.
//
// Positions are 1-indexed. A track's timeline starts at bar 1, beat 1,
// step 1, which sits StartOffsetSeconds into the clock's timeline; no
// lead-in steps are added here (the ticker's lead-in is its own concern).
package timing

import (
	"fmt"
	"math"

	"github.com/okian/beatclash/internal/domain/model"
)

// Signature is the tempo and meter of a track.
type Signature struct {
	BPM          float64
	BeatsPerBar  int // numerator
	StepsPerBeat int // subdivisions of a beat
}

// FromTrack reads the signature of a track.
func FromTrack(meta model.TrackMetadata) Signature {
	return Signature{BPM: meta.BPM, BeatsPerBar: meta.BeatsPerBar, StepsPerBeat: meta.StepsPerBeat}
}

// Validate rejects signatures that cannot produce a finite step length.
func (s Signature) Validate() error {
	if s.BPM <= 0 || math.IsNaN(s.BPM) || math.IsInf(s.BPM, 0) {
		return fmt.Errorf("%w: bpm %v", ErrInvalidSignature, s.BPM)
	}
	if s.BeatsPerBar <= 0 {
		return fmt.Errorf("%w: beats per bar %d", ErrInvalidSignature, s.BeatsPerBar)
	}
	if s.StepsPerBeat <= 0 {
		return fmt.Errorf("%w: steps per beat %d", ErrInvalidSignature, s.StepsPerBeat)
	}
	return nil
}

// SecondsPerStep is 60 / (bpm * stepsPerBeat).
func (s Signature) SecondsPerStep() float64 {
	return 60 / (s.BPM * float64(s.StepsPerBeat))
}

// StepsPerBar is the number of steps in one bar.
func (s Signature) StepsPerBar() int {
	return s.BeatsPerBar * s.StepsPerBeat
}

// ValidatePosition checks that every component is within the signature.
func (s Signature) ValidatePosition(p model.Position) error {
	switch {
	case p.Bar < 1:
		return fmt.Errorf("%w: bar %d in %s", ErrInvalidPosition, p.Bar, p)
	case p.Beat < 1 || p.Beat > s.BeatsPerBar:
		return fmt.Errorf("%w: beat %d in %s", ErrInvalidPosition, p.Beat, p)
	case p.Step < 1 || p.Step > s.StepsPerBeat:
		return fmt.Errorf("%w: step %d in %s", ErrInvalidPosition, p.Step, p)
	}
	return nil
}

// TotalSteps is the zero-based step index of p.
func (s Signature) TotalSteps(p model.Position) int {
	return (p.Bar-1)*s.BeatsPerBar*s.StepsPerBeat + (p.Beat-1)*s.StepsPerBeat + (p.Step - 1)
}

// Position inverts TotalSteps.
func (s Signature) Position(totalSteps int) model.Position {
	perBar := s.StepsPerBar()
	return model.Position{
		Bar:  totalSteps/perBar + 1,
		Beat: (totalSteps%perBar)/s.StepsPerBeat + 1,
		Step: totalSteps%s.StepsPerBeat + 1,
	}
}

// Seconds converts p to clock seconds: totalSteps * secondsPerStep + offset.
func (s Signature) Seconds(p model.Position, offset float64) float64 {
	return float64(s.TotalSteps(p))*s.SecondsPerStep() + offset
}
