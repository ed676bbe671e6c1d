// Package audio adapts gopxl/beep streamers to the playback clock.
package audio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

const (
	// DefaultSampleRate is used when no track file dictates one.
	DefaultSampleRate = beep.SampleRate(44100)

	pumpChunk       = 512
	resampleQuality = 4
)

// Stream is the audio collaborator of the playback clock.
//
// The track and any queued effects are mixed and gated by a beep.Ctrl. The
// playback position is the number of samples pulled while playing, so it
// follows whichever consumer drives Stream: a speaker or Pump.
type Stream struct {
	mu       sync.Mutex
	rate     beep.SampleRate
	mixer    *beep.Mixer
	ctrl     *beep.Ctrl
	started  bool
	consumed int
	buf      [][2]float64
	closer   io.Closer
}

// NewStream mixes track at rate. A nil track plays silence.
func NewStream(rate beep.SampleRate, track beep.Streamer) *Stream {
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	mixer := &beep.Mixer{}
	if track != nil {
		mixer.Add(track)
	}
	return &Stream{
		rate:  rate,
		mixer: mixer,
		ctrl:  &beep.Ctrl{Streamer: mixer, Paused: true},
		buf:   make([][2]float64, pumpChunk),
	}
}

// OpenWAV decodes a WAV track and resamples it to rate when needed.
func OpenWAV(path string, rate beep.SampleRate) (*Stream, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open track %s: %w", path, err)
	}
	return DecodeWAV(f, rate)
}

// DecodeWAV decodes a WAV track from r. The stream owns r.
func DecodeWAV(r io.ReadCloser, rate beep.SampleRate) (*Stream, error) {
	s, format, err := wav.Decode(r)
	if err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if rate <= 0 {
		rate = format.SampleRate
	}
	var track beep.Streamer = s
	if format.SampleRate != rate {
		track = beep.Resample(resampleQuality, format.SampleRate, rate, s)
	}
	out := NewStream(rate, track)
	out.closer = s
	return out, nil
}

// Close releases the decoded track, if any.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

// SampleRate returns the output rate.
func (s *Stream) SampleRate() beep.SampleRate {
	return s.rate
}

// Add mixes effect streamers into the output.
func (s *Stream) Add(streamers ...beep.Streamer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mixer.Add(streamers...)
}

// Pending returns the number of streamers still mixed, the track included.
func (s *Stream) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mixer.Len()
}

// Play starts playback from the beginning. Later calls are ignored.
func (s *Stream) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.ctrl.Paused = false
}

// Pause holds playback.
func (s *Stream) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctrl.Paused = true
}

// Unpause resumes playback after Pause.
func (s *Stream) Unpause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		s.ctrl.Paused = false
	}
}

// Playing reports whether samples are being consumed.
func (s *Stream) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started && !s.ctrl.Paused
}

// Position is the playback position in seconds.
func (s *Stream) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate.D(s.consumed).Seconds()
}

// Stream implements beep.Streamer. It never drains: once the track ends the
// output is silence and the position keeps advancing.
func (s *Stream) Stream(samples [][2]float64) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	playing := s.started && !s.ctrl.Paused
	n, _ := s.ctrl.Stream(samples)
	for i := n; i < len(samples); i++ {
		samples[i] = [2]float64{}
	}
	if playing {
		s.consumed += len(samples)
	}
	return len(samples), true
}

// Err implements beep.Streamer.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Err()
}

// Pump pulls d worth of samples and discards them. It drives the stream when
// no speaker is attached.
func (s *Stream) Pump(d time.Duration) int {
	n := s.rate.N(d)
	for left := n; left > 0; {
		chunk := s.buf
		if left < len(chunk) {
			chunk = chunk[:left]
		}
		got, _ := s.Stream(chunk)
		left -= got
	}
	return n
}
