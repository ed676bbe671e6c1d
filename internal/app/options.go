package service

import (
	"github.com/okian/beatclash/internal/adapters/audio"
	"github.com/okian/beatclash/internal/adapters/repository"
	"github.com/okian/beatclash/pkg/logger"
)

// Option applies a configuration option to the Session.
type Option func(*Session)

// WithLogger sets a custom logger for the session.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBeatmap plays b instead of loading beatmap_path.
func WithBeatmap(b *repository.Beatmap) Option {
	return func(s *Session) {
		if b != nil {
			s.beatmap = b
		}
	}
}

// WithStream plays through st instead of opening audio_path.
func WithStream(st *audio.Stream) Option {
	return func(s *Session) {
		if st != nil {
			s.stream = st
		}
	}
}

// WithSessionID overrides the generated session ID.
func WithSessionID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}
