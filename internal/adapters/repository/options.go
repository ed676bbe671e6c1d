package repository

import "github.com/okian/beatclash/pkg/logger"

// Option applies a configuration option to the Beatmap.
type Option func(*Beatmap)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(b *Beatmap) {
		if l != nil {
			b.log = l
		}
	}
}
