package dispatch

import "github.com/okian/beatclash/pkg/logger"

const defaultLoadedBarCount = 2

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLoadedBarCount sets how many bars each window covers. Zero loads the
// whole beatmap up front and disables prefetching.
func WithLoadedBarCount(n int) Option {
	return func(d *Dispatcher) {
		if n >= 0 {
			d.loadedBarCount = n
		}
	}
}

// WithSessionID stamps fire notices with the session ID.
func WithSessionID(id string) Option {
	return func(d *Dispatcher) {
		d.sessionID = id
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}
