package clock

import "github.com/okian/beatclash/pkg/logger"

// Option configures a Clock.
type Option func(*Clock)

// WithGate holds the clock in StateNotStarted until the gate allows it.
func WithGate(g Gate) Option {
	return func(c *Clock) {
		c.gate = g
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Clock) {
		if l != nil {
			c.log = l
		}
	}
}
