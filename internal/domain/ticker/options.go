package ticker

import (
	"github.com/okian/beatclash/internal/domain/model"
	"github.com/okian/beatclash/pkg/logger"
)

// Option configures a Ticker.
type Option func(*Ticker)

// WithInitialPosition overrides the lead-in start position.
func WithInitialPosition(p model.Position) Option {
	return func(t *Ticker) {
		t.bar, t.beat, t.step = p.Bar, p.Beat, p.Step
	}
}

// WithListener registers a boundary listener.
func WithListener(l Listener) Option {
	return func(t *Ticker) {
		t.AddListener(l)
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(t *Ticker) {
		if l != nil {
			t.log = l
		}
	}
}
