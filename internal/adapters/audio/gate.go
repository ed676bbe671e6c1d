package audio

import "sync/atomic"

// Gate is the game-start gate consulted by the clock. It starts closed.
type Gate struct {
	open atomic.Bool
}

// Open lets the track start.
func (g *Gate) Open() { g.open.Store(true) }

// Close holds the track. A clock that already started is not affected.
func (g *Gate) Close() { g.open.Store(false) }

// Allowed implements clock.Gate.
func (g *Gate) Allowed() bool { return g.open.Load() }
