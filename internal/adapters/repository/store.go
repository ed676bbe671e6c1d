// Package repository holds the beatmap store and its range index.
package repository

import (
	"context"

	"github.com/okian/beatclash/internal/domain/model"
)

// Store provides read access to a loaded beatmap.
//
// Every event returned is a fresh live copy: AbsoluteStart is resolved and
// sustained attacks carry their own countdown. The authored beatmap is never
// mutated after load.
type Store interface {
	// LoadEvents returns the whole track in order.
	LoadEvents(ctx context.Context) []model.Event

	// Query returns the events with startBar <= bar <= endBar in order.
	// startBar <= 1 means from the beginning; endBar <= 0 or endBar < startBar
	// means to the end.
	Query(ctx context.Context, startBar, endBar int) []model.Event

	// FirstBarFrom returns the first populated bar at or after startBar.
	FirstBarFrom(startBar int) (int, bool)

	// Seconds converts a position to clock seconds.
	Seconds(p model.Position) float64

	// Metadata returns the track metadata.
	Metadata() model.TrackMetadata

	// Len returns the number of loaded events.
	Len() int
}
