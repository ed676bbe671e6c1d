package repository

import (
	"context"
	"math"
	"sort"

	"github.com/okian/beatclash/internal/domain/model"
	"github.com/okian/beatclash/pkg/logger"
)

// Query returns live copies of the events whose bar is within
// [startBar, endBar]. Out-of-range bounds are widened to the whole track.
func (b *Beatmap) Query(ctx context.Context, startBar, endBar int) []model.Event {
	if startBar < 1 {
		startBar = 1
	}
	if endBar <= 0 || endBar < startBar {
		endBar = math.MaxInt
	}

	i := b.firstAtOrAfter(startBar)
	if i == len(b.events) || b.events[i].Position.Bar > endBar {
		return nil
	}

	var out []model.Event
	for ; i < len(b.events) && b.events[i].Position.Bar <= endBar; i++ {
		out = append(out, b.live(&b.events[i]))
	}

	b.log.Debug(ctx, "window queried",
		logger.Int("start_bar", startBar),
		logger.Int("end_bar", endBar),
		logger.Int("events", len(out)))
	return out
}

// FirstBarFrom returns the bar of the first event at or after startBar.
func (b *Beatmap) FirstBarFrom(startBar int) (int, bool) {
	if startBar < 1 {
		startBar = 1
	}
	i := b.firstAtOrAfter(startBar)
	if i == len(b.events) {
		return 0, false
	}
	return b.events[i].Position.Bar, true
}

// LastBar returns the bar of the final event, or 0 for an empty beatmap.
func (b *Beatmap) LastBar() int {
	if len(b.events) == 0 {
		return 0
	}
	return b.events[len(b.events)-1].Position.Bar
}

// firstAtOrAfter is the index of the first event with bar >= bar, or len.
func (b *Beatmap) firstAtOrAfter(bar int) int {
	return sort.Search(len(b.events), func(i int) bool {
		return b.events[i].Position.Bar >= bar
	})
}
