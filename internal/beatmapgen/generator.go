// Package beatmapgen produces random but loadable beatmaps for playtesting.
package beatmapgen

import (
	"context"
	"math/rand"

	"github.com/okian/beatclash/internal/domain/model"
	"github.com/okian/beatclash/internal/domain/timing"
	"github.com/okian/beatclash/pkg/logger"
)

const (
	minWeight = 1
	maxWeight = 5
)

// Generate builds events bar by bar. The same config always yields the same
// events.
func Generate(ctx context.Context, cfg Config) ([]model.Event, error) {
	if err := cfg.Validate(ctx); err != nil {
		return nil, err
	}

	sig := timing.FromTrack(cfg.Track)
	sps := sig.SecondsPerStep()
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible playtest data

	var events []model.Event
	sustained := 0
	for bar := 1; bar <= cfg.Bars; bar++ {
		if cfg.SegmentEvery > 0 && (bar-1)%cfg.SegmentEvery == 0 {
			events = append(events, model.Event{
				Kind:     model.KindSegment,
				Position: model.Position{Bar: bar, Beat: 1, Step: 1},
			})
		}
		for beat := 1; beat <= sig.BeatsPerBar; beat++ {
			for step := 1; step <= sig.StepsPerBeat; step++ {
				if rng.Float64() >= cfg.Density {
					continue
				}
				e := randomAttack(rng, &cfg, model.Position{Bar: bar, Beat: beat, Step: step})
				if cfg.MaxOffsetFraction > 0 {
					e.SubStepOffset = rng.Float64() * cfg.MaxOffsetFraction * sps
				}
				if e.IsSustained() {
					sustained++
				}
				events = append(events, e)
			}
		}
	}

	logger.NamedOrNop("beatmapgen").Info(ctx, "beatmap generated",
		logger.String("track", cfg.Track.Name),
		logger.Int("bars", cfg.Bars),
		logger.Int("events", len(events)),
		logger.Int("sustained", sustained),
		logger.Int64("seed", cfg.Seed))
	return events, nil
}

func randomAttack(rng *rand.Rand, cfg *Config, pos model.Position) model.Event {
	owner := rng.Intn(cfg.Players) + 1
	target := owner
	if cfg.Players > 1 {
		target = rng.Intn(cfg.Players-1) + 1
		if target >= owner {
			target++
		}
	}

	kind := model.AttackProjectile
	if rng.Intn(2) == 1 {
		kind = model.AttackLaser
	}

	a := &model.Attack{
		OwnerID:     owner,
		Kind:        kind,
		ScoreWeight: minWeight + rng.Intn(maxWeight-minWeight+1),
	}
	if cfg.SustainedChance > 0 && rng.Float64() < cfg.SustainedChance {
		a.DurationSteps = 1 + rng.Intn(cfg.MaxDuration)
		a.ExtendedScoreWeight = minWeight
	}

	return model.Event{
		Kind:     model.KindAttack,
		Position: pos,
		TargetID: target,
		Attack:   a,
	}
}
