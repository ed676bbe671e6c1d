// Package scoring tallies fire notices into per-owner scores.
//
// It stands in for the combat resolver: attacks add their weight, scaled by
// a per-attack-kind multiplier, to the owner's total. Other event kinds are
// acknowledged without changing any score.
package scoring

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/okian/beatclash/internal/domain/dedupe"
	"github.com/okian/beatclash/internal/domain/model"
	"github.com/okian/beatclash/pkg/metrics"
)

const defaultMultiplier = 1.0

// Option applies a configuration option to the Ledger.
type Option func(*Ledger)

// WithKindMultipliers scales weights per attack kind. Kinds without an entry
// use 1.0; non-positive values are ignored.
func WithKindMultipliers(m map[model.AttackKind]float64) Option {
	return func(l *Ledger) {
		for kind, v := range m {
			if v > 0 {
				l.multipliers[kind] = v
			}
		}
	}
}

// WithDeduper replaces the default deduper.
func WithDeduper(d dedupe.Deduper) Option {
	return func(l *Ledger) {
		if d != nil {
			l.dedupe = d
		}
	}
}

// Result is the outcome of applying one notice.
type Result struct {
	OwnerID int
	Delta   float64
	Total   float64
}

// Resolver applies fire notices.
type Resolver interface {
	Apply(ctx context.Context, f model.Fire) (Result, error)
}

// Ledger is an in-memory Resolver safe for concurrent use.
type Ledger struct {
	mu          sync.RWMutex
	dedupe      dedupe.Deduper
	multipliers map[model.AttackKind]float64
	totals      map[int]float64
	counts      map[model.AttackKind]int
	applied     int
}

var _ Resolver = (*Ledger)(nil)

// NewLedger creates an empty ledger.
func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{
		multipliers: make(map[model.AttackKind]float64),
		totals:      make(map[int]float64),
		counts:      make(map[model.AttackKind]int),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.dedupe == nil {
		l.dedupe = dedupe.NewInMemoryDeduper()
	}
	return l
}

// Apply tallies f. A notice whose ID was already applied returns ErrDuplicate.
func (l *Ledger) Apply(ctx context.Context, f model.Fire) (Result, error) { //nolint:gocritic // hugeParam: notices travel by value
	if f.ID == "" {
		return Result{}, ErrInvalidFire
	}
	if l.dedupe.SeenAndRecord(ctx, f.ID) {
		metrics.RecordFireDuplicate()
		return Result{}, fmt.Errorf("%w: %s", ErrDuplicate, f.ID)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.applied++
	metrics.RecordFireApplied()
	if f.Kind != model.KindAttack {
		return Result{OwnerID: f.OwnerID, Total: l.totals[f.OwnerID]}, nil
	}

	delta := float64(f.Weight) * l.multiplier(f.AttackKind)
	l.totals[f.OwnerID] += delta
	l.counts[f.AttackKind]++
	total := l.totals[f.OwnerID]
	metrics.UpdateOwnerScore(strconv.Itoa(f.OwnerID), total)

	return Result{OwnerID: f.OwnerID, Delta: delta, Total: total}, nil
}

// Total returns the score of one owner.
func (l *Ledger) Total(owner int) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totals[owner]
}

// Totals returns a copy of every owner's score.
func (l *Ledger) Totals() map[int]float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[int]float64, len(l.totals))
	for k, v := range l.totals {
		out[k] = v
	}
	return out
}

// Counts returns how many attack notices of each kind were applied.
func (l *Ledger) Counts() map[model.AttackKind]int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[model.AttackKind]int, len(l.counts))
	for k, v := range l.counts {
		out[k] = v
	}
	return out
}

// Applied returns the number of notices applied, duplicates excluded.
func (l *Ledger) Applied() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.applied
}

func (l *Ledger) multiplier(kind model.AttackKind) float64 {
	if v, ok := l.multipliers[kind]; ok {
		return v
	}
	return defaultMultiplier
}
