// Package model contains domain models passed between layers.
package model

import "fmt"

// Kind is the closed set of beatmap event kinds. Ordinals match the beatmap file format.
type Kind int

const (
	KindNone Kind = iota
	KindSegment
	KindAttack
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindSegment:
		return "segment"
	case KindAttack:
		return "attack"
	case KindCustom:
		return "custom"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k >= KindNone && k <= KindCustom
}

// AttackKind selects the weapon an attack event produces.
type AttackKind int

const (
	AttackProjectile AttackKind = iota
	AttackLaser
)

func (a AttackKind) String() string {
	switch a {
	case AttackProjectile:
		return "projectile"
	case AttackLaser:
		return "laser"
	default:
		return fmt.Sprintf("attack(%d)", int(a))
	}
}

// Valid reports whether a is a known attack kind.
func (a AttackKind) Valid() bool {
	return a == AttackProjectile || a == AttackLaser
}

// Position is a 1-indexed bar/beat/step location on the beatmap.
type Position struct {
	Bar  int
	Beat int
	Step int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d:%d", p.Bar, p.Beat, p.Step)
}

// Less orders positions lexicographically by bar, beat, step.
func (p Position) Less(o Position) bool {
	if p.Bar != o.Bar {
		return p.Bar < o.Bar
	}
	if p.Beat != o.Beat {
		return p.Beat < o.Beat
	}
	return p.Step < o.Step
}

// Attack is the payload carried by KindAttack events.
type Attack struct {
	OwnerID             int
	Kind                AttackKind
	ScoreWeight         int
	ExtendedScoreWeight int
	// DurationSteps is the number of extra fires, one per step, after the initial one.
	DurationSteps int
}

// Sustained is the countdown state of a repeating attack. Only the dispatcher mutates it.
type Sustained struct {
	RemainingDurationSteps int
	LastStepFired          int64
}

// Event is a scheduled beatmap occurrence.
//
// Authored fields come from the beatmap; AbsoluteStart and Sustained are
// filled in when the beatmap store hands out a live copy.
type Event struct {
	Seq      int
	Kind     Kind
	Position Position
	TargetID int

	// SubStepOffset delays the event within its step, in seconds.
	SubStepOffset float64

	// AbsoluteStart is derived from Position and the track tempo.
	AbsoluteStart float64

	Attack    *Attack
	Sustained *Sustained
}

// FireAt is the clock time at which the event is due.
func (e *Event) FireAt() float64 {
	return e.AbsoluteStart + e.SubStepOffset
}

// IsSustained reports whether the event repeats after its initial fire.
func (e *Event) IsSustained() bool {
	return e.Kind == KindAttack && e.Attack != nil && e.Attack.DurationSteps > 0
}

// Live returns a copy with its own attack payload and a fresh sustained countdown.
func (e Event) Live(absoluteStart float64) Event {
	e.AbsoluteStart = absoluteStart
	e.Sustained = nil
	if e.Attack != nil {
		a := *e.Attack
		e.Attack = &a
		if a.DurationSteps > 0 {
			e.Sustained = &Sustained{RemainingDurationSteps: a.DurationSteps, LastStepFired: -1}
		}
	}
	return e
}

// Before orders events by fire time, then beatmap sequence.
func (e *Event) Before(o *Event) bool {
	if e.FireAt() != o.FireAt() {
		return e.FireAt() < o.FireAt()
	}
	return e.Seq < o.Seq
}
