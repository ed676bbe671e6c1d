package model

import "fmt"

// Phase distinguishes the initial fire of an event from sustained repeats.
type Phase int

const (
	PhaseInitial Phase = iota
	PhaseRepeat
)

func (p Phase) String() string {
	if p == PhaseRepeat {
		return "repeat"
	}
	return "initial"
}

// Fire is the notice handed to the combat resolver when an event fires.
type Fire struct {
	ID         string
	SessionID  string
	Seq        int
	Repeat     int // 0 for the initial fire, n for the n-th repeat
	Kind       Kind
	Phase      Phase
	OwnerID    int
	TargetID   int
	AttackKind AttackKind
	Weight     int
	Position   Position
	At         float64 // clock elapsed seconds when fired
	Step       int64   // ticker step count when fired
}

// FireID builds the deterministic notice ID for an event fire.
func FireID(sessionID string, seq, repeat int) string {
	return fmt.Sprintf("%s/%d/%d", sessionID, seq, repeat)
}

// NewFire builds a notice for e. Attack fields are zero for non-attack events.
func NewFire(sessionID string, e *Event, phase Phase, at float64, step int64) Fire {
	f := Fire{
		SessionID: sessionID,
		Seq:       e.Seq,
		Kind:      e.Kind,
		Phase:     phase,
		TargetID:  e.TargetID,
		Position:  e.Position,
		At:        at,
		Step:      step,
	}
	if e.Attack != nil {
		f.OwnerID = e.Attack.OwnerID
		f.AttackKind = e.Attack.Kind
		f.Weight = e.Attack.ScoreWeight
		if phase == PhaseRepeat {
			f.Weight = e.Attack.ExtendedScoreWeight
			f.Repeat = e.Attack.DurationSteps
			if e.Sustained != nil {
				f.Repeat = e.Attack.DurationSteps - e.Sustained.RemainingDurationSteps + 1
			}
		}
	}
	f.ID = FireID(sessionID, f.Seq, f.Repeat)
	return f
}
