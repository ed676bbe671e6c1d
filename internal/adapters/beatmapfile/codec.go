// Package beatmapfile reads and writes beatmap event records.
//
// A beatmap file is an indented JSON array of flat records. Event and attack
// kinds are stored as ordinals.
package beatmapfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/okian/beatclash/internal/domain/model"
)

// Record is one serialized beatmap event.
type Record struct {
	OwnerID        int     `json:"OwnerID"`
	TargetID       int     `json:"TargetID"`
	EventType      int     `json:"EventType"`
	AttackType     int     `json:"AttackType"`
	Weight         int     `json:"Weight"`
	ExtendedWeight int     `json:"ExtendedWeight"`
	StartBar       int     `json:"StartBar"`
	StartBeat      int     `json:"StartBeat"`
	StartStep      int     `json:"StartStep"`
	Offset         float64 `json:"Offset"`
	Duration       int     `json:"Duration"`
}

// Event converts the record to an authored event.
// Attack fields are ignored for non-attack kinds.
func (r Record) Event() (model.Event, error) {
	kind := model.Kind(r.EventType)
	if !kind.Valid() {
		return model.Event{}, fmt.Errorf("%w: event type %d", ErrInvalidRecord, r.EventType)
	}

	e := model.Event{
		Kind:          kind,
		Position:      model.Position{Bar: r.StartBar, Beat: r.StartBeat, Step: r.StartStep},
		TargetID:      r.TargetID,
		SubStepOffset: r.Offset,
	}
	if kind != model.KindAttack {
		return e, nil
	}

	attack := model.AttackKind(r.AttackType)
	if !attack.Valid() {
		return model.Event{}, fmt.Errorf("%w: attack type %d", ErrInvalidRecord, r.AttackType)
	}
	if r.Duration < 0 {
		return model.Event{}, fmt.Errorf("%w: negative duration %d", ErrInvalidRecord, r.Duration)
	}
	e.Attack = &model.Attack{
		OwnerID:             r.OwnerID,
		Kind:                attack,
		ScoreWeight:         r.Weight,
		ExtendedScoreWeight: r.ExtendedWeight,
		DurationSteps:       r.Duration,
	}
	return e, nil
}

// FromEvent flattens an event into a record.
func FromEvent(e *model.Event) Record {
	r := Record{
		TargetID:  e.TargetID,
		EventType: int(e.Kind),
		StartBar:  e.Position.Bar,
		StartBeat: e.Position.Beat,
		StartStep: e.Position.Step,
		Offset:    e.SubStepOffset,
	}
	if e.Attack != nil {
		r.OwnerID = e.Attack.OwnerID
		r.AttackType = int(e.Attack.Kind)
		r.Weight = e.Attack.ScoreWeight
		r.ExtendedWeight = e.Attack.ExtendedScoreWeight
		r.Duration = e.Attack.DurationSteps
	}
	return r
}

// Decode parses a JSON array of records.
func Decode(r io.Reader) ([]Record, error) {
	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return records, nil
}

// Encode writes records as indented JSON.
func Encode(w io.Writer, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode beatmap: %w", err)
	}
	return nil
}

// ReadFile decodes the beatmap at path.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("open beatmap %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return Decode(f)
}

// WriteFile encodes records to path, replacing any existing file.
func WriteFile(path string, records []Record) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("create beatmap %s: %w", path, err)
	}
	if err := Encode(f, records); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Events converts records, returning the valid events and one error per rejected record.
func Events(records []Record) ([]model.Event, []error) {
	events := make([]model.Event, 0, len(records))
	var errs []error
	for i, r := range records {
		e, err := r.Event()
		if err != nil {
			errs = append(errs, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		events = append(events, e)
	}
	return events, errs
}
