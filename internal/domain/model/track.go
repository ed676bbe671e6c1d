package model

// TrackMetadata describes the song a beatmap is authored against.
type TrackMetadata struct {
	Name           string
	Artist         string
	BeatmapCreator string

	BPM          float64
	BeatsPerBar  int
	StepsPerBeat int

	// StartOffsetSeconds is signed: positive holds the audio back behind the
	// ticker, negative holds the ticker back behind the audio.
	StartOffsetSeconds float64

	// LengthSeconds is optional; zero means unknown.
	LengthSeconds float64
}
