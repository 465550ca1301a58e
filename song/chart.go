// Package song provides the rhythm-game layer: chart loading and
// validation, a beat-based transport clock, strum judgement, scoring and
// chart instrument resolution.
package song

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// ErrInvalidChart marks any chart validation failure.
var ErrInvalidChart = errors.New("invalid chart")

// Instrument reference types as charts spell them.
const (
	InstrumentSoundFont = "soundfont"
	InstrumentVirtual   = "virtual"
)

// Chart is one playable song document.
type Chart struct {
	Meta     Meta         `json:"meta"`
	Clock    Clock        `json:"clock"`
	Playback Playback     `json:"playback"`
	Mapping  Mapping      `json:"mapping"`
	Lanes    []Lane       `json:"lanes"`
	Lyrics   []LyricEvent `json:"lyrics"`
	Sections []Section    `json:"sections"`
}

type Meta struct {
	Title   string `json:"title"`
	Artist  string `json:"artist"`
	YouTube string `json:"youtube,omitempty"`
	Spotify string `json:"spotify,omitempty"`
}

type Clock struct {
	BPM         float64 `json:"bpm"`
	TimeSig     [2]int  `json:"timeSig"`
	CountInBars int     `json:"countInBars"`
}

type Playback struct {
	DefaultInstrument  InstrumentRef `json:"defaultInstrument"`
	FallbackInstrument InstrumentRef `json:"fallbackInstrument"`
	AllowUserOverride  bool          `json:"allowUserOverrideInstrument"`
}

// InstrumentRef names an instrument by backend type ("soundfont" or
// "virtual") and display label.
type InstrumentRef struct {
	Type  string `json:"type"`
	Label string `json:"label"`
}

type Mapping struct {
	Preset string                  `json:"preset,omitempty"`
	Chords map[string]ChordMapping `json:"chords"`
}

// ChordMapping lists the fret names a chord requires, e.g. ["GREEN","RED"].
type ChordMapping struct {
	Frets []string `json:"frets"`
}

type Lane struct {
	Name   string       `json:"name"`
	Events []ChordEvent `json:"events"`
}

// ChordEvent is one authored chord on the highway.
type ChordEvent struct {
	Beat    float64 `json:"beat"`
	Dur     float64 `json:"dur"`
	Chord   string  `json:"chord"`
	Section string  `json:"section,omitempty"`
}

// UnmarshalJSON accepts the legacy "startBeat" alias for "beat".
func (e *ChordEvent) UnmarshalJSON(data []byte) error {
	var raw struct {
		Beat      *float64 `json:"beat"`
		StartBeat *float64 `json:"startBeat"`
		Dur       float64  `json:"dur"`
		Chord     string   `json:"chord"`
		Section   string   `json:"section"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = ChordEvent{Dur: raw.Dur, Chord: raw.Chord, Section: raw.Section}
	switch {
	case raw.Beat != nil:
		e.Beat = *raw.Beat
	case raw.StartBeat != nil:
		e.Beat = *raw.StartBeat
	}
	return nil
}

// LyricEvent carries a lyric line, optionally annotated per word.
type LyricEvent struct {
	Beat        float64          `json:"beat"`
	Text        string           `json:"text,omitempty"`
	Annotations []WordAnnotation `json:"annotations,omitempty"`
}

// UnmarshalJSON accepts the legacy "startBeat" alias for "beat".
func (e *LyricEvent) UnmarshalJSON(data []byte) error {
	var raw struct {
		Beat        *float64         `json:"beat"`
		StartBeat   *float64         `json:"startBeat"`
		Text        string           `json:"text"`
		Annotations []WordAnnotation `json:"annotations"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = LyricEvent{Text: raw.Text, Annotations: raw.Annotations}
	switch {
	case raw.Beat != nil:
		e.Beat = *raw.Beat
	case raw.StartBeat != nil:
		e.Beat = *raw.StartBeat
	}
	return nil
}

// WordAnnotation times a single word within a lyric line.
type WordAnnotation struct {
	Word     string `json:"word"`
	TimeBeat string `json:"timeBeat"`
}

// UnmarshalJSON accepts timeBeat as either a string or a number.
func (w *WordAnnotation) UnmarshalJSON(data []byte) error {
	var raw struct {
		Word     string          `json:"word"`
		TimeBeat json.RawMessage `json:"timeBeat"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	w.Word = raw.Word
	w.TimeBeat = ""
	if len(raw.TimeBeat) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw.TimeBeat, &s); err == nil {
		w.TimeBeat = s
		return nil
	}
	var n float64
	if err := json.Unmarshal(raw.TimeBeat, &n); err != nil {
		return fmt.Errorf("%w: timeBeat must be a string or number", ErrInvalidChart)
	}
	w.TimeBeat = strconv.FormatFloat(n, 'f', -1, 64)
	return nil
}

type Section struct {
	Name     string  `json:"name"`
	FromBeat float64 `json:"fromBeat"`
	ToBeat   float64 `json:"toBeat"`
}

// ParseChart decodes and validates a chart document.
func ParseChart(data []byte) (*Chart, error) {
	var c Chart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse chart: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the chart invariants: positive bpm, a usable time
// signature, and every authored event referencing a mapped chord with a
// positive duration.
func (c *Chart) Validate() error {
	if c.Clock.BPM <= 0 {
		return fmt.Errorf("%w: bpm must be positive, got %g", ErrInvalidChart, c.Clock.BPM)
	}
	if c.Clock.TimeSig[1] == 0 {
		return fmt.Errorf("%w: time signature denominator cannot be zero", ErrInvalidChart)
	}
	for _, lane := range c.Lanes {
		for _, ev := range lane.Events {
			if _, ok := c.Mapping.Chords[ev.Chord]; !ok {
				return fmt.Errorf("%w: chord %q not found in mapping", ErrInvalidChart, ev.Chord)
			}
			if ev.Dur <= 0 {
				return fmt.Errorf("%w: chord %q at beat %g must have positive duration", ErrInvalidChart, ev.Chord, ev.Beat)
			}
		}
	}
	return nil
}

// AllChordEvents flattens every lane into one list sorted by beat. Events on
// the same beat keep their lane order.
func (c *Chart) AllChordEvents() []ChordEvent {
	events := lo.FlatMap(c.Lanes, func(l Lane, _ int) []ChordEvent { return l.Events })
	slices.SortStableFunc(events, func(a, b ChordEvent) int { return cmp.Compare(a.Beat, b.Beat) })
	return events
}

// EventsInRange returns chord events with startBeat <= beat < endBeat.
func (c *Chart) EventsInRange(startBeat, endBeat float64) []ChordEvent {
	events := lo.FlatMap(c.Lanes, func(l Lane, _ int) []ChordEvent { return l.Events })
	return lo.Filter(events, func(e ChordEvent, _ int) bool {
		return e.Beat >= startBeat && e.Beat < endBeat
	})
}

// LyricsInRange returns lyric events with startBeat <= beat < endBeat.
func (c *Chart) LyricsInRange(startBeat, endBeat float64) []LyricEvent {
	return lo.Filter(c.Lyrics, func(l LyricEvent, _ int) bool {
		return l.Beat >= startBeat && l.Beat < endBeat
	})
}

// SectionAt returns the section covering the given beat, if any.
func (c *Chart) SectionAt(beat float64) (Section, bool) {
	return lo.Find(c.Sections, func(s Section) bool {
		return beat >= s.FromBeat && beat < s.ToBeat
	})
}

// TotalBeats is the song length in beats: the furthest chord tail or
// section end.
func (c *Chart) TotalBeats() float64 {
	total := 0.0
	for _, lane := range c.Lanes {
		for _, ev := range lane.Events {
			total = max(total, ev.Beat+ev.Dur)
		}
	}
	for _, s := range c.Sections {
		total = max(total, s.ToBeat)
	}
	return total
}

// BeatToSeconds converts a beat position to wall-clock seconds at the
// chart's tempo and the given speed multiplier.
func (c *Chart) BeatToSeconds(beat, speed float64) float64 {
	return beat * (60.0 / c.Clock.BPM) / speed
}

// SecondsToBeat converts wall-clock seconds to a beat position at the
// chart's tempo and the given speed multiplier.
func (c *Chart) SecondsToBeat(seconds, speed float64) float64 {
	return seconds / ((60.0 / c.Clock.BPM) / speed)
}

// fretLaneNames spells the five lanes the way chart mappings do.
var fretLaneNames = [5]string{"GREEN", "RED", "YELLOW", "BLUE", "ORANGE"}

// FretNames converts a held-fret mask to chart fret names, in lane order.
func FretNames(frets [5]bool) []string {
	names := make([]string, 0, len(frets))
	for lane, held := range frets {
		if held {
			names = append(names, fretLaneNames[lane])
		}
	}
	return names
}

// FretLane maps a chart fret name to its lane index.
func FretLane(name string) (int, bool) {
	for lane, n := range fretLaneNames {
		if strings.EqualFold(name, n) {
			return lane, true
		}
	}
	return 0, false
}
