package mapping

import (
	"slices"

	"github.com/janvanwassenhove/mITyGuitar/controller"
)

// Strum velocity is fixed until the capture layer reports a real one.
const strumVelocity = 100

// whammyDeadband filters axis noise around the whammy rest position.
const whammyDeadband = 0.01

// Mapper converts controller snapshots into ordered musical events. Chords
// trigger on the strum edge, release when the strum bar returns, and
// retrigger when the fret combination changes while sounding.
type Mapper struct {
	genre        Genre
	patterns     []Pattern
	patternIndex int

	lastStrum   bool
	lastFrets   []int
	activeNotes []uint8

	keyRoot uint8
	major   bool
}

// NewMapper starts in the given genre, key of E, major mode.
func NewMapper(genre Genre) *Mapper {
	return NewMapperKeyMode(genre, 4, true)
}

// NewMapperKeyMode starts with an explicit key root (0-11, C=0) and mode.
func NewMapperKeyMode(genre Genre, keyRoot uint8, major bool) *Mapper {
	return &Mapper{
		genre:    genre,
		patterns: genre.Patterns(),
		keyRoot:  keyRoot % 12,
		major:    major,
	}
}

// Process consumes one snapshot and returns the events it implies, in
// order: releases first, then triggers, then pitch bend.
func (m *Mapper) Process(snap controller.Snapshot) []Event {
	var events []Event

	frets := snap.PressedFrets()

	strumActive := snap.IsStrumming()
	strumTriggered := strumActive && !m.lastStrum
	strumReleased := !strumActive && m.lastStrum
	m.lastStrum = strumActive

	fretsChanged := !slices.Equal(frets, m.lastFrets) && len(m.activeNotes) > 0

	switch {
	case strumTriggered:
		events = m.releaseActive(events)
		events = m.triggerChord(events, frets)
		m.lastFrets = frets
	case strumReleased:
		events = m.releaseActive(events)
		m.lastFrets = frets
	case fretsChanged:
		events = m.releaseActive(events)
		events = m.triggerChord(events, frets)
		m.lastFrets = frets
	}

	if whammy := snap.Whammy; whammy > whammyDeadband || whammy < -whammyDeadband {
		events = append(events, PitchBend(int16(whammy*8191)))
	}

	return events
}

func (m *Mapper) releaseActive(events []Event) []Event {
	for _, note := range m.activeNotes {
		events = append(events, NoteOff(note))
	}
	m.activeNotes = m.activeNotes[:0]
	return events
}

func (m *Mapper) triggerChord(events []Event, frets []int) []Event {
	baseNote := 40 + m.keyRoot // E2 + key root offset

	chord, ok := m.fretComboToChord(frets)
	if !ok {
		// Open strum: single root note.
		events = append(events, NoteOn(baseNote, strumVelocity))
		m.activeNotes = append(m.activeNotes, baseNote)
		return events
	}

	for _, note := range chord.MIDINotes(baseNote) {
		events = append(events, NoteOn(note, strumVelocity))
		m.activeNotes = append(m.activeNotes, note)
	}
	return events
}

// fretComboToChord maps the held frets through the active pattern and
// applies the minor-mode downgrade.
func (m *Mapper) fretComboToChord(frets []int) (Chord, bool) {
	if len(frets) == 0 || len(m.patterns) == 0 {
		return Chord{}, false
	}

	pattern := m.patterns[m.patternIndex%len(m.patterns)]
	chord, ok := pattern.MapFrets(frets)
	if !ok {
		return Chord{}, false
	}

	// In minor keys major colors flatten; power, sus and dominant stand.
	if !m.major {
		switch chord.Quality {
		case Major:
			chord.Quality = Minor
		case Major7:
			chord.Quality = Minor7
		}
	}

	return chord, true
}

// Panic releases everything and appends the all-notes-off event.
func (m *Mapper) Panic() []Event {
	events := m.releaseActive(nil)
	return append(events, Panic())
}

// SetGenre switches genre and resets the pattern cycle.
func (m *Mapper) SetGenre(genre Genre) {
	m.genre = genre
	m.patterns = genre.Patterns()
	m.patternIndex = 0
}

func (m *Mapper) Genre() Genre {
	return m.genre
}

// SetKeyRoot sets the key root, 0-11 for C-B.
func (m *Mapper) SetKeyRoot(keyRoot uint8) {
	m.keyRoot = keyRoot % 12
}

func (m *Mapper) KeyRoot() uint8 {
	return m.keyRoot
}

// SetMajor sets the mode; false means minor.
func (m *Mapper) SetMajor(major bool) {
	m.major = major
}

func (m *Mapper) IsMajor() bool {
	return m.major
}

// NextPattern advances the pattern cycle, wrapping at the end.
func (m *Mapper) NextPattern() {
	if len(m.patterns) > 0 {
		m.patternIndex = (m.patternIndex + 1) % len(m.patterns)
	}
}

// PrevPattern steps the pattern cycle backwards, wrapping at zero.
func (m *Mapper) PrevPattern() {
	if len(m.patterns) == 0 {
		return
	}
	if m.patternIndex == 0 {
		m.patternIndex = len(m.patterns) - 1
	} else {
		m.patternIndex--
	}
}

func (m *Mapper) PatternIndex() int {
	return m.patternIndex
}

// PatternName names the active pattern for display.
func (m *Mapper) PatternName() string {
	if len(m.patterns) == 0 {
		return ""
	}
	return m.patterns[m.patternIndex%len(m.patterns)].Name
}
