package mapping

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownNote = errors.New("unknown note")

// Note is a pitch class, C=0 through B=11.
type Note uint8

const (
	NoteC Note = iota
	NoteCs
	NoteD
	NoteDs
	NoteE
	NoteF
	NoteFs
	NoteG
	NoteGs
	NoteA
	NoteAs
	NoteB
)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

func (n Note) String() string {
	return noteNames[n%12]
}

// MIDI returns the MIDI note number for this pitch class at the given
// octave offset (octave 1 puts C at middle C, 60).
func (n Note) MIDI(octave int) uint8 {
	return uint8((octave+4)*12 + int(n%12))
}

// ParseNote accepts names like "E", "f#", "Bb".
func ParseNote(s string) (Note, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "C":
		return NoteC, nil
	case "C#", "CS", "DB":
		return NoteCs, nil
	case "D":
		return NoteD, nil
	case "D#", "DS", "EB":
		return NoteDs, nil
	case "E":
		return NoteE, nil
	case "F":
		return NoteF, nil
	case "F#", "FS", "GB":
		return NoteFs, nil
	case "G":
		return NoteG, nil
	case "G#", "GS", "AB":
		return NoteGs, nil
	case "A":
		return NoteA, nil
	case "A#", "AS", "BB":
		return NoteAs, nil
	case "B":
		return NoteB, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownNote, s)
	}
}
