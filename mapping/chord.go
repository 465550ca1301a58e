package mapping

// Quality is a chord quality. The resolver presets use the first six; the
// genre pattern tables also reach for sevenths, diminished and augmented
// colors.
type Quality uint8

const (
	Power5 Quality = iota
	Major
	Minor
	Sus2
	Sus4
	Add9
	Major7
	Minor7
	Dom7
	Dim
	Aug
)

// Intervals returns the semitone offsets from the chord root.
func (q Quality) Intervals() []uint8 {
	switch q {
	case Power5:
		return []uint8{0, 7}
	case Major:
		return []uint8{0, 4, 7}
	case Minor:
		return []uint8{0, 3, 7}
	case Sus2:
		return []uint8{0, 2, 7}
	case Sus4:
		return []uint8{0, 5, 7}
	case Add9:
		return []uint8{0, 4, 7, 14}
	case Major7:
		return []uint8{0, 4, 7, 11}
	case Minor7:
		return []uint8{0, 3, 7, 10}
	case Dom7:
		return []uint8{0, 4, 7, 10}
	case Dim:
		return []uint8{0, 3, 6}
	case Aug:
		return []uint8{0, 4, 8}
	default:
		return []uint8{0, 7}
	}
}

// Suffix returns the chord-symbol suffix, e.g. "5" for power chords, "m"
// for minor.
func (q Quality) Suffix() string {
	switch q {
	case Power5:
		return "5"
	case Major:
		return ""
	case Minor:
		return "m"
	case Sus2:
		return "sus2"
	case Sus4:
		return "sus4"
	case Add9:
		return "add9"
	case Major7:
		return "maj7"
	case Minor7:
		return "m7"
	case Dom7:
		return "7"
	case Dim:
		return "dim"
	case Aug:
		return "aug"
	default:
		return ""
	}
}

// Chord is a pattern-table chord: a root offset in semitones from the key
// base note plus a quality. Root may be negative (below the key).
type Chord struct {
	Root      int
	Quality   Quality
	Inversion int
}

func NewChord(root int, quality Quality) Chord {
	return Chord{Root: root, Quality: quality}
}

// MIDINotes expands the chord into MIDI note numbers on top of base.
// Inversions rotate the lowest interval up an octave.
func (c Chord) MIDINotes(base uint8) []uint8 {
	root := int(base) + c.Root
	intervals := c.Quality.Intervals()
	for i := 0; i < c.Inversion && len(intervals) > 0; i++ {
		first := intervals[0]
		intervals = append(intervals[1:], first+12)
	}
	notes := make([]uint8, len(intervals))
	for i, interval := range intervals {
		notes[i] = uint8(root + int(interval))
	}
	return notes
}

// ChordSpec is a fully resolved chord from the harmonic resolver: absolute
// pitch class root, quality, and an octave shift for the solo fret row.
type ChordSpec struct {
	Root         Note
	Quality      Quality
	OctaveOffset int
	VoicingTag   string
	FXProfile    string
}

func NewChordSpec(root Note, quality Quality) ChordSpec {
	return ChordSpec{Root: root, Quality: quality}
}

// MIDINotes expands the spec at the given base octave.
func (s ChordSpec) MIDINotes(baseOctave int) []uint8 {
	root := s.Root.MIDI(baseOctave + s.OctaveOffset)
	intervals := s.Quality.Intervals()
	notes := make([]uint8, len(intervals))
	for i, interval := range intervals {
		notes[i] = root + interval
	}
	return notes
}

// DisplayName renders the chord symbol, e.g. "E5", "Am", "Dsus4".
func (s ChordSpec) DisplayName() string {
	return s.Root.String() + s.Quality.Suffix()
}
