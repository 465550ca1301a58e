package mapping

import (
	"slices"
	"testing"
)

func TestQualityIntervals(t *testing.T) {
	tests := []struct {
		quality Quality
		want    []uint8
	}{
		{Power5, []uint8{0, 7}},
		{Major, []uint8{0, 4, 7}},
		{Minor, []uint8{0, 3, 7}},
		{Sus2, []uint8{0, 2, 7}},
		{Sus4, []uint8{0, 5, 7}},
		{Add9, []uint8{0, 4, 7, 14}},
		{Major7, []uint8{0, 4, 7, 11}},
		{Minor7, []uint8{0, 3, 7, 10}},
		{Dom7, []uint8{0, 4, 7, 10}},
		{Dim, []uint8{0, 3, 6}},
		{Aug, []uint8{0, 4, 8}},
	}

	for _, tt := range tests {
		t.Run(tt.quality.Suffix(), func(t *testing.T) {
			if got := tt.quality.Intervals(); !slices.Equal(got, tt.want) {
				t.Errorf("Intervals() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChordMIDINotes(t *testing.T) {
	tests := []struct {
		name  string
		chord Chord
		base  uint8
		want  []uint8
	}{
		{"C major", NewChord(0, Major), 60, []uint8{60, 64, 67}},
		{"C minor", NewChord(0, Minor), 60, []uint8{60, 63, 67}},
		{"C power", NewChord(0, Power5), 60, []uint8{60, 67}},
		{"A power from E base", NewChord(5, Power5), 40, []uint8{45, 52}},
		{"D below E base", NewChord(-2, Power5), 40, []uint8{38, 45}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.chord.MIDINotes(tt.base); !slices.Equal(got, tt.want) {
				t.Errorf("MIDINotes(%d) = %v, want %v", tt.base, got, tt.want)
			}
		})
	}
}

func TestChordInversion(t *testing.T) {
	chord := Chord{Root: 0, Quality: Major, Inversion: 1}
	want := []uint8{64, 67, 72} // E, G, C up an octave
	if got := chord.MIDINotes(60); !slices.Equal(got, want) {
		t.Errorf("first inversion MIDINotes(60) = %v, want %v", got, want)
	}
}

func TestChordSpecMIDINotes(t *testing.T) {
	spec := NewChordSpec(NoteE, Power5)
	// E at octave 0 is MIDI 52.
	if got, want := spec.MIDINotes(0), []uint8{52, 59}; !slices.Equal(got, want) {
		t.Errorf("MIDINotes(0) = %v, want %v", got, want)
	}

	spec.OctaveOffset = 1
	if got, want := spec.MIDINotes(0), []uint8{64, 71}; !slices.Equal(got, want) {
		t.Errorf("MIDINotes(0) with octave offset = %v, want %v", got, want)
	}
}

func TestChordSpecDisplayName(t *testing.T) {
	tests := []struct {
		spec ChordSpec
		want string
	}{
		{NewChordSpec(NoteE, Power5), "E5"},
		{NewChordSpec(NoteA, Major), "A"},
		{NewChordSpec(NoteA, Minor), "Am"},
		{NewChordSpec(NoteD, Sus4), "Dsus4"},
		{NewChordSpec(NoteC, Add9), "Cadd9"},
		{NewChordSpec(NoteFs, Minor7), "F#m7"},
	}

	for _, tt := range tests {
		if got := tt.spec.DisplayName(); got != tt.want {
			t.Errorf("DisplayName() = %q, want %q", got, tt.want)
		}
	}
}

func TestNoteMIDI(t *testing.T) {
	// C at octave 1 is middle C.
	if got := NoteC.MIDI(1); got != 60 {
		t.Errorf("NoteC.MIDI(1) = %d, want 60", got)
	}
	if got := NoteA.MIDI(1); got != 69 {
		t.Errorf("NoteA.MIDI(1) = %d, want 69", got)
	}
}

func TestParseNote(t *testing.T) {
	tests := []struct {
		in      string
		want    Note
		wantErr bool
	}{
		{"E", NoteE, false},
		{"e", NoteE, false},
		{"F#", NoteFs, false},
		{"bb", NoteAs, false},
		{"Db", NoteCs, false},
		{"H", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseNote(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseNote(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseNote(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
