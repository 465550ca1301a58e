package mapping

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownGenre = errors.New("unknown genre")

// Genre selects the chord vocabulary: pattern tables for the mapper and a
// preset (role qualities, default key/mode, whammy behavior) for the
// resolver.
type Genre uint8

const (
	GenrePunk Genre = iota
	GenreRock
	GenrePop
	GenreFolk
	GenreEdm
	GenreMetal
)

// Genres lists every genre in display order.
func Genres() []Genre {
	return []Genre{GenrePunk, GenreRock, GenrePop, GenreFolk, GenreEdm, GenreMetal}
}

func (g Genre) String() string {
	switch g {
	case GenrePunk:
		return "Punk"
	case GenreRock:
		return "Rock"
	case GenrePop:
		return "Pop"
	case GenreFolk:
		return "Folk"
	case GenreEdm:
		return "EDM"
	case GenreMetal:
		return "Metal"
	default:
		return "unknown"
	}
}

func ParseGenre(s string) (Genre, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "punk":
		return GenrePunk, nil
	case "rock":
		return GenreRock, nil
	case "pop":
		return GenrePop, nil
	case "folk":
		return GenreFolk, nil
	case "edm":
		return GenreEdm, nil
	case "metal":
		return GenreMetal, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownGenre, s)
	}
}

// DefaultKeyRoot is the key a genre plays in when none is configured.
func (g Genre) DefaultKeyRoot() Note {
	switch g {
	case GenrePunk, GenreMetal:
		return NoteE
	case GenreRock, GenreEdm:
		return NoteA
	case GenrePop:
		return NoteC
	case GenreFolk:
		return NoteG
	default:
		return NoteE
	}
}

func (g Genre) DefaultMode() Mode {
	switch g {
	case GenreEdm, GenreMetal:
		return ModeMinor
	default:
		return ModeMajor
	}
}

// Mode is the scale mode paired with a key root.
type Mode uint8

const (
	ModeMajor Mode = iota
	ModeMinor
)

func (m Mode) String() string {
	if m == ModeMinor {
		return "Minor"
	}
	return "Major"
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "major", "maj":
		return ModeMajor, nil
	case "minor", "min":
		return ModeMinor, nil
	default:
		return 0, fmt.Errorf("unknown mode: %q", s)
	}
}

// patternEntry binds one fret combination (ascending lane indices,
// 0=green..4=orange) to a chord.
type patternEntry struct {
	frets []int
	chord Chord
}

// Pattern is one named fret-combination table within a genre. Patterns are
// cycled by the mapper.
type Pattern struct {
	Name    string
	entries []patternEntry
}

// MapFrets maps a pressed fret combination to a chord: exact set match
// first (order independent), then a root power chord for any unmatched
// non-empty combination. Empty input maps to nothing.
func (p Pattern) MapFrets(frets []int) (Chord, bool) {
	for _, entry := range p.entries {
		if fretSetEqual(frets, entry.frets) {
			return entry.chord, true
		}
	}
	if len(frets) > 0 {
		return NewChord(0, Power5), true
	}
	return Chord{}, false
}

func fretSetEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for _, fa := range a {
		found := false
		for _, fb := range b {
			if fa == fb {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func entry(frets []int, root int, quality Quality) patternEntry {
	return patternEntry{frets: frets, chord: NewChord(root, quality)}
}

// Patterns returns the genre's pattern tables in cycling order.
func (g Genre) Patterns() []Pattern {
	switch g {
	case GenrePunk:
		return []Pattern{
			{Name: "Punk Power Chords", entries: []patternEntry{
				entry([]int{0}, 0, Power5),
				entry([]int{1}, 5, Power5),
				entry([]int{2}, 7, Power5),
				entry([]int{3}, 3, Power5),
				entry([]int{4}, -2, Power5),
				entry([]int{0, 1}, 0, Power5),
				entry([]int{1, 2}, 5, Power5),
			}},
			{Name: "Punk Sus", entries: []patternEntry{
				entry([]int{0}, 0, Sus4),
				entry([]int{1}, 5, Sus4),
				entry([]int{2}, 7, Power5),
			}},
			{Name: "Punk Drop D", entries: []patternEntry{
				entry([]int{0}, -2, Power5),
				entry([]int{1}, 0, Power5),
				entry([]int{2}, 3, Power5),
				entry([]int{3}, 5, Power5),
			}},
		}
	case GenreRock:
		return []Pattern{
			{Name: "Rock Major", entries: []patternEntry{
				entry([]int{0}, 0, Major),
				entry([]int{1}, 5, Major),
				entry([]int{2}, -2, Major),
				entry([]int{3}, 3, Major),
				entry([]int{4}, 7, Major),
			}},
			{Name: "Rock Power", entries: []patternEntry{
				entry([]int{0}, 0, Power5),
				entry([]int{1}, 5, Power5),
				entry([]int{2}, 7, Power5),
				entry([]int{3}, 3, Power5),
			}},
			{Name: "Rock Mixed", entries: []patternEntry{
				entry([]int{0}, 0, Major),
				entry([]int{1}, 5, Minor),
				entry([]int{2}, -2, Major),
				entry([]int{3}, 3, Major),
			}},
			{Name: "Rock 7ths", entries: []patternEntry{
				entry([]int{0}, 0, Dom7),
				entry([]int{1}, 5, Dom7),
				entry([]int{2}, 7, Major7),
			}},
		}
	case GenreEdm:
		return []Pattern{
			{Name: "EDM Minor", entries: []patternEntry{
				entry([]int{0}, 0, Minor),
				entry([]int{1}, 3, Minor),
				entry([]int{2}, 5, Minor),
				entry([]int{3}, 7, Major),
				entry([]int{4}, 10, Major),
			}},
			{Name: "EDM Minor 7", entries: []patternEntry{
				entry([]int{0}, 0, Minor7),
				entry([]int{1}, 3, Minor7),
				entry([]int{2}, 5, Minor7),
				entry([]int{3}, 7, Major7),
			}},
			{Name: "EDM Sus", entries: []patternEntry{
				entry([]int{0}, 0, Sus2),
				entry([]int{1}, 5, Sus2),
				entry([]int{2}, 7, Sus4),
				entry([]int{3}, 3, Sus4),
			}},
			{Name: "EDM Tension", entries: []patternEntry{
				entry([]int{0}, 0, Minor),
				entry([]int{1}, 2, Dim),
				entry([]int{2}, 5, Minor),
				entry([]int{3}, 8, Aug),
			}},
		}
	case GenreMetal:
		return []Pattern{
			{Name: "Metal Power", entries: []patternEntry{
				entry([]int{0}, 0, Power5),
				entry([]int{1}, 5, Power5),
				entry([]int{2}, 7, Power5),
				entry([]int{3}, 10, Power5),
				entry([]int{4}, 2, Power5),
			}},
			{Name: "Metal Dark", entries: []patternEntry{
				entry([]int{0}, 0, Minor),
				entry([]int{1}, 3, Dim),
				entry([]int{2}, 5, Power5),
				entry([]int{3}, 7, Minor),
				entry([]int{4}, 10, Power5),
			}},
			{Name: "Metal Aggro", entries: []patternEntry{
				entry([]int{0}, 0, Power5),
				entry([]int{1}, 6, Dim),
				entry([]int{2}, 5, Power5),
				entry([]int{3}, 10, Power5),
			}},
		}
	case GenreFolk:
		return []Pattern{
			{Name: "Folk Classic", entries: []patternEntry{
				entry([]int{0}, 0, Major),
				entry([]int{1}, 5, Major),
				entry([]int{2}, 7, Major),
				entry([]int{3}, -5, Major),
				entry([]int{4}, 2, Minor),
			}},
			{Name: "Folk Texture", entries: []patternEntry{
				entry([]int{0}, 0, Sus2),
				entry([]int{1}, 5, Sus4),
				entry([]int{2}, 7, Sus2),
				entry([]int{3}, -5, Major),
			}},
			{Name: "Folk Minor", entries: []patternEntry{
				entry([]int{0}, 0, Minor),
				entry([]int{1}, 5, Minor),
				entry([]int{2}, 7, Major),
				entry([]int{3}, 3, Major),
			}},
		}
	case GenrePop:
		return []Pattern{
			{Name: "Pop Classic", entries: []patternEntry{
				entry([]int{0}, 0, Major),
				entry([]int{1}, 7, Major),
				entry([]int{2}, -3, Minor),
				entry([]int{3}, 5, Major),
				entry([]int{4}, 2, Minor),
			}},
			{Name: "Pop 7ths", entries: []patternEntry{
				entry([]int{0}, 0, Major7),
				entry([]int{1}, 7, Dom7),
				entry([]int{2}, -3, Minor7),
				entry([]int{3}, 5, Major7),
			}},
			{Name: "Pop Bright", entries: []patternEntry{
				entry([]int{0}, 0, Major),
				entry([]int{1}, 5, Major),
				entry([]int{2}, 7, Major),
				entry([]int{3}, 2, Sus2),
			}},
		}
	default:
		return nil
	}
}

// WhammyDefaults is a genre's whammy bar tuning.
type WhammyDefaults struct {
	Enabled             bool
	BendRangeSemitones  float32
	VibratoDepth        float32
	FilterCutoffEnabled bool
	Smoothing           float32
}

// SustainDefaults is a genre's sustain behavior.
type SustainDefaults struct {
	Enabled       bool
	ReleaseTimeMs float32
}

// Preset defines a genre's resolver behavior: which chord quality each
// harmonic role gets, the default key and mode, and expression defaults.
type Preset struct {
	Name        string
	DefaultKey  Note
	DefaultMode Mode
	Qualities   map[Role]Quality
	Whammy      WhammyDefaults
	Sustain     SustainDefaults
}

// Preset returns the built-in preset for the genre.
func (g Genre) Preset() Preset {
	var qualities map[Role]Quality
	var whammy WhammyDefaults

	switch g {
	case GenrePunk:
		qualities = map[Role]Quality{
			RoleI: Power5, RoleIV: Power5, RoleV: Power5, RoleBVII: Power5, RoleVI: Power5,
		}
		whammy = WhammyDefaults{Enabled: true, BendRangeSemitones: 1.0, VibratoDepth: 0.0, FilterCutoffEnabled: false, Smoothing: 0.8}
	case GenreEdm:
		qualities = map[Role]Quality{
			RoleI: Minor, RoleIV: Minor, RoleV: Sus2, RoleBVII: Major, RoleVI: Major,
		}
		whammy = WhammyDefaults{Enabled: true, BendRangeSemitones: 3.0, VibratoDepth: 0.0, FilterCutoffEnabled: true, Smoothing: 0.6}
	case GenreRock:
		qualities = map[Role]Quality{
			RoleI: Major, RoleIV: Major, RoleV: Major, RoleBVII: Major, RoleII: Minor,
		}
		whammy = WhammyDefaults{Enabled: true, BendRangeSemitones: 2.0, VibratoDepth: 0.1, FilterCutoffEnabled: true, Smoothing: 0.7}
	case GenrePop:
		qualities = map[Role]Quality{
			RoleI: Add9, RoleIV: Add9, RoleV: Sus4, RoleBVII: Major, RoleVI: Minor,
		}
		whammy = WhammyDefaults{Enabled: true, BendRangeSemitones: 0.5, VibratoDepth: 0.05, FilterCutoffEnabled: false, Smoothing: 0.9}
	case GenreFolk:
		qualities = map[Role]Quality{
			RoleI: Major, RoleIV: Major, RoleV: Sus4, RoleBVII: Major, RoleVI: Minor,
		}
		whammy = WhammyDefaults{Enabled: true, BendRangeSemitones: 0.3, VibratoDepth: 0.2, FilterCutoffEnabled: false, Smoothing: 0.85}
	case GenreMetal:
		qualities = map[Role]Quality{
			RoleI: Power5, RoleIV: Power5, RoleV: Power5, RoleBVII: Power5, RoleII: Power5,
		}
		whammy = WhammyDefaults{Enabled: true, BendRangeSemitones: 1.5, VibratoDepth: 0.0, FilterCutoffEnabled: false, Smoothing: 0.75}
	default:
		qualities = map[Role]Quality{}
	}

	return Preset{
		Name:        g.String(),
		DefaultKey:  g.DefaultKeyRoot(),
		DefaultMode: g.DefaultMode(),
		Qualities:   qualities,
		Whammy:      whammy,
		Sustain:     SustainDefaults{Enabled: true, ReleaseTimeMs: 500},
	}
}
