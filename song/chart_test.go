package song

import (
	"errors"
	"math"
	"testing"
)

const basicChartJSON = `{
	"meta": {"title": "Test Song", "artist": "Test Artist"},
	"clock": {"bpm": 120, "timeSig": [4, 4], "countInBars": 2},
	"playback": {
		"defaultInstrument": {"type": "soundfont", "label": "Clean Guitar"},
		"fallbackInstrument": {"type": "virtual", "label": "Clean Electric Guitar"},
		"allowUserOverrideInstrument": true
	},
	"mapping": {"chords": {"C": {"frets": ["GREEN"]}}},
	"lanes": [
		{"name": "chords", "events": [{"beat": 0, "dur": 4, "chord": "C"}]}
	],
	"lyrics": [],
	"sections": []
}`

func TestParseChart(t *testing.T) {
	chart, err := ParseChart([]byte(basicChartJSON))
	if err != nil {
		t.Fatalf("ParseChart: %v", err)
	}
	if chart.Meta.Title != "Test Song" {
		t.Errorf("title = %q, want Test Song", chart.Meta.Title)
	}
	if chart.Clock.BPM != 120 {
		t.Errorf("bpm = %g, want 120", chart.Clock.BPM)
	}
	if chart.Clock.TimeSig != [2]int{4, 4} {
		t.Errorf("timeSig = %v, want [4 4]", chart.Clock.TimeSig)
	}
	if got := chart.Playback.DefaultInstrument; got.Type != InstrumentSoundFont || got.Label != "Clean Guitar" {
		t.Errorf("default instrument = %+v", got)
	}
	if len(chart.Lanes) != 1 || len(chart.Lanes[0].Events) != 1 {
		t.Fatalf("lanes = %+v", chart.Lanes)
	}
	if ev := chart.Lanes[0].Events[0]; ev.Beat != 0 || ev.Dur != 4 || ev.Chord != "C" {
		t.Errorf("event = %+v", ev)
	}
}

func TestChordEventStartBeatAlias(t *testing.T) {
	json := `{
		"meta": {"title": "t", "artist": "a"},
		"clock": {"bpm": 100, "timeSig": [4, 4], "countInBars": 0},
		"playback": {
			"defaultInstrument": {"type": "virtual", "label": "x"},
			"fallbackInstrument": {"type": "virtual", "label": "x"},
			"allowUserOverrideInstrument": false
		},
		"mapping": {"chords": {"A": {"frets": ["RED"]}}},
		"lanes": [{"name": "l", "events": [{"startBeat": 7.5, "dur": 1, "chord": "A"}]}],
		"lyrics": [{"startBeat": 3, "text": "hello"}],
		"sections": []
	}`
	chart, err := ParseChart([]byte(json))
	if err != nil {
		t.Fatalf("ParseChart: %v", err)
	}
	if got := chart.Lanes[0].Events[0].Beat; got != 7.5 {
		t.Errorf("event beat via startBeat = %g, want 7.5", got)
	}
	if got := chart.Lyrics[0].Beat; got != 3 {
		t.Errorf("lyric beat via startBeat = %g, want 3", got)
	}
	if got := chart.Lyrics[0].Text; got != "hello" {
		t.Errorf("lyric text = %q", got)
	}
}

func TestWordAnnotationTimeBeat(t *testing.T) {
	json := `{
		"meta": {"title": "t", "artist": "a"},
		"clock": {"bpm": 100, "timeSig": [4, 4], "countInBars": 0},
		"playback": {
			"defaultInstrument": {"type": "virtual", "label": "x"},
			"fallbackInstrument": {"type": "virtual", "label": "x"},
			"allowUserOverrideInstrument": false
		},
		"mapping": {"chords": {}},
		"lanes": [],
		"lyrics": [
			{"beat": 0, "annotations": [
				{"word": "one", "timeBeat": "0.5"},
				{"word": "two", "timeBeat": 1.5},
				{"word": "three", "timeBeat": 2}
			]}
		],
		"sections": []
	}`
	chart, err := ParseChart([]byte(json))
	if err != nil {
		t.Fatalf("ParseChart: %v", err)
	}
	anns := chart.Lyrics[0].Annotations
	want := []string{"0.5", "1.5", "2"}
	if len(anns) != len(want) {
		t.Fatalf("annotations = %+v", anns)
	}
	for i, w := range want {
		if anns[i].TimeBeat != w {
			t.Errorf("annotation %d timeBeat = %q, want %q", i, anns[i].TimeBeat, w)
		}
	}
}

func TestChartValidation(t *testing.T) {
	valid := func() *Chart {
		return &Chart{
			Clock:   Clock{BPM: 120, TimeSig: [2]int{4, 4}},
			Mapping: Mapping{Chords: map[string]ChordMapping{"C": {Frets: []string{"GREEN"}}}},
			Lanes: []Lane{{Name: "chords", Events: []ChordEvent{
				{Beat: 0, Dur: 4, Chord: "C"},
			}}},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Chart)
	}{
		{"zero bpm", func(c *Chart) { c.Clock.BPM = 0 }},
		{"negative bpm", func(c *Chart) { c.Clock.BPM = -10 }},
		{"zero denominator", func(c *Chart) { c.Clock.TimeSig[1] = 0 }},
		{"unknown chord", func(c *Chart) { c.Lanes[0].Events[0].Chord = "X" }},
		{"zero duration", func(c *Chart) { c.Lanes[0].Events[0].Dur = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			if err := c.Validate(); !errors.Is(err, ErrInvalidChart) {
				t.Errorf("Validate = %v, want ErrInvalidChart", err)
			}
		})
	}

	if err := valid().Validate(); err != nil {
		t.Errorf("valid chart rejected: %v", err)
	}
}

func queryChart() *Chart {
	chords := map[string]ChordMapping{
		"C": {Frets: []string{"GREEN"}},
		"G": {Frets: []string{"RED"}},
		"D": {Frets: []string{"YELLOW"}},
	}
	return &Chart{
		Clock:   Clock{BPM: 120, TimeSig: [2]int{4, 4}},
		Mapping: Mapping{Chords: chords},
		Lanes: []Lane{
			{Name: "main", Events: []ChordEvent{
				{Beat: 0, Dur: 2, Chord: "C"},
				{Beat: 4, Dur: 2, Chord: "G"},
				{Beat: 8, Dur: 4, Chord: "D"},
			}},
			{Name: "alt", Events: []ChordEvent{
				{Beat: 4, Dur: 1, Chord: "C"},
			}},
		},
		Lyrics: []LyricEvent{
			{Beat: 0, Text: "first"},
			{Beat: 6, Text: "second"},
		},
		Sections: []Section{
			{Name: "verse", FromBeat: 0, ToBeat: 8},
			{Name: "chorus", FromBeat: 8, ToBeat: 16},
		},
	}
}

func TestAllChordEventsSorted(t *testing.T) {
	events := queryChart().AllChordEvents()
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].Beat < events[i-1].Beat {
			t.Fatalf("events not sorted: %+v", events)
		}
	}
	// Same beat keeps lane order: main's G before alt's C at beat 4.
	if events[1].Chord != "G" || events[2].Chord != "C" {
		t.Errorf("stable order violated: %+v", events)
	}
}

func TestEventsInRangeHalfOpen(t *testing.T) {
	c := queryChart()

	got := c.EventsInRange(0, 4)
	if len(got) != 1 || got[0].Chord != "C" {
		t.Errorf("EventsInRange(0,4) = %+v, want only C at 0", got)
	}

	// The start bound is inclusive, the end bound exclusive.
	got = c.EventsInRange(4, 8)
	if len(got) != 2 {
		t.Errorf("EventsInRange(4,8) = %+v, want G and alt C", got)
	}
	got = c.EventsInRange(8, 8)
	if len(got) != 0 {
		t.Errorf("empty range returned %+v", got)
	}
}

func TestLyricsInRange(t *testing.T) {
	got := queryChart().LyricsInRange(0, 6)
	if len(got) != 1 || got[0].Text != "first" {
		t.Errorf("LyricsInRange(0,6) = %+v", got)
	}
}

func TestSectionAt(t *testing.T) {
	c := queryChart()
	s, ok := c.SectionAt(7.9)
	if !ok || s.Name != "verse" {
		t.Errorf("SectionAt(7.9) = %+v, %v", s, ok)
	}
	s, ok = c.SectionAt(8)
	if !ok || s.Name != "chorus" {
		t.Errorf("SectionAt(8) = %+v, %v", s, ok)
	}
	if _, ok := c.SectionAt(16); ok {
		t.Error("SectionAt(16) should be past the last section")
	}
}

func TestTotalBeats(t *testing.T) {
	c := queryChart()
	if got := c.TotalBeats(); got != 16 {
		t.Errorf("TotalBeats = %g, want 16 (chorus section end)", got)
	}

	// Without sections the furthest chord tail wins.
	c.Sections = nil
	if got := c.TotalBeats(); got != 12 {
		t.Errorf("TotalBeats = %g, want 12 (D at 8 + dur 4)", got)
	}
}

func TestChartBeatSecondsConversion(t *testing.T) {
	c := queryChart() // 120 bpm

	if got := c.BeatToSeconds(4, 1.0); math.Abs(got-2.0) > 1e-9 {
		t.Errorf("BeatToSeconds(4, 1.0) = %g, want 2", got)
	}
	if got := c.BeatToSeconds(4, 2.0); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("BeatToSeconds(4, 2.0) = %g, want 1", got)
	}
	if got := c.SecondsToBeat(2, 1.0); math.Abs(got-4.0) > 1e-9 {
		t.Errorf("SecondsToBeat(2, 1.0) = %g, want 4", got)
	}
}

func TestFretNames(t *testing.T) {
	tests := []struct {
		name  string
		frets [5]bool
		want  []string
	}{
		{"none", [5]bool{}, []string{}},
		{"green", [5]bool{true, false, false, false, false}, []string{"GREEN"}},
		{"green+orange", [5]bool{true, false, false, false, true}, []string{"GREEN", "ORANGE"}},
		{"all", [5]bool{true, true, true, true, true}, []string{"GREEN", "RED", "YELLOW", "BLUE", "ORANGE"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FretNames(tt.frets)
			if len(got) != len(tt.want) {
				t.Fatalf("FretNames = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("FretNames = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestFretLane(t *testing.T) {
	if lane, ok := FretLane("YELLOW"); !ok || lane != 2 {
		t.Errorf("FretLane(YELLOW) = %d, %v", lane, ok)
	}
	if lane, ok := FretLane("blue"); !ok || lane != 3 {
		t.Errorf("FretLane(blue) = %d, %v (lookup is case-insensitive)", lane, ok)
	}
	if _, ok := FretLane("PURPLE"); ok {
		t.Error("FretLane(PURPLE) should not resolve")
	}
}
