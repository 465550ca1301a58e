package song

import (
	"math"
	"testing"
)

func testChords() map[string]ChordMapping {
	return map[string]ChordMapping{
		"C":  {Frets: []string{"GREEN"}},
		"G":  {Frets: []string{"RED"}},
		"D7": {Frets: []string{"GREEN", "RED"}},
	}
}

func TestHitDetectionScenario(t *testing.T) {
	event := ChordEvent{Beat: 10, Dur: 2, Chord: "C"}

	d := NewHitDetector(testChords())
	res := d.CheckStrum(10.1, []string{"GREEN"}, []ChordEvent{event})
	if !res.Hit {
		t.Fatalf("expected hit, got %+v", res)
	}
	if res.Chord != "C" || res.Beat != 10 {
		t.Errorf("hit = %+v", res)
	}
	// 0.1 beats off in a 0.5-beat window: accuracy 1 - 0.1/0.5.
	if math.Abs(res.Accuracy-0.8) > 1e-9 {
		t.Errorf("accuracy = %g, want 0.8", res.Accuracy)
	}
	if !res.Sustain {
		t.Error("2-beat event should open a sustain window")
	}

	d = NewHitDetector(testChords())
	res = d.CheckStrum(10.1, []string{"RED"}, []ChordEvent{event})
	if res.Hit || res.Miss != MissWrongFrets {
		t.Errorf("wrong frets = %+v, want MissWrongFrets", res)
	}

	d = NewHitDetector(testChords())
	res = d.CheckStrum(11.0, []string{"GREEN"}, []ChordEvent{event})
	if res.Hit || res.Miss != MissNoEventInWindow {
		t.Errorf("out of window = %+v, want MissNoEventInWindow", res)
	}
}

func TestHitWindowBoundary(t *testing.T) {
	event := ChordEvent{Beat: 10, Dur: 1, Chord: "C"}

	// Exactly half a beat away is still eligible, with accuracy at zero.
	d := NewHitDetector(testChords())
	res := d.CheckStrum(10.5, []string{"GREEN"}, []ChordEvent{event})
	if !res.Hit {
		t.Fatalf("strum at +0.5 = %+v, want hit", res)
	}
	if math.Abs(res.Accuracy) > 1e-9 {
		t.Errorf("accuracy at window edge = %g, want 0", res.Accuracy)
	}

	d = NewHitDetector(testChords())
	res = d.CheckStrum(9.5, []string{"GREEN"}, []ChordEvent{event})
	if !res.Hit {
		t.Errorf("strum at -0.5 = %+v, want hit", res)
	}

	// Just past the window is no longer a candidate.
	d = NewHitDetector(testChords())
	res = d.CheckStrum(10.51, []string{"GREEN"}, []ChordEvent{event})
	if res.Hit || res.Miss != MissNoEventInWindow {
		t.Errorf("strum at +0.51 = %+v, want MissNoEventInWindow", res)
	}
}

func TestFretsMatchOrderIndependent(t *testing.T) {
	event := ChordEvent{Beat: 5, Dur: 1, Chord: "D7"} // requires GREEN+RED

	d := NewHitDetector(testChords())
	res := d.CheckStrum(5, []string{"RED", "GREEN"}, []ChordEvent{event})
	if !res.Hit {
		t.Errorf("reordered frets = %+v, want hit", res)
	}

	// A superset of the required frets is not a match.
	d = NewHitDetector(testChords())
	res = d.CheckStrum(5, []string{"RED", "GREEN", "YELLOW"}, []ChordEvent{event})
	if res.Hit || res.Miss != MissWrongFrets {
		t.Errorf("superset frets = %+v, want MissWrongFrets", res)
	}
}

func TestAlreadyHitEventIsNotACandidate(t *testing.T) {
	event := ChordEvent{Beat: 10, Dur: 1, Chord: "C"}
	d := NewHitDetector(testChords())

	if res := d.CheckStrum(10, []string{"GREEN"}, []ChordEvent{event}); !res.Hit {
		t.Fatalf("first strum = %+v, want hit", res)
	}
	res := d.CheckStrum(10.2, []string{"GREEN"}, []ChordEvent{event})
	if res.Hit || res.Miss != MissNoEventInWindow {
		t.Errorf("second strum = %+v, want MissNoEventInWindow", res)
	}
	if d.TotalHits() != 1 {
		t.Errorf("TotalHits = %d, want 1", d.TotalHits())
	}
}

func TestCheckStrumPicksMatchingCandidate(t *testing.T) {
	events := []ChordEvent{
		{Beat: 9.8, Dur: 1, Chord: "C"},
		{Beat: 10.2, Dur: 1, Chord: "G"},
	}
	d := NewHitDetector(testChords())

	// Both events are in window; the one whose frets match wins.
	res := d.CheckStrum(10, []string{"RED"}, events)
	if !res.Hit || res.Chord != "G" {
		t.Fatalf("strum = %+v, want hit on G", res)
	}
	if math.Abs(res.Accuracy-0.6) > 1e-9 {
		t.Errorf("accuracy = %g, want 0.6", res.Accuracy)
	}
}

func TestSustainLifecycle(t *testing.T) {
	event := ChordEvent{Beat: 10, Dur: 4, Chord: "C"}
	d := NewHitDetector(testChords())

	res := d.CheckStrum(10, []string{"GREEN"}, []ChordEvent{event})
	if !res.Hit || !res.Sustain {
		t.Fatalf("strum = %+v, want sustained hit", res)
	}
	if chord, ok := d.SustainingChord(); !ok || chord != "C" {
		t.Errorf("SustainingChord = %q, %v", chord, ok)
	}

	if !d.UpdateSustain(12, []string{"GREEN"}) {
		t.Error("sustain should hold mid-window with the right frets")
	}
	if d.UpdateSustain(14.1, []string{"GREEN"}) {
		t.Error("sustain should end past the window")
	}
	if _, ok := d.SustainingChord(); ok {
		t.Error("sustain window should be cleared after ending")
	}

	// Ending is silent: there is nothing left to update against.
	if d.UpdateSustain(13, []string{"GREEN"}) {
		t.Error("no sustain window should be open")
	}
}

func TestSustainEndsOnFretChange(t *testing.T) {
	event := ChordEvent{Beat: 10, Dur: 4, Chord: "C"}
	d := NewHitDetector(testChords())

	d.CheckStrum(10, []string{"GREEN"}, []ChordEvent{event})
	if d.UpdateSustain(11, []string{"RED"}) {
		t.Error("sustain should end when the frets change")
	}
	// Re-pressing the right frets does not reopen the window.
	if d.UpdateSustain(11.5, []string{"GREEN"}) {
		t.Error("sustain window should stay closed once released")
	}
}

func TestShortEventOpensNoSustain(t *testing.T) {
	event := ChordEvent{Beat: 10, Dur: 1.9, Chord: "C"}
	d := NewHitDetector(testChords())

	res := d.CheckStrum(10, []string{"GREEN"}, []ChordEvent{event})
	if !res.Hit || res.Sustain {
		t.Errorf("strum = %+v, want hit without sustain", res)
	}
	if _, ok := d.SustainingChord(); ok {
		t.Error("no sustain window should be open")
	}
}

func TestHitDetectorReset(t *testing.T) {
	event := ChordEvent{Beat: 10, Dur: 4, Chord: "C"}
	d := NewHitDetector(testChords())

	d.CheckStrum(10, []string{"GREEN"}, []ChordEvent{event})
	d.Reset()

	if d.TotalHits() != 0 {
		t.Errorf("TotalHits after reset = %d", d.TotalHits())
	}
	if _, ok := d.SustainingChord(); ok {
		t.Error("sustain should be cleared by reset")
	}
	// The same event is judgeable again.
	if res := d.CheckStrum(10, []string{"GREEN"}, []ChordEvent{event}); !res.Hit {
		t.Errorf("strum after reset = %+v, want hit", res)
	}
}
