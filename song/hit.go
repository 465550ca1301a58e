package song

import (
	"math"
	"slices"

	"github.com/samber/lo"
)

// HitWindow is the judgement tolerance around an event, in beats.
const HitWindow = 0.5

// sustainMinBeats is the authored duration at which a hit opens a sustain
// window.
const sustainMinBeats = 2.0

// sameEventTolerance is the beat distance below which two events count as
// the same authored event for already-hit bookkeeping.
const sameEventTolerance = 0.01

// MissReason explains why a strum did not register as a hit.
type MissReason int

const (
	MissNone MissReason = iota
	MissNoEventInWindow
	MissWrongFrets
)

func (r MissReason) String() string {
	switch r {
	case MissNoEventInWindow:
		return "no event in window"
	case MissWrongFrets:
		return "wrong frets"
	default:
		return "none"
	}
}

// HitResult is the judgement of one strum attempt.
type HitResult struct {
	Hit      bool
	Beat     float64 // authored beat of the judged event
	Chord    string
	Sustain  bool    // the hit opened a sustain window (duration >= 2 beats)
	Accuracy float64 // 1 on the beat, falling linearly to 0 at the window edge
	Miss     MissReason
}

// HitDetector judges strums against authored chord events and tracks which
// events have already been consumed plus at most one open sustain window.
type HitDetector struct {
	chordFrets map[string][]string
	hits       []hitRecord
	sustain    *sustainWindow
}

type hitRecord struct {
	beat      float64
	chord     string
	hitAtBeat float64
}

type sustainWindow struct {
	chord         string
	startBeat     float64
	endBeat       float64
	requiredFrets []string
}

func NewHitDetector(chords map[string]ChordMapping) *HitDetector {
	frets := make(map[string][]string, len(chords))
	for name, m := range chords {
		frets[name] = slices.Clone(m.Frets)
	}
	return &HitDetector{chordFrets: frets}
}

// Reset clears judged events and any open sustain window.
func (d *HitDetector) Reset() {
	d.hits = nil
	d.sustain = nil
}

// CheckStrum judges a strum at currentBeat with the given fret names held.
// Candidates are the events within the hit window that have not been hit
// yet; the first candidate whose required fret set matches wins. No
// candidates at all is a different miss than candidates with wrong frets.
func (d *HitDetector) CheckStrum(currentBeat float64, pressedFrets []string, events []ChordEvent) HitResult {
	candidates := lo.Filter(events, func(e ChordEvent, _ int) bool {
		return math.Abs(e.Beat-currentBeat) <= HitWindow && !d.alreadyHit(e.Beat, e.Chord)
	})
	if len(candidates) == 0 {
		return HitResult{Miss: MissNoEventInWindow}
	}

	for _, event := range candidates {
		required, ok := d.chordFrets[event.Chord]
		if !ok || !fretsMatch(pressedFrets, required) {
			continue
		}
		accuracy := 1.0 - math.Abs(event.Beat-currentBeat)/HitWindow
		d.hits = append(d.hits, hitRecord{beat: event.Beat, chord: event.Chord, hitAtBeat: currentBeat})

		sustain := event.Dur >= sustainMinBeats
		if sustain {
			d.sustain = &sustainWindow{
				chord:         event.Chord,
				startBeat:     event.Beat,
				endBeat:       event.Beat + event.Dur,
				requiredFrets: required,
			}
		}
		return HitResult{
			Hit:      true,
			Beat:     event.Beat,
			Chord:    event.Chord,
			Sustain:  sustain,
			Accuracy: accuracy,
		}
	}
	return HitResult{Miss: MissWrongFrets}
}

// UpdateSustain reports whether the open sustain window is still held.
// Leaving the window or changing frets ends the sustain silently; it is
// never a miss.
func (d *HitDetector) UpdateSustain(currentBeat float64, pressedFrets []string) bool {
	s := d.sustain
	if s == nil {
		return false
	}
	if currentBeat < s.startBeat || currentBeat > s.endBeat {
		d.sustain = nil
		return false
	}
	if !fretsMatch(pressedFrets, s.requiredFrets) {
		d.sustain = nil
		return false
	}
	return true
}

// SustainingChord returns the chord of the open sustain window, if any.
func (d *HitDetector) SustainingChord() (string, bool) {
	if d.sustain == nil {
		return "", false
	}
	return d.sustain.chord, true
}

// TotalHits is the number of events judged hit since the last reset.
func (d *HitDetector) TotalHits() int { return len(d.hits) }

func (d *HitDetector) alreadyHit(beat float64, chord string) bool {
	return lo.ContainsBy(d.hits, func(h hitRecord) bool {
		return math.Abs(h.beat-beat) < sameEventTolerance && h.chord == chord
	})
}

// fretsMatch compares fret sets order-independently.
func fretsMatch(pressed, required []string) bool {
	if len(pressed) != len(required) {
		return false
	}
	p := slices.Sorted(slices.Values(pressed))
	r := slices.Sorted(slices.Values(required))
	return slices.Equal(p, r)
}
