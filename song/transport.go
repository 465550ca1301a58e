package song

import (
	"math"
	"time"
)

// Transport is the beat-based playback clock. It anchors wall-clock time to
// a beat position on every play/seek/speed change, so the current beat is
// derived rather than ticked. Stop rewinds to the start of the count-in,
// i.e. a negative beat.
type Transport struct {
	bpm         float64
	timeSig     [2]int
	countInBars int
	speed       float64

	playing      bool
	currentBeat  float64
	startedAt    time.Time // zero while paused or stopped
	pausedAtBeat float64
}

// TransportState is a point-in-time snapshot for UI consumption.
type TransportState struct {
	Playing     bool
	CurrentBeat float64
	BPM         float64
	TimeSig     [2]int
	Speed       float64
	InCountIn   bool
	Bar         int
	BeatInBar   float64
}

func NewTransport(bpm float64, timeSig [2]int, countInBars int) *Transport {
	return &Transport{
		bpm:         bpm,
		timeSig:     timeSig,
		countInBars: countInBars,
		speed:       1.0,
	}
}

// Play starts or resumes playback from the current beat.
func (t *Transport) Play() { t.playAt(time.Now()) }

func (t *Transport) playAt(now time.Time) {
	if t.playing {
		return
	}
	t.playing = true
	t.startedAt = now
	t.pausedAtBeat = t.currentBeat
}

// Pause freezes the clock at the current beat.
func (t *Transport) Pause() { t.pauseAt(time.Now()) }

func (t *Transport) pauseAt(now time.Time) {
	if !t.playing {
		return
	}
	t.syncAt(now)
	t.playing = false
	t.pausedAtBeat = t.currentBeat
	t.startedAt = time.Time{}
}

// Stop halts playback and rewinds to the beginning of the count-in.
func (t *Transport) Stop() {
	t.playing = false
	t.currentBeat = -(float64(t.countInBars) * float64(t.timeSig[0]))
	t.pausedAtBeat = t.currentBeat
	t.startedAt = time.Time{}
}

// Seek jumps to the given beat, preserving the playing state.
func (t *Transport) Seek(beat float64) { t.seekAt(beat, time.Now()) }

func (t *Transport) seekAt(beat float64, now time.Time) {
	wasPlaying := t.playing
	if wasPlaying {
		t.pauseAt(now)
	}
	t.currentBeat = beat
	t.pausedAtBeat = beat
	if wasPlaying {
		t.playAt(now)
	}
}

// SetSpeed changes the speed multiplier (0.75, 1.0, 1.25, ...). When
// playing, the clock is re-anchored so the beat position stays continuous
// across the change.
func (t *Transport) SetSpeed(multiplier float64) { t.setSpeedAt(multiplier, time.Now()) }

func (t *Transport) setSpeedAt(multiplier float64, now time.Time) {
	if t.playing {
		t.syncAt(now)
		t.pausedAtBeat = t.currentBeat
	}
	t.speed = multiplier
	if t.playing {
		t.startedAt = now
	}
}

// syncAt folds the elapsed wall-clock time since the anchor into
// currentBeat.
func (t *Transport) syncAt(now time.Time) {
	if t.startedAt.IsZero() {
		return
	}
	elapsed := now.Sub(t.startedAt).Seconds()
	t.currentBeat = t.pausedAtBeat + t.SecondsToBeats(elapsed)
}

// CurrentBeat returns the beat position, advancing it first when playing.
func (t *Transport) CurrentBeat() float64 { return t.beatAt(time.Now()) }

func (t *Transport) beatAt(now time.Time) float64 {
	if t.playing {
		t.syncAt(now)
	}
	return t.currentBeat
}

// BeatsToSeconds converts beats to wall-clock seconds at the current tempo
// and speed.
func (t *Transport) BeatsToSeconds(beats float64) float64 {
	return beats * (60.0 / t.bpm) / t.speed
}

// SecondsToBeats converts wall-clock seconds to beats at the current tempo
// and speed.
func (t *Transport) SecondsToBeats(seconds float64) float64 {
	return seconds / ((60.0 / t.bpm) / t.speed)
}

// InCountIn reports whether the clock is still in the negative count-in
// region.
func (t *Transport) InCountIn() bool { return t.currentBeat < 0 }

// CurrentBar returns the bar number at the current beat. Count-in bars are
// negative.
func (t *Transport) CurrentBar() int {
	return int(math.Floor(t.currentBeat / float64(t.timeSig[0])))
}

// BeatInBar returns the zero-based beat within the current bar, always in
// [0, beatsPerBar) even during the count-in.
func (t *Transport) BeatInBar() float64 {
	beatsPerBar := float64(t.timeSig[0])
	r := math.Mod(t.currentBeat, beatsPerBar)
	if r < 0 {
		r += beatsPerBar
	}
	return r
}

func (t *Transport) Playing() bool   { return t.playing }
func (t *Transport) BPM() float64    { return t.bpm }
func (t *Transport) TimeSig() [2]int { return t.timeSig }
func (t *Transport) Speed() float64  { return t.speed }

// State snapshots the transport, advancing the clock first when playing.
func (t *Transport) State() TransportState { return t.stateAt(time.Now()) }

func (t *Transport) stateAt(now time.Time) TransportState {
	beat := t.beatAt(now)
	return TransportState{
		Playing:     t.playing,
		CurrentBeat: beat,
		BPM:         t.bpm,
		TimeSig:     t.timeSig,
		Speed:       t.speed,
		InCountIn:   t.InCountIn(),
		Bar:         t.CurrentBar(),
		BeatInBar:   t.BeatInBar(),
	}
}
