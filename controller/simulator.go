package controller

import (
	"time"
)

// Terminal key events carry no release, so a pressed key is considered held
// for this long; key repeat extends the hold.
const simulatorHoldWindow = 150 * time.Millisecond

// Source is any producer of controller snapshots. Capture (hardware) and
// Simulator (keyboard) are interchangeable behind it.
type Source interface {
	State() Snapshot
}

// Simulator turns terminal key events into controller snapshots for use
// without hardware. Key bindings: 1-5 frets, q/w/e/r/t solo-row frets,
// space/up/down strum, enter start, esc select.
//
// Strum keys produce a one-read pulse: the next State call reports the
// strum active and clears it, so edge detection sees a clean 0→1→0.
// Fret keys are held for a rolling window extended by key repeat.
type Simulator struct {
	fretUntil [5]time.Time
	soloUntil [5]time.Time
	startUntil  time.Time
	selectUntil time.Time

	strumUpPending   bool
	strumDownPending bool

	whammy float32
}

func NewSimulator() *Simulator {
	return &Simulator{}
}

// fretKeys maps main-row and solo-row keys to lane indices.
var fretKeys = map[string]int{
	"1": 0, "2": 1, "3": 2, "4": 3, "5": 4,
}

var soloKeys = map[string]int{
	"q": 0, "w": 1, "e": 2, "r": 3, "t": 4,
}

// KeyDown feeds one terminal key event, in the string form bubbletea
// reports ("1", "q", " ", "up", "down", "enter", "esc").
func (s *Simulator) KeyDown(key string) {
	s.keyDownAt(key, time.Now())
}

func (s *Simulator) keyDownAt(key string, now time.Time) {
	deadline := now.Add(simulatorHoldWindow)
	if lane, ok := fretKeys[key]; ok {
		s.fretUntil[lane] = deadline
		return
	}
	if lane, ok := soloKeys[key]; ok {
		s.fretUntil[lane] = deadline
		s.soloUntil[lane] = deadline
		return
	}
	switch key {
	case " ", "down":
		s.strumDownPending = true
	case "up":
		s.strumUpPending = true
	case "enter":
		s.startUntil = deadline
	case "esc":
		s.selectUntil = deadline
	}
}

// SetWhammy sets the simulated whammy bar deflection, clamped to -1..1.
func (s *Simulator) SetWhammy(value float32) {
	if value > 1 {
		value = 1
	} else if value < -1 {
		value = -1
	}
	s.whammy = value
}

// SoloRow reports whether any solo-row key is currently held. Callers use
// it to pick the resolver fret row.
func (s *Simulator) SoloRow() bool {
	return s.soloRowAt(time.Now())
}

func (s *Simulator) soloRowAt(now time.Time) bool {
	for _, until := range s.soloUntil {
		if now.Before(until) {
			return true
		}
	}
	return false
}

// State assembles the current snapshot. Strum pulses are consumed by this
// call; fret holds expire on their own.
func (s *Simulator) State() Snapshot {
	return s.stateAt(time.Now())
}

func (s *Simulator) stateAt(now time.Time) Snapshot {
	snap := Snapshot{
		FretGreen:  now.Before(s.fretUntil[0]),
		FretRed:    now.Before(s.fretUntil[1]),
		FretYellow: now.Before(s.fretUntil[2]),
		FretBlue:   now.Before(s.fretUntil[3]),
		FretOrange: now.Before(s.fretUntil[4]),
		StrumUp:    s.strumUpPending,
		StrumDown:  s.strumDownPending,
		Start:      now.Before(s.startUntil),
		Select:     now.Before(s.selectUntil),
		Whammy:     s.whammy,
		Connected:  true,
		Timestamp:  now.UnixNano(),
	}
	s.strumUpPending = false
	s.strumDownPending = false
	return snap
}

// Device describes the simulator as a capture-compatible device. It always
// reports a strum bar, so the d-pad policy never kicks in.
func (s *Simulator) Device() (DeviceInfo, bool) {
	return DeviceInfo{
		Name:        "Keyboard Simulator",
		HasStrumBar: true,
	}, true
}
