package controller

import (
	"math"
	"sync/atomic"
)

// AtomicFloat32 stores a float32 bit pattern in a uint32 so it can be
// shared between the polling goroutine and readers without locks.
type AtomicFloat32 struct {
	bits atomic.Uint32
}

func (f *AtomicFloat32) Load() float32 {
	return math.Float32frombits(f.bits.Load())
}

func (f *AtomicFloat32) Store(v float32) {
	f.bits.Store(math.Float32bits(v))
}

// Snapshot is an immutable copy of the controller state at one poll cycle.
// Each field is published independently, so two fields may come from
// adjacent cycles; edge detection must compare against the caller's own
// previous snapshot, never assume cross-field simultaneity.
type Snapshot struct {
	FretGreen  bool
	FretRed    bool
	FretYellow bool
	FretBlue   bool
	FretOrange bool

	StrumUp   bool
	StrumDown bool

	DpadUp    bool
	DpadDown  bool
	DpadLeft  bool
	DpadRight bool

	Start  bool
	Select bool

	// Whammy is the whammy bar deflection, -1..1, 0 at rest.
	Whammy float32

	Connected bool

	// Timestamp is nanoseconds from the monotonic clock at publish time.
	Timestamp int64
}

// Frets returns the five fret buttons in lane order green..orange.
func (s Snapshot) Frets() [5]bool {
	return [5]bool{s.FretGreen, s.FretRed, s.FretYellow, s.FretBlue, s.FretOrange}
}

// PressedFrets returns the lane indices (0=green .. 4=orange) that are held.
func (s Snapshot) PressedFrets() []int {
	frets := s.Frets()
	pressed := make([]int, 0, 5)
	for i, held := range frets {
		if held {
			pressed = append(pressed, i)
		}
	}
	return pressed
}

// IsStrumming reports whether either strum direction is active.
func (s Snapshot) IsStrumming() bool {
	return s.StrumUp || s.StrumDown
}

// AtomicState is the shared controller state. The capture goroutine is the
// only writer; any goroutine may read. Reads and writes never block.
type AtomicState struct {
	fretGreen  atomic.Bool
	fretRed    atomic.Bool
	fretYellow atomic.Bool
	fretBlue   atomic.Bool
	fretOrange atomic.Bool

	strumUp   atomic.Bool
	strumDown atomic.Bool

	dpadUp    atomic.Bool
	dpadDown  atomic.Bool
	dpadLeft  atomic.Bool
	dpadRight atomic.Bool

	start atomic.Bool
	sel   atomic.Bool

	whammy AtomicFloat32

	connected atomic.Bool
	timestamp atomic.Int64
}

// Publish stores every field of s into the shared state. Only the capture
// goroutine calls this.
func (a *AtomicState) Publish(s Snapshot) {
	a.fretGreen.Store(s.FretGreen)
	a.fretRed.Store(s.FretRed)
	a.fretYellow.Store(s.FretYellow)
	a.fretBlue.Store(s.FretBlue)
	a.fretOrange.Store(s.FretOrange)
	a.strumUp.Store(s.StrumUp)
	a.strumDown.Store(s.StrumDown)
	a.dpadUp.Store(s.DpadUp)
	a.dpadDown.Store(s.DpadDown)
	a.dpadLeft.Store(s.DpadLeft)
	a.dpadRight.Store(s.DpadRight)
	a.start.Store(s.Start)
	a.sel.Store(s.Select)
	a.whammy.Store(s.Whammy)
	a.connected.Store(s.Connected)
	a.timestamp.Store(s.Timestamp)
}

// SetConnected flips only the connection flag, leaving inputs untouched.
func (a *AtomicState) SetConnected(connected bool) {
	a.connected.Store(connected)
}

// Load assembles a Snapshot from the current atomics. Never blocks, never
// allocates.
func (a *AtomicState) Load() Snapshot {
	return Snapshot{
		FretGreen:  a.fretGreen.Load(),
		FretRed:    a.fretRed.Load(),
		FretYellow: a.fretYellow.Load(),
		FretBlue:   a.fretBlue.Load(),
		FretOrange: a.fretOrange.Load(),
		StrumUp:    a.strumUp.Load(),
		StrumDown:  a.strumDown.Load(),
		DpadUp:     a.dpadUp.Load(),
		DpadDown:   a.dpadDown.Load(),
		DpadLeft:   a.dpadLeft.Load(),
		DpadRight:  a.dpadRight.Load(),
		Start:      a.start.Load(),
		Select:     a.sel.Load(),
		Whammy:     a.whammy.Load(),
		Connected:  a.connected.Load(),
		Timestamp:  a.timestamp.Load(),
	}
}
