// Package mapping turns controller snapshots into musical events: genre
// pattern tables, harmonic chord resolution, and the strum-gated mapper.
package mapping

// EventKind discriminates the Event union.
type EventKind uint8

const (
	EventNoteOn EventKind = iota
	EventNoteOff
	EventPitchBend
	EventControlChange
	EventPresetChange
	EventPanic
)

func (k EventKind) String() string {
	switch k {
	case EventNoteOn:
		return "note-on"
	case EventNoteOff:
		return "note-off"
	case EventPitchBend:
		return "pitch-bend"
	case EventControlChange:
		return "control-change"
	case EventPresetChange:
		return "preset-change"
	case EventPanic:
		return "panic"
	default:
		return "unknown"
	}
}

// Event is one musical event. It is a plain value so it can travel through
// lock-free queues without allocation; unused fields are zero.
type Event struct {
	Kind EventKind

	// NoteOn / NoteOff
	Note     uint8
	Velocity uint8

	// PitchBend, -8192..8191, 0 = center
	Bend int16

	// ControlChange
	Controller uint8
	Value      uint8

	// PresetChange
	Preset int
}

func NoteOn(note, velocity uint8) Event {
	return Event{Kind: EventNoteOn, Note: note, Velocity: velocity}
}

func NoteOff(note uint8) Event {
	return Event{Kind: EventNoteOff, Note: note}
}

func PitchBend(bend int16) Event {
	return Event{Kind: EventPitchBend, Bend: bend}
}

func ControlChange(controller, value uint8) Event {
	return Event{Kind: EventControlChange, Controller: controller, Value: value}
}

func PresetChange(preset int) Event {
	return Event{Kind: EventPresetChange, Preset: preset}
}

// Panic stops all sounding notes immediately.
func Panic() Event {
	return Event{Kind: EventPanic}
}
