// Package midiout mirrors the live event stream to a MIDI output port, so
// the instrument can drive external synths and DAWs alongside (or instead
// of) the built-in audio engine.
package midiout

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // registers the rtmidi driver

	"github.com/janvanwassenhove/mITyGuitar/mapping"
)

// ErrNoPorts is returned by Open when no MIDI output exists on the system.
var ErrNoPorts = errors.New("no MIDI output ports available")

// channel is the single MIDI channel the bridge transmits on.
const channel uint8 = 0

// ccAllNotesOff is controller 123; sending it with value 0 silences the
// receiver.
const ccAllNotesOff uint8 = 123

// Bridge owns one open MIDI output port and translates events onto it.
type Bridge struct {
	out  drivers.Out
	send func(midi.Message) error
}

// Open connects to the output port whose name contains name,
// case-insensitively. An empty name picks the first available port.
func Open(name string) (*Bridge, error) {
	var out drivers.Out
	if name == "" {
		ports := midi.GetOutPorts()
		if len(ports) == 0 {
			return nil, ErrNoPorts
		}
		out = ports[0]
	} else {
		found, err := midi.FindOutPort(name)
		if err != nil {
			return nil, fmt.Errorf("find MIDI output %q: %w", name, err)
		}
		out = found
	}

	send, err := midi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("open MIDI output %q: %w", out.String(), err)
	}
	slog.Info("midi output connected", "port", out.String())
	return &Bridge{out: out, send: send}, nil
}

// Ports lists the names of the available MIDI output ports.
func Ports() []string {
	return lo.Map(midi.GetOutPorts(), func(out drivers.Out, _ int) string {
		return out.String()
	})
}

// Send translates one event and writes it to the port. Events with no MIDI
// representation are dropped silently.
func (b *Bridge) Send(ev mapping.Event) error {
	msg, ok := Message(ev)
	if !ok {
		return nil
	}
	if err := b.send(msg); err != nil {
		return fmt.Errorf("send %s: %w", ev.Kind, err)
	}
	return nil
}

// Close silences the receiver and releases the port.
func (b *Bridge) Close() error {
	if b.out == nil {
		return nil
	}
	_ = b.send(midi.ControlChange(channel, ccAllNotesOff, 0))
	err := b.out.Close()
	b.out = nil
	return err
}

// Shutdown releases the MIDI driver. Call once at process exit.
func Shutdown() {
	midi.CloseDriver()
}

// Message translates one event to its wire message. ok is false for events
// that have no MIDI representation.
func Message(ev mapping.Event) (midi.Message, bool) {
	switch ev.Kind {
	case mapping.EventNoteOn:
		return midi.NoteOn(channel, ev.Note, ev.Velocity), true
	case mapping.EventNoteOff:
		return midi.NoteOff(channel, ev.Note), true
	case mapping.EventPitchBend:
		return midi.Pitchbend(channel, ev.Bend), true
	case mapping.EventControlChange:
		return midi.ControlChange(channel, ev.Controller, ev.Value), true
	case mapping.EventPresetChange:
		return midi.ProgramChange(channel, clampProgram(ev.Preset)), true
	case mapping.EventPanic:
		return midi.ControlChange(channel, ccAllNotesOff, 0), true
	default:
		return nil, false
	}
}

func clampProgram(preset int) uint8 {
	if preset < 0 {
		return 0
	}
	if preset > 127 {
		return 127
	}
	return uint8(preset)
}
