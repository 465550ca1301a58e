package synth

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sinshu/go-meltysynth/meltysynth"

	"github.com/janvanwassenhove/mITyGuitar/mapping"
)

// midi status bytes used when driving the sampler.
const (
	midiControlChange = 0xB0
	midiProgramChange = 0xC0
	midiPitchBend     = 0xE0
)

// Sampler plays a SoundFont. Like Virtual it is single-goroutine: the
// audio engine is its only caller once constructed.
type Sampler struct {
	synth    *meltysynth.Synthesizer
	fontName string

	left  []float32
	right []float32

	held      [128]bool
	heldCount int
}

// NewSampler loads the .sf2 file at path and builds a synthesizer for it.
func NewSampler(path string, sampleRate uint32) (*Sampler, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open soundfont: %w", err)
	}
	defer f.Close()

	font, err := meltysynth.NewSoundFont(f)
	if err != nil {
		return nil, fmt.Errorf("parse soundfont %s: %w", path, err)
	}

	settings := meltysynth.NewSynthesizerSettings(int32(sampleRate))
	sy, err := meltysynth.NewSynthesizer(font, settings)
	if err != nil {
		return nil, fmt.Errorf("create sampler synthesizer: %w", err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &Sampler{synth: sy, fontName: name}, nil
}

// FontName is the loaded SoundFont's name, derived from its file name.
func (s *Sampler) FontName() string {
	return s.fontName
}

// HandleEvent implements Backend.
func (s *Sampler) HandleEvent(ev mapping.Event) {
	switch ev.Kind {
	case mapping.EventNoteOn:
		s.synth.NoteOn(0, int32(ev.Note), int32(ev.Velocity))
		s.markHeld(ev.Note, true)
	case mapping.EventNoteOff:
		s.synth.NoteOff(0, int32(ev.Note))
		s.markHeld(ev.Note, false)
	case mapping.EventPitchBend:
		value := int32(ev.Bend) + 8192
		s.synth.ProcessMidiMessage(0, midiPitchBend, value&0x7F, value>>7)
	case mapping.EventControlChange:
		s.synth.ProcessMidiMessage(0, midiControlChange, int32(ev.Controller), int32(ev.Value))
	case mapping.EventPresetChange:
		s.synth.ProcessMidiMessage(0, midiProgramChange, int32(ev.Preset), 0)
	case mapping.EventPanic:
		s.synth.NoteOffAll(false)
		s.held = [128]bool{}
		s.heldCount = 0
	}
}

// Render implements Backend. The deinterleave buffers are reused; they only
// allocate when the engine's block size grows.
func (s *Sampler) Render(samples [][2]float64) {
	n := len(samples)
	if cap(s.left) < n {
		s.left = make([]float32, n)
		s.right = make([]float32, n)
	}
	left := s.left[:n]
	right := s.right[:n]

	s.synth.Render(left, right)

	for i := 0; i < n; i++ {
		samples[i][0] = float64(left[i])
		samples[i][1] = float64(right[i])
	}
}

// ActiveVoiceCount implements Backend. The sampler reports held notes; it
// does not track release tails inside the SoundFont engine.
func (s *Sampler) ActiveVoiceCount() int {
	return s.heldCount
}

func (s *Sampler) markHeld(note uint8, held bool) {
	if int(note) >= len(s.held) || s.held[note] == held {
		return
	}
	s.held[note] = held
	if held {
		s.heldCount++
	} else {
		s.heldCount--
	}
}
