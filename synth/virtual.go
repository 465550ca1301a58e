package synth

import (
	"github.com/janvanwassenhove/mITyGuitar/mapping"
)

const maxVoices = 16

// pitchBendRangeSemitones is the full-scale deflection of a pitch bend.
const pitchBendRangeSemitones = 2.0

// Virtual is the built-in polyphonic synthesizer. It needs no external
// assets and is the fallback when no SoundFont is configured. Not safe for
// concurrent use; the audio engine is its only caller.
type Virtual struct {
	voices     [maxVoices]voice
	sampleRate uint32
	pitchBend  float32 // semitones
	instrument Instrument

	releaseMultiplier  float32
	sustainEnabled     bool
	sustainReleaseTime float32
}

func NewVirtual(sampleRate uint32) *Virtual {
	return &Virtual{
		sampleRate:         sampleRate,
		instrument:         CleanElectricGuitar,
		releaseMultiplier:  1.0,
		sustainReleaseTime: 0.5,
	}
}

// SetInstrument switches the preset and releases every sounding voice so
// the old timbre doesn't linger under the new one.
func (s *Virtual) SetInstrument(instrument Instrument) {
	s.instrument = instrument
	s.AllNotesOff()
}

func (s *Virtual) Instrument() Instrument {
	return s.instrument
}

// SetReleaseMultiplier scales instrument release times, clamped to 0.1-10.
// It only applies while sustain mode is off.
func (s *Virtual) SetReleaseMultiplier(multiplier float32) {
	s.releaseMultiplier = clampf(multiplier, 0.1, 10)
}

func (s *Virtual) SetSustainEnabled(enabled bool) {
	s.sustainEnabled = enabled
}

// SetSustainReleaseTime sets the release used in sustain mode, clamped to
// 50ms-10s.
func (s *Virtual) SetSustainReleaseTime(seconds float32) {
	s.sustainReleaseTime = clampf(seconds, 0.05, 10)
}

// NoteOn triggers a free voice, stealing the first slot when all sixteen
// are sounding.
func (s *Virtual) NoteOn(note, velocity uint8) {
	settings := s.instrument.Settings()
	if !s.sustainEnabled {
		settings.ReleaseTime *= s.releaseMultiplier
	}

	v := s.findFreeVoice()
	if v == nil {
		v = &s.voices[0]
	}
	v.trigger(note, velocity, settings, s.sustainEnabled, s.sustainReleaseTime)
}

// NoteOff releases every voice sounding the note.
func (s *Virtual) NoteOff(note uint8) {
	for i := range s.voices {
		if s.voices[i].note == note && s.voices[i].active() {
			s.voices[i].release()
		}
	}
}

// AllNotesOff releases every voice; tails ring out per their envelopes.
func (s *Virtual) AllNotesOff() {
	for i := range s.voices {
		s.voices[i].release()
	}
}

// SetPitchBend maps the 14-bit bend range (-8192..8191) onto ±2 semitones.
func (s *Virtual) SetPitchBend(amount int16) {
	s.pitchBend = float32(amount) / 8192.0 * pitchBendRangeSemitones
}

// HandleEvent implements Backend.
func (s *Virtual) HandleEvent(ev mapping.Event) {
	switch ev.Kind {
	case mapping.EventNoteOn:
		s.NoteOn(ev.Note, ev.Velocity)
	case mapping.EventNoteOff:
		s.NoteOff(ev.Note)
	case mapping.EventPitchBend:
		s.SetPitchBend(ev.Bend)
	case mapping.EventPresetChange:
		if ev.Preset >= 0 && ev.Preset < len(instrumentNames) {
			s.SetInstrument(Instrument(ev.Preset))
		}
	case mapping.EventPanic:
		s.AllNotesOff()
	}
}

// Render implements Backend: overwrite, accumulate voices, soft limit.
func (s *Virtual) Render(samples [][2]float64) {
	for i := range samples {
		samples[i] = [2]float64{}
	}

	for vi := range s.voices {
		v := &s.voices[vi]
		if !v.active() {
			continue
		}
		for i := range samples {
			sample := float64(v.renderSample(s.sampleRate, s.pitchBend))
			samples[i][0] += sample
			samples[i][1] += sample
		}
	}

	for i := range samples {
		samples[i][0] = clamp64(samples[i][0], -1, 1)
		samples[i][1] = clamp64(samples[i][1], -1, 1)
	}
}

// ActiveVoiceCount implements Backend. Release tails count until their
// envelope reaches zero.
func (s *Virtual) ActiveVoiceCount() int {
	count := 0
	for i := range s.voices {
		if s.voices[i].active() {
			count++
		}
	}
	return count
}

func (s *Virtual) findFreeVoice() *voice {
	for i := range s.voices {
		if !s.voices[i].active() {
			return &s.voices[i]
		}
	}
	return nil
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp64(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
