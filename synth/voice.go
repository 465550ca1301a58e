package synth

import (
	"math"
	"time"
)

// Waveform is the oscillator shape of a voice.
type Waveform uint8

const (
	WaveSine Waveform = iota
	WaveSaw
	WaveSquare
	WaveTriangle
	WaveNoise
)

type envelopeStage uint8

const (
	stageOff envelopeStage = iota
	stageAttack
	stageSustain
	stageRelease
)

// voice is one polyphony slot. A voice sounds from trigger until its
// release envelope reaches zero; release tails keep it active.
type voice struct {
	note      uint8
	frequency float32
	phase     float32
	stage     envelopeStage
	level     float32
	velocity  float32
	settings  Settings
	filter    float32
	noise     uint64

	sustainEnabled     bool
	sustainReleaseTime float32
}

func (v *voice) active() bool {
	return v.stage != stageOff
}

func (v *voice) trigger(note, velocity uint8, settings Settings, sustainEnabled bool, sustainReleaseTime float32) {
	v.note = note
	v.velocity = float32(velocity) / 127.0
	v.frequency = noteFrequency(note)
	v.phase = 0
	v.stage = stageAttack
	v.level = 0
	v.settings = settings
	v.filter = 0
	// xorshift state must never be zero.
	v.noise = uint64(time.Now().UnixNano()) | 1
	v.sustainEnabled = sustainEnabled
	v.sustainReleaseTime = sustainReleaseTime
}

func (v *voice) release() {
	if v.stage == stageAttack || v.stage == stageSustain {
		v.stage = stageRelease
	}
}

// renderSample advances the voice by one frame and returns its mono output.
// pitchBend is in semitones.
func (v *voice) renderSample(sampleRate uint32, pitchBend float32) float32 {
	if v.stage == stageOff {
		return 0
	}

	delta := 1.0 / float32(sampleRate)
	switch v.stage {
	case stageAttack:
		v.level += delta / v.settings.AttackTime
		if v.level >= 1 {
			v.level = 1
			v.stage = stageSustain
		}
	case stageSustain:
		// Hold at full level until release.
	case stageRelease:
		releaseTime := v.settings.ReleaseTime
		if v.sustainEnabled {
			releaseTime = v.sustainReleaseTime
		}
		v.level -= delta / releaseTime
		if v.level <= 0 {
			v.level = 0
			v.stage = stageOff
		}
	}

	bent := v.frequency * exp2f(pitchBend/12)
	v.phase += bent / float32(sampleRate)
	if v.phase >= 1 {
		v.phase -= 1
	}

	var sample float32
	switch v.settings.Wave {
	case WaveSine:
		sample = float32(math.Sin(float64(v.phase) * 2 * math.Pi))
	case WaveSaw:
		sample = v.phase*2 - 1
	case WaveSquare:
		if v.phase < 0.5 {
			sample = 1
		} else {
			sample = -1
		}
	case WaveTriangle:
		if v.phase < 0.5 {
			sample = v.phase*4 - 1
		} else {
			sample = 3 - v.phase*4
		}
	case WaveNoise:
		sample = v.nextNoise()
	}

	// One-pole low pass.
	v.filter += (sample - v.filter) * v.settings.Cutoff
	sample = v.filter

	if v.settings.Distortion > 0 {
		gain := 1 + v.settings.Distortion*10
		sample = tanhf(sample*gain) / tanhf(gain)
	}

	return sample * v.level * v.velocity * v.settings.Volume
}

// nextNoise is a xorshift64 white noise source scaled to [-1, 1).
func (v *voice) nextNoise() float32 {
	v.noise ^= v.noise << 13
	v.noise ^= v.noise >> 7
	v.noise ^= v.noise << 17
	return float32(float64(v.noise)*(2.0/float64(math.MaxUint64)) - 1)
}

// noteFrequency converts a MIDI note number to Hz, A4 = 440.
func noteFrequency(note uint8) float32 {
	return 440 * exp2f((float32(note)-69)/12)
}

func exp2f(x float32) float32 {
	return float32(math.Exp2(float64(x)))
}

func tanhf(x float32) float32 {
	return float32(math.Tanh(float64(x)))
}
