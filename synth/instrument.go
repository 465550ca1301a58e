package synth

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownInstrument = errors.New("unknown instrument")

// Instrument selects one of the built-in virtual presets.
type Instrument uint8

const (
	CleanElectricGuitar Instrument = iota
	DistortedGuitar
	AcousticGuitar
	ClassicalGuitar
	ElectricBass
	AcousticBass
	Piano
	Organ
	Strings
	SynthLead
	SynthPad
	BrassSection
)

var instrumentNames = [...]string{
	"Clean Electric Guitar",
	"Distorted Guitar",
	"Acoustic Guitar",
	"Classical Guitar",
	"Electric Bass",
	"Acoustic Bass",
	"Piano",
	"Organ",
	"Strings",
	"Synth Lead",
	"Synth Pad",
	"Brass Section",
}

// Instruments lists every virtual preset in display order.
func Instruments() []Instrument {
	all := make([]Instrument, len(instrumentNames))
	for i := range all {
		all[i] = Instrument(i)
	}
	return all
}

func (i Instrument) String() string {
	if int(i) >= len(instrumentNames) {
		return "unknown"
	}
	return instrumentNames[i]
}

// ParseInstrument matches a display name, case-insensitively.
func ParseInstrument(s string) (Instrument, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for i, name := range instrumentNames {
		if strings.ToLower(name) == want {
			return Instrument(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownInstrument, s)
}

// Settings are the raw synthesis parameters of one preset. Times are in
// seconds; Cutoff is the one-pole low-pass coefficient, 0..1.
type Settings struct {
	Wave        Waveform
	AttackTime  float32
	ReleaseTime float32
	Cutoff      float32
	Resonance   float32
	Distortion  float32
	Volume      float32
}

// Settings returns the preset parameters for the instrument.
func (i Instrument) Settings() Settings {
	switch i {
	case CleanElectricGuitar:
		return Settings{Wave: WaveSaw, AttackTime: 0.005, ReleaseTime: 1.0, Cutoff: 0.8, Resonance: 0.2, Distortion: 0.0, Volume: 0.4}
	case DistortedGuitar:
		return Settings{Wave: WaveSaw, AttackTime: 0.01, ReleaseTime: 0.8, Cutoff: 0.6, Resonance: 0.4, Distortion: 0.7, Volume: 0.35}
	case AcousticGuitar:
		return Settings{Wave: WaveTriangle, AttackTime: 0.02, ReleaseTime: 2.0, Cutoff: 0.7, Resonance: 0.1, Distortion: 0.0, Volume: 0.45}
	case ClassicalGuitar:
		return Settings{Wave: WaveTriangle, AttackTime: 0.03, ReleaseTime: 2.5, Cutoff: 0.6, Resonance: 0.15, Distortion: 0.0, Volume: 0.4}
	case ElectricBass:
		return Settings{Wave: WaveSine, AttackTime: 0.01, ReleaseTime: 1.2, Cutoff: 0.4, Resonance: 0.3, Distortion: 0.1, Volume: 0.6}
	case AcousticBass:
		return Settings{Wave: WaveTriangle, AttackTime: 0.02, ReleaseTime: 1.8, Cutoff: 0.3, Resonance: 0.2, Distortion: 0.0, Volume: 0.55}
	case Piano:
		return Settings{Wave: WaveTriangle, AttackTime: 0.001, ReleaseTime: 3.0, Cutoff: 0.9, Resonance: 0.1, Distortion: 0.0, Volume: 0.5}
	case Organ:
		return Settings{Wave: WaveSine, AttackTime: 0.1, ReleaseTime: 0.1, Cutoff: 0.8, Resonance: 0.0, Distortion: 0.0, Volume: 0.4}
	case Strings:
		return Settings{Wave: WaveSaw, AttackTime: 0.2, ReleaseTime: 1.5, Cutoff: 0.7, Resonance: 0.3, Distortion: 0.0, Volume: 0.35}
	case SynthLead:
		return Settings{Wave: WaveSquare, AttackTime: 0.01, ReleaseTime: 0.5, Cutoff: 0.9, Resonance: 0.5, Distortion: 0.2, Volume: 0.4}
	case SynthPad:
		return Settings{Wave: WaveSaw, AttackTime: 0.5, ReleaseTime: 2.0, Cutoff: 0.5, Resonance: 0.4, Distortion: 0.0, Volume: 0.3}
	case BrassSection:
		return Settings{Wave: WaveSaw, AttackTime: 0.05, ReleaseTime: 0.3, Cutoff: 0.8, Resonance: 0.2, Distortion: 0.1, Volume: 0.45}
	default:
		return CleanElectricGuitar.Settings()
	}
}
