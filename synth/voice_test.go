package synth

import (
	"math"
	"testing"
)

func TestNoteFrequency(t *testing.T) {
	tests := []struct {
		note uint8
		want float64
	}{
		{69, 440.0},
		{60, 261.63},
		{81, 880.0},
		{57, 220.0},
	}

	for _, tt := range tests {
		got := float64(noteFrequency(tt.note))
		if math.Abs(got-tt.want) > 1.0 {
			t.Errorf("noteFrequency(%d) = %.2f, want %.2f", tt.note, got, tt.want)
		}
	}
}

func TestVoiceEnvelopeLifecycle(t *testing.T) {
	const sampleRate = 1000
	settings := Settings{Wave: WaveSine, AttackTime: 0.01, ReleaseTime: 0.1, Cutoff: 1.0, Volume: 1.0}

	var v voice
	if v.active() {
		t.Fatal("fresh voice should be inactive")
	}

	v.trigger(69, 127, settings, false, 0.5)
	if !v.active() || v.stage != stageAttack {
		t.Fatal("triggered voice should be attacking")
	}

	// 10ms attack at 1kHz is 10 samples to full level.
	for i := 0; i < 10; i++ {
		v.renderSample(sampleRate, 0)
	}
	if v.stage != stageSustain || v.level != 1 {
		t.Fatalf("after attack: stage %v level %v, want sustain at 1", v.stage, v.level)
	}

	// Sustain holds indefinitely.
	for i := 0; i < 100; i++ {
		v.renderSample(sampleRate, 0)
	}
	if v.stage != stageSustain || v.level != 1 {
		t.Fatal("sustain did not hold")
	}

	v.release()
	if v.stage != stageRelease {
		t.Fatal("release did not change stage")
	}

	// 100ms release at 1kHz is 100 samples to silence.
	for i := 0; i < 101; i++ {
		v.renderSample(sampleRate, 0)
	}
	if v.active() {
		t.Errorf("voice still active after release tail: stage %v level %v", v.stage, v.level)
	}
}

func TestVoiceSustainOverridesReleaseTime(t *testing.T) {
	const sampleRate = 1000
	settings := Settings{Wave: WaveSine, AttackTime: 0.001, ReleaseTime: 10.0, Cutoff: 1.0, Volume: 1.0}

	var v voice
	v.trigger(69, 127, settings, true, 0.05)
	for v.stage == stageAttack {
		v.renderSample(sampleRate, 0)
	}
	v.release()

	// With sustain on, the 50ms override wins over the 10s instrument
	// release: 50 samples to silence at 1kHz.
	for i := 0; i < 60; i++ {
		v.renderSample(sampleRate, 0)
	}
	if v.active() {
		t.Errorf("sustain release override not applied: stage %v level %v", v.stage, v.level)
	}
}

func TestVoiceReleaseFromAttack(t *testing.T) {
	var v voice
	v.trigger(69, 127, Settings{Wave: WaveSine, AttackTime: 1.0, ReleaseTime: 0.01, Cutoff: 1.0, Volume: 1.0}, false, 0.5)
	v.renderSample(1000, 0)
	v.release()
	if v.stage != stageRelease {
		t.Error("release during attack should enter release stage")
	}
}

func TestVoiceInactiveRendersSilence(t *testing.T) {
	var v voice
	for i := 0; i < 16; i++ {
		if got := v.renderSample(48000, 0); got != 0 {
			t.Fatalf("inactive voice rendered %v", got)
		}
	}
}

func TestVoiceVelocityScalesLevel(t *testing.T) {
	peak := func(velocity uint8) float32 {
		var v voice
		v.trigger(69, velocity, Settings{Wave: WaveSine, AttackTime: 0.001, ReleaseTime: 1, Cutoff: 1.0, Volume: 1.0}, false, 0.5)
		var max float32
		for i := 0; i < 4410; i++ {
			if s := v.renderSample(44100, 0); s > max {
				max = s
			}
		}
		return max
	}

	loud := peak(127)
	soft := peak(64)
	if loud <= soft {
		t.Errorf("velocity 127 peak %v not above velocity 64 peak %v", loud, soft)
	}
	ratio := loud / soft
	if ratio < 1.8 || ratio > 2.2 {
		t.Errorf("peak ratio = %v, want about 127/64", ratio)
	}
}

// countCrossings counts negative-to-positive sign changes, a cheap
// frequency estimate for periodic waves.
func countCrossings(samples []float32) int {
	count := 0
	for i := 1; i < len(samples); i++ {
		if samples[i-1] < 0 && samples[i] >= 0 {
			count++
		}
	}
	return count
}

func TestVoicePitchBendShiftsFrequency(t *testing.T) {
	render := func(bendSemitones float32) []float32 {
		var v voice
		v.trigger(69, 127, Settings{Wave: WaveSine, AttackTime: 0.001, ReleaseTime: 1, Cutoff: 1.0, Volume: 1.0}, false, 0.5)
		out := make([]float32, 4410) // 100ms at 44.1kHz
		for i := range out {
			out[i] = v.renderSample(44100, bendSemitones)
		}
		return out
	}

	base := countCrossings(render(0))    // ~44 periods of A4
	octave := countCrossings(render(12)) // ~88 periods

	if base < 40 || base > 48 {
		t.Fatalf("A4 crossings = %d, want about 44", base)
	}
	if octave < 2*base-8 || octave > 2*base+8 {
		t.Errorf("octave bend crossings = %d, want about %d", octave, 2*base)
	}
}

func TestVoiceNoiseBounded(t *testing.T) {
	var v voice
	v.trigger(60, 127, Settings{Wave: WaveNoise, AttackTime: 0.001, ReleaseTime: 1, Cutoff: 1.0, Volume: 1.0}, false, 0.5)

	varied := false
	var prev float32
	for i := 0; i < 1000; i++ {
		s := v.renderSample(44100, 0)
		if s < -1.001 || s > 1.001 {
			t.Fatalf("noise sample %v out of range", s)
		}
		if i > 100 && s != prev {
			varied = true
		}
		prev = s
	}
	if !varied {
		t.Error("noise output is constant")
	}
}
