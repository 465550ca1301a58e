// Package synth renders musical events to audio. Two backends share one
// interface: Virtual, a polyphonic subtractive synthesizer with built-in
// instrument presets, and Sampler, which plays a loaded SoundFont.
package synth

import (
	"github.com/janvanwassenhove/mITyGuitar/mapping"
)

// Backend is a synthesis strategy driven by the audio engine. Every method
// is called from the render goroutine only; Render must not lock, block or
// allocate.
type Backend interface {
	// Render fills samples with the backend's stereo output, overwriting
	// any previous contents.
	Render(samples [][2]float64)

	// HandleEvent applies one musical event to the backend's state.
	HandleEvent(ev mapping.Event)

	// ActiveVoiceCount reports how many voices are currently sounding,
	// including release tails where the backend tracks them.
	ActiveVoiceCount() int
}

// Tunable is implemented by backends with adjustable envelope behavior.
// The audio engine probes for it when applying control messages; backends
// without these knobs simply don't implement it.
type Tunable interface {
	SetReleaseMultiplier(multiplier float32)
	SetSustainEnabled(enabled bool)
	SetSustainReleaseTime(seconds float32)
}
