package audio

import (
	"sync/atomic"
	"time"

	"github.com/janvanwassenhove/mITyGuitar/mapping"
	"github.com/janvanwassenhove/mITyGuitar/synth"
)

type controlKind uint8

const (
	controlSwapBackend controlKind = iota
	controlReleaseMultiplier
	controlSustainEnabled
	controlSustainReleaseTime
)

// control is one engine control message. Controls travel on their own
// queue so a backend swap can never be reordered behind a burst of notes.
type control struct {
	kind    controlKind
	backend synth.Backend
	value   float32
	enabled bool
}

// Engine is the beep streamer at the heart of the output path. Stream runs
// on the speaker's render goroutine: it drains controls, then events, then
// renders the current backend. Nothing in Stream locks, blocks or
// allocates.
type Engine struct {
	backend    synth.Backend
	sampleRate uint32

	events   *Queue[mapping.Event]
	controls *Queue[control]

	activeVoices atomic.Int64
	underruns    atomic.Uint64
	lastRender   atomic.Int64 // unix nanos of the latest Stream call
}

// NewEngine wraps a backend. The queues are created here and live for the
// engine's whole life; a reconnect reuses them.
func NewEngine(sampleRate uint32, backend synth.Backend) *Engine {
	return &Engine{
		backend:    backend,
		sampleRate: sampleRate,
		events:     NewQueue[mapping.Event](defaultQueueCapacity),
		controls:   NewQueue[control](64),
	}
}

// Stream implements beep.Streamer. It always fills the whole buffer and
// never ends; silence is rendered silence, not stream exhaustion.
func (e *Engine) Stream(samples [][2]float64) (int, bool) {
	now := time.Now().UnixNano()
	if last := e.lastRender.Load(); last != 0 && len(samples) > 0 {
		expected := int64(len(samples)) * int64(time.Second) / int64(e.sampleRate)
		if now-last > 2*expected {
			e.underruns.Add(1)
		}
	}
	e.lastRender.Store(now)

	for {
		c, ok := e.controls.Pop()
		if !ok {
			break
		}
		e.apply(c)
	}

	for {
		ev, ok := e.events.Pop()
		if !ok {
			break
		}
		e.backend.HandleEvent(ev)
	}

	e.backend.Render(samples)
	e.activeVoices.Store(int64(e.backend.ActiveVoiceCount()))
	return len(samples), true
}

// Err implements beep.Streamer. The engine itself never fails; device
// failures surface through Output's health check.
func (e *Engine) Err() error {
	return nil
}

func (e *Engine) apply(c control) {
	switch c.kind {
	case controlSwapBackend:
		if c.backend != nil {
			e.backend = c.backend
		}
	case controlReleaseMultiplier:
		if t, ok := e.backend.(synth.Tunable); ok {
			t.SetReleaseMultiplier(c.value)
		}
	case controlSustainEnabled:
		if t, ok := e.backend.(synth.Tunable); ok {
			t.SetSustainEnabled(c.enabled)
		}
	case controlSustainReleaseTime:
		if t, ok := e.backend.(synth.Tunable); ok {
			t.SetSustainReleaseTime(c.value)
		}
	}
}

// ActiveVoices is the voice count published by the latest render.
func (e *Engine) ActiveVoices() int {
	return int(e.activeVoices.Load())
}

// Underruns counts render callbacks that arrived more than a full block
// late, an estimate of audible dropouts.
func (e *Engine) Underruns() uint64 {
	return e.underruns.Load()
}
