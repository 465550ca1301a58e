package audio

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/janvanwassenhove/mITyGuitar/mapping"
	"github.com/janvanwassenhove/mITyGuitar/synth"
)

var (
	ErrQueueFull     = errors.New("audio event queue full")
	ErrStreamStalled = errors.New("audio stream stalled")
)

// stallThreshold is how long the render callback may go silent before the
// health check declares the stream dead. A healthy 256-frame stream renders
// every few milliseconds.
const stallThreshold = 500 * time.Millisecond

// Stats is a diagnostics snapshot of the output path.
type Stats struct {
	SampleRate         uint32
	BufferSize         int
	Underruns          uint64
	DroppedEvents      uint64
	ActiveVoices       int
	EstimatedLatencyMs float32
}

// Output owns the speaker. It is constructed once at startup and passed by
// reference to every producer; all producer-side methods funnel into the
// engine's queues. The engine, and therefore the queues, survive
// reconnects.
type Output struct {
	mu sync.Mutex

	engine     *Engine
	sampleRate uint32
	bufferSize int

	// control-plane shadow of the render-side state, used to re-apply
	// knobs when a backend swap installs a fresh synthesizer.
	virtual            *synth.Virtual
	samplerActive      bool
	releaseMultiplier  float32
	sustainEnabled     bool
	sustainReleaseTime float32

	started     bool
	streamError atomic.Bool
	dropped     atomic.Uint64
}

// NewOutput builds the engine around a virtual synthesizer backend. The
// device is not touched until Start.
func NewOutput(sampleRate uint32, bufferSize int) *Output {
	virtual := synth.NewVirtual(sampleRate)
	return &Output{
		engine:             NewEngine(sampleRate, virtual),
		sampleRate:         sampleRate,
		bufferSize:         bufferSize,
		virtual:            virtual,
		releaseMultiplier:  1.0,
		sustainReleaseTime: 0.5,
	}
}

// Start initializes the speaker and begins streaming the engine.
func (o *Output) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.started {
		return nil
	}
	if err := speaker.Init(beep.SampleRate(o.sampleRate), o.bufferSize); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}
	speaker.Play(o.engine)
	o.started = true
	slog.Info("audio stream started", "sampleRate", o.sampleRate, "bufferSize", o.bufferSize)
	return nil
}

// Close stops the speaker. The engine and queues stay usable for a later
// Start.
func (o *Output) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.started {
		return
	}
	speaker.Close()
	o.started = false
}

// SendEvent queues one musical event for the render goroutine. A full
// queue drops the event, bumps the drop counter and reports ErrQueueFull.
func (o *Output) SendEvent(ev mapping.Event) error {
	if !o.engine.events.Push(ev) {
		o.dropped.Add(1)
		return ErrQueueFull
	}
	return nil
}

// SendEvents queues a batch, stopping at the first full-queue drop.
func (o *Output) SendEvents(events []mapping.Event) error {
	for _, ev := range events {
		if err := o.SendEvent(ev); err != nil {
			return err
		}
	}
	return nil
}

// Panic queues an all-notes-off.
func (o *Output) Panic() error {
	return o.SendEvent(mapping.Panic())
}

// SetVirtualInstrument routes playback to the built-in synthesizer and
// selects a preset.
func (o *Output) SetVirtualInstrument(instrument synth.Instrument) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.samplerActive {
		if err := o.swapToVirtualLocked(); err != nil {
			return err
		}
	}
	if !o.engine.events.Push(mapping.PresetChange(int(instrument))) {
		o.dropped.Add(1)
		return ErrQueueFull
	}
	return nil
}

// LoadSoundFont builds a sampler backend for the font and swaps it in.
// Parsing happens here on the control plane; the render goroutine only
// sees the finished backend.
func (o *Output) LoadSoundFont(path string) error {
	sampler, err := synth.NewSampler(path, o.sampleRate)
	if err != nil {
		return fmt.Errorf("load soundfont: %w", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.engine.controls.Push(control{kind: controlSwapBackend, backend: sampler}) {
		return ErrQueueFull
	}
	o.samplerActive = true
	slog.Info("soundfont loaded", "font", sampler.FontName())
	return nil
}

// UseVirtual swaps back to the built-in synthesizer.
func (o *Output) UseVirtual() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.samplerActive {
		return nil
	}
	return o.swapToVirtualLocked()
}

// swapToVirtualLocked installs a fresh virtual synth (stale voices from a
// previous stint must not resume) and re-applies the knob shadow.
func (o *Output) swapToVirtualLocked() error {
	virtual := synth.NewVirtual(o.sampleRate)
	virtual.SetReleaseMultiplier(o.releaseMultiplier)
	virtual.SetSustainEnabled(o.sustainEnabled)
	virtual.SetSustainReleaseTime(o.sustainReleaseTime)

	if !o.engine.controls.Push(control{kind: controlSwapBackend, backend: virtual}) {
		return ErrQueueFull
	}
	o.virtual = virtual
	o.samplerActive = false
	return nil
}

// SetReleaseMultiplier scales note fade-out, 0.1-10.
func (o *Output) SetReleaseMultiplier(multiplier float32) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.releaseMultiplier = multiplier
	if !o.engine.controls.Push(control{kind: controlReleaseMultiplier, value: multiplier}) {
		return ErrQueueFull
	}
	return nil
}

// SetSustainEnabled toggles sustain mode.
func (o *Output) SetSustainEnabled(enabled bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sustainEnabled = enabled
	if !o.engine.controls.Push(control{kind: controlSustainEnabled, enabled: enabled}) {
		return ErrQueueFull
	}
	return nil
}

// SetSustainReleaseTime sets the sustain-mode release in seconds.
func (o *Output) SetSustainReleaseTime(seconds float32) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sustainReleaseTime = seconds
	if !o.engine.controls.Push(control{kind: controlSustainReleaseTime, value: seconds}) {
		return ErrQueueFull
	}
	return nil
}

// Stats snapshots the diagnostics counters.
func (o *Output) Stats() Stats {
	return Stats{
		SampleRate:         o.sampleRate,
		BufferSize:         o.bufferSize,
		Underruns:          o.engine.Underruns(),
		DroppedEvents:      o.dropped.Load(),
		ActiveVoices:       o.engine.ActiveVoices(),
		EstimatedLatencyMs: float32(o.bufferSize) / float32(o.sampleRate) * 1000,
	}
}

// HasStreamError reports the sticky stream-error flag.
func (o *Output) HasStreamError() bool {
	return o.streamError.Load()
}

// CheckHealth verifies the render callback is still being driven. A stall
// sets the sticky error flag; only Reconnect clears it.
func (o *Output) CheckHealth() error {
	o.mu.Lock()
	started := o.started
	o.mu.Unlock()
	if !started {
		return nil
	}

	if last := o.engine.lastRender.Load(); last != 0 {
		if time.Since(time.Unix(0, last)) > stallThreshold {
			o.streamError.Store(true)
		}
	}
	if o.streamError.Load() {
		return ErrStreamStalled
	}
	return nil
}

// Reconnect tears the device stream down and brings it back up around the
// same engine, so queued events and synth state survive.
func (o *Output) Reconnect() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	slog.Info("reconnecting audio stream")
	if o.started {
		speaker.Close()
		o.started = false
	}
	if err := speaker.Init(beep.SampleRate(o.sampleRate), o.bufferSize); err != nil {
		return fmt.Errorf("reinit speaker: %w", err)
	}
	speaker.Play(o.engine)
	o.started = true
	o.engine.lastRender.Store(0)
	o.streamError.Store(false)
	slog.Info("audio stream reconnected")
	return nil
}
