package audio

import (
	"errors"
	"testing"

	"github.com/janvanwassenhove/mITyGuitar/mapping"
	"github.com/janvanwassenhove/mITyGuitar/synth"
)

func TestOutputSendEventUntilFull(t *testing.T) {
	o := NewOutput(48000, 256)
	capacity := o.engine.events.Cap()

	for i := 0; i < capacity; i++ {
		if err := o.SendEvent(mapping.NoteOn(60, 100)); err != nil {
			t.Fatalf("event %d rejected: %v", i, err)
		}
	}

	err := o.SendEvent(mapping.NoteOn(60, 100))
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("overflow error = %v, want ErrQueueFull", err)
	}
	if got := o.Stats().DroppedEvents; got != 1 {
		t.Errorf("dropped counter = %d, want 1", got)
	}
}

func TestOutputSendEventsBatch(t *testing.T) {
	o := NewOutput(48000, 256)

	events := []mapping.Event{
		mapping.NoteOn(60, 100),
		mapping.NoteOn(64, 100),
		mapping.PitchBend(1024),
	}
	if err := o.SendEvents(events); err != nil {
		t.Fatalf("SendEvents: %v", err)
	}
	if got := o.engine.events.Len(); got != 3 {
		t.Errorf("queued %d events, want 3", got)
	}
}

func TestOutputSetVirtualInstrument(t *testing.T) {
	o := NewOutput(48000, 256)

	if err := o.SetVirtualInstrument(synth.Piano); err != nil {
		t.Fatalf("SetVirtualInstrument: %v", err)
	}

	// Already on the virtual backend, so no swap control is queued.
	if got := o.engine.controls.Len(); got != 0 {
		t.Errorf("%d controls queued, want 0", got)
	}

	ev, ok := o.engine.events.Pop()
	if !ok {
		t.Fatal("no event queued")
	}
	if ev.Kind != mapping.EventPresetChange || ev.Preset != int(synth.Piano) {
		t.Errorf("queued %+v, want preset change to Piano", ev)
	}
}

func TestOutputUseVirtualAfterSampler(t *testing.T) {
	o := NewOutput(48000, 256)
	o.samplerActive = true // as if a soundfont were loaded

	if err := o.SetReleaseMultiplier(2); err != nil {
		t.Fatalf("SetReleaseMultiplier: %v", err)
	}
	if err := o.UseVirtual(); err != nil {
		t.Fatalf("UseVirtual: %v", err)
	}
	if o.samplerActive {
		t.Error("sampler still flagged active")
	}

	// Skip the knob control pushed above, then inspect the swap.
	var swap control
	found := false
	for {
		c, ok := o.engine.controls.Pop()
		if !ok {
			break
		}
		if c.kind == controlSwapBackend {
			swap = c
			found = true
		}
	}
	if !found {
		t.Fatal("no backend swap queued")
	}
	if _, ok := swap.backend.(synth.Tunable); !ok {
		t.Error("swapped-in backend is not the tunable virtual synth")
	}
}

func TestOutputKnobControls(t *testing.T) {
	o := NewOutput(48000, 256)

	if err := o.SetReleaseMultiplier(1.5); err != nil {
		t.Fatal(err)
	}
	if err := o.SetSustainEnabled(true); err != nil {
		t.Fatal(err)
	}
	if err := o.SetSustainReleaseTime(0.7); err != nil {
		t.Fatal(err)
	}

	want := []control{
		{kind: controlReleaseMultiplier, value: 1.5},
		{kind: controlSustainEnabled, enabled: true},
		{kind: controlSustainReleaseTime, value: 0.7},
	}
	for i, w := range want {
		c, ok := o.engine.controls.Pop()
		if !ok {
			t.Fatalf("control %d missing", i)
		}
		if c.kind != w.kind || c.value != w.value || c.enabled != w.enabled {
			t.Errorf("control %d = %+v, want %+v", i, c, w)
		}
	}
}

func TestOutputLoadSoundFontMissingFile(t *testing.T) {
	o := NewOutput(48000, 256)
	if err := o.LoadSoundFont("/does/not/exist.sf2"); err == nil {
		t.Fatal("expected an error for a missing soundfont")
	}
	if o.samplerActive {
		t.Error("failed load flagged the sampler active")
	}
}

func TestOutputPanicQueuesEvent(t *testing.T) {
	o := NewOutput(48000, 256)
	if err := o.Panic(); err != nil {
		t.Fatal(err)
	}
	ev, ok := o.engine.events.Pop()
	if !ok || ev.Kind != mapping.EventPanic {
		t.Errorf("queued %+v, want panic", ev)
	}
}

func TestOutputStats(t *testing.T) {
	o := NewOutput(48000, 256)
	stats := o.Stats()

	if stats.SampleRate != 48000 || stats.BufferSize != 256 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.EstimatedLatencyMs < 5.3 || stats.EstimatedLatencyMs > 5.4 {
		t.Errorf("latency = %v ms, want about 5.33", stats.EstimatedLatencyMs)
	}
	if stats.Underruns != 0 || stats.DroppedEvents != 0 {
		t.Errorf("fresh output has nonzero counters: %+v", stats)
	}
}

func TestOutputHealthBeforeStart(t *testing.T) {
	o := NewOutput(48000, 256)
	if err := o.CheckHealth(); err != nil {
		t.Errorf("CheckHealth before start = %v, want nil", err)
	}
	if o.HasStreamError() {
		t.Error("fresh output reports a stream error")
	}
}
