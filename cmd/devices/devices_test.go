package devices

import (
	"strings"
	"testing"

	"github.com/janvanwassenhove/mITyGuitar/config"
)

func TestStrumLabel(t *testing.T) {
	if strumLabel(true) != "dedicated" {
		t.Errorf("strumLabel(true) = %q", strumLabel(true))
	}
	if strumLabel(false) != "d-pad overload" {
		t.Errorf("strumLabel(false) = %q", strumLabel(false))
	}
}

func TestSustainLabel(t *testing.T) {
	audio := config.Default().Audio // sustain off
	if got := sustainLabel(audio); got != "off" {
		t.Errorf("sustainLabel = %q, want off", got)
	}

	audio.SustainEnabled = true
	audio.SustainReleaseTimeMs = 500
	if got := sustainLabel(audio); !strings.Contains(got, "500 ms") {
		t.Errorf("sustainLabel = %q, want the release time", got)
	}
}

func TestAudioRows(t *testing.T) {
	rows := audioRows(config.Default().Audio)
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4", len(rows))
	}
	if rows[0][1] != "48000 Hz" {
		t.Errorf("sample rate cell = %v", rows[0][1])
	}
	// 256 frames at 48 kHz is 5.3 ms.
	if cell, _ := rows[1][1].(string); !strings.Contains(cell, "5.3 ms") {
		t.Errorf("buffer cell = %v", rows[1][1])
	}
}
