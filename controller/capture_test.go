package controller

import (
	"testing"
)

func TestBindingsHasStrumBar(t *testing.T) {
	b := DefaultBindings()

	tests := []struct {
		name       string
		numButtons int
		want       bool
	}{
		{"full guitar layout", 10, true},
		{"exactly covers strum pair", 7, true},
		{"strum down missing", 6, false},
		{"frets only", 5, false},
		{"empty device", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.hasStrumBar(tt.numButtons); got != tt.want {
				t.Errorf("hasStrumBar(%d) = %v, want %v", tt.numButtons, got, tt.want)
			}
		})
	}
}

func TestApplyStrumPolicy(t *testing.T) {
	tests := []struct {
		name        string
		hasStrumBar bool
		strumUp     bool
		strumDown   bool
		dpadUp      bool
		dpadDown    bool

		wantStrumUp   bool
		wantStrumDown bool
		wantDpadUp    bool
		wantDpadDown  bool
	}{
		{
			name:        "strum bar keeps dpad independent",
			hasStrumBar: true,
			strumUp:     true,
			dpadDown:    true,

			wantStrumUp:  true,
			wantDpadDown: true,
		},
		{
			name:        "no strum bar overloads dpad down",
			hasStrumBar: false,
			dpadDown:    true,

			wantStrumDown: true,
		},
		{
			name:        "no strum bar overloads dpad up",
			hasStrumBar: false,
			dpadUp:      true,

			wantStrumUp: true,
		},
		{
			name:        "no strum bar suppresses dpad reporting",
			hasStrumBar: false,
			dpadUp:      true,
			dpadDown:    true,

			wantStrumUp:   true,
			wantStrumDown: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			su, sd, du, dd := applyStrumPolicy(tt.hasStrumBar, tt.strumUp, tt.strumDown, tt.dpadUp, tt.dpadDown)
			if su != tt.wantStrumUp || sd != tt.wantStrumDown || du != tt.wantDpadUp || dd != tt.wantDpadDown {
				t.Errorf("applyStrumPolicy() = strum(%v,%v) dpad(%v,%v), want strum(%v,%v) dpad(%v,%v)",
					su, sd, du, dd, tt.wantStrumUp, tt.wantStrumDown, tt.wantDpadUp, tt.wantDpadDown)
			}
		})
	}
}

func TestFireEdges(t *testing.T) {
	var presses, releases []int
	var strums []bool

	c := NewCapture(DefaultBindings(), Callbacks{
		OnFretPress:   func(fret int, _ float32) { presses = append(presses, fret) },
		OnFretRelease: func(fret int) { releases = append(releases, fret) },
		OnStrum:       func(up bool, _ float32) { strums = append(strums, up) },
	})

	var prevFrets [5]bool
	var prevStrum [2]bool

	// Green pressed + strum down.
	c.fireEdges(Snapshot{FretGreen: true, StrumDown: true}, &prevFrets, &prevStrum)
	if len(presses) != 1 || presses[0] != 0 {
		t.Fatalf("presses after first cycle = %v, want [0]", presses)
	}
	if len(strums) != 1 || strums[0] != false {
		t.Fatalf("strums after first cycle = %v, want [false]", strums)
	}

	// Held: no new edges.
	c.fireEdges(Snapshot{FretGreen: true, StrumDown: true}, &prevFrets, &prevStrum)
	if len(presses) != 1 || len(strums) != 1 {
		t.Fatalf("held cycle fired extra edges: presses=%v strums=%v", presses, strums)
	}

	// Release green, strum up.
	c.fireEdges(Snapshot{StrumUp: true}, &prevFrets, &prevStrum)
	if len(releases) != 1 || releases[0] != 0 {
		t.Fatalf("releases = %v, want [0]", releases)
	}
	if len(strums) != 2 || strums[1] != true {
		t.Fatalf("strums = %v, want [false true]", strums)
	}
}

func TestFireEdgesNilCallbacks(t *testing.T) {
	c := NewCapture(DefaultBindings(), Callbacks{})

	var prevFrets [5]bool
	var prevStrum [2]bool

	// Must not panic with no callbacks registered.
	c.fireEdges(Snapshot{FretGreen: true, StrumUp: true}, &prevFrets, &prevStrum)
	c.fireEdges(Snapshot{}, &prevFrets, &prevStrum)
}
