package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/veandco/go-sdl2/sdl"
)

var (
	ErrNoDevice       = errors.New("no controller detected")
	ErrAlreadyStarted = errors.New("capture already started")
)

// Bindings maps guitar controls to joystick button/axis indices. The zero
// value is not usable; start from DefaultBindings.
type Bindings struct {
	FretGreen  int `json:"fretGreen"`
	FretRed    int `json:"fretRed"`
	FretYellow int `json:"fretYellow"`
	FretBlue   int `json:"fretBlue"`
	FretOrange int `json:"fretOrange"`

	// StrumUp/StrumDown are the dedicated strum-bar buttons. Devices that
	// don't have them (button count too low) get the d-pad overload instead.
	StrumUp   int `json:"strumUp"`
	StrumDown int `json:"strumDown"`

	Start  int `json:"start"`
	Select int `json:"select"`

	WhammyAxis int `json:"whammyAxis"`
	DpadHat    int `json:"dpadHat"`
}

// DefaultBindings matches the common XInput guitar layout: face buttons for
// frets, the trigger pair for the strum bar, hat 0 for the d-pad.
func DefaultBindings() Bindings {
	return Bindings{
		FretGreen:  0,
		FretRed:    1,
		FretBlue:   2,
		FretYellow: 3,
		FretOrange: 4,
		StrumUp:    5,
		StrumDown:  6,
		Select:     8,
		Start:      9,
		WhammyAxis: 3,
		DpadHat:    0,
	}
}

// hasStrumBar reports whether a device with the given button count exposes
// the mapped strum-bar pair.
func (b Bindings) hasStrumBar(numButtons int) bool {
	return b.StrumUp < numButtons && b.StrumDown < numButtons
}

// DeviceInfo describes an attached joystick.
type DeviceInfo struct {
	Index   int
	Name    string
	Buttons int
	Axes    int
	Hats    int

	// HasStrumBar is true when the device exposes a dedicated strum-bar
	// button pair. When false, d-pad up/down act as the strum bar and are
	// not reported as d-pad; consumers must not assume the two are
	// independent inputs.
	HasStrumBar bool
}

// Callbacks are fired synchronously from the polling goroutine on edge
// transitions. They must not block; keep them to atomic stores or lock-free
// queue pushes.
type Callbacks struct {
	OnFretPress   func(fret int, velocity float32)
	OnFretRelease func(fret int)
	OnStrum       func(up bool, velocity float32)
}

// Capture polls the joystick subsystem at 1 kHz from a dedicated goroutine
// that owns the SDL handle exclusively. Everyone else reads the published
// atomics via State.
type Capture struct {
	state     *AtomicState
	bindings  Bindings
	callbacks Callbacks

	device atomicDeviceInfo

	cancel context.CancelFunc
	done   chan struct{}
}

func NewCapture(bindings Bindings, callbacks Callbacks) *Capture {
	return &Capture{
		state:     &AtomicState{},
		bindings:  bindings,
		callbacks: callbacks,
	}
}

// State returns the latest published snapshot. Pure atomic reads.
func (c *Capture) State() Snapshot {
	return c.state.Load()
}

// Device returns info about the active device, if any.
func (c *Capture) Device() (DeviceInfo, bool) {
	return c.device.load()
}

// Start spawns the polling goroutine and returns once the joystick
// subsystem is initialized. The goroutine runs until ctx is cancelled or
// Stop is called.
func (c *Capture) Start(ctx context.Context) error {
	if c.done != nil {
		return ErrAlreadyStarted
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	initErr := make(chan error, 1)
	go c.run(ctx, initErr)
	return <-initErr
}

// Stop requests shutdown and joins the polling goroutine.
func (c *Capture) Stop() {
	if c.done == nil {
		return
	}
	c.cancel()
	<-c.done
	c.done = nil
}

func (c *Capture) run(ctx context.Context, initErr chan<- error) {
	// The SDL joystick handle must only ever be touched from this thread.
	runtime.LockOSThread()
	defer close(c.done)

	if err := sdl.Init(sdl.INIT_JOYSTICK); err != nil {
		initErr <- fmt.Errorf("init joystick subsystem: %w", err)
		return
	}
	defer sdl.Quit()
	initErr <- nil

	slog.Info("controller polling started", "rate", "1kHz")

	var joy *sdl.Joystick
	var info DeviceInfo
	var prevFrets [5]bool
	var prevStrum [2]bool

	defer func() {
		if joy != nil {
			joy.Close()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Info("controller polling stopped")
			return
		default:
		}
		cycleStart := time.Now()

		sdl.JoystickUpdate()

		// Hot-plug: drop a detached device, adopt the first attached one.
		if joy != nil && !joy.Attached() {
			slog.Info("controller disconnected", "name", info.Name)
			joy.Close()
			joy = nil
			c.device.clear()
			c.state.SetConnected(false)
		}
		if joy == nil && sdl.NumJoysticks() > 0 {
			if opened := sdl.JoystickOpen(0); opened != nil {
				joy = opened
				info = DeviceInfo{
					Index:       0,
					Name:        joy.Name(),
					Buttons:     joy.NumButtons(),
					Axes:        joy.NumAxes(),
					Hats:        joy.NumHats(),
					HasStrumBar: c.bindings.hasStrumBar(joy.NumButtons()),
				}
				c.device.store(info)
				slog.Info("controller connected",
					"name", info.Name,
					"buttons", info.Buttons,
					"axes", info.Axes,
					"strumBar", info.HasStrumBar)
			}
		}

		if joy != nil {
			snap := readDevice(joy, c.bindings, info.HasStrumBar)
			c.state.Publish(snap)
			c.fireEdges(snap, &prevFrets, &prevStrum)
		}

		if elapsed := time.Since(cycleStart); elapsed < time.Millisecond {
			time.Sleep(time.Millisecond - elapsed)
		}
	}
}

// readDevice assembles a snapshot from the raw joystick state, applying the
// strum-bar capability policy.
func readDevice(joy *sdl.Joystick, b Bindings, hasStrumBar bool) Snapshot {
	button := func(i int) bool { return joy.Button(i) == 1 }

	hat := joy.Hat(b.DpadHat)
	dpadUp := hat&sdl.HAT_UP != 0
	dpadDown := hat&sdl.HAT_DOWN != 0
	dpadLeft := hat&sdl.HAT_LEFT != 0
	dpadRight := hat&sdl.HAT_RIGHT != 0

	var strumUp, strumDown bool
	if hasStrumBar {
		strumUp = button(b.StrumUp)
		strumDown = button(b.StrumDown)
	}
	strumUp, strumDown, dpadUp, dpadDown = applyStrumPolicy(
		hasStrumBar, strumUp, strumDown, dpadUp, dpadDown)

	whammy := float32(joy.Axis(b.WhammyAxis)) / 32767.0
	if whammy > 1 {
		whammy = 1
	} else if whammy < -1 {
		whammy = -1
	}

	return Snapshot{
		FretGreen:  button(b.FretGreen),
		FretRed:    button(b.FretRed),
		FretYellow: button(b.FretYellow),
		FretBlue:   button(b.FretBlue),
		FretOrange: button(b.FretOrange),
		StrumUp:    strumUp,
		StrumDown:  strumDown,
		DpadUp:     dpadUp,
		DpadDown:   dpadDown,
		DpadLeft:   dpadLeft,
		DpadRight:  dpadRight,
		Start:      button(b.Start),
		Select:     button(b.Select),
		Whammy:     whammy,
		Connected:  true,
		Timestamp:  time.Now().UnixNano(),
	}
}

// applyStrumPolicy resolves the d-pad/strum overload. With a strum bar the
// two are independent; without one, d-pad up/down become the strum and are
// not reported as d-pad.
func applyStrumPolicy(hasStrumBar, strumUp, strumDown, dpadUp, dpadDown bool) (bool, bool, bool, bool) {
	if hasStrumBar {
		return strumUp, strumDown, dpadUp, dpadDown
	}
	return dpadUp, dpadDown, false, false
}

// fireEdges compares the fresh snapshot against the loop-local previous
// cycle and fires callbacks on transitions.
func (c *Capture) fireEdges(snap Snapshot, prevFrets *[5]bool, prevStrum *[2]bool) {
	frets := snap.Frets()
	for i, held := range frets {
		switch {
		case held && !prevFrets[i]:
			if c.callbacks.OnFretPress != nil {
				c.callbacks.OnFretPress(i, 1.0)
			}
		case !held && prevFrets[i]:
			if c.callbacks.OnFretRelease != nil {
				c.callbacks.OnFretRelease(i)
			}
		}
	}
	*prevFrets = frets

	strum := [2]bool{snap.StrumUp, snap.StrumDown}
	for i, active := range strum {
		if active && !prevStrum[i] && c.callbacks.OnStrum != nil {
			c.callbacks.OnStrum(i == 0, 1.0)
		}
	}
	*prevStrum = strum
}

// ListDevices enumerates attached joysticks without starting a capture
// loop. Bindings determine the reported strum-bar capability.
func ListDevices(bindings Bindings) ([]DeviceInfo, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := sdl.Init(sdl.INIT_JOYSTICK); err != nil {
		return nil, fmt.Errorf("init joystick subsystem: %w", err)
	}
	defer sdl.Quit()

	n := sdl.NumJoysticks()
	devices := make([]DeviceInfo, 0, n)
	for i := 0; i < n; i++ {
		joy := sdl.JoystickOpen(i)
		if joy == nil {
			continue
		}
		devices = append(devices, DeviceInfo{
			Index:       i,
			Name:        joy.Name(),
			Buttons:     joy.NumButtons(),
			Axes:        joy.NumAxes(),
			Hats:        joy.NumHats(),
			HasStrumBar: bindings.hasStrumBar(joy.NumButtons()),
		})
		joy.Close()
	}
	return devices, nil
}

// atomicDeviceInfo publishes the active device description without locks.
type atomicDeviceInfo struct {
	ptr atomic.Pointer[DeviceInfo]
}

func (a *atomicDeviceInfo) store(info DeviceInfo) { a.ptr.Store(&info) }
func (a *atomicDeviceInfo) clear()                { a.ptr.Store(nil) }

func (a *atomicDeviceInfo) load() (DeviceInfo, bool) {
	p := a.ptr.Load()
	if p == nil {
		return DeviceInfo{}, false
	}
	return *p, true
}
