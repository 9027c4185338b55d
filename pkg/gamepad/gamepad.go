// Package gamepad reads operator input from a Linux evdev gamepad.
package gamepad

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"sync"

	"github.com/kenshaw/evdev"

	"github.com/gwillem/sumob/pkg/drive"
)

// Standard evdev codes for an XInput-style gamepad.
const (
	AbsLeftX   uint16 = 0
	AbsLeftY   uint16 = 1
	AbsRightX  uint16 = 3
	ButtonA    uint16 = 304 // BTN_SOUTH
	keyPressed        = 1
	keyRepeat         = 2
)

// Mapping assigns gamepad controls to drive and lift inputs.
type Mapping struct {
	Forward uint16  `json:"forward"` // absolute axis, reported negative when pushed up
	Strafe  uint16  `json:"strafe"`
	Rotate  uint16  `json:"rotate"`
	Lift    uint16  `json:"lift"` // key code
	Expo    float64 `json:"expo"` // 1 is linear
}

// DefaultMapping drives with the left stick, turns with the right stick and
// toggles the lift with the A button.
func DefaultMapping() Mapping {
	return Mapping{
		Forward: AbsLeftY,
		Strafe:  AbsLeftX,
		Rotate:  AbsRightX,
		Lift:    ButtonA,
		Expo:    1,
	}
}

// State holds the latest reading of every mapped control.
type State struct {
	mapping Mapping

	mu      sync.RWMutex
	forward float64
	strafe  float64
	rotate  float64
	lift    bool
}

// NewState creates an input state with all sticks centered.
func NewState(m Mapping) *State {
	if m.Expo <= 0 {
		m.Expo = 1
	}
	return &State{mapping: m}
}

// ApplyAxis records an absolute axis event. The raw value is scaled from
// [min, max] to [-1, 1].
func (s *State) ApplyAxis(code uint16, value, min, max int32) {
	v := applyExpo(scaleAxis(value, min, max), s.mapping.Expo)

	s.mu.Lock()
	defer s.mu.Unlock()
	switch code {
	case s.mapping.Forward:
		s.forward = v
	case s.mapping.Strafe:
		s.strafe = v
	case s.mapping.Rotate:
		s.rotate = v
	}
}

// ApplyButton records a key event. Auto-repeat events keep the button held.
func (s *State) ApplyButton(code uint16, value int32) {
	if code != s.mapping.Lift {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lift = value == keyPressed || value == keyRepeat
}

// Read returns the current drive snapshot and lift button state.
func (s *State) Read() (drive.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return drive.FromSticks(s.strafe, s.forward, s.rotate), s.lift
}

func scaleAxis(x, inMin, inMax int32) float64 {
	if inMax == inMin {
		return 0
	}
	v := float64(x-inMin)*2/float64(inMax-inMin) - 1
	return min(max(v, -1), 1)
}

func applyExpo(value, expo float64) float64 {
	if expo == 1 {
		return value
	}
	return math.Copysign(math.Pow(math.Abs(value), expo), value)
}

// Gamepad is an open evdev input device.
type Gamepad struct {
	*State
	dev  *evdev.Evdev
	axes map[evdev.AbsoluteType]evdev.Axis
}

// Open opens the gamepad at path, e.g. /dev/input/event3.
func Open(path string, m Mapping) (*Gamepad, error) {
	dev, err := evdev.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open gamepad %s: %w", path, err)
	}
	axes := dev.AbsoluteTypes()
	for _, code := range []uint16{m.Forward, m.Strafe, m.Rotate} {
		if _, ok := axes[evdev.AbsoluteType(code)]; !ok {
			dev.Close()
			return nil, fmt.Errorf("gamepad %s has no axis %d", path, code)
		}
	}
	return &Gamepad{
		State: NewState(m),
		dev:   dev,
		axes:  axes,
	}, nil
}

// Name returns the device name reported by the kernel.
func (g *Gamepad) Name() string {
	return g.dev.Name()
}

// Run reads events into the gamepad state until ctx is cancelled or the
// device goes away.
func (g *Gamepad) Run(ctx context.Context) error {
	events := g.dev.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok || ev == nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return errors.New("gamepad disconnected")
			}
			switch code := ev.Type.(type) {
			case evdev.AbsoluteType:
				info := g.axes[code]
				g.ApplyAxis(uint16(code), int32(ev.Event.Value), int32(info.Min), int32(info.Max))
			case evdev.KeyType:
				g.ApplyButton(uint16(code), int32(ev.Event.Value))
			}
		}
	}
}

// Close closes the device.
func (g *Gamepad) Close() error {
	return g.dev.Close()
}

// Device describes an input device that looks like a gamepad.
type Device struct {
	Path string
	Name string
	Axes int
}

// Devices lists input devices that report absolute axes.
func Devices() ([]Device, error) {
	paths, err := filepath.Glob("/dev/input/event*")
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var devices []Device
	for _, path := range paths {
		dev, err := evdev.OpenFile(path)
		if err != nil {
			continue
		}
		axes := len(dev.AbsoluteTypes())
		name := dev.Name()
		dev.Close()
		if axes == 0 {
			continue
		}
		devices = append(devices, Device{Path: path, Name: name, Axes: axes})
	}
	return devices, nil
}
