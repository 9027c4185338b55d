// Package robot provides the actuator backends and configuration for a
// mecanum robot with a lift servo.
package robot

import (
	"fmt"

	"github.com/gwillem/sumob/pkg/drive"
)

// WheelName identifies a drive wheel.
type WheelName string

// Wheel names for the mecanum drive train.
const (
	FrontLeft  WheelName = "front_left"
	BackLeft   WheelName = "back_left"
	FrontRight WheelName = "front_right"
	BackRight  WheelName = "back_right"
)

// AllWheels returns all wheel names in order (matching motor indexes 0-3).
func AllWheels() []WheelName {
	return []WheelName{
		FrontLeft,
		BackLeft,
		FrontRight,
		BackRight,
	}
}

// Power returns the power for the named wheel.
func Power(w drive.WheelPowers, name WheelName) float64 {
	switch name {
	case FrontLeft:
		return w.FrontLeft
	case BackLeft:
		return w.BackLeft
	case FrontRight:
		return w.FrontRight
	case BackRight:
		return w.BackRight
	}
	return 0
}

// Direction is the mounting direction of a wheel motor.
type Direction string

const (
	Forward Direction = "forward"
	Reverse Direction = "reverse"
)

// ZeroPowerBehavior is what a motor does when commanded to zero power.
type ZeroPowerBehavior string

const (
	Brake ZeroPowerBehavior = "brake"
	Float ZeroPowerBehavior = "float"
)

// WheelConfig holds the wiring of a single wheel motor.
type WheelConfig struct {
	Motor     int       `json:"motor"`
	Direction Direction `json:"direction"`
}

// Wheels maps each wheel to its motor wiring.
type Wheels map[WheelName]WheelConfig

// DefaultWheels returns the stock wiring: the left side is mounted mirrored
// and runs reversed.
func DefaultWheels() Wheels {
	return Wheels{
		FrontLeft:  {Motor: 0, Direction: Reverse},
		BackLeft:   {Motor: 1, Direction: Reverse},
		FrontRight: {Motor: 2, Direction: Forward},
		BackRight:  {Motor: 3, Direction: Forward},
	}
}

// Validate checks that every wheel is wired to a distinct motor in 0-3.
func (w Wheels) Validate() error {
	seen := make(map[int]WheelName, len(w))
	for _, name := range AllWheels() {
		wc, ok := w[name]
		if !ok {
			return fmt.Errorf("wheel %s not configured", name)
		}
		if wc.Direction != Forward && wc.Direction != Reverse {
			return fmt.Errorf("wheel %s: invalid direction %q", name, wc.Direction)
		}
		if wc.Motor < 0 || wc.Motor > 3 {
			return fmt.Errorf("wheel %s: motor index %d out of range", name, wc.Motor)
		}
		if other, dup := seen[wc.Motor]; dup {
			return fmt.Errorf("wheels %s and %s share motor %d", other, name, wc.Motor)
		}
		seen[wc.Motor] = name
	}
	return nil
}

// ApplyDirections returns the per-wheel powers with reversed wheels negated.
func (w Wheels) ApplyDirections(p drive.WheelPowers) map[WheelName]float64 {
	out := make(map[WheelName]float64, 4)
	for _, name := range AllWheels() {
		v := Power(p, name)
		if w[name].Direction == Reverse {
			v = -v
		}
		out[name] = v
	}
	return out
}
