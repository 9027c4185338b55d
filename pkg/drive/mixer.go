// Package drive mixes operator intent into mecanum wheel powers.
package drive

import "math"

// Snapshot is one control cycle of operator intent.
// Forward is positive when the left stick is pushed up.
type Snapshot struct {
	Forward float64
	Strafe  float64
	Rotate  float64
}

// FromSticks builds a Snapshot from raw stick readings. Gamepads report the
// Y axis as negative when pushed up, so leftY is inverted.
func FromSticks(leftX, leftY, rightX float64) Snapshot {
	return Snapshot{
		Forward: -leftY,
		Strafe:  leftX,
		Rotate:  rightX,
	}
}

// Mix returns the normalized wheel powers for this snapshot.
func (s Snapshot) Mix() WheelPowers {
	return Mix(s.Forward, s.Strafe, s.Rotate)
}

// WheelPowers holds one power command per wheel, each in [-1, 1] once normalized.
type WheelPowers struct {
	FrontLeft  float64
	BackLeft   float64
	FrontRight float64
	BackRight  float64
}

// Max returns the largest absolute power across all four wheels.
func (w WheelPowers) Max() float64 {
	return max(math.Abs(w.FrontLeft), math.Abs(w.BackLeft), math.Abs(w.FrontRight), math.Abs(w.BackRight))
}

// Mix combines forward, strafe and rotate into four wheel powers and
// normalizes the result.
func Mix(forward, strafe, rotate float64) WheelPowers {
	// Inputs above unit magnitude always trigger normalization, so scaling
	// them first gives the same result and keeps the sums finite.
	if m := max(math.Abs(forward), math.Abs(strafe), math.Abs(rotate)); m > 1 {
		forward, strafe, rotate = forward/m, strafe/m, rotate/m
	}
	return Normalize(WheelPowers{
		FrontLeft:  forward + strafe + rotate,
		BackLeft:   forward - strafe + rotate,
		FrontRight: forward - strafe - rotate,
		BackRight:  forward + strafe - rotate,
	})
}

// Normalize divides all four powers by max(1, largest magnitude).
// Ratios between wheels are kept; wheels are never clamped individually.
func Normalize(w WheelPowers) WheelPowers {
	m := max(1, w.Max())
	return WheelPowers{
		FrontLeft:  w.FrontLeft / m,
		BackLeft:   w.BackLeft / m,
		FrontRight: w.FrontRight / m,
		BackRight:  w.BackRight / m,
	}
}
