// Package lift implements the two-position lift latch driven by a momentary button.
package lift

// Default servo positions, in the servo's [0, 1] range.
const (
	DefaultStart = 1.0
	DefaultUp    = 0.5
	DefaultDown  = 0.25
)

// Positions holds the three independent lift servo positions.
type Positions struct {
	Start float64 `json:"start"` // commanded once at session init
	Up    float64 `json:"up"`
	Down  float64 `json:"down"`
}

// DefaultPositions returns the stock lift positions.
func DefaultPositions() Positions {
	return Positions{
		Start: DefaultStart,
		Up:    DefaultUp,
		Down:  DefaultDown,
	}
}

// For returns the servo position for the given toggle state.
func (p Positions) For(raised bool) float64 {
	if raised {
		return p.Up
	}
	return p.Down
}

// Toggle flips its state on each rising edge of the button.
type Toggle struct {
	raised   bool
	previous bool
}

// NewToggle returns a toggle in the given state with the button released.
func NewToggle(raised bool) *Toggle {
	return &Toggle{raised: raised}
}

// Step records one button reading and returns the resulting state.
// The state flips only when the button goes from released to pressed.
func (t *Toggle) Step(pressed bool) bool {
	if pressed && !t.previous {
		t.raised = !t.raised
	}
	t.previous = pressed
	return t.raised
}

// Raised reports whether the lift is latched up.
func (t *Toggle) Raised() bool {
	return t.raised
}

// Previous returns the last button reading passed to Step.
func (t *Toggle) Previous() bool {
	return t.previous
}

// Command returns the servo position for the current state.
func (t *Toggle) Command(p Positions) float64 {
	return p.For(t.raised)
}
