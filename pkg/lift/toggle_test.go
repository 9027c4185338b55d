package lift

import "testing"

func TestToggle_Sequence(t *testing.T) {
	tg := NewToggle(false)

	presses := []bool{false, true, true, false, true}
	expected := []bool{false, true, true, true, false}

	for i, pressed := range presses {
		got := tg.Step(pressed)
		if got != expected[i] {
			t.Errorf("cycle %d: Step(%v) = %v, want %v", i+1, pressed, got, expected[i])
		}
		if tg.Previous() != pressed {
			t.Errorf("cycle %d: Previous() = %v, want %v", i+1, tg.Previous(), pressed)
		}
	}
}

func TestToggle_Transitions(t *testing.T) {
	tests := []struct {
		raised, previous, pressed bool
		expected                  bool
	}{
		{false, false, false, false}, // idle
		{false, false, true, true},   // rising edge
		{false, true, true, false},   // held
		{false, true, false, false},  // falling edge
		{true, false, false, true},
		{true, false, true, false},
		{true, true, true, true},
		{true, true, false, true},
	}

	for _, tt := range tests {
		tg := &Toggle{raised: tt.raised, previous: tt.previous}
		got := tg.Step(tt.pressed)
		if got != tt.expected {
			t.Errorf("Toggle{%v, %v}.Step(%v) = %v, want %v", tt.raised, tt.previous, tt.pressed, got, tt.expected)
		}
		if tg.Previous() != tt.pressed {
			t.Errorf("Toggle{%v, %v}.Step(%v): previous = %v", tt.raised, tt.previous, tt.pressed, tg.Previous())
		}
	}
}

func TestToggle_HeldLevelIsIdempotent(t *testing.T) {
	for _, level := range []bool{false, true} {
		tg := NewToggle(true)
		tg.Step(level)
		want := tg.Raised()
		for i := 0; i < 50; i++ {
			if got := tg.Step(level); got != want {
				t.Fatalf("level %v: step %d changed state to %v", level, i, got)
			}
		}
	}
}

func TestNewToggle_StartsReleased(t *testing.T) {
	tg := NewToggle(true)
	if !tg.Raised() {
		t.Error("NewToggle(true) is not raised")
	}
	if tg.Previous() {
		t.Error("NewToggle should start with the button released")
	}
	// A button already held at session start counts as a press.
	if tg.Step(true) {
		t.Error("first press should lower the lift")
	}
}

func TestPositions(t *testing.T) {
	p := DefaultPositions()
	if p.For(true) != DefaultUp {
		t.Errorf("For(true) = %v, want %v", p.For(true), DefaultUp)
	}
	if p.For(false) != DefaultDown {
		t.Errorf("For(false) = %v, want %v", p.For(false), DefaultDown)
	}
	if p.Start == p.Up || p.Start == p.Down {
		t.Errorf("start position %v must differ from toggle positions", p.Start)
	}

	tg := NewToggle(true)
	if got := tg.Command(p); got != DefaultUp {
		t.Errorf("Command() = %v, want %v", got, DefaultUp)
	}
	tg.Step(true)
	if got := tg.Command(p); got != DefaultDown {
		t.Errorf("Command() after press = %v, want %v", got, DefaultDown)
	}
}
