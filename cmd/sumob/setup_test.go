package main

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gwillem/sumob/pkg/robot"
)

func TestLiftCalibration(t *testing.T) {
	tests := []struct {
		low, high int
		ok        bool
	}{
		{1000, 3000, true},
		{3000, 1000, true}, // mounted reversed
		{2048, 2048, false},
	}

	for _, tt := range tests {
		cal, err := liftCalibration(3, tt.low, tt.high)
		if (err == nil) != tt.ok {
			t.Errorf("liftCalibration(3, %d, %d) error = %v, want ok=%v", tt.low, tt.high, err, tt.ok)
			continue
		}
		if tt.ok && cal != (robot.ServoCalibration{ID: 3, RangeMin: tt.low, RangeMax: tt.high}) {
			t.Errorf("liftCalibration(3, %d, %d) = %+v", tt.low, tt.high, cal)
		}
	}
}

func TestCalibrationModel_RecordsEnds(t *testing.T) {
	m := newCalibrationModel(liftServo{id: 1}, 1200, robot.ServoCalibration{})

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(calibrationModel)
	if m.phase != 1 || m.low != 1200 {
		t.Fatalf("after first Enter: phase %d, low %d", m.phase, m.low)
	}

	m.current = 2900
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(calibrationModel)
	if m.phase != 2 || m.high != 2900 || cmd == nil {
		t.Errorf("after second Enter: phase %d, high %d, quit %v", m.phase, m.high, cmd != nil)
	}
}

func TestCalibrationModel_PreviousPosition(t *testing.T) {
	prev := robot.ServoCalibration{ID: 1, RangeMin: 1000, RangeMax: 3000}

	m := newCalibrationModel(liftServo{id: 1}, 2500, prev)
	if got := m.previousPosition(); got != "0.75" {
		t.Errorf("previousPosition() = %q, want 0.75", got)
	}

	other := newCalibrationModel(liftServo{id: 2}, 2500, prev)
	if got := other.previousPosition(); got != "-" {
		t.Errorf("previousPosition() for another servo = %q, want -", got)
	}
}
