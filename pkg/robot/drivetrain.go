package robot

import (
	"context"
	"errors"
	"sync"

	"github.com/gwillem/sumob/pkg/drive"
)

// ErrClosed is returned when commanding a closed backend.
var ErrClosed = errors.New("backend closed")

// Drivetrain drives the four wheel motors.
type Drivetrain interface {
	// Configure sets the zero power behavior of every motor.
	Configure(ctx context.Context, zero ZeroPowerBehavior) error
	// SetPowers commands one power per wheel, each in [-1, 1].
	SetPowers(ctx context.Context, p drive.WheelPowers) error
	Close() error
}

// Servo is a positional actuator with positions in [0, 1].
type Servo interface {
	SetPosition(ctx context.Context, pos float64) error
	Close() error
}

// SimDrivetrain records the commands it receives. It is used for dry runs.
type SimDrivetrain struct {
	mu       sync.Mutex
	zero     ZeroPowerBehavior
	last     drive.WheelPowers
	commands int
	closed   bool
}

// NewSimDrivetrain creates an in-memory drive train.
func NewSimDrivetrain() *SimDrivetrain {
	return &SimDrivetrain{}
}

func (s *SimDrivetrain) Configure(ctx context.Context, zero ZeroPowerBehavior) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zero = zero
	return nil
}

func (s *SimDrivetrain) SetPowers(ctx context.Context, p drive.WheelPowers) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.last = p
	s.commands++
	return nil
}

func (s *SimDrivetrain) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Last returns the most recent powers and the number of SetPowers calls.
func (s *SimDrivetrain) Last() (drive.WheelPowers, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.commands
}

// ZeroPower returns the configured zero power behavior.
func (s *SimDrivetrain) ZeroPower() ZeroPowerBehavior {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zero
}

// SimServo records every position it is sent.
type SimServo struct {
	mu        sync.Mutex
	positions []float64
}

// NewSimServo creates an in-memory servo.
func NewSimServo() *SimServo {
	return &SimServo{}
}

func (s *SimServo) SetPosition(ctx context.Context, pos float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions = append(s.positions, pos)
	return nil
}

func (s *SimServo) Close() error {
	return nil
}

// Positions returns a copy of all positions sent so far.
func (s *SimServo) Positions() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.positions...)
}
