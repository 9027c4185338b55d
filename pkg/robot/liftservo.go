package robot

import (
	"context"
	"fmt"
	"time"

	"github.com/hipsterbrown/feetech-servo/feetech"
)

// DefaultServoBaud is the Feetech STS bus baud rate.
const DefaultServoBaud = 1_000_000

// FeetechServo drives the lift through a single Feetech STS servo.
type FeetechServo struct {
	bus   *feetech.Bus
	servo *feetech.Servo
	cal   ServoCalibration
}

// OpenBus opens a Feetech STS bus on the given port.
func OpenBus(port string) (*feetech.Bus, error) {
	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: DefaultServoBaud,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("open bus: %w", err)
	}
	return bus, nil
}

// FindServo scans the bus for the servo with the given ID.
func FindServo(ctx context.Context, bus *feetech.Bus, id int) (*feetech.Servo, error) {
	found, err := bus.Scan(ctx, id, id)
	if err != nil {
		return nil, fmt.Errorf("scan for servo %d: %w", id, err)
	}
	for _, s := range found {
		if s.ID == id {
			return feetech.NewServo(bus, s.ID, s.Model), nil
		}
	}
	return nil, fmt.Errorf("servo %d not found", id)
}

// OpenFeetechServo connects to the calibrated lift servo and enables torque.
func OpenFeetechServo(ctx context.Context, port string, cal ServoCalibration) (*FeetechServo, error) {
	if !cal.IsCalibrated() {
		return nil, fmt.Errorf("lift servo not calibrated")
	}

	bus, err := OpenBus(port)
	if err != nil {
		return nil, err
	}

	servo, err := FindServo(ctx, bus, cal.ID)
	if err != nil {
		bus.Close()
		return nil, err
	}

	if err := servo.Enable(ctx); err != nil {
		bus.Close()
		return nil, fmt.Errorf("enable servo %d: %w", cal.ID, err)
	}

	return &FeetechServo{bus: bus, servo: servo, cal: cal}, nil
}

// SetPosition moves the lift to a normalized position in [0, 1].
func (s *FeetechServo) SetPosition(ctx context.Context, pos float64) error {
	if err := s.servo.SetPosition(ctx, s.cal.Denormalize(pos)); err != nil {
		return fmt.Errorf("set lift position: %w", err)
	}
	return nil
}

// Close disables torque and closes the bus.
func (s *FeetechServo) Close() error {
	s.servo.Disable(context.Background())
	return s.bus.Close()
}
