package robot

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"sync"

	"go.bug.st/serial"

	"github.com/gwillem/sumob/pkg/drive"
)

// DefaultSerialBaud is the baud rate of the motor controller board.
const DefaultSerialBaud = 115200

// Motor controller line commands.
const (
	cmdSetMotor  = 1
	cmdZeroPower = 3
)

// motorFullScale is the controller's integer range for full power.
const motorFullScale = 255

// SerialDrivetrain drives the wheels through a motor controller board that
// accepts text commands over a serial port.
type SerialDrivetrain struct {
	mu     sync.Mutex
	port   io.WriteCloser
	w      *bufio.Writer
	wheels Wheels
	cache  map[int]int
	closed bool
}

// OpenSerialDrivetrain opens the motor controller on the given serial port.
func OpenSerialDrivetrain(port string, baud int, wheels Wheels) (*SerialDrivetrain, error) {
	if baud <= 0 {
		baud = DefaultSerialBaud
	}
	p, err := serial.Open(port, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", port, err)
	}
	return NewSerialDrivetrain(p, wheels), nil
}

// NewSerialDrivetrain wraps an already open connection to the controller.
func NewSerialDrivetrain(port io.WriteCloser, wheels Wheels) *SerialDrivetrain {
	return &SerialDrivetrain{
		port:   port,
		w:      bufio.NewWriter(port),
		wheels: wheels,
		cache:  make(map[int]int),
	}
}

// Configure sends the zero power behavior to every motor.
func (d *SerialDrivetrain) Configure(ctx context.Context, zero ZeroPowerBehavior) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}

	flag := 0
	if zero == Brake {
		flag = 1
	}
	for _, name := range AllWheels() {
		if _, err := fmt.Fprintf(d.w, "%d %d %d\n", cmdZeroPower, d.wheels[name].Motor, flag); err != nil {
			return d.fail(fmt.Errorf("configure %s: %w", name, err))
		}
	}
	return d.flush()
}

// SetPowers sends one command per wheel whose value changed since the last call.
func (d *SerialDrivetrain) SetPowers(ctx context.Context, p drive.WheelPowers) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	powers := d.wheels.ApplyDirections(p)
	for _, name := range AllWheels() {
		motor := d.wheels[name].Motor
		val := scaleMotorOutput(powers[name], motorFullScale)
		if old, cached := d.cache[motor]; cached && old == val {
			continue
		}
		if _, err := fmt.Fprintf(d.w, "%d %d %d\n", cmdSetMotor, motor, val); err != nil {
			return d.fail(fmt.Errorf("set %s: %w", name, err))
		}
		d.cache[motor] = val
	}
	return d.flush()
}

func (d *SerialDrivetrain) flush() error {
	if err := d.w.Flush(); err != nil {
		return d.fail(fmt.Errorf("write motor controller: %w", err))
	}
	return nil
}

// fail drops buffered output and the value cache so the next call resends
// every motor. bufio.Writer keeps its first error until Reset.
func (d *SerialDrivetrain) fail(err error) error {
	d.w.Reset(d.port)
	clear(d.cache)
	return err
}

// Close closes the serial connection.
func (d *SerialDrivetrain) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.port.Close()
}

// scaleMotorOutput maps a power in [-1, 1] to [-fullScale, fullScale].
func scaleMotorOutput(value float64, fullScale int) int {
	v := int(math.Round(value * float64(fullScale)))
	return min(max(v, -fullScale), fullScale)
}
