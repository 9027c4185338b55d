package robot

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"net"

	"go.einride.tech/can"
	"go.einride.tech/can/pkg/socketcan"

	"github.com/gwillem/sumob/pkg/drive"
)

// Default CAN frame IDs for the drive controller.
const (
	DefaultCANPowerID  = 0x200
	DefaultCANConfigID = 0x201
)

// FrameWriter sends CAN frames.
type FrameWriter interface {
	TransmitFrame(ctx context.Context, frame can.Frame) error
}

// CANConfig holds the CAN drive controller settings.
type CANConfig struct {
	Interface string `json:"interface"`
	PowerID   uint32 `json:"power_id"`
	ConfigID  uint32 `json:"config_id"`
}

// CANDrivetrain drives the wheels through a controller on a CAN bus.
// Each cycle is a single frame carrying four little-endian int16 powers,
// indexed by motor number.
type CANDrivetrain struct {
	conn   net.Conn
	tx     FrameWriter
	cfg    CANConfig
	wheels Wheels
}

// DialCANDrivetrain connects to the drive controller over SocketCAN.
func DialCANDrivetrain(ctx context.Context, cfg CANConfig, wheels Wheels) (*CANDrivetrain, error) {
	conn, err := socketcan.DialContext(ctx, "can", cfg.Interface)
	if err != nil {
		return nil, fmt.Errorf("socketcan dial: %w", err)
	}
	d := NewCANDrivetrain(socketcan.NewTransmitter(conn), cfg, wheels)
	d.conn = conn
	return d, nil
}

// NewCANDrivetrain creates a drive train on top of an existing frame writer.
func NewCANDrivetrain(tx FrameWriter, cfg CANConfig, wheels Wheels) *CANDrivetrain {
	if cfg.PowerID == 0 {
		cfg.PowerID = DefaultCANPowerID
	}
	if cfg.ConfigID == 0 {
		cfg.ConfigID = DefaultCANConfigID
	}
	return &CANDrivetrain{tx: tx, cfg: cfg, wheels: wheels}
}

// Configure sends one brake flag byte per motor.
func (d *CANDrivetrain) Configure(ctx context.Context, zero ZeroPowerBehavior) error {
	f := can.Frame{ID: d.cfg.ConfigID, Length: 4}
	if zero == Brake {
		for _, name := range AllWheels() {
			f.Data[d.wheels[name].Motor] = 1
		}
	}
	if err := d.tx.TransmitFrame(ctx, f); err != nil {
		return fmt.Errorf("transmit config frame: %w", err)
	}
	return nil
}

// SetPowers transmits the power frame.
func (d *CANDrivetrain) SetPowers(ctx context.Context, p drive.WheelPowers) error {
	if err := d.tx.TransmitFrame(ctx, d.powerFrame(p)); err != nil {
		return fmt.Errorf("transmit power frame: %w", err)
	}
	return nil
}

func (d *CANDrivetrain) powerFrame(p drive.WheelPowers) can.Frame {
	f := can.Frame{ID: d.cfg.PowerID, Length: 8}
	powers := d.wheels.ApplyDirections(p)
	for _, name := range AllWheels() {
		off := d.wheels[name].Motor * 2
		v := int16(scaleMotorOutput(powers[name], math.MaxInt16))
		binary.LittleEndian.PutUint16(f.Data[off:off+2], uint16(v))
	}
	return f
}

// Close closes the SocketCAN connection, if any.
func (d *CANDrivetrain) Close() error {
	if d.conn != nil {
		return d.conn.Close()
	}
	return nil
}
