package robot

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gwillem/sumob/pkg/gamepad"
	"github.com/gwillem/sumob/pkg/lift"
)

const DefaultConfigFile = "sumob.json"

// DefaultHz is the default control loop frequency.
const DefaultHz = 50

// Drive train backends.
const (
	BackendSerial = "serial"
	BackendCAN    = "can"
	BackendSim    = "sim"
)

// Config holds the robot configuration
type Config struct {
	Hz      int           `json:"hz"`
	Gamepad GamepadConfig `json:"gamepad"`
	Drive   DriveConfig   `json:"drive"`
	Lift    LiftConfig    `json:"lift"`
}

// GamepadConfig holds the input device and its control mapping
type GamepadConfig struct {
	Device  string          `json:"device"`
	Mapping gamepad.Mapping `json:"mapping"`
}

// DriveConfig holds configuration for the drive train
type DriveConfig struct {
	Backend   string            `json:"backend"`
	Port      string            `json:"port,omitempty"`
	Baud      int               `json:"baud,omitempty"`
	CAN       CANConfig         `json:"can,omitempty"`
	Wheels    Wheels            `json:"wheels"`
	ZeroPower ZeroPowerBehavior `json:"zero_power"`
}

// LiftConfig holds configuration for the lift servo
type LiftConfig struct {
	Enabled     bool             `json:"enabled"`
	Port        string           `json:"port,omitempty"`
	Calibration ServoCalibration `json:"calibration,omitempty"`
	Positions   lift.Positions   `json:"positions"`
}

// DefaultConfig returns a configuration with stock wiring and tuning.
func DefaultConfig() *Config {
	return &Config{
		Hz: DefaultHz,
		Gamepad: GamepadConfig{
			Mapping: gamepad.DefaultMapping(),
		},
		Drive: DriveConfig{
			Backend:   BackendSerial,
			Baud:      DefaultSerialBaud,
			CAN:       CANConfig{Interface: "can0", PowerID: DefaultCANPowerID, ConfigID: DefaultCANConfigID},
			Wheels:    DefaultWheels(),
			ZeroPower: Brake,
		},
		Lift: LiftConfig{
			Enabled:   true,
			Positions: lift.DefaultPositions(),
		},
	}
}

// Validate checks the configuration for values the controller cannot run with.
func (c *Config) Validate() error {
	if c.Hz <= 0 {
		return fmt.Errorf("hz must be positive, got %d", c.Hz)
	}

	switch c.Drive.Backend {
	case BackendSerial:
		if c.Drive.Port == "" {
			return fmt.Errorf("drive: serial backend needs a port")
		}
	case BackendCAN:
		if c.Drive.CAN.Interface == "" {
			return fmt.Errorf("drive: can backend needs an interface")
		}
	case BackendSim:
	default:
		return fmt.Errorf("drive: unknown backend %q", c.Drive.Backend)
	}
	if err := c.Drive.Wheels.Validate(); err != nil {
		return fmt.Errorf("drive: %w", err)
	}
	if c.Drive.ZeroPower != Brake && c.Drive.ZeroPower != Float {
		return fmt.Errorf("drive: invalid zero_power %q", c.Drive.ZeroPower)
	}

	if c.Lift.Enabled {
		p := c.Lift.Positions
		for _, v := range []float64{p.Start, p.Up, p.Down} {
			if v < 0 || v > 1 {
				return fmt.Errorf("lift: position %v outside [0, 1]", v)
			}
		}
		if p.Up == p.Down {
			return fmt.Errorf("lift: up and down positions are both %v", p.Up)
		}
	}
	return nil
}

// LoadConfigFrom loads configuration from a specific file.
// Fields missing from the file keep their default values.
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// SaveTo saves configuration to a specific file
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
