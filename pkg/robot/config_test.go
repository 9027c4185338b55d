package robot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gwillem/sumob/pkg/lift"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Hz != DefaultHz {
		t.Errorf("Hz = %d, want %d", cfg.Hz, DefaultHz)
	}
	if !cfg.Lift.Enabled {
		t.Error("lift should be enabled by default")
	}
	if cfg.Lift.Positions != lift.DefaultPositions() {
		t.Errorf("lift positions = %+v", cfg.Lift.Positions)
	}
	if cfg.Drive.ZeroPower != Brake {
		t.Errorf("zero power = %q, want brake", cfg.Drive.ZeroPower)
	}
	if cfg.Drive.Wheels[FrontLeft].Direction != Reverse || cfg.Drive.Wheels[BackRight].Direction != Forward {
		t.Errorf("unexpected default wheel directions: %+v", cfg.Drive.Wheels)
	}

	// Serial backend has no port until setup runs.
	if err := cfg.Validate(); err == nil {
		t.Error("default config should need a serial port")
	}
	cfg.Drive.Port = "/dev/ttyUSB0"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{"zero hz", func(c *Config) { c.Hz = 0 }, "hz"},
		{"unknown backend", func(c *Config) { c.Drive.Backend = "pwm" }, "unknown backend"},
		{"can without interface", func(c *Config) { c.Drive.Backend = BackendCAN; c.Drive.CAN.Interface = "" }, "interface"},
		{"shared motor", func(c *Config) {
			c.Drive.Wheels[BackLeft] = WheelConfig{Motor: 0, Direction: Reverse}
		}, "share motor"},
		{"motor out of range", func(c *Config) {
			c.Drive.Wheels[FrontRight] = WheelConfig{Motor: 9, Direction: Forward}
		}, "out of range"},
		{"missing wheel", func(c *Config) { delete(c.Drive.Wheels, BackRight) }, "back_right"},
		{"bad zero power", func(c *Config) { c.Drive.ZeroPower = "coast" }, "zero_power"},
		{"lift out of range", func(c *Config) { c.Lift.Positions.Up = 1.5 }, "outside"},
		{"lift up equals down", func(c *Config) { c.Lift.Positions.Up = c.Lift.Positions.Down }, "both"},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.Drive.Backend = BackendSim
		tt.modify(cfg)
		err := cfg.Validate()
		if err == nil {
			t.Errorf("%s: expected error", tt.name)
			continue
		}
		if !strings.Contains(err.Error(), tt.errMsg) {
			t.Errorf("%s: error %q does not mention %q", tt.name, err, tt.errMsg)
		}
	}

	// Lift positions are not checked when the lift is disabled.
	cfg := DefaultConfig()
	cfg.Drive.Backend = BackendSim
	cfg.Lift.Enabled = false
	cfg.Lift.Positions.Up = 7
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled lift: %v", err)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFile)

	cfg := DefaultConfig()
	cfg.Hz = 100
	cfg.Drive.Port = "/dev/ttyACM0"
	cfg.Lift.Port = "/dev/ttyUSB1"
	cfg.Lift.Calibration = ServoCalibration{ID: 1, RangeMin: 900, RangeMax: 3100}
	cfg.Lift.Positions.Up = 0.6

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}
	if loaded.Hz != 100 || loaded.Drive.Port != "/dev/ttyACM0" || loaded.Lift.Port != "/dev/ttyUSB1" {
		t.Errorf("loaded %+v", loaded)
	}
	if loaded.Lift.Calibration != cfg.Lift.Calibration {
		t.Errorf("calibration = %+v, want %+v", loaded.Lift.Calibration, cfg.Lift.Calibration)
	}
	if loaded.Lift.Positions.Up != 0.6 || loaded.Lift.Positions.Down != lift.DefaultDown {
		t.Errorf("positions = %+v", loaded.Lift.Positions)
	}
}

func TestLoadConfigFrom_PartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.json")
	if err := os.WriteFile(path, []byte(`{"drive": {"backend": "sim"}, "lift": {"enabled": false}}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}
	if cfg.Hz != DefaultHz || cfg.Drive.ZeroPower != Brake || len(cfg.Drive.Wheels) != 4 {
		t.Errorf("defaults not kept: %+v", cfg)
	}
	if cfg.Lift.Enabled {
		t.Error("lift should be disabled")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}
