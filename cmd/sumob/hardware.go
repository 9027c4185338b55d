package main

import (
	"context"
	"fmt"

	"github.com/gwillem/sumob/pkg/robot"
	"github.com/gwillem/sumob/pkg/teleop"
)

// openHardware connects the drive train and, if enabled, the lift servo.
func openHardware(ctx context.Context, cfg *robot.Config) (teleop.Hardware, error) {
	var hw teleop.Hardware

	switch cfg.Drive.Backend {
	case robot.BackendSerial:
		dt, err := robot.OpenSerialDrivetrain(cfg.Drive.Port, cfg.Drive.Baud, cfg.Drive.Wheels)
		if err != nil {
			return hw, err
		}
		hw.Drivetrain = dt
	case robot.BackendCAN:
		dt, err := robot.DialCANDrivetrain(ctx, cfg.Drive.CAN, cfg.Drive.Wheels)
		if err != nil {
			return hw, err
		}
		hw.Drivetrain = dt
	case robot.BackendSim:
		hw.Drivetrain = robot.NewSimDrivetrain()
	default:
		return hw, fmt.Errorf("unknown drive backend %q", cfg.Drive.Backend)
	}

	if !cfg.Lift.Enabled {
		return hw, nil
	}
	if cfg.Drive.Backend == robot.BackendSim {
		hw.Lift = robot.NewSimServo()
		return hw, nil
	}

	servo, err := robot.OpenFeetechServo(ctx, cfg.Lift.Port, cfg.Lift.Calibration)
	if err != nil {
		hw.Close()
		return teleop.Hardware{}, fmt.Errorf("open lift servo: %w", err)
	}
	hw.Lift = servo
	return hw, nil
}
