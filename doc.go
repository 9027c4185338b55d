// Package sumob provides teleoperation for a mecanum-drive robot with a lift.
//
// The left stick drives and strafes, the right stick turns, and the A button
// toggles the lift between its up and down positions.
//
// # Installation
//
//	go install github.com/gwillem/sumob/cmd/sumob@latest
//
// # Usage
//
// First, run setup to pick the gamepad and ports and calibrate the lift:
//
//	sumob setup
//
// Then start teleoperation:
//
//	sumob teleoperate
//
// Use --dry-run to drive simulated actuators and --no-lift for robots
// without the lift.
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/sumob: CLI with setup, teleoperate and info commands
//   - pkg/drive: Mecanum drive mixing and normalization
//   - pkg/lift: Lift toggle latch and positions
//   - pkg/gamepad: evdev gamepad input
//   - pkg/robot: Motor and servo backends, calibration, and configuration
//   - pkg/teleop: Session and control loop
package sumob
