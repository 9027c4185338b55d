// Package teleop runs the mecanum drive and lift teleoperation loop.
package teleop

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gwillem/sumob/pkg/drive"
	"github.com/gwillem/sumob/pkg/lift"
	"github.com/gwillem/sumob/pkg/robot"
)

// Input is one cycle of operator input.
type Input struct {
	Drive      drive.Snapshot
	LiftButton bool
}

// Output is one cycle of actuator commands.
type Output struct {
	Wheels     drive.WheelPowers
	LiftActive bool // false when lift support is disabled
	LiftRaised bool
	Lift       float64
}

// Config holds the session tuning.
type Config struct {
	Hz          int
	LiftEnabled bool
	Lift        lift.Positions
	ZeroPower   robot.ZeroPowerBehavior
}

// ConfigFrom extracts the session tuning from a robot configuration.
func ConfigFrom(rc *robot.Config) Config {
	return Config{
		Hz:          rc.Hz,
		LiftEnabled: rc.Lift.Enabled,
		Lift:        rc.Lift.Positions,
		ZeroPower:   rc.Drive.ZeroPower,
	}
}

// Hardware bundles the actuators. Lift may be nil when lift support is disabled.
type Hardware struct {
	Drivetrain robot.Drivetrain
	Lift       robot.Servo
}

// Close closes all actuators.
func (h Hardware) Close() error {
	var errs []error
	if h.Drivetrain != nil {
		if err := h.Drivetrain.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if h.Lift != nil {
		if err := h.Lift.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// Session is the state carried between control cycles.
type Session struct {
	cfg    Config
	toggle *lift.Toggle
}

// NewSession creates a session. The lift starts latched up, matching the
// start position commanded by Init.
func NewSession(cfg Config) *Session {
	return &Session{
		cfg:    cfg,
		toggle: lift.NewToggle(true),
	}
}

// Toggle returns the lift toggle.
func (s *Session) Toggle() *lift.Toggle {
	return s.toggle
}

// Init prepares the hardware: zero power behavior, stopped wheels, and the
// lift at its start position.
func (s *Session) Init(ctx context.Context, hw Hardware) error {
	if err := hw.Drivetrain.Configure(ctx, s.cfg.ZeroPower); err != nil {
		return fmt.Errorf("configure drive train: %w", err)
	}
	if err := hw.Drivetrain.SetPowers(ctx, drive.WheelPowers{}); err != nil {
		return fmt.Errorf("stop drive train: %w", err)
	}
	if s.cfg.LiftEnabled {
		if err := hw.Lift.SetPosition(ctx, s.cfg.Lift.Start); err != nil {
			return fmt.Errorf("set lift start position: %w", err)
		}
	}
	return nil
}

// Cycle computes the actuator commands for one input reading.
func (s *Session) Cycle(in Input) Output {
	out := Output{Wheels: in.Drive.Mix()}
	if s.cfg.LiftEnabled {
		out.LiftActive = true
		out.LiftRaised = s.toggle.Step(in.LiftButton)
		out.Lift = s.toggle.Command(s.cfg.Lift)
	}
	return out
}

// Apply writes the commands to the hardware.
func (s *Session) Apply(ctx context.Context, hw Hardware, out Output) error {
	if err := hw.Drivetrain.SetPowers(ctx, out.Wheels); err != nil {
		return err
	}
	if out.LiftActive {
		if err := hw.Lift.SetPosition(ctx, out.Lift); err != nil {
			return err
		}
	}
	return nil
}

// InputSource supplies operator input each cycle.
type InputSource interface {
	Read() (drive.Snapshot, bool)
}

// State represents one completed control cycle.
type State struct {
	Input     Input
	Output    Output
	Timestamp time.Time
	Error     error
}

// Controller manages the teleoperation control loop.
type Controller struct {
	session *Session
	hw      Hardware
	input   InputSource
	hz      int

	mu      sync.RWMutex
	running bool
	stateCh chan State
	logCh   chan string
}

// NewController creates a new teleoperation controller.
func NewController(cfg Config, hw Hardware, input InputSource) (*Controller, error) {
	if hw.Drivetrain == nil {
		return nil, fmt.Errorf("no drive train")
	}
	if cfg.LiftEnabled && hw.Lift == nil {
		return nil, fmt.Errorf("lift enabled but no lift servo")
	}
	if input == nil {
		return nil, fmt.Errorf("no input source")
	}

	if cfg.Hz <= 0 {
		cfg.Hz = robot.DefaultHz
	}

	return &Controller{
		session: NewSession(cfg),
		hw:      hw,
		input:   input,
		hz:      cfg.Hz,
		stateCh: make(chan State, 1),
		logCh:   make(chan string, 10),
	}, nil
}

// Close closes the controller and releases resources.
func (c *Controller) Close() error {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()

	return c.hw.Close()
}

// States returns a channel that receives state updates.
func (c *Controller) States() <-chan State {
	return c.stateCh
}

// Logs returns a channel that receives log messages.
func (c *Controller) Logs() <-chan string {
	return c.logCh
}

// Hz returns the control frequency.
func (c *Controller) Hz() int {
	return c.hz
}

// LiftEnabled reports whether the lift toggle is active.
func (c *Controller) LiftEnabled() bool {
	return c.session.cfg.LiftEnabled
}

func (c *Controller) log(format string, args ...any) {
	msg := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	select {
	case c.logCh <- msg:
	default:
		// Drop if channel full
	}
}

// Start initializes the hardware and runs the control loop until ctx is done.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("already running")
	}
	c.running = true
	c.mu.Unlock()

	if err := c.session.Init(ctx, c.hw); err != nil {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
		c.log("Init failed: %v", err)
		return err
	}
	c.log("Drive train: %s at zero power", c.session.cfg.ZeroPower)
	if c.session.cfg.LiftEnabled {
		c.log("Lift: start position %.2f", c.session.cfg.Lift.Start)
	} else {
		c.log("Lift: disabled")
	}

	c.log("Teleoperation started at %d Hz", c.hz)

	// Control loop
	ticker := time.NewTicker(time.Second / time.Duration(c.hz))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return ctx.Err()
		case <-ticker.C:
			c.step(ctx)
		}
	}
}

func (c *Controller) step(ctx context.Context) {
	snap, button := c.input.Read()
	in := Input{Drive: snap, LiftButton: button}

	wasRaised := c.session.toggle.Raised()
	out := c.session.Cycle(in)
	if out.LiftActive && out.LiftRaised != wasRaised {
		c.log("Lift %s (%.2f)", liftLabel(out.LiftRaised), out.Lift)
	}

	err := c.session.Apply(ctx, c.hw, out)
	if err != nil {
		c.log("Write error: %v", err)
	}

	c.sendState(State{
		Input:     in,
		Output:    out,
		Timestamp: time.Now(),
		Error:     err,
	})
}

func liftLabel(raised bool) string {
	if raised {
		return "up"
	}
	return "down"
}

func (c *Controller) sendState(s State) {
	select {
	case c.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-c.stateCh:
		default:
		}
		c.stateCh <- s
	}
}

func (c *Controller) shutdown() {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()

	ctx := context.Background()
	if err := c.hw.Drivetrain.SetPowers(ctx, drive.WheelPowers{}); err != nil {
		c.log("Warning: failed to stop drive train: %v", err)
	} else {
		c.log("Drive train stopped")
	}
	c.log("Teleoperation stopped")
}
