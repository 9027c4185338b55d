package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/sumob/pkg/drive"
	"github.com/gwillem/sumob/pkg/gamepad"
	"github.com/gwillem/sumob/pkg/robot"
	"github.com/gwillem/sumob/pkg/teleop"
)

type TeleoperateCommand struct {
	Hz     int  `long:"hz" description:"Control loop frequency (overrides config)"`
	DryRun bool `long:"dry-run" description:"Drive simulated actuators instead of hardware"`
	NoLift bool `long:"no-lift" description:"Disable the lift toggle"`
}

const (
	headerHeight = 2 // title + blank line
	legendHeight = 2 // legend row + blank
	liftHeight   = 2 // lift status + blank
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border
)

// Wheel colors - distinct colors for each wheel
var wheelColors = map[robot.WheelName]string{
	robot.FrontLeft:  "196", // red
	robot.BackLeft:   "208", // orange
	robot.FrontRight: "46",  // green
	robot.BackRight:  "51",  // cyan
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	upStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	downStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
)

type teleopModel struct {
	ctrl       *teleop.Controller
	padName    string
	chart      *streamlinechart.Model
	width      int      // terminal width
	height     int      // terminal height
	logs       []string // last N log messages
	quitting   bool
	last       teleop.State
	haveState  bool
	lastWheels drive.WheelPowers // freeze the chart while the robot is idle
}

func (m *teleopModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// hasMovement checks if any wheel power has changed since the last state
func (m *teleopModel) hasMovement(w drive.WheelPowers) bool {
	if !m.haveState {
		return true
	}
	return w != m.lastWheels
}

// Messages from the controller
type stateMsg teleop.State
type logMsg string

func waitForState(ctrl *teleop.Controller) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-ctrl.States())
	}
}

func waitForLog(ctrl *teleop.Controller) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-ctrl.Logs())
	}
}

// chartSize calculates the size of the chart based on terminal dimensions
func (m *teleopModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20 // default size before we know terminal size
	}
	width = max(m.width-borderSize-2, 40)
	height = max(m.height-headerHeight-legendHeight-liftHeight-footerHeight-borderSize, 10)
	return width, height
}

func (m *teleopModel) resizeChart() {
	w, h := m.chartSize()
	m.chart.Resize(w, h)
}

func initialTeleopModel(ctrl *teleop.Controller, padName string) teleopModel {
	chart := streamlinechart.New(80, 20,
		streamlinechart.WithYRange(-1, 1),
	)

	for _, name := range robot.AllWheels() {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(wheelColors[name]))
		chart.SetDataSetStyles(string(name), runes.ThinLineStyle, style)
	}

	return teleopModel{
		ctrl:    ctrl,
		padName: padName,
		chart:   &chart,
	}
}

func (m teleopModel) Init() tea.Cmd {
	return tea.Batch(
		waitForState(m.ctrl),
		waitForLog(m.ctrl),
	)
}

func (m teleopModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChart()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case stateMsg:
		state := teleop.State(msg)
		wheels := state.Output.Wheels
		if m.hasMovement(wheels) {
			for _, name := range robot.AllWheels() {
				m.chart.PushDataSet(string(name), robot.Power(wheels, name))
			}
			m.chart.DrawAll()
			m.lastWheels = wheels
		}
		m.last = state
		m.haveState = true
		return m, waitForState(m.ctrl)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.ctrl)
	}

	return m, nil
}

func (m teleopModel) View() string {
	if m.quitting {
		return "Teleoperation stopped.\n"
	}

	var sb strings.Builder

	// Header
	sb.WriteString(titleStyle.Render("SumoB Teleoperate"))
	sb.WriteString(fmt.Sprintf(" - %d Hz", m.ctrl.Hz()))
	if m.padName != "" {
		sb.WriteString(statusStyle.Render("  " + m.padName))
	}
	if m.width > 0 {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("  [%dx%d]", m.width, m.height)))
	}
	sb.WriteString("\n\n")

	// Chart
	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	// Legend
	sb.WriteString(renderLegend(m.lastWheels))
	sb.WriteString("\n\n")

	// Lift
	sb.WriteString(m.renderLift())
	sb.WriteString("\n\n")

	// Log box
	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(max(m.width-4, 20)).
		Foreground(lipgloss.Color("9")) // bright red

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render("Press 'q' to quit")
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func (m teleopModel) renderLift() string {
	if !m.ctrl.LiftEnabled() {
		return statusStyle.Render("Lift: disabled")
	}
	if !m.haveState {
		return statusStyle.Render("Lift: waiting for first cycle")
	}
	out := m.last.Output
	state := downStyle.Render("DOWN")
	if out.LiftRaised {
		state = upStyle.Render("UP")
	}
	button := "released"
	if m.last.Input.LiftButton {
		button = "pressed"
	}
	return fmt.Sprintf("Lift: %s %s", state, statusStyle.Render(fmt.Sprintf("position %.2f, button %s", out.Lift, button)))
}

func renderLegend(w drive.WheelPowers) string {
	var items []string
	for _, name := range robot.AllWheels() {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(wheelColors[name])).Bold(true)
		item := colorStyle.Render("━━") + fmt.Sprintf(" %s %+.2f", name, robot.Power(w, name))
		items = append(items, item)
	}
	return strings.Join(items, "  ")
}

func (c *TeleoperateCommand) Execute(args []string) error {
	// Load config
	cfg, err := robot.LoadConfigFrom(configPath())
	if err != nil {
		fmt.Fprintln(os.Stderr, "No configuration found. Run 'sumob setup' first.")
		os.Exit(1)
	}

	if c.Hz > 0 {
		cfg.Hz = c.Hz
	}
	if c.NoLift {
		cfg.Lift.Enabled = false
	}
	if c.DryRun {
		cfg.Drive.Backend = robot.BackendSim
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if cfg.Lift.Enabled && cfg.Drive.Backend != robot.BackendSim && !cfg.Lift.Calibration.IsCalibrated() {
		fmt.Fprintln(os.Stderr, "Lift servo not calibrated. Run 'sumob setup' first or pass --no-lift.")
		os.Exit(1)
	}
	if cfg.Gamepad.Device == "" {
		fmt.Fprintln(os.Stderr, "No gamepad configured. Run 'sumob setup' first.")
		os.Exit(1)
	}

	fmt.Printf("Loaded configuration from %s\n", configPath())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pad, err := gamepad.Open(cfg.Gamepad.Device, cfg.Gamepad.Mapping)
	if err != nil {
		log.Fatalf("Failed to open gamepad: %v", err)
	}
	defer pad.Close()

	hw, err := openHardware(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open hardware: %v", err)
	}

	// Create controller
	ctrl, err := teleop.NewController(teleop.ConfigFrom(cfg), hw, pad)
	if err != nil {
		hw.Close()
		log.Fatalf("Failed to create controller: %v", err)
	}
	defer ctrl.Close()

	p := tea.NewProgram(initialTeleopModel(ctrl, pad.Name()), tea.WithAltScreen())

	// Read the gamepad and run the controller in background.
	// A lost gamepad stops the robot and closes the TUI.
	padErr := watchGamepad(ctx, pad.Run, func() {
		cancel()
		p.Quit()
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := ctrl.Start(ctx); err != nil && err != context.Canceled {
			log.Printf("Controller error: %v", err)
		}
	}()

	// Run TUI
	if _, err := p.Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}

	// Stop the loop so the wheels are zeroed before the hardware closes
	cancel()
	<-done

	select {
	case err := <-padErr:
		return fmt.Errorf("gamepad disconnected: %w", err)
	default:
	}

	return nil
}

// watchGamepad runs the gamepad read loop in the background and calls stop
// if it fails. The returned channel receives that failure.
func watchGamepad(ctx context.Context, run func(context.Context) error, stop func()) <-chan error {
	errc := make(chan error, 1)
	go func() {
		if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errc <- err
			stop()
		}
	}()
	return errc
}
