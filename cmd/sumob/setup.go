package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/hipsterbrown/feetech-servo/feetech"
	"go.bug.st/serial"

	"github.com/gwillem/sumob/pkg/gamepad"
	"github.com/gwillem/sumob/pkg/robot"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// maxLiftServoID bounds the bus scan for the lift servo.
const maxLiftServoID = 10

type SetupCommand struct{}

func (c *SetupCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("SumoB Setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━"))
	fmt.Println()

	config, err := robot.LoadConfigFrom(configPath())
	if err != nil {
		config = robot.DefaultConfig()
	}

	// Step 1: Gamepad
	fmt.Println(subHeaderStyle.Render("━━━ Gamepad ━━━"))
	fmt.Println()
	config.Gamepad.Device = chooseGamepad(config.Gamepad.Device)

	// Step 2: Drive train
	fmt.Println()
	fmt.Println(subHeaderStyle.Render("━━━ Drive Train ━━━"))
	fmt.Println()
	chooseDrive(&config.Drive)

	// Save before touching the lift
	saveOrExit(config)

	// Step 3: Lift
	fmt.Println()
	fmt.Println(subHeaderStyle.Render("━━━ Lift Servo ━━━"))
	fmt.Println()
	setupLift(&config.Lift, config.Drive.Port)

	saveOrExit(config)

	fmt.Println()
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println(successStyle.Render("Setup complete!"))
	fmt.Printf("Configuration saved to %s\n", configPath())
	fmt.Println()
	fmt.Println("Start teleoperation with: " + headerStyle.Render("sumob teleoperate"))

	return nil
}

func saveOrExit(config *robot.Config) {
	if err := config.SaveTo(configPath()); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}
}

func runForm(fields ...huh.Field) {
	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
}

func chooseGamepad(current string) string {
	devices, err := gamepad.Devices()
	if err != nil || len(devices) == 0 {
		fmt.Println("No gamepads found.")
		fmt.Println("Make sure the gamepad is connected and you can read /dev/input.")
		os.Exit(1)
	}

	options := make([]huh.Option[string], 0, len(devices))
	for _, d := range devices {
		options = append(options, huh.NewOption(fmt.Sprintf("%s (%s)", d.Name, d.Path), d.Path))
	}

	device := current
	runForm(
		huh.NewSelect[string]().
			Title("Which device is the gamepad?").
			Options(options...).
			Value(&device),
	)
	fmt.Printf("  Gamepad: %s\n", device)
	return device
}

func chooseDrive(dc *robot.DriveConfig) {
	runForm(
		huh.NewSelect[string]().
			Title("How are the wheel motors connected?").
			Options(
				huh.NewOption("Motor controller on a serial port", robot.BackendSerial),
				huh.NewOption("Motor controller on a CAN bus", robot.BackendCAN),
				huh.NewOption("Simulated (no hardware)", robot.BackendSim),
			).
			Value(&dc.Backend),
	)

	switch dc.Backend {
	case robot.BackendSerial:
		dc.Port = choosePort("Which port is the motor controller on?", dc.Port, "")
		fmt.Printf("  Motor controller: %s\n", dc.Port)
	case robot.BackendCAN:
		runForm(
			huh.NewInput().
				Title("CAN interface").
				Placeholder("can0").
				Value(&dc.CAN.Interface),
		)
		fmt.Printf("  CAN interface: %s\n", dc.CAN.Interface)
	}

	brake := dc.ZeroPower == robot.Brake
	runForm(
		huh.NewConfirm().
			Title("Brake the wheels at zero power?").
			Affirmative("Brake").
			Negative("Coast").
			Value(&brake),
	)
	dc.ZeroPower = robot.Float
	if brake {
		dc.ZeroPower = robot.Brake
	}
}

func choosePort(title, current, exclude string) string {
	ports, err := serial.GetPortsList()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing ports: %v\n", err)
		os.Exit(1)
	}

	var options []huh.Option[string]
	for _, port := range ports {
		// Skip Bluetooth ports on macOS
		if strings.Contains(port, "Bluetooth") || port == exclude {
			continue
		}
		options = append(options, huh.NewOption(port, port))
	}
	if len(options) == 0 {
		fmt.Println("No serial ports found.")
		os.Exit(1)
	}

	port := current
	runForm(
		huh.NewSelect[string]().
			Title(title).
			Options(options...).
			Value(&port),
	)
	return port
}

func setupLift(lc *robot.LiftConfig, drivePort string) {
	runForm(
		huh.NewConfirm().
			Title("Does this robot have the lift?").
			Affirmative("Yes").
			Negative("No").
			Value(&lc.Enabled),
	)
	if !lc.Enabled {
		fmt.Println("  Lift disabled.")
		return
	}

	lc.Port = choosePort("Which port is the lift servo bus on?", lc.Port, drivePort)

	bus, servo := connectToLift(lc.Port)
	defer bus.Close()

	for {
		low, high, ok := recordLiftTravel(servo, lc.Calibration)
		if !ok {
			fmt.Println("Calibration cancelled, keeping previous values.")
			return
		}
		cal, err := liftCalibration(servo.id, low, high)
		if err != nil {
			fmt.Println()
			fmt.Printf("%v. Move the lift through its full travel and try again.\n\n", err)
			continue
		}
		lc.Calibration = cal
		fmt.Println()
		fmt.Printf("Lift calibrated: servo %d, low %d, high %d\n", cal.ID, cal.RangeMin, cal.RangeMax)
		return
	}
}

// liftCalibration builds the lift calibration from the recorded ends of travel.
func liftCalibration(id, low, high int) (robot.ServoCalibration, error) {
	cal := robot.ServoCalibration{ID: id, RangeMin: low, RangeMax: high}
	if !cal.IsCalibrated() {
		return robot.ServoCalibration{}, fmt.Errorf("low and high ends both read %d", low)
	}
	return cal, nil
}

func connectToLift(port string) (*feetech.Bus, liftServo) {
	bus, err := robot.OpenBus(port)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to lift: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	found, err := bus.Scan(ctx, 1, maxLiftServoID)
	if err != nil || len(found) == 0 {
		bus.Close()
		fmt.Fprintf(os.Stderr, "No servo found on %s\n", port)
		os.Exit(1)
	}

	s := found[0]
	if len(found) > 1 {
		options := make([]huh.Option[int], 0, len(found))
		for _, f := range found {
			options = append(options, huh.NewOption(fmt.Sprintf("Servo %d", f.ID), f.ID))
		}
		var id int
		runForm(
			huh.NewSelect[int]().
				Title("Which servo drives the lift?").
				Options(options...).
				Value(&id),
		)
		for _, f := range found {
			if f.ID == id {
				s = f
			}
		}
	}

	return bus, liftServo{id: s.ID, servo: feetech.NewServo(bus, s.ID, s.Model)}
}

type liftServo struct {
	id    int
	servo *feetech.Servo
}

// recordLiftTravel runs the calibration TUI and returns the raw low and high
// positions. prev is the stored calibration, used to show where the lift
// sits in the old range.
func recordLiftTravel(ls liftServo, prev robot.ServoCalibration) (low, high int, ok bool) {
	// Disable torque so the user can move the lift by hand
	ctx := context.Background()
	ls.servo.Disable(ctx)

	pos, err := ls.servo.Position(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading servo %d: %v\n", ls.id, err)
		os.Exit(1)
	}

	fmt.Println(subHeaderStyle.Render("Record lift travel"))
	fmt.Println("Move the lift by hand to each end of its travel and press Enter there.")
	fmt.Println()

	p := tea.NewProgram(newCalibrationModel(ls, pos, prev))
	finalModel, err := p.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running calibration: %v\n", err)
		os.Exit(1)
	}

	cm := finalModel.(calibrationModel)
	if cm.cancelled {
		return 0, 0, false
	}
	return cm.low, cm.high, true
}

// Calibration TUI model
type calibrationModel struct {
	ls        liftServo
	prev      robot.ServoCalibration
	current   int
	low       int
	high      int
	phase     int // 0: recording low, 1: recording high, 2: done
	cancelled bool
}

type tickMsg time.Time

func newCalibrationModel(ls liftServo, pos int, prev robot.ServoCalibration) calibrationModel {
	return calibrationModel{
		ls:      ls,
		prev:    prev,
		current: pos,
		low:     pos,
		high:    pos,
	}
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m calibrationModel) Init() tea.Cmd {
	return tick()
}

func (m calibrationModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if m.phase == 0 {
				m.low = m.current
				m.phase = 1
				return m, nil
			}
			m.high = m.current
			m.phase = 2
			return m, tea.Quit
		case "q", "ctrl+c":
			m.cancelled = true
			return m, tea.Quit
		}

	case tickMsg:
		pos, err := m.ls.servo.Position(context.Background())
		if err == nil {
			m.current = pos
		}
		return m, tick()
	}

	return m, nil
}

// previousPosition formats the current raw position within the stored range.
func (m calibrationModel) previousPosition() string {
	if m.prev.ID != m.ls.id || !m.prev.IsCalibrated() {
		return "-"
	}
	return fmt.Sprintf("%.2f", m.prev.Normalize(m.current))
}

func (m calibrationModel) View() string {
	if m.phase == 2 || m.cancelled {
		return ""
	}

	var sb strings.Builder

	tableHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableCellStyle := lipgloss.NewStyle().Padding(0, 1)
	tableCurrentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Padding(0, 1)

	low := "-"
	if m.phase > 0 {
		low = fmt.Sprintf("%d", m.low)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Servo", "Current", "Stored", "Low", "High").
		Rows([]string{fmt.Sprintf("%d", m.ls.id), fmt.Sprintf("%d", m.current), m.previousPosition(), low, "-"}).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			if col == 1 {
				return tableCurrentStyle
			}
			return tableCellStyle
		})

	sb.WriteString(t.Render())
	sb.WriteString("\n\n")
	if m.phase == 0 {
		sb.WriteString("Move the lift to its LOWEST position and press Enter\n")
	} else {
		sb.WriteString("Move the lift to its HIGHEST position and press Enter\n")
	}
	sb.WriteString(dimStyle.Render("Press q to cancel"))

	return sb.String()
}
