package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"go.bug.st/serial"

	"github.com/gwillem/sumob/pkg/gamepad"
	"github.com/gwillem/sumob/pkg/robot"
)

type InfoCommand struct {
	Scan bool `long:"scan" description:"Scan each serial port for Feetech servos"`
}

func (c *InfoCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("SumoB Devices"))
	fmt.Println()

	fmt.Println(subHeaderStyle.Render("Input devices"))
	devices, err := gamepad.Devices()
	if err != nil {
		fmt.Printf("Error listing input devices: %v\n", err)
	}
	if len(devices) == 0 {
		fmt.Println(dimStyle.Render("  none found"))
	} else {
		rows := make([][]string, 0, len(devices))
		for _, d := range devices {
			rows = append(rows, []string{d.Path, d.Name, fmt.Sprintf("%d", d.Axes)})
		}
		fmt.Println(renderTable([]string{"Device", "Name", "Axes"}, rows))
	}
	fmt.Println()

	fmt.Println(subHeaderStyle.Render("Serial ports"))
	ports, err := serial.GetPortsList()
	if err != nil {
		fmt.Printf("Error listing ports: %v\n", err)
		return nil
	}

	var rows [][]string
	for _, port := range ports {
		// Skip Bluetooth ports on macOS
		if strings.Contains(port, "Bluetooth") {
			continue
		}
		servos := dimStyle.Render("not scanned")
		if c.Scan {
			servos = scanServos(port)
		}
		rows = append(rows, []string{port, servos})
	}
	if len(rows) == 0 {
		fmt.Println(dimStyle.Render("  none found"))
		return nil
	}
	fmt.Println(renderTable([]string{"Port", "Servos"}, rows))

	return nil
}

func scanServos(port string) string {
	bus, err := robot.OpenBus(port)
	if err != nil {
		return "error: " + err.Error()
	}
	defer bus.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	found, err := bus.Scan(ctx, 1, maxLiftServoID)
	if err != nil || len(found) == 0 {
		return "-"
	}
	ids := make([]string, 0, len(found))
	for _, s := range found {
		ids = append(ids, fmt.Sprintf("%d", s.ID))
	}
	return strings.Join(ids, ", ")
}

func renderTable(headers []string, rows [][]string) string {
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	headStyle := cellStyle.Bold(true).Foreground(lipgloss.Color("12"))

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headStyle
			}
			return cellStyle
		}).
		Render()
}
