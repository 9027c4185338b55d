package main

import (
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/gwillem/sumob/pkg/robot"
)

type Options struct {
	Config      string             `short:"c" long:"config" description:"Configuration file (default: sumob.json)"`
	Setup       SetupCommand       `command:"setup" description:"Pick the gamepad and ports and calibrate the lift servo"`
	Teleoperate TeleoperateCommand `command:"teleoperate" alias:"teleop" description:"Drive the robot with the gamepad"`
	Info        InfoCommand        `command:"info" description:"List serial ports and input devices"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func configPath() string {
	if opts.Config == "" {
		return robot.DefaultConfigFile
	}
	return opts.Config
}

func main() {
	parser.LongDescription = "SumoB - mecanum drive teleoperation with a toggled lift"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}
