package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/usbforge/usbforge/internal/app/devices"
	"github.com/usbforge/usbforge/internal/printer"
)

type DevicesCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	all    bool
	format string
}

// NewDevicesCommand returns the devices command.
func NewDevicesCommand(rootCmd *RootCommand, app *kingpin.Application) *DevicesCommand {
	c := &DevicesCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("devices", "List candidate target devices.")
	c.Cmd.Flag("all", "Include fixed (non-removable) disks.").BoolVar(&c.all)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c DevicesCommand) Name() string { return c.Cmd.FullCommand() }

func (c DevicesCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	client, err := c.rootCmd.newBackend()
	if err != nil {
		return fmt.Errorf("could not create backend: %w", err)
	}

	svc, err := devices.NewService(devices.ServiceConfig{
		Backend: client,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	targets, err := svc.List(ctx, devices.ListRequest{All: c.all})
	if err != nil {
		return fmt.Errorf("could not list devices: %w", err)
	}

	// Print output.
	var p printer.Printer
	switch c.format {
	case "json":
		p = printer.NewJSONPrinter(c.rootCmd.Stdout)
	default: // table
		p = printer.NewTablePrinter(c.rootCmd.Stdout)
	}

	if err := p.PrintDeviceList(targets); err != nil {
		return fmt.Errorf("could not print devices: %w", err)
	}

	return nil
}
