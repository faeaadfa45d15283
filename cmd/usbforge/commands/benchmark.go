package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	appbenchmark "github.com/usbforge/usbforge/internal/app/benchmark"
	"github.com/usbforge/usbforge/internal/app/devices"
	"github.com/usbforge/usbforge/internal/model"
	"github.com/usbforge/usbforge/internal/printer"
	"github.com/usbforge/usbforge/internal/storage/sqlite"
)

type BenchmarkCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	target string
	mode   string
	extras []string
	format string
}

// NewBenchmarkCommand returns the benchmark command.
func NewBenchmarkCommand(rootCmd *RootCommand, app *kingpin.Application) *BenchmarkCommand {
	c := &BenchmarkCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("benchmark", "Measure write performance of a target device.")
	c.Cmd.Flag("target", "Target device id (see 'usbforge devices').").Short('t').Required().StringVar(&c.target)
	c.Cmd.Flag("mode", "Benchmark mode.").Short('m').Default("quick").EnumVar(&c.mode, "quick", "multithread", "full")
	c.Cmd.Flag("extra", "Extra mode to run after the primary one (repeatable).").EnumsVar(&c.extras, "quick", "multithread", "full")
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c BenchmarkCommand) Name() string { return c.Cmd.FullCommand() }

func (c BenchmarkCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	mode, err := model.ParseBenchmarkMode(c.mode)
	if err != nil {
		return err
	}
	extras := make([]model.BenchmarkMode, 0, len(c.extras))
	for _, e := range c.extras {
		m, err := model.ParseBenchmarkMode(e)
		if err != nil {
			return err
		}
		extras = append(extras, m)
	}

	client, err := c.rootCmd.newBackend()
	if err != nil {
		return fmt.Errorf("could not create backend: %w", err)
	}

	// Resolve the target device id against the backend listing.
	devSvc, err := devices.NewService(devices.ServiceConfig{Backend: client, Logger: logger})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}
	target, err := devSvc.Get(ctx, c.target)
	if err != nil {
		return fmt.Errorf("could not resolve target device: %w", err)
	}

	// Initialize storage (SQLite).
	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.rootCmd.DBPath,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}
	defer repo.Close()

	svc, err := appbenchmark.NewService(appbenchmark.ServiceConfig{
		Backend:    client,
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	resp, err := svc.Run(ctx, appbenchmark.Request{
		Target: *target,
		Mode:   mode,
		Extras: extras,
		OnProgress: func(pct float64, _ map[model.BenchmarkMode]model.BenchmarkResult) {
			fmt.Fprintf(c.rootCmd.Stderr, "\rBenchmarking... %5.1f%%", pct)
		},
	})
	fmt.Fprintln(c.rootCmd.Stderr)
	if err != nil && !model.IsCancel(err) {
		return fmt.Errorf("benchmark failed: %w", err)
	}

	// Print output. A cancelled run still prints the modes that finished.
	var p printer.Printer
	switch c.format {
	case "json":
		p = printer.NewJSONPrinter(c.rootCmd.Stdout)
	default: // table
		p = printer.NewTablePrinter(c.rootCmd.Stdout)
	}

	if err := p.PrintBenchmark(resp.Queue, resp.Results); err != nil {
		return fmt.Errorf("could not print results: %w", err)
	}

	return nil
}
