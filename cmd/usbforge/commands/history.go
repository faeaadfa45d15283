package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/usbforge/usbforge/internal/app/history"
	"github.com/usbforge/usbforge/internal/model"
	"github.com/usbforge/usbforge/internal/printer"
	"github.com/usbforge/usbforge/internal/storage/sqlite"
)

type HistoryCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	kind   string
	limit  int
	format string
}

// NewHistoryCommand returns the history command.
func NewHistoryCommand(rootCmd *RootCommand, app *kingpin.Application) *HistoryCommand {
	c := &HistoryCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("history", "List past write and benchmark runs.")
	c.Cmd.Flag("kind", "Filter by run kind (write, benchmark).").EnumVar(&c.kind, "write", "benchmark")
	c.Cmd.Flag("limit", "Maximum number of runs to list (0 means all).").Default("0").IntVar(&c.limit)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c HistoryCommand) Name() string { return c.Cmd.FullCommand() }

func (c HistoryCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	// Initialize storage (SQLite).
	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.rootCmd.DBPath,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}
	defer repo.Close()

	svc, err := history.NewService(history.ServiceConfig{
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	runs, err := svc.List(ctx, history.ListRequest{
		Kind:  model.RunKind(c.kind),
		Limit: c.limit,
	})
	if err != nil {
		return fmt.Errorf("could not list runs: %w", err)
	}

	// Print output.
	var p printer.Printer
	switch c.format {
	case "json":
		p = printer.NewJSONPrinter(c.rootCmd.Stdout)
	default: // table
		p = printer.NewTablePrinter(c.rootCmd.Stdout)
	}

	if err := p.PrintHistory(runs); err != nil {
		return fmt.Errorf("could not print runs: %w", err)
	}

	return nil
}
