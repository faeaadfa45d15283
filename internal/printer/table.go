package printer

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/usbforge/usbforge/internal/model"
)

// TablePrinter prints device, benchmark and history information in a table
// format.
type TablePrinter struct {
	writer io.Writer
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintDeviceList prints target devices in a table format.
func (t *TablePrinter) PrintDeviceList(devices []model.TargetDevice) error {
	if len(devices) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	// Print header.
	fmt.Fprintln(tw, "ID\tNAME\tDEVICE\tSIZE\tFREE\tTYPE")

	// Print rows.
	for _, d := range devices {
		kind := "removable"
		if !d.Removable {
			kind = "fixed"
		}
		if d.Rotational {
			kind += " (hdd)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			d.ID, d.Name, d.Device, FormatBytes(d.SizeBytes), FormatBytes(d.FreeBytes), kind)
	}

	return nil
}

// PrintBenchmark prints per-mode benchmark results in queue order.
func (t *TablePrinter) PrintBenchmark(queue []model.BenchmarkMode, results map[model.BenchmarkMode]model.BenchmarkResult) error {
	for _, mode := range queue {
		r, ok := results[mode]
		if !ok {
			fmt.Fprintf(t.writer, "Mode %s: no result\n", mode)
			continue
		}

		fmt.Fprintf(t.writer, "Mode:         %s\n", r.Mode)
		fmt.Fprintf(t.writer, "Sequential:   %.1f MB/s\n", r.WriteSeqMBps)
		fmt.Fprintf(t.writer, "Random 4K:    %.1f MB/s\n", r.Write4KMBps)

		for _, tr := range r.ThreadResults {
			fmt.Fprintf(t.writer, "  4K x%d:      %.1f MB/s\n", tr.Threads, tr.MBps)
		}

		if r.FullWrittenGB > 0 {
			fmt.Fprintf(t.writer, "Written:      %.1f GB\n", r.FullWrittenGB)
		}
		if r.Grade != "" {
			fmt.Fprintf(t.writer, "Score:        %.0f (%s)\n", r.Score, r.Grade)
		}
		fmt.Fprintf(t.writer, "Duration:     %s\n\n", r.Duration.Round(100*time.Millisecond))
	}

	return nil
}

// PrintHistory prints past runs in a table format.
func (t *TablePrinter) PrintHistory(runs []model.RunRecord) error {
	if len(runs) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	// Print header.
	fmt.Fprintln(tw, "ID\tKIND\tTARGET\tDETAIL\tSTATUS\tSTARTED\tTOOK")

	// Print rows.
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID,
			r.Kind,
			r.TargetName,
			r.Detail,
			r.Status,
			TimeAgo(r.StartedAt),
			FormatDuration(r.FinishedAt.Sub(r.StartedAt)),
		)
	}

	return nil
}

// PrintMessage prints a simple text message.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}
