package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/usbforge/usbforge/internal/model"
)

// JSONPrinter prints device, benchmark and history information in JSON
// format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

// deviceItem represents a target device in the list output.
type deviceItem struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Device     string `json:"device"`
	SizeBytes  uint64 `json:"size_bytes"`
	FreeBytes  uint64 `json:"free_bytes"`
	Removable  bool   `json:"removable"`
	Rotational bool   `json:"rotational"`
}

// benchmarkItem represents one mode's benchmark result.
type benchmarkItem struct {
	Mode          string             `json:"mode"`
	WriteSeqMBps  float64            `json:"write_seq_mbps"`
	Write4KMBps   float64            `json:"write_4k_mbps"`
	ThreadResults []threadResultItem `json:"thread_results,omitempty"`
	FullWrittenGB float64            `json:"full_written_gb,omitempty"`
	Score         float64            `json:"score,omitempty"`
	Grade         string             `json:"grade,omitempty"`
	DurationMs    int64              `json:"duration_ms"`
}

// threadResultItem represents the random 4K throughput at one thread count.
type threadResultItem struct {
	Threads int     `json:"threads"`
	MBps    float64 `json:"mbps"`
}

// historyItem represents one past run.
type historyItem struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	TargetID   string    `json:"target_id"`
	TargetName string    `json:"target_name"`
	Detail     string    `json:"detail"`
	Status     string    `json:"status"`
	Message    string    `json:"message,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// messageOutput represents a simple message output.
type messageOutput struct {
	Message string `json:"message"`
}

// PrintDeviceList prints target devices in JSON format.
func (j *JSONPrinter) PrintDeviceList(devices []model.TargetDevice) error {
	items := make([]deviceItem, len(devices))
	for i, d := range devices {
		items[i] = deviceItem{
			ID:         d.ID,
			Name:       d.Name,
			Device:     d.Device,
			SizeBytes:  d.SizeBytes,
			FreeBytes:  d.FreeBytes,
			Removable:  d.Removable,
			Rotational: d.Rotational,
		}
	}

	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

// PrintBenchmark prints per-mode benchmark results in queue order.
func (j *JSONPrinter) PrintBenchmark(queue []model.BenchmarkMode, results map[model.BenchmarkMode]model.BenchmarkResult) error {
	items := make([]benchmarkItem, 0, len(results))
	for _, mode := range queue {
		r, ok := results[mode]
		if !ok {
			continue
		}

		item := benchmarkItem{
			Mode:          string(r.Mode),
			WriteSeqMBps:  r.WriteSeqMBps,
			Write4KMBps:   r.Write4KMBps,
			FullWrittenGB: r.FullWrittenGB,
			Score:         r.Score,
			Grade:         r.Grade,
			DurationMs:    r.Duration.Milliseconds(),
		}
		for _, tr := range r.ThreadResults {
			item.ThreadResults = append(item.ThreadResults, threadResultItem{Threads: tr.Threads, MBps: tr.MBps})
		}
		items = append(items, item)
	}

	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

// PrintHistory prints past runs in JSON format.
func (j *JSONPrinter) PrintHistory(runs []model.RunRecord) error {
	items := make([]historyItem, len(runs))
	for i, r := range runs {
		items[i] = historyItem{
			ID:         r.ID,
			Kind:       string(r.Kind),
			TargetID:   r.TargetID,
			TargetName: r.TargetName,
			Detail:     r.Detail,
			Status:     string(r.Status),
			Message:    r.Message,
			StartedAt:  r.StartedAt.UTC(),
			FinishedAt: r.FinishedAt.UTC(),
		}
	}

	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	output := messageOutput{Message: msg}
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}
