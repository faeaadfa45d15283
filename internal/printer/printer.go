package printer

import "github.com/usbforge/usbforge/internal/model"

// Printer knows how to print device, benchmark and history information in
// different formats.
type Printer interface {
	PrintDeviceList(devices []model.TargetDevice) error
	PrintBenchmark(queue []model.BenchmarkMode, results map[model.BenchmarkMode]model.BenchmarkResult) error
	PrintHistory(runs []model.RunRecord) error
	PrintMessage(msg string) error
}
