package conventions

import "path/filepath"

const (
	// DefaultDataDir is the default usbforge data directory name (relative to home).
	DefaultDataDir = ".usbforge"
	// DBFile is the run-history SQLite database filename.
	DBFile = "usbforge.db"
	// PresetsDir is the subdirectory for write option presets.
	PresetsDir = "presets"

	// Target-side files.

	// BenchmarkFile is the filename benchmark modes write on the target.
	BenchmarkFile = "usbforge_bench.bin"
	// DefaultVirtualDiskFile is the default virtual disk container filename.
	DefaultVirtualDiskFile = "win2go.vhdx"
)

// DBPath returns the run-history database path inside a data directory.
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, DBFile)
}

// PresetPath returns the full path to a named preset inside a data directory.
func PresetPath(dataDir, name string) string {
	return filepath.Join(dataDir, PresetsDir, name)
}
