package model

import "fmt"

// TargetDevice is a candidate destination disk as enumerated by the backend.
// The ID is an opaque backend reference, everything else is display metadata.
type TargetDevice struct {
	ID         string
	Name       string
	Device     string
	SizeBytes  uint64
	FreeBytes  uint64
	Removable  bool
	Rotational bool
}

// Validate validates the target device reference.
func (d *TargetDevice) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("target device id is required: %w", ErrNotValid)
	}
	return nil
}

// WritableCheck is the result of the platform pre-flight writability check.
//
// Supported is false on platforms where the check does not apply; in that case
// no other field is meaningful and the safety gate skips straight to the
// destructive confirmation.
type WritableCheck struct {
	Supported    bool
	Writable     bool
	NeedsRemount bool
	MountPoint   string
	Reason       string
}
