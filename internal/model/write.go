package model

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/usbforge/usbforge/internal/conventions"
)

// TaskStatus represents the lifecycle state of a write task.
//
// Statuses are ordered by typical occurrence but a task is not required to
// visit every member (e.g. only virtual-disk deployments go through
// TaskStatusCopyingVirtualDisk).
type TaskStatus string

const (
	TaskStatusIdle               TaskStatus = "idle"
	TaskStatusPreparing          TaskStatus = "preparing"
	TaskStatusPartitioning       TaskStatus = "partitioning"
	TaskStatusApplyingImage      TaskStatus = "applying-image"
	TaskStatusWritingBootFiles   TaskStatus = "writing-boot-files"
	TaskStatusFixingBootConfig   TaskStatus = "fixing-boot-config"
	TaskStatusCopyingVirtualDisk TaskStatus = "copying-virtual-disk"
	TaskStatusApplyingExtras     TaskStatus = "applying-extra-features"
	TaskStatusVerifying          TaskStatus = "verifying"
	TaskStatusCompleted          TaskStatus = "completed"
	TaskStatusFailed             TaskStatus = "failed"
	TaskStatusCancelled          TaskStatus = "cancelled"
)

// IsTerminal reports whether no further transition leaves this status.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed || s == TaskStatusCancelled
}

// SourceKind is the detected kind of the source image file.
type SourceKind string

const (
	SourceKindRawImage        SourceKind = "raw-image"
	SourceKindCompressedImage SourceKind = "compressed-image"
	SourceKindOpticalImage    SourceKind = "optical-image"
	SourceKindVDiskFixed      SourceKind = "virtual-disk-fixed"
	SourceKindVDiskDynamic    SourceKind = "virtual-disk-dynamic"
)

// DetectSourceKind classifies a source path by its extension.
func DetectSourceKind(path string) (SourceKind, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wim":
		return SourceKindRawImage, nil
	case ".esd":
		return SourceKindCompressedImage, nil
	case ".iso":
		return SourceKindOpticalImage, nil
	case ".vhd":
		return SourceKindVDiskFixed, nil
	case ".vhdx":
		return SourceKindVDiskDynamic, nil
	}
	return "", fmt.Errorf("unknown source image extension %q: %w", filepath.Ext(path), ErrNotValid)
}

// BootMode is the firmware/partition-table combination the target boots with.
type BootMode string

const (
	BootModeUEFIGPT BootMode = "uefi-gpt"
	BootModeUEFIMBR BootMode = "uefi-mbr"
	BootModeLegacy  BootMode = "legacy"
)

// ApplyMode is how the image is applied to the target.
type ApplyMode string

const (
	// ApplyModeDirect applies the image straight onto the target partitions.
	ApplyModeDirect ApplyMode = "direct"
	// ApplyModeVDiskFixed applies the image into a fixed-size virtual disk container.
	ApplyModeVDiskFixed ApplyMode = "virtual-disk-fixed"
	// ApplyModeVDiskDynamic applies the image into a dynamically-expanding virtual disk container.
	ApplyModeVDiskDynamic ApplyMode = "virtual-disk-dynamic"
)

// PartitionLayout is the partition table kind used when repartitioning.
type PartitionLayout string

const (
	PartitionLayoutMBR PartitionLayout = "mbr"
	PartitionLayoutGPT PartitionLayout = "gpt"
)

// PartitionConfig holds the partition layout parameters for the target.
type PartitionConfig struct {
	BootSizeMB int
	Layout     PartitionLayout
	// ExtraPartitionSizesMB holds sizes for optional extra partitions.
	ExtraPartitionSizesMB []int
}

// VirtualDiskConfig holds the container parameters for virtual-disk apply modes.
type VirtualDiskConfig struct {
	SizeMB   int // 0 means auto.
	Filename string
	Layout   PartitionLayout
}

// ExtraFeatures is the closed set of independent feature toggles.
type ExtraFeatures struct {
	InstallDotNet35      bool
	BlockLocalDisks      bool
	DisableRecoveryEnv   bool
	SkipOOBE             bool
	DisableUASP          bool
	EnableBitlocker      bool
	FixDriveLetter       bool
	NoDefaultDriveLetter bool
	CompactOS            bool
	WIMBoot              bool
	NTFSUEFISupport      bool
	DoNotFormat          bool
	Repartition          bool
	DriverPath           string
}

// WriteDescriptor is the immutable, validated description of one deployment
// task. Build it with NewWriteDescriptor; never mutate it after the launcher
// accepts it.
type WriteDescriptor struct {
	SourcePath     string
	SourceKind     SourceKind
	Target         TargetDevice
	BootMode       BootMode
	ApplyMode      ApplyMode
	Partition      PartitionConfig
	VirtualDisk    *VirtualDiskConfig
	Features       ExtraFeatures
	EFIPartitionMB int
	ImageIndex     int // 0 means auto.
}

// WriteOptions are the raw user selections a WriteDescriptor is built from.
type WriteOptions struct {
	SourcePath     string
	Target         TargetDevice
	BootMode       BootMode
	ApplyMode      ApplyMode
	Partition      PartitionConfig
	VirtualDisk    *VirtualDiskConfig
	Features       ExtraFeatures
	EFIPartitionMB int
	ImageIndex     int
}

// NewWriteDescriptor builds a validated descriptor from the current user
// selections. It is a pure transformation: no I/O happens here.
//
// A virtual-disk source forces the matching virtual-disk apply mode. This is
// intentional normalization mirroring how the backend treats those sources,
// not a validation error.
func NewWriteDescriptor(opts WriteOptions) (*WriteDescriptor, error) {
	if opts.SourcePath == "" {
		return nil, fmt.Errorf("source path is required: %w", ErrNotValid)
	}
	if err := opts.Target.Validate(); err != nil {
		return nil, err
	}

	kind, err := DetectSourceKind(opts.SourcePath)
	if err != nil {
		return nil, err
	}

	applyMode := opts.ApplyMode
	if applyMode == "" {
		applyMode = ApplyModeDirect
	}
	switch kind {
	case SourceKindVDiskFixed:
		applyMode = ApplyModeVDiskFixed
	case SourceKindVDiskDynamic:
		applyMode = ApplyModeVDiskDynamic
	}

	bootMode := opts.BootMode
	if bootMode == "" {
		bootMode = BootModeUEFIGPT
	}
	switch bootMode {
	case BootModeUEFIGPT, BootModeUEFIMBR, BootModeLegacy:
	default:
		return nil, fmt.Errorf("unknown boot mode %q: %w", bootMode, ErrNotValid)
	}

	partition := opts.Partition
	if partition.Layout == "" {
		if bootMode == BootModeUEFIGPT {
			partition.Layout = PartitionLayoutGPT
		} else {
			partition.Layout = PartitionLayoutMBR
		}
	}
	if partition.BootSizeMB < 0 {
		return nil, fmt.Errorf("boot partition size must not be negative: %w", ErrNotValid)
	}
	for _, size := range partition.ExtraPartitionSizesMB {
		if size <= 0 {
			return nil, fmt.Errorf("extra partition sizes must be positive: %w", ErrNotValid)
		}
	}

	var vdisk *VirtualDiskConfig
	if applyMode != ApplyModeDirect {
		vdisk = &VirtualDiskConfig{Layout: partition.Layout}
		if opts.VirtualDisk != nil {
			cp := *opts.VirtualDisk
			vdisk = &cp
			if vdisk.Layout == "" {
				vdisk.Layout = partition.Layout
			}
		}
		if vdisk.Filename == "" {
			vdisk.Filename = conventions.DefaultVirtualDiskFile
		}
	}

	efiSize := opts.EFIPartitionMB
	if efiSize == 0 {
		efiSize = DefaultEFIPartitionMB
	}
	if efiSize < 0 {
		return nil, fmt.Errorf("EFI partition size must not be negative: %w", ErrNotValid)
	}

	return &WriteDescriptor{
		SourcePath:     opts.SourcePath,
		SourceKind:     kind,
		Target:         opts.Target,
		BootMode:       bootMode,
		ApplyMode:      applyMode,
		Partition:      partition,
		VirtualDisk:    vdisk,
		Features:       opts.Features,
		EFIPartitionMB: efiSize,
		ImageIndex:     opts.ImageIndex,
	}, nil
}

// DefaultEFIPartitionMB is the EFI system partition size used when none is given.
const DefaultEFIPartitionMB = 300

// WriteProgress is one progress notification for a write task.
//
// The backend guarantees non-decreasing Progress for a given TaskID while the
// task is active; the orchestrator applies events last-received-wins.
type WriteProgress struct {
	TaskID   string
	Status   TaskStatus
	Progress float64 // In [0,100].
	Message  string
	// Optional measurements, zero when the backend doesn't report them.
	SpeedMBps           float64
	ElapsedSeconds      uint64
	EstRemainingSeconds uint64
}
