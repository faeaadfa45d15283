package io

import (
	"context"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"

	"github.com/usbforge/usbforge/internal/model"
)

// PresetYAMLRepository loads write option presets from YAML files. The target
// device is always chosen interactively, so presets never carry one.
type PresetYAMLRepository struct {
	fs fs.FS
}

// NewPresetYAMLRepository creates a new YAML preset repository.
func NewPresetYAMLRepository(filesystem fs.FS) *PresetYAMLRepository {
	return &PresetYAMLRepository{fs: filesystem}
}

// GetWriteOptions loads write options from a YAML preset file.
func (r *PresetYAMLRepository) GetWriteOptions(ctx context.Context, path string) (model.WriteOptions, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return model.WriteOptions{}, fmt.Errorf("reading preset file: %w", err)
	}

	if ctx.Err() != nil {
		return model.WriteOptions{}, ctx.Err()
	}

	var preset WritePreset
	if err := yaml.Unmarshal(data, &preset); err != nil {
		return model.WriteOptions{}, fmt.Errorf("parsing YAML: %w", err)
	}

	return preset.toModel(), nil
}

// WritePreset represents the YAML structure for a write options preset.
type WritePreset struct {
	Source         string             `yaml:"source"`
	BootMode       string             `yaml:"boot_mode"`
	ApplyMode      string             `yaml:"apply_mode"`
	Partition      PartitionPreset    `yaml:"partition"`
	VirtualDisk    *VirtualDiskPreset `yaml:"virtual_disk,omitempty"`
	Features       FeaturesPreset     `yaml:"features"`
	EFIPartitionMB int                `yaml:"efi_partition_mb"`
	ImageIndex     int                `yaml:"image_index"`
}

// PartitionPreset represents the YAML structure for partition parameters.
type PartitionPreset struct {
	BootSizeMB            int    `yaml:"boot_size_mb"`
	Layout                string `yaml:"layout"`
	ExtraPartitionSizesMB []int  `yaml:"extra_partition_sizes_mb"`
}

// VirtualDiskPreset represents the YAML structure for virtual disk parameters.
type VirtualDiskPreset struct {
	SizeMB   int    `yaml:"size_mb"`
	Filename string `yaml:"filename"`
	Layout   string `yaml:"layout"`
}

// FeaturesPreset represents the YAML structure for the feature toggles.
type FeaturesPreset struct {
	InstallDotNet35      bool   `yaml:"install_dotnet35"`
	BlockLocalDisks      bool   `yaml:"block_local_disks"`
	DisableRecoveryEnv   bool   `yaml:"disable_recovery_env"`
	SkipOOBE             bool   `yaml:"skip_oobe"`
	DisableUASP          bool   `yaml:"disable_uasp"`
	EnableBitlocker      bool   `yaml:"enable_bitlocker"`
	FixDriveLetter       bool   `yaml:"fix_drive_letter"`
	NoDefaultDriveLetter bool   `yaml:"no_default_drive_letter"`
	CompactOS            bool   `yaml:"compact_os"`
	WIMBoot              bool   `yaml:"wimboot"`
	NTFSUEFISupport      bool   `yaml:"ntfs_uefi_support"`
	DoNotFormat          bool   `yaml:"do_not_format"`
	Repartition          bool   `yaml:"repartition"`
	DriverPath           string `yaml:"driver_path"`
}

func (p WritePreset) toModel() model.WriteOptions {
	opts := model.WriteOptions{
		SourcePath: p.Source,
		BootMode:   model.BootMode(p.BootMode),
		ApplyMode:  model.ApplyMode(p.ApplyMode),
		Partition: model.PartitionConfig{
			BootSizeMB:            p.Partition.BootSizeMB,
			Layout:                model.PartitionLayout(p.Partition.Layout),
			ExtraPartitionSizesMB: p.Partition.ExtraPartitionSizesMB,
		},
		Features: model.ExtraFeatures{
			InstallDotNet35:      p.Features.InstallDotNet35,
			BlockLocalDisks:      p.Features.BlockLocalDisks,
			DisableRecoveryEnv:   p.Features.DisableRecoveryEnv,
			SkipOOBE:             p.Features.SkipOOBE,
			DisableUASP:          p.Features.DisableUASP,
			EnableBitlocker:      p.Features.EnableBitlocker,
			FixDriveLetter:       p.Features.FixDriveLetter,
			NoDefaultDriveLetter: p.Features.NoDefaultDriveLetter,
			CompactOS:            p.Features.CompactOS,
			WIMBoot:              p.Features.WIMBoot,
			NTFSUEFISupport:      p.Features.NTFSUEFISupport,
			DoNotFormat:          p.Features.DoNotFormat,
			Repartition:          p.Features.Repartition,
			DriverPath:           p.Features.DriverPath,
		},
		EFIPartitionMB: p.EFIPartitionMB,
		ImageIndex:     p.ImageIndex,
	}

	if p.VirtualDisk != nil {
		opts.VirtualDisk = &model.VirtualDiskConfig{
			SizeMB:   p.VirtualDisk.SizeMB,
			Filename: p.VirtualDisk.Filename,
			Layout:   model.PartitionLayout(p.VirtualDisk.Layout),
		}
	}

	return opts
}
