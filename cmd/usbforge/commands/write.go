package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"k8s.io/client-go/util/homedir"

	"github.com/usbforge/usbforge/internal/app/devices"
	appwrite "github.com/usbforge/usbforge/internal/app/write"
	"github.com/usbforge/usbforge/internal/conventions"
	"github.com/usbforge/usbforge/internal/model"
	"github.com/usbforge/usbforge/internal/orchestrator"
	"github.com/usbforge/usbforge/internal/safety"
	storageio "github.com/usbforge/usbforge/internal/storage/io"
	"github.com/usbforge/usbforge/internal/storage/sqlite"
)

type WriteCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	// Required flags.
	target string

	// Source selection (one of --source / --preset).
	source string
	preset string

	// Descriptor flags.
	bootMode   string
	applyMode  string
	layout     string
	bootSizeMB int
	efiSizeMB  int
	imageIndex int

	vdSizeMB   int
	vdFilename string

	// Feature toggles.
	compactOS       bool
	skipOOBE        bool
	wimBoot         bool
	bitlocker       bool
	dotNet35        bool
	blockLocalDisks bool
	disableWinRE    bool
	disableUASP     bool
	ntfsUEFI        bool
	doNotFormat     bool
	repartition     bool
	driverPath      string
}

// NewWriteCommand returns the write command.
func NewWriteCommand(rootCmd *RootCommand, app *kingpin.Application) *WriteCommand {
	c := &WriteCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("write", "Deploy a system image onto a target device.")

	c.Cmd.Flag("target", "Target device id (see 'usbforge devices').").Short('t').Required().StringVar(&c.target)
	c.Cmd.Flag("source", "Path to the source image (wim, esd, iso, vhd, vhdx).").Short('s').StringVar(&c.source)
	c.Cmd.Flag("preset", "YAML preset with write options: a path, or a bare name stored in the data directory.").StringVar(&c.preset)

	c.Cmd.Flag("boot-mode", "Boot mode.").EnumVar(&c.bootMode, "uefi-gpt", "uefi-mbr", "legacy")
	c.Cmd.Flag("apply-mode", "Apply mode.").EnumVar(&c.applyMode, "direct", "virtual-disk-fixed", "virtual-disk-dynamic")
	c.Cmd.Flag("layout", "Partition table layout.").EnumVar(&c.layout, "mbr", "gpt")
	c.Cmd.Flag("boot-size", "Boot partition size in MB.").IntVar(&c.bootSizeMB)
	c.Cmd.Flag("efi-size", "EFI partition size in MB.").IntVar(&c.efiSizeMB)
	c.Cmd.Flag("image-index", "Image index inside the source (0 means auto).").IntVar(&c.imageIndex)

	c.Cmd.Flag("vd-size", "Virtual disk container size in MB (0 means auto).").IntVar(&c.vdSizeMB)
	c.Cmd.Flag("vd-filename", "Virtual disk container filename.").StringVar(&c.vdFilename)

	c.Cmd.Flag("compact-os", "Enable Compact OS.").BoolVar(&c.compactOS)
	c.Cmd.Flag("skip-oobe", "Skip the out-of-box experience.").BoolVar(&c.skipOOBE)
	c.Cmd.Flag("wimboot", "Enable WIM boot.").BoolVar(&c.wimBoot)
	c.Cmd.Flag("bitlocker", "Enable Bitlocker support.").BoolVar(&c.bitlocker)
	c.Cmd.Flag("dotnet35", "Install .NET Framework 3.5.").BoolVar(&c.dotNet35)
	c.Cmd.Flag("block-local-disks", "Block access to local disks from the deployed system.").BoolVar(&c.blockLocalDisks)
	c.Cmd.Flag("disable-winre", "Disable the recovery environment.").BoolVar(&c.disableWinRE)
	c.Cmd.Flag("disable-uasp", "Disable UASP.").BoolVar(&c.disableUASP)
	c.Cmd.Flag("ntfs-uefi", "Enable NTFS UEFI support.").BoolVar(&c.ntfsUEFI)
	c.Cmd.Flag("no-format", "Do not format the target.").BoolVar(&c.doNotFormat)
	c.Cmd.Flag("repartition", "Repartition the target.").BoolVar(&c.repartition)
	c.Cmd.Flag("driver-path", "Path to extra drivers to inject.").StringVar(&c.driverPath)

	return c
}

func (c WriteCommand) Name() string { return c.Cmd.FullCommand() }

func (c WriteCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	opts, err := c.buildOptions(ctx)
	if err != nil {
		return err
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
	opts.Target = *target

	// Initialize storage (SQLite).
	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.rootCmd.DBPath,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}
	defer repo.Close()

	gate, err := safety.NewGate(safety.GateConfig{
		Preflight: safety.NewPreflightProvider(client),
		Prompter:  newTerminalPrompter(c.rootCmd.Stdin, c.rootCmd.Stderr),
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("could not create safety gate: %w", err)
	}

	svc, err := appwrite.NewService(appwrite.ServiceConfig{
		Backend:    client,
		Authorizer: gate,
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	view, err := svc.Run(ctx, appwrite.Request{
		Options:  opts,
		OnUpdate: c.renderProgress,
	})
	if err != nil {
		return fmt.Errorf("write failed: %w", err)
	}

	switch view.Status {
	case model.TaskStatusCompleted:
		fmt.Fprintf(c.rootCmd.Stdout, "Write completed on %s\n", opts.Target.Name)
	case model.TaskStatusCancelled:
		fmt.Fprintf(c.rootCmd.Stdout, "Write cancelled: %s\n", view.Message)
	default:
		return fmt.Errorf("write ended in %s: %s", view.Status, view.Message)
	}

	return nil
}

// buildOptions merges the YAML preset (when given) with the command flags,
// flags winning.
func (c WriteCommand) buildOptions(ctx context.Context) (model.WriteOptions, error) {
	var opts model.WriteOptions

	if c.preset != "" {
		abs, err := filepath.Abs(presetPath(c.preset))
		if err != nil {
			return opts, fmt.Errorf("invalid preset path: %w", err)
		}

		presets := storageio.NewPresetYAMLRepository(os.DirFS(filepath.Dir(abs)))
		opts, err = presets.GetWriteOptions(ctx, filepath.Base(abs))
		if err != nil {
			return opts, fmt.Errorf("could not load preset: %w", err)
		}
	}

	if c.source != "" {
		opts.SourcePath = c.source
	}
	if c.bootMode != "" {
		opts.BootMode = model.BootMode(c.bootMode)
	}
	if c.applyMode != "" {
		opts.ApplyMode = model.ApplyMode(c.applyMode)
	}
	if c.layout != "" {
		opts.Partition.Layout = model.PartitionLayout(c.layout)
	}
	if c.bootSizeMB != 0 {
		opts.Partition.BootSizeMB = c.bootSizeMB
	}
	if c.efiSizeMB != 0 {
		opts.EFIPartitionMB = c.efiSizeMB
	}
	if c.imageIndex != 0 {
		opts.ImageIndex = c.imageIndex
	}

	if c.vdSizeMB != 0 || c.vdFilename != "" {
		if opts.VirtualDisk == nil {
			opts.VirtualDisk = &model.VirtualDiskConfig{}
		}
		if c.vdSizeMB != 0 {
			opts.VirtualDisk.SizeMB = c.vdSizeMB
		}
		if c.vdFilename != "" {
			opts.VirtualDisk.Filename = c.vdFilename
		}
	}

	c.applyFeatureFlags(&opts.Features)

	return opts, nil
}

// presetPath resolves the --preset flag value. A bare name without separator
// or extension refers to a saved preset in the data directory; anything else
// is used as a file path verbatim.
func presetPath(value string) string {
	if strings.ContainsRune(value, filepath.Separator) || filepath.Ext(value) != "" {
		return value
	}

	dataDir := filepath.Join(homedir.HomeDir(), conventions.DefaultDataDir)
	return conventions.PresetPath(dataDir, value+".yaml")
}

// applyFeatureFlags sets the toggles the operator enabled on the command
// line. Flags only ever enable: a preset toggle cannot be switched off from
// the command line.
func (c WriteCommand) applyFeatureFlags(f *model.ExtraFeatures) {
	f.CompactOS = f.CompactOS || c.compactOS
	f.SkipOOBE = f.SkipOOBE || c.skipOOBE
	f.WIMBoot = f.WIMBoot || c.wimBoot
	f.EnableBitlocker = f.EnableBitlocker || c.bitlocker
	f.InstallDotNet35 = f.InstallDotNet35 || c.dotNet35
	f.BlockLocalDisks = f.BlockLocalDisks || c.blockLocalDisks
	f.DisableRecoveryEnv = f.DisableRecoveryEnv || c.disableWinRE
	f.DisableUASP = f.DisableUASP || c.disableUASP
	f.NTFSUEFISupport = f.NTFSUEFISupport || c.ntfsUEFI
	f.DoNotFormat = f.DoNotFormat || c.doNotFormat
	f.Repartition = f.Repartition || c.repartition
	if c.driverPath != "" {
		f.DriverPath = c.driverPath
	}
}

func (c WriteCommand) renderProgress(view orchestrator.View) {
	if view.Status.IsTerminal() || view.Status == model.TaskStatusIdle {
		return
	}

	line := fmt.Sprintf("[%5.1f%%] %s", view.Progress, view.Status)
	if view.Message != "" {
		line += ": " + view.Message
	}
	if view.SpeedMBps > 0 {
		line += fmt.Sprintf(" (%.1f MB/s)", view.SpeedMBps)
	}
	fmt.Fprintln(c.rootCmd.Stdout, line)
}
