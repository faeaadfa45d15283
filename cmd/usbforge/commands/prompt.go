package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/usbforge/usbforge/internal/model"
)

// terminalPrompter implements safety.Prompter over the process terminal. The
// destructive confirmation requires typing the literal word yes; everything
// else is a plain y/N question.
type terminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newTerminalPrompter(in io.Reader, out io.Writer) *terminalPrompter {
	return &terminalPrompter{
		in:  bufio.NewReader(in),
		out: out,
	}
}

func (t *terminalPrompter) ConfirmRemount(ctx context.Context, check model.WritableCheck) (bool, error) {
	fmt.Fprintf(t.out, "Target is mounted read-only at %s", check.MountPoint)
	if check.Reason != "" {
		fmt.Fprintf(t.out, " (%s)", check.Reason)
	}
	fmt.Fprintln(t.out)
	fmt.Fprint(t.out, "Remount read-write and retry? [y/N]: ")

	answer, err := t.readLine(ctx)
	if err != nil {
		return false, err
	}

	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

func (t *terminalPrompter) ConfirmDestructive(ctx context.Context, desc model.WriteDescriptor) (bool, error) {
	fmt.Fprintf(t.out, "ALL DATA on %s (%s) will be erased.\n", desc.Target.Name, desc.Target.Device)
	fmt.Fprintf(t.out, "Source: %s (%s, %s boot)\n", desc.SourcePath, desc.ApplyMode, desc.BootMode)
	fmt.Fprint(t.out, "Type 'yes' to continue: ")

	answer, err := t.readLine(ctx)
	if err != nil {
		return false, err
	}

	return strings.ToLower(answer) == "yes", nil
}

func (t *terminalPrompter) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("could not read answer: %w", err)
	}

	return strings.TrimSpace(line), nil
}
