package generator

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/styleguide-tools/stylepub/internal/logfields"
)

// External invokes a third-party literate-documentation binary (docco by
// default) as a black box: a layout/style selector and the Content Document
// path in, a directory of rendered files out.
type External struct {
	command string
	style   string
}

// NewExternal creates a renderer backed by the named binary.
func NewExternal(command, style string) *External {
	return &External{command: command, style: style}
}

// Render runs the generator. The tool's own exit status decides success;
// captured output is folded into the returned error for diagnostics.
func (e *External) Render(ctx context.Context, source, outputDir string) error {
	if _, err := exec.LookPath(e.command); err != nil {
		return fmt.Errorf("generator binary %q not found on PATH: %w", e.command, err)
	}

	cmd := exec.CommandContext(ctx, e.command, "--layout", e.style, "--output", outputDir, source)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("Invoking documentation generator",
		slog.String("command", e.command),
		slog.String("style", e.style),
		logfields.Source(source),
		logfields.Output(outputDir))

	err := cmd.Run()

	outStr := stdout.String()
	errStr := stderr.String()
	if outStr != "" {
		slog.Debug("generator stdout", "output", outStr)
	}
	if errStr != "" {
		slog.Warn("generator stderr", "error_output", errStr)
	}

	if err != nil {
		// The generator may report errors on either stream.
		output := errStr
		if output == "" {
			output = outStr
		} else if outStr != "" {
			output = outStr + "\n" + errStr
		}
		if output != "" {
			return fmt.Errorf("generator %s failed: %w: %s", e.command, err, output)
		}
		return fmt.Errorf("generator %s failed: %w", e.command, err)
	}
	return nil
}
