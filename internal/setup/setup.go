// Copyright (c) 2026 Pelagios
// Driftwatch - NOAA BuoyCAM gallery builder
// This source code is licensed under the MIT license found in the LICENSE file.

// package setup bootstraps the legacy Python analysis environment that some
// operators still run alongside the native pipeline.
package setup

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// venvDir is the virtual environment directory, created in the current
// working directory.
const venvDir = "venv"

// venvPip is the pip binary inside the virtual environment.
const venvPip = venvDir + "/bin/pip"

// completionMessage is printed once all steps succeed.
const completionMessage = "Setup complete. Activate with: source venv/bin/activate"

// legacyPackages are the imaging dependencies of the legacy scripts.
var legacyPackages = []string{
	"requests",
	"Pillow",
	"numpy",
	"opencv-python",
	"opencv-contrib-python",
}

// Runner executes one external command and reports its error, if any.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs commands through os/exec with output streamed through.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	return cmd.Run()
}

// Bootstrap creates the Python virtual environment and installs the legacy
// package set into it.
type Bootstrap struct {
	Runner Runner
	Out    io.Writer
}

// New returns a Bootstrap running real commands and printing to stdout.
func New() *Bootstrap {
	return &Bootstrap{Runner: ExecRunner{}, Out: os.Stdout}
}

// Run executes the setup sequence: create the venv, upgrade pip inside it,
// install the legacy packages, then print the completion message. The first
// failing step aborts the run and its error is returned as the tool
// reported it.
func (b *Bootstrap) Run(ctx context.Context) error {
	steps := [][]string{
		{"python3", "-m", "venv", venvDir},
		{venvPip, "install", "--upgrade", "pip"},
		append([]string{venvPip, "install"}, legacyPackages...),
	}

	for _, step := range steps {
		if err := b.Runner.Run(ctx, step[0], step[1:]...); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintln(b.out(), completionMessage)
	return err
}

func (b *Bootstrap) out() io.Writer {
	if b.Out != nil {
		return b.Out
	}
	return os.Stdout
}
