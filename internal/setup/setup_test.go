// Copyright (c) 2026 Pelagios
// Driftwatch - NOAA BuoyCAM gallery builder
// This source code is licensed under the MIT license found in the LICENSE file.

package setup

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	calls   []call
	failAt  int // 1-based step index to fail at; 0 never fails
	failErr error
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) error {
	f.calls = append(f.calls, call{name: name, args: args})
	if f.failAt != 0 && len(f.calls) == f.failAt {
		return f.failErr
	}
	return nil
}

func TestRunExecutesSetupSequence(t *testing.T) {
	runner := &fakeRunner{}
	var out strings.Builder
	b := &Bootstrap{Runner: runner, Out: &out}

	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []call{
		{"python3", []string{"-m", "venv", "venv"}},
		{"venv/bin/pip", []string{"install", "--upgrade", "pip"}},
		{"venv/bin/pip", []string{"install", "requests", "Pillow", "numpy", "opencv-python", "opencv-contrib-python"}},
	}
	if len(runner.calls) != len(want) {
		t.Fatalf("ran %d commands, want %d: %v", len(runner.calls), len(want), runner.calls)
	}
	for i, w := range want {
		got := runner.calls[i]
		if got.name != w.name {
			t.Errorf("step %d command = %q, want %q", i+1, got.name, w.name)
		}
		if strings.Join(got.args, " ") != strings.Join(w.args, " ") {
			t.Errorf("step %d args = %v, want %v", i+1, got.args, w.args)
		}
	}

	if got := out.String(); got != "Setup complete. Activate with: source venv/bin/activate\n" {
		t.Errorf("completion output = %q", got)
	}
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	boom := errors.New("python3: command not found")
	runner := &fakeRunner{failAt: 1, failErr: boom}
	var out strings.Builder
	b := &Bootstrap{Runner: runner, Out: &out}

	err := b.Run(context.Background())
	if err != boom {
		t.Errorf("Run = %v, want the runner error unmodified", err)
	}
	if len(runner.calls) != 1 {
		t.Errorf("ran %d commands after failure, want 1", len(runner.calls))
	}
	if out.Len() != 0 {
		t.Errorf("completion message printed despite failure: %q", out.String())
	}
}

func TestRunFailureMidSequence(t *testing.T) {
	boom := errors.New("no matching distribution")
	runner := &fakeRunner{failAt: 3, failErr: boom}
	b := &Bootstrap{Runner: runner, Out: &strings.Builder{}}

	if err := b.Run(context.Background()); err != boom {
		t.Errorf("Run = %v, want the pip error unmodified", err)
	}
	if len(runner.calls) != 3 {
		t.Errorf("ran %d commands, want 3", len(runner.calls))
	}
}
