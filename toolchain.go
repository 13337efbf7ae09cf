package main

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/hashicorp/go-hclog"
	"github.com/xyproto/env/v2"
)

// toolchain runs the external Rust tools over a generated file. The
// executables can be overridden with the RUSTC and RUSTFMT environment
// variables.
type toolchain struct {
	rustc   string
	rustfmt string
	logger  hclog.Logger
}

func newToolchain(logger hclog.Logger) *toolchain {
	// env caches the environment on first use, so pick up anything that
	// changed since.
	env.Load()
	return &toolchain{
		rustc:   env.Str("RUSTC", "rustc"),
		rustfmt: env.Str("RUSTFMT", "rustfmt"),
		logger:  logger,
	}
}

type buildOptions struct {
	Source    string
	Output    string
	Target    string
	CrateType string
}

func (o buildOptions) args() []string {
	return []string{
		"--crate-type", o.CrateType,
		"--edition", "2021",
		"--target", o.Target,
		// There is no unwinder on the targets we build for.
		"-C", "panic=abort",
		"-o", o.Output,
		o.Source,
	}
}

func (t *toolchain) Format(ctx context.Context, filename string) error {
	if err := t.run(ctx, t.rustfmt, filename); err != nil {
		return fmt.Errorf("failed to format %s: %w", filename, err)
	}
	return nil
}

func (t *toolchain) Build(ctx context.Context, opts buildOptions) error {
	if err := t.run(ctx, t.rustc, opts.args()...); err != nil {
		return fmt.Errorf("failed to build %s: %w", opts.Output, err)
	}
	return nil
}

func (t *toolchain) run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	out := t.logger.StandardWriter(&hclog.StandardLoggerOptions{InferLevels: true})
	cmd.Stdout = out
	cmd.Stderr = out

	t.logger.Debug("running external command", "cmd", cmd.String())
	return cmd.Run()
}
