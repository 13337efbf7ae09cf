package main

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSpec = filepath.Join("bindgen", "testdata", "bindgen.toml")

func TestRootCommandDefaults(t *testing.T) {
	flags := newRootCommand().Flags()

	for name, want := range map[string]string{
		"output":       "bindings.rs",
		"target":       "x86_64-unknown-none",
		"build-output": "bindings.a",
		"type":         "staticlib",
		"no-build":     "false",
		"no-format":    "false",
		"verbose":      "false",
	} {
		f := flags.Lookup(name)
		require.NotNil(t, f, name)
		assert.Equal(t, want, f.DefValue, name)
	}

	for short, long := range map[string]string{"o": "output", "O": "build-output", "c": "no-build", "g": "no-format", "v": "verbose"} {
		f := flags.ShorthandLookup(short)
		require.NotNil(t, f, short)
		assert.Equal(t, long, f.Name)
	}
}

func TestRunGenerateOnly(t *testing.T) {
	out := filepath.Join(t.TempDir(), "bindings.rs")
	opts := &options{Output: out, NoBuild: true, NoFormat: true}

	err := run(context.Background(), hclog.NewNullLogger(), &bytes.Buffer{}, testSpec, opts)
	require.NoError(t, err)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	want, err := os.ReadFile(filepath.Join("bindgen", "testdata", "bindings.rs"))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
}

func TestRunHeader(t *testing.T) {
	out := filepath.Join(t.TempDir(), "bindings.rs")
	opts := &options{Output: out, NoBuild: true, NoFormat: true, Header: true}

	require.NoError(t, run(context.Background(), hclog.NewNullLogger(), &bytes.Buffer{}, testSpec, opts))

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(got), "//! Bindgen Version: "+version+"\n")
	assert.Contains(t, string(got), "//! interrupt_number = 0x80\n")

	src, err := os.ReadFile(testSpec)
	require.NoError(t, err)
	var quoted strings.Builder
	for _, line := range strings.Split(strings.TrimRight(string(src), "\n"), "\n") {
		if line == "" {
			quoted.WriteString("//!\n")
			continue
		}
		quoted.WriteString("//! " + line + "\n")
	}
	assert.Contains(t, string(got), "//! Bindgen Spec:\n"+quoted.String()+"#![no_std]\n")
}

func TestExecuteReportsCommandErrors(t *testing.T) {
	tests := map[string][]string{
		"no spec":      {},
		"too many":     {"a.toml", "b.toml"},
		"unknown flag": {"--bogus", "x.toml"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			var stderr bytes.Buffer
			cmd := newRootCommand()
			cmd.SetArgs(args)
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&stderr)

			err := execute(context.Background(), cmd)
			require.Error(t, err)
			assert.Contains(t, stderr.String(), "bindgen failed")
			assert.Contains(t, stderr.String(), err.Error())
		})
	}
}

func TestExecuteReportsRunErrorOnce(t *testing.T) {
	var stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetArgs([]string{"-c", "-g", "-o", filepath.Join(t.TempDir(), "out.rs"), "does-not-exist.toml"})
	cmd.SetErr(&stderr)

	require.Error(t, execute(context.Background(), cmd))
	assert.Equal(t, 1, strings.Count(stderr.String(), "bindgen failed"))
}

func TestRunDump(t *testing.T) {
	out := filepath.Join(t.TempDir(), "bindings.rs")
	var stdout bytes.Buffer
	opts := &options{Output: out, Dump: true}

	require.NoError(t, run(context.Background(), hclog.NewNullLogger(), &stdout, testSpec, opts))
	assert.Contains(t, stdout.String(), "max_function")
	assert.NoFileExists(t, out)
}

func TestRunMissingSpec(t *testing.T) {
	opts := &options{Output: filepath.Join(t.TempDir(), "bindings.rs"), NoBuild: true, NoFormat: true}
	err := run(context.Background(), hclog.NewNullLogger(), &bytes.Buffer{}, "does-not-exist.toml", opts)
	assert.Error(t, err)
}

func TestRunVerboseLogsBindings(t *testing.T) {
	var stderr bytes.Buffer
	logger := newLogger(&stderr, true)
	opts := &options{Output: filepath.Join(t.TempDir(), "bindings.rs"), NoBuild: true, NoFormat: true}

	require.NoError(t, run(context.Background(), logger, &bytes.Buffer{}, testSpec, opts))
	assert.Contains(t, stderr.String(), "BINDGEN | PRINT:")
	assert.Contains(t, stderr.String(), "BINDGEN | MAX_FUNCTION:")
	assert.Contains(t, stderr.String(), "loaded spec")
}

func TestBuildOptionsArgs(t *testing.T) {
	opts := buildOptions{
		Source:    "bindings.rs",
		Output:    "bindings.a",
		Target:    "x86_64-unknown-none",
		CrateType: "staticlib",
	}
	assert.Equal(t, []string{
		"--crate-type", "staticlib",
		"--edition", "2021",
		"--target", "x86_64-unknown-none",
		"-C", "panic=abort",
		"-o", "bindings.a",
		"bindings.rs",
	}, opts.args())
}

func TestToolchainEnvOverrides(t *testing.T) {
	// Read the environment once before overriding it, as an earlier run
	// in the same process would.
	t.Setenv("RUSTC", "/usr/local/bin/rustc")
	tc := newToolchain(hclog.NewNullLogger())
	assert.Equal(t, "/usr/local/bin/rustc", tc.rustc)

	t.Setenv("RUSTC", "/opt/rust/bin/rustc")
	t.Setenv("RUSTFMT", "/opt/rust/bin/rustfmt")

	tc = newToolchain(hclog.NewNullLogger())
	assert.Equal(t, "/opt/rust/bin/rustc", tc.rustc)
	assert.Equal(t, "/opt/rust/bin/rustfmt", tc.rustfmt)
}

func TestToolchainExitStatus(t *testing.T) {
	truePath, err := exec.LookPath("true")
	if err != nil {
		t.Skip("no true executable available")
	}
	falsePath, err := exec.LookPath("false")
	if err != nil {
		t.Skip("no false executable available")
	}

	tc := &toolchain{rustc: falsePath, rustfmt: truePath, logger: hclog.NewNullLogger()}
	ctx := context.Background()

	assert.NoError(t, tc.Format(ctx, "bindings.rs"))

	err = tc.Build(ctx, buildOptions{Source: "bindings.rs", Output: "bindings.a"})
	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Contains(t, err.Error(), "failed to build bindings.a")
}
