package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/davecgh/go-spew/spew"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"interrupt-bindgen/bindgen"
)

var version = "0.1.0"

type options struct {
	Output      string
	Target      string
	BuildOutput string
	BuildType   string
	NoBuild     bool
	NoFormat    bool
	Verbose     bool
	Header      bool
	Dump        bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := execute(ctx, newRootCommand())
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// execute runs the command and reports any error it returns, including the
// argument and flag errors cobra raises before RunE is reached.
func execute(ctx context.Context, cmd *cobra.Command) error {
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		newLogger(cmd.ErrOrStderr(), false).Error("bindgen failed", "error", err)
	}
	return err
}

func newRootCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "interrupt-bindgen spec",
		Short: "Generates Rust bindings for interrupt-dispatched kernel calls",
		Long: `Interrupt-bindgen reads a specification of functions that are called by
raising a software interrupt, with a function selector in one register and
arguments in others, and generates a no_std Rust source file containing one
extern "C" function per binding. Unless told otherwise it then formats the
file with rustfmt and compiles it with rustc.

The specification is a TOML file (or YAML, if its name ends in .yaml or
.yml) with the fields interrupt_number, function_sig (optional),
function_register and a list of bindings, each having a name, offset, ret
and a list of args with name, reg and ty.
`,
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)
			return run(cmd.Context(), logger, cmd.OutOrStdout(), args[0], &opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.Output, "output", "o", "bindings.rs", "The output file to use.")
	flags.StringVar(&opts.Target, "target", "x86_64-unknown-none", "The target triple to use.")
	flags.StringVarP(&opts.BuildOutput, "build-output", "O", "bindings.a", "The name of the output file to build.")
	flags.StringVar(&opts.BuildType, "type", "staticlib", "The type of the output file to build.")
	flags.BoolVarP(&opts.NoBuild, "no-build", "c", false, "Only generate the output file, don't build it.")
	flags.BoolVarP(&opts.NoFormat, "no-format", "g", false, "Don't format the output file.")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "Print verbose output.")
	flags.BoolVar(&opts.Header, "header", false, "Begin the output file with a comment quoting the spec.")
	flags.BoolVar(&opts.Dump, "dump", false, "Print the parsed spec and exit without generating anything.")

	return cmd
}

func newLogger(w io.Writer, verbose bool) hclog.Logger {
	level := hclog.Info
	if verbose {
		level = hclog.Debug
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:        bindgen.LogName,
		Level:       level,
		Output:      w,
		DisableTime: true,
	})
}

func run(ctx context.Context, logger hclog.Logger, stdout io.Writer, specFile string, opts *options) error {
	logger.Debug("loading spec file", "path", specFile)
	spec, src, err := bindgen.LoadSource(specFile)
	if err != nil {
		return err
	}

	if opts.Dump {
		spew.Fdump(stdout, spec)
		return nil
	}
	if logger.IsDebug() {
		logger.Debug("loaded spec", "spec", spew.Sdump(spec))
	}

	code := bindgen.GenerateFile(logger, spec, bindgen.FileOptions{
		Header:  opts.Header,
		Version: version,
		Source:  src,
	})

	logger.Info("writing output file", "path", opts.Output)
	if err := os.WriteFile(opts.Output, []byte(code), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	tc := newToolchain(logger)

	if !opts.NoFormat {
		logger.Info("formatting output file", "path", opts.Output)
		if err := tc.Format(ctx, opts.Output); err != nil {
			return err
		}
	}

	if !opts.NoBuild {
		logger.Info("building output file", "path", opts.BuildOutput, "target", opts.Target)
		err := tc.Build(ctx, buildOptions{
			Source:    opts.Output,
			Output:    opts.BuildOutput,
			Target:    opts.Target,
			CrateType: opts.BuildType,
		})
		if err != nil {
			return err
		}
		logger.Info("bindgen complete", "library", opts.BuildOutput, "output", opts.Output)
		return nil
	}

	logger.Info("bindgen complete", "output", opts.Output)
	return nil
}
