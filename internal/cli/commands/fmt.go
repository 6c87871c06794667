package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/metamodel/internal/cli/ui"
	"github.com/conduit-lang/metamodel/internal/format"
	"github.com/conduit-lang/metamodel/internal/loader"
)

type fmtOptions struct {
	write bool
	check bool
}

func newFmtCommand(e *env) *cobra.Command {
	var opts fmtOptions

	cmd := &cobra.Command{
		Use:   "fmt SCHEMA [INSTANCE]",
		Short: "Rewrite a schema or an instance in canonical form",
		Long: `Rewrite a description in canonical form.

With one argument the schema itself is formatted. With two, the instance
is loaded against the schema and serialized again: shared elements get
generated names, singly referenced ones are inlined.

By default, shows a diff preview of what would change without modifying files.
Use --write to apply formatting changes, or --check to verify formatting.

Examples:
  metamodel fmt petrinet.m2
  metamodel fmt petrinet.m2 net.m1 --write
  metamodel fmt petrinet.m2 net.m1 --check`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFmt(cmd, e, args, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.write, "write", "w", false, "Write formatted output to the file")
	cmd.Flags().BoolVarP(&opts.check, "check", "c", false, "Check if the file is formatted (exit 1 if not)")

	return cmd
}

func runFmt(cmd *cobra.Command, e *env, args []string, opts fmtOptions) error {
	if opts.write && opts.check {
		return fmt.Errorf("--write and --check can not be combined")
	}

	noColor := e.cfg.Output.NoColor
	l := e.loader()
	formatter := format.New(l)

	file := args[0]
	var diff *format.DiffResult
	var err error
	if len(args) == 1 {
		diff, err = formatter.SchemaFile(file)
	} else {
		reg, serr := l.LoadSchema(args[0])
		if serr != nil {
			ui.WriteDiagnostics(cmd.ErrOrStderr(), withSuggestions(serr, nil), noColor)
			return errReported
		}
		file = args[1]
		diff, err = formatter.InstanceFile(file, reg)
		if err != nil {
			ui.WriteDiagnostics(cmd.ErrOrStderr(), withSuggestions(err, reg), noColor)
			return errReported
		}
	}
	if err != nil {
		ui.WriteDiagnostics(cmd.ErrOrStderr(), withSuggestions(err, nil), noColor)
		return errReported
	}

	out := cmd.OutOrStdout()
	titleColor := color.New(color.FgCyan, color.Bold)

	switch {
	case !diff.Changed:
		if !opts.check {
			ui.WriteSuccess(out, file+" (no changes)", noColor)
		}
		return nil
	case opts.check:
		ui.WriteWarning(cmd.ErrOrStderr(), file+" needs formatting", noColor)
		return errReported
	case file == loader.Stdin:
		// Nothing to write back to
		fmt.Fprint(out, diff.Formatted)
		return nil
	case opts.write:
		if err := os.WriteFile(file, []byte(diff.Formatted), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", file, err)
		}
		ui.WriteSuccess(out, file+" formatted", noColor)
		return nil
	}

	titleColor.Fprintf(out, "=== %s ===\n", file)
	if noColor {
		fmt.Fprint(out, diff.UnifiedDiff(file))
	} else {
		fmt.Fprint(out, diff.String())
	}
	fmt.Fprintf(out, "\n%s\n", diff.Stats())
	titleColor.Fprintln(out, "Run 'metamodel fmt --write' to apply changes")
	return nil
}
