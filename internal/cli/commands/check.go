package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cerrors "github.com/conduit-lang/metamodel/compiler/errors"
	"github.com/conduit-lang/metamodel/internal/cli/ui"
	"github.com/conduit-lang/metamodel/internal/loader"
	"github.com/conduit-lang/metamodel/internal/watch"
	"github.com/conduit-lang/metamodel/pkg/model"
	"github.com/conduit-lang/metamodel/pkg/schema"
)

// errReported signals a failure whose diagnostics were already printed
var errReported = errors.New("check failed")

type checkOptions struct {
	json  bool
	watch bool
}

func newCheckCommand(e *env) *cobra.Command {
	var opts checkOptions

	cmd := &cobra.Command{
		Use:   "check SCHEMA [INSTANCE]",
		Short: "Load and validate a schema and an instance",
		Long: `Load a schema (.m2) and optionally an instance (.m1) built against it.

Every element reachable from root is checked for unset required
references. Cycles of required references in the schema are reported
as warnings. Use "-" to read the instance from stdin.

Examples:
  metamodel check petrinet.m2
  metamodel check petrinet.m2 net.m1
  metamodel check petrinet.m2 net.m1 --json
  metamodel check petrinet.m2 net.m1 --watch`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			instance := ""
			if len(args) == 2 {
				instance = args[1]
			}
			if !opts.watch {
				return runCheck(cmd.OutOrStdout(), e, args[0], instance, opts)
			}
			return watchCheck(cmd, e, args[0], instance, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.json, "json", false, "Print diagnostics as JSON")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Check again whenever the files change")

	return cmd
}

// runCheck loads both files and prints the result
func runCheck(out io.Writer, e *env, schemaPath, instancePath string, opts checkOptions) error {
	noColor := e.cfg.Output.NoColor
	l := e.loader()

	var diags []ui.Diagnostic
	var notes []string

	reg, err := l.LoadSchema(schemaPath)
	if err != nil {
		diags = withSuggestions(err, nil)
	} else {
		notes = append(notes, fmt.Sprintf("%s: %d element types", schemaPath, reg.Count()))
	}

	var warnings []string
	if reg != nil {
		for _, c := range reg.RequiredCycles() {
			warnings = append(warnings, fmt.Sprintf("%s: required references form a cycle: %s", schemaPath, c))
		}
	}

	if reg != nil && instancePath != "" {
		g, err := l.LoadInstance(instancePath, reg)
		switch {
		case err != nil:
			diags = withSuggestions(err, reg)
		default:
			for _, d := range loader.Diagnose(instancePath, g.Validate()) {
				diags = append(diags, ui.Diagnostic{CompilerError: d})
			}
			if len(diags) == 0 {
				notes = append(notes, fmt.Sprintf("%s: %d elements", instancePath, g.Len()))
			}
		}
	}

	e.logger.Debug("check finished",
		zap.String("schema", schemaPath),
		zap.String("instance", instancePath),
		zap.Int("diagnostics", len(diags)),
		zap.Int("warnings", len(warnings)))

	if opts.json {
		list := make([]cerrors.CompilerError, len(diags))
		for i, d := range diags {
			list[i] = d.CompilerError
		}
		text, err := cerrors.FormatErrorsAsJSON(list)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, text)
		if len(diags) > 0 {
			return errReported
		}
		return nil
	}

	for _, w := range warnings {
		ui.WriteWarning(out, w, noColor)
	}
	if len(diags) > 0 {
		ui.WriteDiagnostics(out, diags, noColor)
		return errReported
	}
	for _, n := range notes {
		ui.WriteSuccess(out, n, noColor)
	}
	return nil
}

// watchCheck runs the check and repeats it on every change until interrupted
func watchCheck(cmd *cobra.Command, e *env, schemaPath, instancePath string, opts checkOptions) error {
	files := []string{schemaPath}
	if instancePath != "" {
		files = append(files, instancePath)
	}
	for _, f := range files {
		if f == loader.Stdin {
			return fmt.Errorf("--watch can not read from stdin")
		}
	}

	out := cmd.OutOrStdout()
	if err := runCheck(out, e, schemaPath, instancePath, opts); err != nil && err != errReported {
		return err
	}

	watcher, err := watch.NewFileWatcher(files, e.logger, func(changed []string) error {
		fmt.Fprintln(out)
		color.New(color.FgCyan).Fprintf(out, "Changed: %v\n", changed)
		if err := runCheck(out, e, schemaPath, instancePath, opts); err != nil && err != errReported {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		watcher.Stop()
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	color.New(color.FgYellow).Fprintln(out, "Watching for changes. Press Ctrl+C to stop")
	<-ctx.Done()

	return watcher.Stop()
}

// withSuggestions turns a load failure into diagnostics, adding spelling
// suggestions for unknown element types and fields
func withSuggestions(err error, reg *schema.Registry) []ui.Diagnostic {
	list := ui.Diagnostics(err)
	diags := make([]ui.Diagnostic, len(list))
	for i, d := range list {
		diags[i] = ui.Diagnostic{CompilerError: d}
	}
	if reg == nil || len(diags) != 1 {
		return diags
	}

	var se *schema.SchemaError
	if errors.As(err, &se) && errors.Is(se.Err, schema.ErrUnknownElement) {
		var names []string
		for _, t := range reg.Elements() {
			names = append(names, t.Name())
		}
		diags[0].Suggestions = ui.FindSimilar(se.Element, names)
		return diags
	}

	var ve *model.ValidationError
	if errors.As(err, &ve) && errors.Is(ve.Err, model.ErrUnknownField) {
		if t, ok := reg.Element(ve.Type); ok {
			var names []string
			for _, f := range t.Fields() {
				names = append(names, f.Name)
			}
			diags[0].Suggestions = ui.FindSimilar(ve.Field, names)
		}
	}
	return diags
}
