package commands

import (
	"fmt"
	"os"

	"github.com/emicklei/dot"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/metamodel/internal/cli/ui"
	"github.com/conduit-lang/metamodel/internal/declare"
	"github.com/conduit-lang/metamodel/internal/export"
	"github.com/conduit-lang/metamodel/internal/loader"
	"github.com/conduit-lang/metamodel/internal/petrinet"
	"github.com/conduit-lang/metamodel/pkg/schema"
)

type dotOptions struct {
	output  string
	rankdir string
	schema  string
}

func newDotCommand(e *env) *cobra.Command {
	var opts dotOptions

	cmd := &cobra.Command{
		Use:   "dot",
		Short: "Export Graphviz diagrams",
		Long: `Export schemas and instance graphs in Graphviz dot format.

Examples:
  metamodel dot schema petrinet.m2 -o schema.dot
  metamodel dot instance petrinet.m2 net.m1 | dot -Tsvg > net.svg
  metamodel dot petrinet net.m1 --rankdir LR
  metamodel dot declare order.m1`,
	}

	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "", "Write the diagram to a file instead of stdout")
	cmd.PersistentFlags().StringVar(&opts.rankdir, "rankdir", "", "Layout direction: TB, LR, BT or RL (default from config)")

	cmd.AddCommand(&cobra.Command{
		Use:   "schema SCHEMA",
		Short: "Draw element types, inheritance and associations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := e.loader().LoadSchema(args[0])
			if err != nil {
				ui.WriteDiagnostics(cmd.ErrOrStderr(), withSuggestions(err, nil), e.cfg.Output.NoColor)
				return errReported
			}
			return writeDiagram(cmd, e, opts, export.SchemaDiagram(reg, diagramOptions(e, opts)...))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "instance SCHEMA INSTANCE",
		Short: "Draw the elements reachable from root",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			l := e.loader()
			reg, err := l.LoadSchema(args[0])
			if err != nil {
				ui.WriteDiagnostics(cmd.ErrOrStderr(), withSuggestions(err, nil), e.cfg.Output.NoColor)
				return errReported
			}
			g, err := l.LoadInstance(args[1], reg)
			if err != nil {
				ui.WriteDiagnostics(cmd.ErrOrStderr(), withSuggestions(err, reg), e.cfg.Output.NoColor)
				return errReported
			}
			diagram, err := export.InstanceDiagram(g, diagramOptions(e, opts)...)
			if err != nil {
				return err
			}
			return writeDiagram(cmd, e, opts, diagram)
		},
	})

	netCmd := &cobra.Command{
		Use:   "petrinet INSTANCE",
		Short: "Draw a Petri net with places as circles and transitions as boxes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l := e.loader()
			reg, err := builtinSchema(e, opts.schema, petrinet.Schema)
			if err != nil {
				ui.WriteDiagnostics(cmd.ErrOrStderr(), withSuggestions(err, nil), e.cfg.Output.NoColor)
				return errReported
			}
			g, err := l.LoadInstance(args[0], reg)
			if err != nil {
				ui.WriteDiagnostics(cmd.ErrOrStderr(), withSuggestions(err, reg), e.cfg.Output.NoColor)
				return errReported
			}
			diagram, err := export.PetriNetDiagram(g, diagramOptions(e, opts)...)
			if err != nil {
				return err
			}
			return writeDiagram(cmd, e, opts, diagram)
		},
	}
	netCmd.Flags().StringVar(&opts.schema, "schema", "", "Petri net schema to load instead of the built-in one")
	cmd.AddCommand(netCmd)

	declareCmd := &cobra.Command{
		Use:   "declare INSTANCE",
		Short: "Draw a Declare model with activities, constraints and choices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l := e.loader()
			reg, err := builtinSchema(e, opts.schema, declare.Schema)
			if err != nil {
				ui.WriteDiagnostics(cmd.ErrOrStderr(), withSuggestions(err, nil), e.cfg.Output.NoColor)
				return errReported
			}
			g, err := l.LoadInstance(args[0], reg)
			if err != nil {
				ui.WriteDiagnostics(cmd.ErrOrStderr(), withSuggestions(err, reg), e.cfg.Output.NoColor)
				return errReported
			}
			diagram, err := export.DeclareDiagram(g, diagramOptions(e, opts)...)
			if err != nil {
				return err
			}
			return writeDiagram(cmd, e, opts, diagram)
		},
	}
	declareCmd.Flags().StringVar(&opts.schema, "schema", "", "Declare schema to load instead of the built-in one")
	cmd.AddCommand(declareCmd)

	return cmd
}

// builtinSchema loads path, or the built-in schema when path is empty
func builtinSchema(e *env, path string, builtin func(...loader.Option) (*schema.Registry, error)) (*schema.Registry, error) {
	if path == "" {
		return builtin(loaderOptions(e)...)
	}
	return e.loader().LoadSchema(path)
}

func diagramOptions(e *env, opts dotOptions) []export.Option {
	rankdir := e.cfg.Export.RankDir
	if opts.rankdir != "" {
		rankdir = opts.rankdir
	}
	return []export.Option{export.WithRankDir(rankdir), export.WithLogger(e.logger)}
}

func writeDiagram(cmd *cobra.Command, e *env, opts dotOptions, g *dot.Graph) error {
	if opts.rankdir != "" && !validRankDir(opts.rankdir) {
		return fmt.Errorf("invalid rankdir %q: expected TB, LR, BT or RL", opts.rankdir)
	}
	text := g.String()
	if opts.output == "" {
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	}
	if err := os.WriteFile(opts.output, []byte(text+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", opts.output, err)
	}
	ui.WriteSuccess(cmd.OutOrStdout(), "wrote "+opts.output, e.cfg.Output.NoColor)
	return nil
}

func validRankDir(dir string) bool {
	switch dir {
	case "TB", "LR", "BT", "RL":
		return true
	}
	return false
}
