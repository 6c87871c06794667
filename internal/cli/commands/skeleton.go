package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/metamodel/internal/cli/ui"
	"github.com/conduit-lang/metamodel/internal/petrinet"
)

func newSkeletonCommand(e *env) *cobra.Command {
	var output, schemaPath string

	cmd := &cobra.Command{
		Use:   "skeleton INSTANCE",
		Short: "Copy a Petri net without its interface places and transitions",
		Long: `Copy a Petri net, leaving out interface places, interface transitions
and every arc touching them. The copy is printed in canonical form.

Examples:
  metamodel skeleton net.m1
  metamodel skeleton net.m1 -o core.m1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			noColor := e.cfg.Output.NoColor
			l := e.loader()

			reg, err := builtinSchema(e, schemaPath, petrinet.Schema)
			if err != nil {
				ui.WriteDiagnostics(cmd.ErrOrStderr(), withSuggestions(err, nil), noColor)
				return errReported
			}
			src, err := l.LoadInstance(args[0], reg)
			if err != nil {
				ui.WriteDiagnostics(cmd.ErrOrStderr(), withSuggestions(err, reg), noColor)
				return errReported
			}

			core, err := petrinet.Skeleton(src,
				petrinet.WithLogger(e.logger),
				petrinet.WithIdentifierPrefix(e.cfg.Serialize.IdentifierPrefix))
			if err != nil {
				return fmt.Errorf("skeleton: %w", err)
			}
			e.logger.Info("skeleton built",
				zap.String("source", args[0]),
				zap.Int("dropped", src.Len()-core.Len()))

			if output != "" {
				if err := l.WriteInstance(output, core); err != nil {
					ui.WriteDiagnostics(cmd.ErrOrStderr(), withSuggestions(err, nil), noColor)
					return errReported
				}
				ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("wrote %s (%d elements)", output, core.Len()), noColor)
				return nil
			}

			text, err := core.Format()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), text)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the copy to a file instead of stdout")
	cmd.Flags().StringVar(&schemaPath, "schema", "", "Petri net schema to load instead of the built-in one")

	return cmd
}
