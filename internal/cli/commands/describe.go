package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/metamodel/internal/cli/ui"
	"github.com/conduit-lang/metamodel/pkg/schema"
)

func newDescribeCommand(e *env) *cobra.Command {
	var table bool

	cmd := &cobra.Command{
		Use:   "describe SCHEMA",
		Short: "List the element types of a schema",
		Long: `List every element type of a schema with its fields, inherited
fields included.

Examples:
  metamodel describe petrinet.m2
  metamodel describe petrinet.m2 --table`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := e.loader().LoadSchema(args[0])
			if err != nil {
				ui.WriteDiagnostics(cmd.ErrOrStderr(), withSuggestions(err, nil), e.cfg.Output.NoColor)
				return errReported
			}

			out := cmd.OutOrStdout()
			if !table {
				fmt.Fprintln(out, reg.Describe())
				return nil
			}

			for i, t := range reg.Elements() {
				if i > 0 {
					fmt.Fprintln(out)
				}
				ui.Header(out, typeTitle(t), e.cfg.Output.NoColor)
				tbl := ui.NewTable(out, e.cfg.Output.NoColor, "Field", "Kind", "Target", "Limit")
				for _, f := range t.Fields() {
					target, limit := "", ""
					if f.Target != nil {
						target = f.Target.Name()
					}
					if f.Limit > 0 {
						limit = strconv.Itoa(f.Limit)
					}
					kind := f.Kind.String()
					if f.IsReference() && f.Optional {
						kind += "?"
					}
					tbl.AddRow(f.Name, kind, target, limit)
				}
				tbl.Render()
				if subs := t.Subclasses(); len(subs) > 0 {
					names := make([]string, len(subs))
					for i, sub := range subs {
						names[i] = sub.Name()
					}
					fmt.Fprintf(out, "Subclasses: %s\n", strings.Join(names, ", "))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&table, "table", false, "Print one table per element type")

	return cmd
}

func typeTitle(t *schema.ElementType) string {
	title := t.Name()
	if t.Abstract() {
		title += " (abstract)"
	}
	if super := t.Extends(); super != nil {
		title += " extends " + super.Name()
	}
	return title
}
