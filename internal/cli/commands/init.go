package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/metamodel/compiler/lexer"
	"github.com/conduit-lang/metamodel/internal/cli/config"
	"github.com/conduit-lang/metamodel/internal/cli/ui"
	"github.com/conduit-lang/metamodel/internal/petrinet"
)

// SampleFile is the instance written next to the Petri net schema
const SampleFile = "net.m1"

type initOptions struct {
	yes     bool
	force   bool
	sample  bool
	prefix  string
	rankdir string
}

func newInitCommand(e *env) *cobra.Command {
	opts := initOptions{sample: true}

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create metamodel.yaml and a sample Petri net",
		Long: `Create a metamodel.yaml configuration file in the given directory
(default: current directory), optionally with the Petri net schema and a
sample instance to start from.

Without --yes the settings are asked for interactively.

Examples:
  metamodel init
  metamodel init nets --yes --prefix n --rankdir LR`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runInit(cmd, e, dir, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Accept the flag values without prompting")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Overwrite an existing configuration")
	cmd.Flags().BoolVar(&opts.sample, "sample", true, "Write the Petri net schema and a sample instance")
	cmd.Flags().StringVar(&opts.prefix, "prefix", config.Default().Serialize.IdentifierPrefix, "Prefix of generated identifiers")
	cmd.Flags().StringVar(&opts.rankdir, "rankdir", config.Default().Export.RankDir, "Diagram layout direction")

	return cmd
}

func runInit(cmd *cobra.Command, e *env, dir string, opts initOptions) error {
	if config.Exists(dir) && !opts.force {
		return fmt.Errorf("%s already holds a %s config, use --force to overwrite", dir, config.FileName)
	}

	if !opts.yes {
		if err := askInit(&opts); err != nil {
			return err
		}
	}
	if err := validPrefix(opts.prefix); err != nil {
		return err
	}
	if !validRankDir(opts.rankdir) {
		return fmt.Errorf("invalid rankdir %q: expected TB, LR, BT or RL", opts.rankdir)
	}

	cfg := config.Default()
	cfg.Serialize.IdentifierPrefix = opts.prefix
	cfg.Export.RankDir = opts.rankdir

	files := map[string]string{config.FileName + ".yaml": cfg.Render()}
	if opts.sample {
		files[petrinet.SchemaFile] = petrinet.SchemaSource()
		files[SampleFile] = petrinet.SampleSource()
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	out := cmd.OutOrStdout()
	noColor := e.cfg.Output.NoColor
	for _, name := range []string{config.FileName + ".yaml", petrinet.SchemaFile, SampleFile} {
		content, ok := files[name]
		if !ok {
			continue
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		e.logger.Debug("file written", zap.String("path", path), zap.Int("bytes", len(content)))
		ui.WriteSuccess(out, "created "+path, noColor)
	}

	if opts.sample {
		fmt.Fprintln(out)
		color.New(color.FgCyan).Fprintf(out, "Next: metamodel check %s %s\n",
			filepath.Join(dir, petrinet.SchemaFile), filepath.Join(dir, SampleFile))
	}
	return nil
}

func askInit(opts *initOptions) error {
	questions := []*survey.Question{
		{
			Name:     "prefix",
			Prompt:   &survey.Input{Message: "Prefix of generated identifiers:", Default: opts.prefix},
			Validate: survey.ComposeValidators(survey.Required, func(ans interface{}) error {
				return validPrefix(fmt.Sprint(ans))
			}),
		},
		{
			Name: "rankdir",
			Prompt: &survey.Select{
				Message: "Diagram layout direction:",
				Options: []string{"TB", "LR", "BT", "RL"},
				Default: opts.rankdir,
			},
		},
		{
			Name:   "sample",
			Prompt: &survey.Confirm{Message: "Write the Petri net schema and a sample instance?", Default: opts.sample},
		},
	}

	answers := struct {
		Prefix  string `survey:"prefix"`
		RankDir string `survey:"rankdir"`
		Sample  bool   `survey:"sample"`
	}{}
	if err := survey.Ask(questions, &answers); err != nil {
		return err
	}

	opts.prefix = answers.Prefix
	opts.rankdir = answers.RankDir
	opts.sample = answers.Sample
	return nil
}

func validPrefix(prefix string) error {
	if !lexer.IsIdentifier(prefix) || lexer.IsKeyword(prefix) {
		return fmt.Errorf("invalid identifier prefix %q", prefix)
	}
	return nil
}
