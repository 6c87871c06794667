package commands

import (
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/metamodel/internal/cli/config"
	"github.com/conduit-lang/metamodel/internal/loader"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// env is the state shared by every subcommand, filled in before they run
type env struct {
	dir     string
	noColor bool
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
}

// loader returns a loader configured from the environment
func (e *env) loader() *loader.Loader {
	return loader.New(loaderOptions(e)...)
}

func loaderOptions(e *env) []loader.Option {
	return []loader.Option{
		loader.WithLogger(e.logger),
		loader.WithIdentifierPrefix(e.cfg.Serialize.IdentifierPrefix),
	}
}

func (e *env) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadFrom(e.dir)
	if err != nil {
		return err
	}
	if e.verbose {
		cfg.Log.Level = "debug"
	}
	if e.noColor {
		cfg.Output.NoColor = true
	}

	logger, err := cfg.Logger()
	if err != nil {
		return err
	}

	e.cfg = cfg
	e.logger = logger
	if cfg.Output.NoColor {
		color.NoColor = true
	}
	logger.Debug("configuration loaded",
		zap.String("dir", e.dir),
		zap.Bool("config_file", config.Exists(e.dir)))
	return nil
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	e := &env{}

	rootCmd := &cobra.Command{
		Use:   "metamodel",
		Short: "Metamodel schema and instance tooling",
		Long: color.CyanString(`metamodel - schemas, instance graphs and transformations

Schemas (.m2) declare element types with attributes and parent/child
associations. Instances (.m1) are statements that build a graph of
elements against a schema.

Commands:
  • check     load and validate a schema and an instance
  • describe  list the element types of a schema
  • fmt       rewrite descriptions in canonical form
  • dot       export Graphviz diagrams
  • skeleton  copy the structure of a Petri net`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e.logger != nil {
				_ = e.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&e.dir, "dir", ".", "Directory holding metamodel.yaml")
	rootCmd.PersistentFlags().BoolVar(&e.noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&e.verbose, "verbose", "v", false, "Enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(newCheckCommand(e))
	rootCmd.AddCommand(newDescribeCommand(e))
	rootCmd.AddCommand(newFmtCommand(e))
	rootCmd.AddCommand(newDotCommand(e))
	rootCmd.AddCommand(newSkeletonCommand(e))
	rootCmd.AddCommand(newInitCommand(e))

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the metamodel tool version, Git commit, build date, and Go version",
		// The version needs no configuration
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			titleColor := color.New(color.FgCyan, color.Bold)
			valueColor := color.New(color.FgWhite)
			out := cmd.OutOrStdout()

			titleColor.Fprint(out, "metamodel version: ")
			valueColor.Fprintln(out, Version)

			titleColor.Fprint(out, "Git commit: ")
			valueColor.Fprintln(out, GitCommit)

			titleColor.Fprint(out, "Build date: ")
			valueColor.Fprintln(out, BuildDate)

			titleColor.Fprint(out, "Go version: ")
			valueColor.Fprintln(out, goVer)
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		if err != errReported {
			errorColor := color.New(color.FgRed, color.Bold)
			errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return err
	}
	return nil
}
