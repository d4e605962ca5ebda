package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/prolly/internal/config"
	"github.com/roach88/prolly/internal/ir"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Config is loaded before any subcommand runs. Commands constructed
	// without the root command fall back to config.DefaultConfig.
	Config *config.Config

	// Logger receives diagnostics on stderr. Nil discards them.
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = config.ValidFormats

// NewRootCommand creates the root command for the prolly CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "prolly",
		Version: ir.EngineVersion,
		Short:   "prolly - a small logic inference engine",
		Long: `prolly answers queries over facts and rules by unification and
depth-first backtracking search, with optional tags merged along each proof.`,
		SilenceUsage:  true,
		SilenceErrors: true, // main prints the error
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file")

	// Add subcommands
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// setup loads the config file and installs the logger. Flags given on the
// command line win over the file.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	o.Config = cfg

	if !cmd.Flags().Changed("format") {
		o.Format = cfg.Output.Format
	}
	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	level, err := config.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid config", err)
	}
	if o.Verbose {
		level = slog.LevelDebug
	}
	o.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

// config returns the loaded configuration, or the defaults.
func (o *RootOptions) config() *config.Config {
	if o.Config != nil {
		return o.Config
	}
	return config.DefaultConfig()
}

// logger returns the configured logger, or one that discards.
func (o *RootOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// formatter builds the output formatter for a command.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
