package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/scriptblocks/internal/config"
	"github.com/roach88/scriptblocks/internal/generator"
)

// RootOptions holds global flags for all commands, and the configuration
// resolved from them before a command runs.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	Config config.Config
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = config.Formats

// NewRootCommand creates the root command for the scriptblocks CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{Config: config.Default(), Logger: slog.Default()}

	cmd := &cobra.Command{
		Use:   "scriptblocks",
		Short: "Scriptblocks - automation scripts as editable blocks",
		Long: `Translate automation scripts into block documents and back.

Statements the block view does not model are kept as raw code, so a script
survives import, editing and export without losing anything.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ./"+config.DefaultFile+" if present)")

	// Add subcommands
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewTreeCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewKindsCommand(opts))
	cmd.AddCommand(NewApplyCommand(opts))
	cmd.AddCommand(NewSaveCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewCheckoutCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// resolve layers the config file and flags, then installs the logger.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	cfg, path, err := config.Resolve(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if cmd.Flags().Changed("format") {
		cfg.Output.Format = o.Format
	}
	if o.Verbose {
		cfg.Log.Level = "debug"
	}

	// Validate format flag
	if !isValidFormat(cfg.Output.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", cfg.Output.Format, ValidFormats))
	}

	o.Format = cfg.Output.Format
	o.Config = cfg
	o.Logger = slog.New(newLogger(cmd.ErrOrStderr(), cfg.Log.Level))
	if path != "" {
		o.Logger.Debug("config loaded", "path", path)
	}
	return nil
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

func (o *RootOptions) generatorOptions() []generator.Option {
	return []generator.Option{generator.WithIndent(o.Config.Generator.Indent)}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
