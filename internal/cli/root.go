package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/mibagent/internal/agent"
	"github.com/roach88/mibagent/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	ConfigPath  string
	DBPath      string
	CatalogPath string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the mibagent CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "mibagent",
		Short: "mibagent - management-object backend for a network agent",
		Long: `mibagent serves a small catalog of scalar management objects.

It answers exact and ordered ("next") lookups, applies all-or-nothing
multi-binding writes on behalf of a community, keeps committed state in
SQLite, and runs a threshold monitor that raises an alert each time the
sampled gauge rises above the configured threshold.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "mibagent.toml", "path to TOML config (defaults apply when missing)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "path to SQLite state database (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.CatalogPath, "catalog", "", "path to YAML descriptor table (overrides config)")

	// Add subcommands
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewGetNextCommand(opts))
	cmd.AddCommand(NewWalkCommand(opts))
	cmd.AddCommand(NewSetCommand(opts))
	cmd.AddCommand(NewCatalogCommand(opts))
	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// formatter returns an OutputFormatter writing to the command's streams.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// loadConfig reads the config file (if present) and applies flag
// overrides.
func (o *RootOptions) loadConfig() (*config.AppConfig, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if o.DBPath != "" {
		cfg.DBPath = o.DBPath
	}
	if o.CatalogPath != "" {
		cfg.CatalogPath = o.CatalogPath
	}
	return cfg, nil
}

// newLogger builds the structured logger for a command. The config level
// applies unless --verbose asks for debug output.
func (o *RootOptions) newLogger(w io.Writer, cfg *config.AppConfig) *slog.Logger {
	level, err := cfg.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openAgent loads config and opens the agent it describes.
func (o *RootOptions) openAgent(ctx context.Context, cmd *cobra.Command) (*agent.Agent, *config.AppConfig, *slog.Logger, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger := o.newLogger(cmd.ErrOrStderr(), cfg)

	a, err := agent.Open(ctx, cfg, agent.WithLogger(logger))
	if err != nil {
		return nil, nil, nil, WrapExitError(ExitCommandError, "failed to open agent", err)
	}
	return a, cfg, logger, nil
}

// commandContext returns the command's context, or Background when unset.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
