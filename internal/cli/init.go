package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/mibagent/internal/catalog"
	"github.com/roach88/mibagent/internal/config"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Force bool
}

// InitResult reports which files init wrote.
type InitResult struct {
	Config  string   `json:"config"`
	Catalog string   `json:"catalog"`
	DB      string   `json:"db"`
	Written []string `json:"written"`
}

func (r InitResult) String() string {
	return fmt.Sprintf("config:  %s\ncatalog: %s\ndb:      %s\nwritten: %d file(s)",
		r.Config, r.Catalog, r.DB, len(r.Written))
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write default config, catalog and state",
		Long: `Write the default config file and descriptor table, and create the
state database with every object at its default value.

Existing files are left alone unless --force is given. --force rewrites the
config and descriptor table; state that no longer fits the table is
repaired when the database is opened.

Example:
  mibagent init
  mibagent init --config /etc/mibagent.toml --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "overwrite existing config and catalog files")

	return cmd
}

func runInit(opts *InitOptions, cmd *cobra.Command) error {
	result := InitResult{Config: opts.ConfigPath, Written: []string{}}

	var cfg *config.AppConfig
	if opts.Force || !exists(opts.ConfigPath) {
		cfg = config.Default()
		if opts.DBPath != "" {
			cfg.DBPath = opts.DBPath
		}
		if opts.CatalogPath != "" {
			cfg.CatalogPath = opts.CatalogPath
		}
		if err := cfg.Write(opts.ConfigPath); err != nil {
			return WrapExitError(ExitCommandError, "failed to write config", err)
		}
		result.Written = append(result.Written, opts.ConfigPath)
	} else {
		var err error
		if cfg, err = opts.loadConfig(); err != nil {
			return err
		}
	}
	result.Catalog, result.DB = cfg.CatalogPath, cfg.DBPath

	if opts.Force && exists(cfg.CatalogPath) {
		if err := catalog.DefaultTable().WriteFile(cfg.CatalogPath); err != nil {
			return WrapExitError(ExitCommandError, "failed to write catalog", err)
		}
		result.Written = append(result.Written, cfg.CatalogPath)
	} else if !exists(cfg.CatalogPath) {
		result.Written = append(result.Written, cfg.CatalogPath)
	}
	if !exists(cfg.DBPath) {
		result.Written = append(result.Written, cfg.DBPath)
	}

	// Opening the agent creates a missing catalog and database.
	ctx := commandContext(cmd)
	a, _, _, err := opts.openAgent(ctx, cmd)
	if err != nil {
		return err
	}
	if err := a.Close(); err != nil {
		return WrapExitError(ExitCommandError, "failed to close database", err)
	}

	return opts.formatter(cmd).Success(result)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
