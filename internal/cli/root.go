// Package cli implements the mangashelf command line.
//
// Running the binary without a subcommand starts the HTTP server. The other
// commands open the same database and services for one-off maintenance.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrlokans/mangashelf/internal/config"
	"github.com/mrlokans/mangashelf/internal/entrypoint"
	"github.com/mrlokans/mangashelf/internal/utils"
)

type rootOptions struct {
	databasePath string
	logLevel     string
}

// NewRootCommand builds the command tree.
func NewRootCommand(version, commit string) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "mangashelf",
		Short:         "Manga library server with source migration",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(opts, version)
		},
	}
	root.PersistentFlags().StringVar(&opts.databasePath, "db", "", "Path to the database file (overrides DATABASE_PATH)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")

	root.AddCommand(
		newServeCommand(opts, version),
		newMigrateCommand(opts),
		newMigrateSourceCommand(opts),
		newFlagsCommand(),
		newTokenCommand(),
		newLibraryUpdateCommand(opts),
	)
	return root
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, err
	}
	if o.databasePath != "" {
		cfg.Database.Path = o.databasePath
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	return cfg, nil
}

// openApp loads the configuration and wires the services. Callers must Close
// the returned app.
func (o *rootOptions) openApp() (*entrypoint.App, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	log := utils.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	return entrypoint.NewApp(cfg, log)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
