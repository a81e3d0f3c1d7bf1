package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrlokans/mangashelf/internal/entrypoint"
	"github.com/mrlokans/mangashelf/internal/utils"
)

func newServeCommand(opts *rootOptions, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(opts, version)
		},
	}
}

func runServe(opts *rootOptions, version string) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	log := utils.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	return entrypoint.Run(cfg, log, version)
}
