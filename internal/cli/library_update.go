package cli

import (
	"github.com/spf13/cobra"
)

func newLibraryUpdateCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "library-update",
		Short: "Refresh every library entry that is due, then exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := root.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			report, err := app.LibraryUpdater.Run(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}
}
