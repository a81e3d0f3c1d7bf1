package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mrlokans/mangashelf/internal/migration"
)

type migrateOptions struct {
	from    int64
	to      int64
	flags   string
	replace bool
}

func newMigrateCommand(root *rootOptions) *cobra.Command {
	opts := &migrateOptions{}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Move one library entry onto another manga",
		Long: `Copy reading progress, categories, tracks and the other selected facets
from one manga to another. With --replace the old entry leaves the library.

Facets default to the stored migration preference. Pass --flags as an
integer mask or as names, for example --flags chapters,categories.`,
		Example: `  mangashelf migrate --from 12 --to 48
  mangashelf migrate --from 12 --to 48 --flags chapters,tracks --replace`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd, root, opts)
		},
	}

	cmd.Flags().Int64Var(&opts.from, "from", 0, "Id of the manga to migrate from (required)")
	cmd.Flags().Int64Var(&opts.to, "to", 0, "Id of the manga to migrate to (required)")
	cmd.Flags().StringVar(&opts.flags, "flags", "", "Facets to copy as a mask or names (default: stored preference)")
	cmd.Flags().BoolVar(&opts.replace, "replace", false, "Remove the old entry from the library")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func runMigrate(cmd *cobra.Command, root *rootOptions, opts *migrateOptions) error {
	if opts.from == opts.to {
		return errors.New("--from and --to must differ")
	}

	var flags *migration.Flags
	if opts.flags != "" {
		parsed, err := migration.ParseFlags(opts.flags)
		if err != nil {
			return err
		}
		parsed = parsed.Known()
		flags = &parsed
	}

	app, err := root.openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	result, err := app.MigrateManga(cmd.Context(), opts.from, opts.to, flags, opts.replace)
	if err != nil {
		return fmt.Errorf("migrate %d to %d: %w", opts.from, opts.to, err)
	}
	return writeJSON(cmd.OutOrStdout(), result)
}

func newMigrateSourceCommand(root *rootOptions) *cobra.Command {
	var (
		flagsArg string
		replace  bool
	)

	cmd := &cobra.Command{
		Use:   "migrate-source <source-id>",
		Short: "Migrate every library entry of a source to the best match elsewhere",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sourceID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || sourceID <= 0 {
				return fmt.Errorf("invalid source id %q", args[0])
			}

			app, err := root.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			flags := app.Settings.GetMigrateFlags(cmd.Context())
			if flagsArg != "" {
				if flags, err = migration.ParseFlags(flagsArg); err != nil {
					return err
				}
				flags = flags.Known()
			}

			result, err := app.SourceMigrator.MigrateSource(cmd.Context(), sourceID, flags, replace)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&flagsArg, "flags", "", "Facets to copy as a mask or names (default: stored preference)")
	cmd.Flags().BoolVar(&replace, "replace", false, "Remove the old entries from the library")
	return cmd
}
