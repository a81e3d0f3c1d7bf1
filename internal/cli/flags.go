package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mrlokans/mangashelf/internal/migration"
)

func newFlagsCommand() *cobra.Command {
	var names string

	cmd := &cobra.Command{
		Use:   "flags [mask]",
		Short: "Decode or encode migration flags",
		Long: `Without arguments, list every migration facet and its bit.
With a mask, print the facets it enables. With --names, print the mask
for a comma separated list of facet names.`,
		Example: `  mangashelf flags
  mangashelf flags 5
  mangashelf flags --names chapters,tracks`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			switch {
			case names != "" && len(args) > 0:
				return errors.New("pass either a mask or --names")
			case names != "":
				flags, err := migration.ParseFlags(names)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, int(flags))
				return nil
			case len(args) == 1:
				flags, err := migration.ParseFlags(args[0])
				if err != nil {
					return err
				}
				if unknown := flags &^ flags.Known(); unknown != 0 {
					fmt.Fprintf(out, "ignored bits: %d\n", int(unknown))
				}
				fmt.Fprintln(out, strings.Join(flags.Known().Facets(), ","))
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "BIT\tFACET")
			for _, facet := range migration.AllFacets {
				fmt.Fprintf(tw, "%d\t%s\n", int(facet.Flag), facet.Name)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&names, "names", "", "Comma separated facet names to encode")
	return cmd
}
