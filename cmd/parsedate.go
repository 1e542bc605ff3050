package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/casesched/core/loader"
	"github.com/kilianp07/casesched/core/table"
)

var parseDateCmd = &cobra.Command{
	Use:   "parse-date VALUE...",
	Short: "Show how schedule date strings are interpreted",
	Args:  cobra.MinimumNArgs(1),
	RunE:  parseDates,
}

func init() {
	rootCmd.AddCommand(parseDateCmd)
}

func parseDates(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	for _, a := range args {
		d, ok := loader.CleanDate(a)
		if !ok {
			fmt.Fprintf(out, "%q\tnull\n", a)
			continue
		}
		fmt.Fprintf(out, "%q\t%s\n", a, d.Format(table.DateTimeLayout))
	}
	return nil
}
