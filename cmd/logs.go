package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/jyothri/fetchflow/ui"
	"github.com/spf13/cobra"
)

func newLogsCmd() *cobra.Command {
	var dateTo, search string
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the newest download attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			controller := ui.NewLogsController(apiClient())
			if err := controller.Load(cmd.Context(), dateTo); err != nil {
				return err
			}
			controller.SetSearch(search)

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tFILE\tTYPE\tSTATUS\tLINK")
			visible := controller.Visible()
			for _, entry := range visible {
				link := "-"
				if entry.DriveLink != nil {
					link = *entry.DriveLink
				}
				status := entry.Status
				if ui.StatusVariant(entry.Status) == ui.VariantDestructive {
					status = "! " + status
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					entry.CreatedAt.Local().Format(time.DateTime), entry.FileName, entry.FileType, status, link)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "Showing %d of %d\n", len(visible), controller.Total())
			return nil
		},
	}
	cmd.Flags().StringVar(&dateTo, "date-to", "", "Only show attempts up to and including this day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&search, "search", "", "Filter by file name, ignoring case")
	return cmd
}
