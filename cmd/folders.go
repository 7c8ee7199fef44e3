package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newFoldersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folders",
		Short: "List Gmail and Google Drive folders",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "gmail",
		Short: "List Gmail folders, Inbox first",
		RunE: func(cmd *cobra.Command, args []string) error {
			folders, err := apiClient().GmailFolders(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tMESSAGES\tUNREAD")
			for _, folder := range folders {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", folder.Id, folder.Name, folder.MessagesTotal, folder.MessagesUnread)
			}
			return tw.Flush()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "drive",
		Short: "List Google Drive folders, most recently modified first",
		RunE: func(cmd *cobra.Command, args []string) error {
			folders, err := apiClient().DriveFolders(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tMODIFIED")
			for _, folder := range folders {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", folder.Id, folder.Name, folder.ModifiedTime)
			}
			return tw.Flush()
		},
	})
	return cmd
}
