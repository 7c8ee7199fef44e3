package cmd

import (
	"fmt"
	"io"

	"github.com/jyothri/fetchflow/constants"
	"github.com/jyothri/fetchflow/ui"
	"github.com/spf13/cobra"
)

func newPrefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or save the export preferences",
	}
	cmd.AddCommand(newPrefsShowCmd())
	cmd.AddCommand(newPrefsSetCmd())
	return cmd
}

func newPrefsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the saved preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			controller := ui.NewPreferencesController(apiClient(), nil)
			err := controller.Mount(cmd.Context())
			printNotices(cmd.ErrOrStderr(), controller.Notices())
			if controller.States().Preferences == ui.Failed {
				return err
			}
			printForm(cmd.OutOrStdout(), controller)
			return nil
		},
	}
}

func newPrefsSetCmd() *cobra.Command {
	var createFolder bool
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update and save the preferences",
		Long: `Loads the saved preferences, applies the given flags and saves the result.
Flags that are not given keep their saved value.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			controller := ui.NewPreferencesController(apiClient(), nil)
			if err := controller.Mount(ctx); err != nil && controller.States().Preferences == ui.Failed {
				printNotices(cmd.ErrOrStderr(), controller.Notices())
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("file-type") {
				fileType, _ := flags.GetString("file-type")
				if !constants.IsFileType(fileType) {
					return fmt.Errorf("unknown file type %q", fileType)
				}
			}
			controller.Update(func(form *ui.PreferencesForm) {
				applyStringFlag(cmd, "file-type", &form.FileType)
				applyStringFlag(cmd, "name-filter", &form.FileNameFilter)
				applyStringFlag(cmd, "from", &form.DateFrom)
				applyStringFlag(cmd, "to", &form.DateTo)
				applyStringFlag(cmd, "gmail-folder", &form.GmailFolder)
				applyStringFlag(cmd, "drive-folder", &form.DriveFolderId)
			})
			if createFolder {
				if err := controller.CreateAttachmentsFolder(ctx); err != nil {
					printNotices(cmd.ErrOrStderr(), controller.Notices())
					return err
				}
			}

			err := controller.Submit(ctx)
			printNotices(cmd.ErrOrStderr(), controller.Notices())
			if err != nil {
				return err
			}
			printForm(cmd.OutOrStdout(), controller)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("file-type", "", "File type to export (pdf, xlsx, docx, pptx, jpg, png, zip, csv, all)")
	flags.String("name-filter", "", "Only export attachments whose name contains this text")
	flags.String("from", "", "Start date (YYYY-MM-DD)")
	flags.String("to", "", "End date (YYYY-MM-DD), empty for no end")
	flags.String("gmail-folder", "", "Gmail label id to export from")
	flags.String("drive-folder", "", "Google Drive folder id to export into")
	flags.BoolVar(&createFolder, "create-folder", false, "Create a \""+constants.DefaultDriveFolderName+"\" folder and export into it")
	return cmd
}

func applyStringFlag(cmd *cobra.Command, name string, target *string) {
	if !cmd.Flags().Changed(name) {
		return
	}
	value, _ := cmd.Flags().GetString(name)
	*target = value
}

func printForm(w io.Writer, controller *ui.PreferencesController) {
	form := controller.Form()
	gmailName := form.GmailFolder
	for _, folder := range controller.GmailFolders() {
		if folder.Id == form.GmailFolder {
			gmailName = folder.Name
		}
	}
	driveName := form.DriveFolderId
	for _, folder := range controller.DriveFolders() {
		if folder.Id == form.DriveFolderId {
			driveName = folder.Name
		}
	}
	dateTo := form.DateTo
	if dateTo == "" {
		dateTo = "-"
	}

	fmt.Fprintf(w, "File type:     %s\n", constants.FileTypeLabel(form.FileType))
	fmt.Fprintf(w, "Name filter:   %s\n", form.FileNameFilter)
	fmt.Fprintf(w, "From:          %s\n", form.DateFrom)
	fmt.Fprintf(w, "To:            %s\n", dateTo)
	fmt.Fprintf(w, "Gmail folder:  %s\n", gmailName)
	fmt.Fprintf(w, "Drive folder:  %s\n", driveName)
}

func printNotices(w io.Writer, notices []ui.Notice) {
	for _, notice := range notices {
		fmt.Fprintf(w, "%s: %s\n", notice.Title, notice.Message)
	}
}
