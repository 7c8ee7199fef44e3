package cmd

import (
	"fmt"
	"os"

	"github.com/jyothri/fetchflow/constants"
	"github.com/jyothri/fetchflow/ui"
	"github.com/spf13/cobra"
)

var cfgFile string

// v holds flags, FETCHFLOW_* environment variables and the optional
// config file, in that order of precedence.
var v = constants.NewViper()

var rootCmd = &cobra.Command{
	Use:   "fetchflow",
	Short: "Configure export of Gmail attachments into Google Drive",
	Long: `fetchflow serves the API behind the attachment export screens and
offers the same screens on the command line:

  - serve     runs the HTTP API
  - prefs     shows or saves the export preferences
  - folders   lists Gmail and Google Drive folders
  - logs      shows the download history`,
	SilenceUsage: true,
}

// Execute is the main entry point for the CLI application
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (yaml)")
	rootCmd.PersistentFlags().String("api_url", constants.DefaultApiUrl, "Base URL of a running fetchflow server")
	rootCmd.PersistentFlags().String("session", "", "Session token used by the CLI subcommands")

	v.BindPFlag("api_url", rootCmd.PersistentFlags().Lookup("api_url"))
	v.BindPFlag("session", rootCmd.PersistentFlags().Lookup("session"))

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newPrefsCmd())
	rootCmd.AddCommand(newFoldersCmd())
	rootCmd.AddCommand(newLogsCmd())
}

func initConfig() {
	if cfgFile == "" {
		return
	}
	v.SetConfigFile(cfgFile)
	if err := v.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read config file %s: %v\n", cfgFile, err)
		return
	}
	fmt.Fprintf(os.Stderr, "Using config file: %s\n", v.ConfigFileUsed())
}

func apiClient() *ui.Client {
	cfg := constants.FromViper(v)
	return ui.NewClient(cfg.ApiUrl, cfg.Session)
}
