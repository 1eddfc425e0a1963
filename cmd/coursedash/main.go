// coursedash serves a browser dashboard over course-development
// time-tracking spreadsheets and can run the processing pipeline from the
// command line.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/coursedash/coursedash/internal/config"
	"github.com/coursedash/coursedash/internal/dashlog"
	"github.com/coursedash/coursedash/internal/version"
)

// Global flags
var (
	configPath string
	logPath    string
)

var rootCmd = &cobra.Command{
	Use:   "coursedash",
	Short: "Analytics dashboard for course-development time tracking",
	Long: `coursedash ingests three spreadsheet exports (legacy course records,
modern course records, granular time entries), reconciles them into one
unified dataset, and serves filterable analytics views over it.

Commands:
  serve    Start the dashboard HTTP server
  process  Run the pipeline once over three files and print the result
  version  Print version information

Examples:
  coursedash serve
  coursedash serve --watch ./dropbox
  coursedash process --legacy old.xlsx --modern new.xlsx --timespent entries.csv`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := dashlog.Init(logPath); err != nil {
			return fmt.Errorf("init log: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		dashlog.Log.Close()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.String("coursedash"))
	},
}

func loadConfig() (config.Config, error) {
	return config.Load(configPath)
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to TOML config file")
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "", "write debug log to this file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
