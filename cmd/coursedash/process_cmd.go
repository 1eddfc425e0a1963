package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/coursedash/coursedash/internal/dashcore"
	"github.com/coursedash/coursedash/internal/pipeline"
	"github.com/coursedash/coursedash/internal/reconcile"
)

// Process command flags
var (
	legacyPath    string
	modernPath    string
	timespentPath string
	outputJSON    bool
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run the pipeline once over three files",
	Long: `Run the full pipeline (decode, normalize, reconcile, aggregate) over
three spreadsheet files and print the result.

Examples:
  coursedash process --legacy old.xlsx --modern new.xlsx --timespent entries.csv
  coursedash process --legacy a.csv --modern b.csv --timespent c.csv --json | jq .summary`,
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVar(&legacyPath, "legacy", "", "legacy course data file")
	processCmd.Flags().StringVar(&modernPath, "modern", "", "modern course data file")
	processCmd.Flags().StringVar(&timespentPath, "timespent", "", "time spent category data file")
	processCmd.Flags().BoolVar(&outputJSON, "json", false, "print the full result as JSON")
	processCmd.MarkFlagRequired("legacy")
	processCmd.MarkFlagRequired("modern")
	processCmd.MarkFlagRequired("timespent")
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		Reconcile: reconcile.Options{
			LegacyFallbackYear: cfg.Pipeline.LegacyFallbackYear,
			ModernFallbackYear: cfg.Pipeline.ModernFallbackYear,
			InProgressYear:     cfg.Pipeline.InProgressYearOrNow(),
		},
	}

	files := pipeline.FileSet{
		Legacy:    pipeline.FileInput(legacyPath),
		Modern:    pipeline.FileInput(modernPath),
		TimeSpent: pipeline.FileInput(timespentPath),
	}

	res, runErr := pipeline.Run(cmd.Context(), files, opts)
	if runErr != nil && res == nil {
		return runErr
	}

	if outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		printResult(res)
	}

	// Halted on validation errors: diagnostics were printed, exit nonzero.
	return runErr
}

func printResult(res *pipeline.Result) {
	if res.Analytics != nil {
		s := res.Analytics.Summary
		fmt.Printf("Courses: %d (%d completed, %d in progress)\n", s.TotalCourses, s.Completed, s.InProgress)
		fmt.Printf("Hours:   %.1f total, %.1f average\n\n", s.TotalHours, s.AvgHours)

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "COURSE\tYEAR\tHOURS\tSTATUS\tCLASSIFICATION")
		for _, c := range res.Analytics.TopCourses {
			fmt.Fprintf(w, "%s\t%d\t%.1f\t%s\t%s\n", c.CourseName, c.Year, c.TotalTime, c.Status, c.Classification)
		}
		w.Flush()
	}

	if len(res.Errors) > 0 {
		fmt.Printf("\n%d diagnostic(s):\n", len(res.Errors))
		for _, d := range res.Errors {
			prefix := "warning"
			if d.Severity == dashcore.SeverityError {
				prefix = "error"
			}
			if d.Row > 0 {
				fmt.Printf("  %s: %s row %d: %s\n", prefix, d.File, d.Row, d.Message)
			} else {
				fmt.Printf("  %s: %s: %s\n", prefix, d.File, d.Message)
			}
		}
	}
}
