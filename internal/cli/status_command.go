package cli

import (
	"flag"
	"fmt"
	"strings"

	"wb-content-manager/internal/runstore"
)

func runStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	runsDir := fs.String("runs-dir", "", "runs directory")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	dir, err := resolveRunsDir(strings.TrimSpace(*runsDir))
	if err != nil {
		return err
	}
	report, err := runstore.LatestReport(dir)
	if err != nil {
		fmt.Println("no runs recorded yet")
		return nil
	}
	if *jsonOut {
		return printJSON(report)
	}

	fmt.Printf("latest run: %s\n", report.RunID)
	fmt.Printf("  started:  %s\n", report.StartedAt)
	if report.FinishedAt != "" {
		fmt.Printf("  finished: %s\n", report.FinishedAt)
	}
	fmt.Printf("  source:   %s\n", report.Source)
	fmt.Printf("  profile:  %s\n", report.Profile)
	fmt.Printf("  codes:    %d/%d processed, %d uploaded\n", report.Processed, report.TotalCodes, report.Uploaded)
	if report.Error != "" {
		fmt.Printf("  error:    %s\n", report.Error)
	}
	if len(report.FailedCodes) > 0 {
		fmt.Printf("  failed:   %s\n", strings.Join(report.FailedCodes, ", "))
	}
	return nil
}
