package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mdunn/bibfetch/internal/bibtex"
)

var checkCmd = &cobra.Command{
	Use:   "check <file.bib>",
	Short: "Check a .bib file for missing fields and duplicate labels",
	Long: `Check every entry of a .bib file for the fields required by its entry
type and for labels shared by more than one entry. All problems are
reported; the exit code is nonzero when any is found.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

// CheckResponse is the JSON shape of a check run.
type CheckResponse struct {
	File       string                        `json:"file"`
	Lines      []int                         `json:"lines"`
	Missing    []bibtex.MissingFields        `json:"missing,omitempty"`
	Duplicates []bibtex.DuplicateLabel       `json:"duplicates,omitempty"`
	Malformed  []*bibtex.MalformedEntryError `json:"malformed,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	report, err := bibtex.CheckFile(args[0])
	if err != nil {
		exitWithError(ExitError, "checking %s: %v", args[0], err)
	}

	if jsonOutput {
		outputJSON(CheckResponse{
			File:       args[0],
			Lines:      report.Lines(),
			Missing:    report.Missing,
			Duplicates: report.Duplicates,
			Malformed:  report.Malformed,
		})
	} else {
		for _, m := range report.Missing {
			fmt.Println(m)
		}
		for _, d := range report.Duplicates {
			fmt.Println(d)
		}
		for _, m := range report.Malformed {
			fmt.Println(m)
		}
		if report.OK() {
			fmt.Printf("%s: ok\n", args[0])
		} else {
			fmt.Printf("%s: problems at lines %v\n", args[0], report.Lines())
		}
	}

	if !report.OK() {
		os.Exit(ExitDataError)
	}
	return nil
}
