package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mdunn/bibfetch/internal/texsrc"
)

var gatherFlags struct {
	output       string
	keepComments bool
}

var gatherCmd = &cobra.Command{
	Use:   "gather <entry.tex>...",
	Short: "Flatten a LaTeX source tree into one file",
	Long: `Expand \input/\include/\subfile directives recursively and print (or
write) the flattened source. Directives inside comments are ignored;
inclusion cycles are reported and skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGather,
}

func init() {
	gatherCmd.Flags().StringVarP(&gatherFlags.output, "output", "o", "", "Write the flattened source to this file")
	gatherCmd.Flags().BoolVar(&gatherFlags.keepComments, "keep-comments", false, "Retain comment text in the output")
	rootCmd.AddCommand(gatherCmd)
}

func runGather(cmd *cobra.Command, args []string) error {
	opts := texsrc.Options{KeepComments: gatherFlags.keepComments}

	var report *texsrc.Report
	if gatherFlags.output != "" {
		var err error
		report, err = texsrc.GatherToFile(args, gatherFlags.output, opts)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
	} else {
		text, r, err := texsrc.Gather(args, opts)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		report = r
		fmt.Print(text)
	}

	for _, c := range report.Cycles {
		fmt.Printf("warning: %v\n", c)
	}
	for _, p := range report.PathErrors {
		fmt.Printf("warning: %v\n", p)
	}
	return nil
}
