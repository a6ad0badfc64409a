// Package main provides the bibfetch CLI entry point.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// jsonOutput controls whether to emit JSON instead of human-readable text
var jsonOutput bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bibfetch",
	Short: "Look up and maintain BibTeX citations",
	Long: `bibfetch resolves DOIs, arXiv IDs, and PubMed IDs (or their URL
forms) into normalized BibTeX entries, checks .bib files for missing
required fields and duplicate labels, and reconciles a .bib file against
the citation keys actually used in a LaTeX source tree.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	rootCmd.Version = Version
}
