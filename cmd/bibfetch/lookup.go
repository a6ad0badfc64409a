package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mdunn/bibfetch/internal/bibtex"
	"github.com/mdunn/bibfetch/internal/citecache"
	"github.com/mdunn/bibfetch/internal/config"
	"github.com/mdunn/bibfetch/internal/fetch"
	"github.com/mdunn/bibfetch/internal/lookup"
	"github.com/mdunn/bibfetch/internal/pdfscan"
	"github.com/mdunn/bibfetch/internal/store"
)

var lookupFlags struct {
	align        string
	label        string
	ignoreFields []string
	output       string
	noCache      bool
	arxivDirect  bool
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <identifier>...",
	Short: "Resolve identifiers to BibTeX entries",
	Long: `Resolve DOIs, arXiv IDs, or PubMed IDs (bare, prefixed, or URL form)
to BibTeX entries. An argument naming an existing file is read as one
identifier per line; a PDF argument is scanned for an embedded DOI or
arXiv ID. With --output the entries are appended to a .bib file,
skipping entries the file already contains.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLookup,
}

func init() {
	lookupCmd.Flags().StringVar(&lookupFlags.align, "align", "", "Output alignment: middle, left, left-middle, none")
	lookupCmd.Flags().StringVar(&lookupFlags.label, "label", "", "Override the citation label (single identifier only)")
	lookupCmd.Flags().StringSliceVar(&lookupFlags.ignoreFields, "ignore-fields", nil, "Fields to drop from results")
	lookupCmd.Flags().StringVarP(&lookupFlags.output, "output", "o", "", "Append entries to this .bib file")
	lookupCmd.Flags().BoolVar(&lookupFlags.noCache, "no-cache", false, "Bypass the persistent citation cache")
	lookupCmd.Flags().BoolVar(&lookupFlags.arxivDirect, "arxiv-direct", false, "Query the arXiv export API instead of resolving via DOI")
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	align, err := bibtex.ParseAlign(firstNonEmpty(lookupFlags.align, cfg.Align))
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	ignore := cfg.IgnoreFields
	if lookupFlags.ignoreFields != nil {
		ignore = lookupFlags.ignoreFields
	}
	if len(ignore) == 1 && strings.EqualFold(ignore[0], "none") {
		ignore = nil
	}

	opts := lookup.Options{IgnoreFields: ignore, Ordering: cfg.Ordering}
	if !lookupFlags.noCache {
		if path, err := citecache.DefaultPath(); err == nil {
			if cache, err := citecache.Open(path); err == nil {
				defer cache.Close()
				opts.Cache = cache
			}
		}
	}

	fetchOpts := []fetch.Option{fetch.WithTimeout(cfg.TimeoutDuration())}
	if cfg.Email != "" {
		fetchOpts = append(fetchOpts, fetch.WithEmail(cfg.Email))
	}
	if cfg.ArxivDirect || lookupFlags.arxivDirect {
		fetchOpts = append(fetchOpts, fetch.WithArxivDirect())
	}

	st := store.New(store.Options{Limit: cfg.CacheLimit, Align: align})
	l := lookup.New(fetch.NewClient(fetchOpts...), st, opts)

	identifiers := expandArgs(args)
	if lookupFlags.label != "" && len(identifiers) != 1 {
		exitWithError(ExitError, "--label requires exactly one identifier")
	}

	var lopts []lookup.LookupOption
	if lookupFlags.label != "" {
		lopts = append(lopts, lookup.WithLabel(lookupFlags.label))
	}

	entries, errs := l.LookupAll(context.Background(), identifiers, lopts...)
	for raw, err := range errs {
		outputError(ExitLookupError, "%s: %v", raw, err)
	}

	output := firstNonEmpty(lookupFlags.output, cfg.OutputFile)
	if output != "" {
		written, err := st.Save(nil, output)
		if err != nil {
			exitWithError(ExitError, "saving to %s: %v", output, err)
		}
		if !jsonOutput {
			fmt.Printf("wrote %d entries to %s\n", len(written), output)
		}
	} else if jsonOutput {
		type result struct {
			Label  string `json:"label"`
			BibTeX string `json:"bibtex"`
		}
		results := make([]result, len(entries))
		for i, e := range entries {
			results[i] = result{Label: e.Label, BibTeX: bibtex.Format(e, align)}
		}
		outputJSON(results)
	} else {
		for i, e := range entries {
			if i > 0 {
				fmt.Println()
			}
			fmt.Print(bibtex.Format(e, align))
		}
	}

	if len(errs) > 0 {
		os.Exit(ExitLookupError)
	}
	return nil
}

// expandArgs turns each argument into identifiers: files of identifiers
// are read line by line, PDFs are scanned, everything else passes
// through as-is.
func expandArgs(args []string) []string {
	var out []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || info.IsDir() {
			out = append(out, arg)
			continue
		}
		if strings.HasSuffix(strings.ToLower(arg), ".pdf") {
			id, ok, err := pdfscan.ExtractIdentifier(arg)
			if err != nil || !ok {
				fmt.Fprintf(os.Stderr, "error: no identifier found in %s\n", arg)
				continue
			}
			out = append(out, id.Value)
			continue
		}
		data, err := os.ReadFile(arg)
		if err != nil {
			out = append(out, arg)
			continue
		}
		for _, line := range strings.Split(string(data), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out = append(out, line)
			}
		}
	}
	return out
}

// loadConfig loads the user config, falling back to defaults on error.
func loadConfig() config.Config {
	path, err := config.DefaultPath()
	if err != nil {
		return config.Default()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v (using defaults)\n", err)
		return config.Default()
	}
	return cfg
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
