package texsrc

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mdunn/bibfetch/internal/bibtex"
)

// SimplifyResult describes the outcome of a Simplify run.
type SimplifyResult struct {
	Output      string   // path of the written file
	Kept        []string // labels written, in original file order
	MissingKeys []string // keys cited in the sources but absent from the bib file
	Gather      *Report  // conditions hit while gathering the sources
}

// Simplify cross-references the citation keys used by the sources against
// the entries of bibPath and writes a fresh .bib file containing exactly
// the cited entries, in their original relative order. When outPath is
// empty it defaults to "<bibPath stem>_simplified.bib" next to the input.
// The output is a new file: Simplify refuses to overwrite an existing
// file and refuses outPath equal to bibPath.
func Simplify(sources []string, bibPath, outPath string) (*SimplifyResult, error) {
	if outPath == "" {
		stem := strings.TrimSuffix(filepath.Base(bibPath), filepath.Ext(bibPath))
		outPath = filepath.Join(filepath.Dir(bibPath), stem+"_simplified.bib")
	}
	absIn, err := filepath.Abs(bibPath)
	if err != nil {
		return nil, err
	}
	absOut, err := filepath.Abs(outPath)
	if err != nil {
		return nil, err
	}
	if absIn == absOut {
		return nil, fmt.Errorf("output file %s is the input bib file", outPath)
	}
	if _, err := os.Stat(outPath); err == nil {
		return nil, fmt.Errorf("output file %s already exists: %w", outPath, os.ErrExist)
	}

	flat, gatherReport, err := Gather(sources, Options{})
	if err != nil {
		return nil, err
	}
	cited := make(map[string]bool)
	for _, key := range CitedKeys(flat) {
		cited[key] = true
	}

	entries, _, err := bibtex.ReadFile(bibPath)
	if err != nil {
		return nil, err
	}

	var kept []*bibtex.Entry
	var keptLabels []string
	have := make(map[string]bool)
	for _, e := range entries {
		have[e.Label] = true
		if cited[e.Label] {
			kept = append(kept, e)
			keptLabels = append(keptLabels, e.Label)
		}
	}

	// Keys referenced but absent from the bib file are reported, not
	// silently dropped.
	var missing []string
	for key := range cited {
		if !have[key] {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)

	f, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if _, err := f.WriteString(bibtex.FormatAll(kept, bibtex.AlignMiddle)); err != nil {
		return nil, err
	}

	return &SimplifyResult{
		Output:      outPath,
		Kept:        keptLabels,
		MissingKeys: missing,
		Gather:      gatherReport,
	}, nil
}
