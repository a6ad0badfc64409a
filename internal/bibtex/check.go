package bibtex

import (
	"fmt"
	"sort"
	"strings"
)

// requiredFields lists the fields an entry type must carry. Alternatives
// are written "a|b": at least one of the named fields satisfies the slot.
// Types not listed have no requirements.
var requiredFields = map[string][]string{
	"article":       {"author", "title", "journal", "year"},
	"book":          {"author|editor", "title", "publisher", "year"},
	"inbook":        {"author|editor", "title", "chapter|pages", "publisher", "year"},
	"incollection":  {"author", "title", "booktitle", "publisher", "year"},
	"inproceedings": {"author", "title", "booktitle", "year"},
	"conference":    {"author", "title", "booktitle", "year"},
	"proceedings":   {"title", "year"},
	"manual":        {"title"},
	"booklet":       {"title"},
	"mastersthesis": {"author", "title", "school", "year"},
	"phdthesis":     {"author", "title", "school", "year"},
	"thesis":        {"author", "title", "institution", "year"},
	"techreport":    {"author", "title", "institution", "year"},
	"report":        {"author", "title", "institution", "year"},
	"unpublished":   {"author", "title", "note"},
	"online":        {"title", "url"},
}

// RequiredFields returns the required-field slots for an entry type, or
// nil when the type has none.
func RequiredFields(entryType string) []string {
	return requiredFields[strings.ToLower(entryType)]
}

// MissingFields reports an entry lacking fields required for its type.
type MissingFields struct {
	Label   string
	Type    string
	Line    int      // 1-based start line of the entry, 0 if unknown
	Missing []string // unsatisfied slots, in table order
}

func (m MissingFields) String() string {
	return fmt.Sprintf("entry %q (@%s, line %d) missing required fields: %s",
		m.Label, m.Type, m.Line, strings.Join(m.Missing, ", "))
}

// DuplicateLabel reports two or more entries sharing a label.
type DuplicateLabel struct {
	Label string
	Lines []int // start lines of every entry carrying the label
}

func (d DuplicateLabel) String() string {
	return fmt.Sprintf("duplicate label %q at lines %v", d.Label, d.Lines)
}

// Report is the structured result of checking a collection of entries.
// Invalidity is a normal analysis result, not an error.
type Report struct {
	Missing    []MissingFields
	Duplicates []DuplicateLabel
	Malformed  []*MalformedEntryError
}

// OK reports whether the check found no problems.
func (r *Report) OK() bool {
	return len(r.Missing) == 0 && len(r.Duplicates) == 0 && len(r.Malformed) == 0
}

// Lines returns the sorted, de-duplicated start line numbers of all
// offending entries.
func (r *Report) Lines() []int {
	seen := make(map[int]bool)
	for _, m := range r.Missing {
		seen[m.Line] = true
	}
	for _, d := range r.Duplicates {
		for _, ln := range d.Lines {
			seen[ln] = true
		}
	}
	for _, m := range r.Malformed {
		seen[m.Line] = true
	}
	lines := make([]int, 0, len(seen))
	for ln := range seen {
		lines = append(lines, ln)
	}
	sort.Ints(lines)
	return lines
}

// Check validates a parsed collection: required-field completeness per
// entry type and duplicate labels across the collection. It reports every
// problem found, never stopping at the first.
func Check(entries []*Entry) *Report {
	report := &Report{}

	for _, e := range entries {
		var missing []string
		for _, slot := range RequiredFields(e.Type) {
			ok := false
			for _, alt := range strings.Split(slot, "|") {
				if e.Has(alt) {
					ok = true
					break
				}
			}
			if !ok {
				missing = append(missing, slot)
			}
		}
		if len(missing) > 0 {
			report.Missing = append(report.Missing, MissingFields{
				Label: e.Label, Type: e.Type, Line: e.Line, Missing: missing,
			})
		}
	}

	byLabel := make(map[string][]int)
	var order []string
	for _, e := range entries {
		if _, ok := byLabel[e.Label]; !ok {
			order = append(order, e.Label)
		}
		byLabel[e.Label] = append(byLabel[e.Label], e.Line)
	}
	for _, label := range order {
		if lines := byLabel[label]; len(lines) > 1 {
			report.Duplicates = append(report.Duplicates, DuplicateLabel{Label: label, Lines: lines})
		}
	}

	return report
}

// CheckFile parses a .bib file and checks it, folding parse-time
// malformed entries into the report.
func CheckFile(path string) (*Report, error) {
	entries, malformed, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	report := Check(entries)
	report.Malformed = malformed
	return report, nil
}
