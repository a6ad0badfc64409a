// Package bibtex parses, validates, and formats BibTeX entries.
package bibtex

import (
	"strings"

	"github.com/mdunn/bibfetch/internal/identifier"
)

// Field is one name/value pair of an entry. Names are stored lowercase;
// values are the raw text with at most one layer of surrounding braces or
// quotes removed.
type Field struct {
	Name  string
	Value string
}

// Entry is one bibliography record.
type Entry struct {
	Type   string  // entry type, lowercase (article, inproceedings, ...)
	Label  string  // citation key
	Fields []Field // insertion order is significant for output
	Line   int     // 1-based start line in the source file, 0 if not from a file
}

// Get returns the value of the named field. Lookup is case-insensitive.
func (e *Entry) Get(name string) (string, bool) {
	name = strings.ToLower(name)
	for _, f := range e.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Has reports whether the entry carries the named field with a non-empty value.
func (e *Entry) Has(name string) bool {
	v, ok := e.Get(name)
	return ok && strings.TrimSpace(v) != ""
}

// Set replaces the value of the named field in place, or appends a new
// field when absent.
func (e *Entry) Set(name, value string) {
	name = strings.ToLower(name)
	for i, f := range e.Fields {
		if f.Name == name {
			e.Fields[i].Value = value
			return
		}
	}
	e.Fields = append(e.Fields, Field{Name: name, Value: value})
}

// Delete removes the named field, preserving the order of the rest.
func (e *Entry) Delete(name string) {
	name = strings.ToLower(name)
	for i, f := range e.Fields {
		if f.Name == name {
			e.Fields = append(e.Fields[:i], e.Fields[i+1:]...)
			return
		}
	}
}

// Identifier returns the normalized identifier of the entry: the doi field
// if present, else the eprint (arXiv) field, else the url field. Entries
// with none of these return "".
func (e *Entry) Identifier() string {
	if v, ok := e.Get("doi"); ok && strings.TrimSpace(v) != "" {
		return "doi:" + identifier.NormalizeDOI(v)
	}
	if v, ok := e.Get("eprint"); ok && strings.TrimSpace(v) != "" {
		return "arxiv:" + normalizeArxiv(v)
	}
	if v, ok := e.Get("url"); ok && strings.TrimSpace(v) != "" {
		return "url:" + strings.ToLower(strings.TrimRight(strings.TrimSpace(v), "/"))
	}
	return ""
}

// Equal reports whether two entries denote the same publication: their
// normalized identifiers match, regardless of label or field ordering.
// When either side has no identifier field, it falls back to comparing
// label, type, and the full field set.
func (e *Entry) Equal(o *Entry) bool {
	ei, oi := e.Identifier(), o.Identifier()
	if ei != "" && oi != "" {
		return ei == oi
	}
	return e.EqualStrict(o)
}

// EqualStrict reports field-for-field equality: same type, label, and
// fields with the same values. Field order is ignored.
func (e *Entry) EqualStrict(o *Entry) bool {
	if e.Type != o.Type || e.Label != o.Label || len(e.Fields) != len(o.Fields) {
		return false
	}
	for _, f := range e.Fields {
		v, ok := o.Get(f.Name)
		if !ok || v != f.Value {
			return false
		}
	}
	return true
}

// Normalize applies the output normalization passes: underscores in the
// title escaped as \_ and bare ampersands in all values escaped as \&.
// Both passes are idempotent.
func (e *Entry) Normalize() {
	if v, ok := e.Get("title"); ok {
		v = strings.ReplaceAll(v, "_", `\_`)
		v = strings.ReplaceAll(v, `\\_`, `\_`)
		e.Set("title", v)
	}
	for i, f := range e.Fields {
		v := strings.ReplaceAll(f.Value, "&", `\&`)
		v = strings.ReplaceAll(v, `\\&`, `\&`)
		e.Fields[i].Value = v
	}
}

// Reorder moves the named fields to the front of the entry in the given
// order; unnamed fields keep their relative order after them.
func (e *Entry) Reorder(ordering []string) {
	var front, rest []Field
	taken := make(map[int]bool)
	for _, name := range ordering {
		name = strings.ToLower(name)
		for i, f := range e.Fields {
			if !taken[i] && f.Name == name {
				front = append(front, f)
				taken[i] = true
			}
		}
	}
	for i, f := range e.Fields {
		if !taken[i] {
			rest = append(rest, f)
		}
	}
	e.Fields = append(front, rest...)
}

// normalizeArxiv lowercases an arXiv ID and strips any version suffix and
// "arxiv:" prefix.
func normalizeArxiv(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "arxiv:")
	if i := strings.LastIndex(s, "v"); i > 0 && i < len(s)-1 {
		digits := true
		for _, r := range s[i+1:] {
			if r < '0' || r > '9' {
				digits = false
				break
			}
		}
		if digits {
			s = s[:i]
		}
	}
	return s
}
