package bibtex

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// MalformedEntryError describes one entry that could not be parsed.
// Parsing a batch continues past malformed entries and collects these.
type MalformedEntryError struct {
	Offset  int    // byte offset of the entry start in the input
	Line    int    // 1-based line of the entry start
	Snippet string // leading text of the offending entry
	Reason  string
}

func (e *MalformedEntryError) Error() string {
	return fmt.Sprintf("malformed entry at line %d: %s: %q", e.Line, e.Reason, e.Snippet)
}

const snippetLen = 40

// Parse parses all BibTeX entries found in text. Malformed entries are
// reported and skipped; parsing continues with the next entry. Text
// between entries (including %-comment lines) is ignored.
func Parse(text string) ([]*Entry, []*MalformedEntryError) {
	var entries []*Entry
	var malformed []*MalformedEntryError

	pos := 0
	for pos < len(text) {
		at := nextEntryStart(text, pos)
		if at < 0 {
			break
		}
		entry, end, err := parseAt(text, at)
		if err != nil {
			malformed = append(malformed, err)
			pos = at + 1
			continue
		}
		entries = append(entries, entry)
		pos = end
	}
	return entries, malformed
}

// ParseOne parses a single entry and returns the first one found.
func ParseOne(text string) (*Entry, error) {
	entries, malformed := Parse(text)
	if len(entries) > 0 {
		return entries[0], nil
	}
	if len(malformed) > 0 {
		return nil, malformed[0]
	}
	return nil, &MalformedEntryError{Snippet: snippet(text, 0), Reason: "no entry found"}
}

// ReadFile parses a .bib file. Entries carry their 1-based start line.
// BibTeX style control entries (jabref/IEEEtran "bstctl" blocks) are
// dropped, matching common .bib hygiene.
func ReadFile(path string) ([]*Entry, []*MalformedEntryError, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	entries, malformed := Parse(string(data))
	kept := entries[:0]
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Type), "bstctl") {
			continue
		}
		kept = append(kept, e)
	}
	return kept, malformed, nil
}

// nextEntryStart returns the offset of the next '@' that begins an entry,
// skipping '@' characters inside %-comment lines.
func nextEntryStart(text string, from int) int {
	inComment := false
	for i := from; i < len(text); i++ {
		switch text[i] {
		case '\n':
			inComment = false
		case '%':
			if !escaped(text, i) {
				inComment = true
			}
		case '@':
			if !inComment {
				return i
			}
		}
	}
	return -1
}

// escaped reports whether the character at offset i is preceded by an odd
// number of backslashes.
func escaped(text string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && text[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

var entryTypeRe = regexp.MustCompile(`^@\s*([A-Za-z]+)\s*\{`)

// parseAt parses the entry starting at offset at. It returns the parsed
// entry and the offset just past its closing brace.
func parseAt(text string, at int) (*Entry, int, *MalformedEntryError) {
	line := lineAt(text, at)
	m := entryTypeRe.FindStringSubmatch(text[at:])
	if m == nil {
		return nil, 0, &MalformedEntryError{
			Offset: at, Line: line,
			Snippet: snippet(text, at),
			Reason:  "missing entry type or opening brace",
		}
	}
	entryType := strings.ToLower(m[1])
	open := at + len(m[0]) // offset just past '{'

	// Brace-depth scan to the matching close, so nested {...} in field
	// values is captured whole.
	depth := 1
	end := -1
	for i := open; i < len(text); i++ {
		switch text[i] {
		case '{':
			if !escaped(text, i) {
				depth++
			}
		case '}':
			if !escaped(text, i) {
				depth--
				if depth == 0 {
					end = i
				}
			}
		}
		if end >= 0 {
			break
		}
	}
	if end < 0 {
		return nil, 0, &MalformedEntryError{
			Offset: at, Line: line,
			Snippet: snippet(text, at),
			Reason:  "unbalanced braces",
		}
	}

	body := text[open:end]
	comma := strings.IndexByte(body, ',')
	if comma < 0 {
		comma = len(body)
	}
	label := strings.TrimSpace(body[:comma])
	if label == "" || strings.ContainsAny(label, "{}") {
		return nil, 0, &MalformedEntryError{
			Offset: at, Line: line,
			Snippet: snippet(text, at),
			Reason:  "missing label",
		}
	}

	entry := &Entry{Type: entryType, Label: label, Line: line}
	if comma < len(body) {
		parseFields(entry, body[comma+1:])
	}
	return entry, end + 1, nil
}

// parseFields splits an entry body into fields on depth-0 commas, then
// each field into name/value on the first '='.
func parseFields(e *Entry, body string) {
	for _, chunk := range splitTopLevel(body) {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue // trailing comma
		}
		eq := strings.IndexByte(chunk, '=')
		if eq < 0 {
			// Continuation fragment without '='; fold into the
			// previous field the way lenient readers do.
			if n := len(e.Fields); n > 0 {
				e.Fields[n-1].Value += " " + collapseNewlines(chunk)
			}
			continue
		}
		name := strings.ToLower(strings.TrimSpace(chunk[:eq]))
		value := strings.TrimSpace(chunk[eq+1:])
		if name == "" {
			continue
		}
		e.Fields = append(e.Fields, Field{Name: name, Value: cleanValue(value)})
	}
}

// splitTopLevel splits s on commas at brace depth zero, outside quoted
// values.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	inQuote := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			if !escaped(s, i) {
				depth++
			}
		case '}':
			if !escaped(s, i) && depth > 0 {
				depth--
			}
		case '"':
			if depth == 0 && !escaped(s, i) {
				inQuote = !inQuote
			}
		case ',':
			if depth == 0 && !inQuote {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// cleanValue normalizes line breaks inside a value to single spaces and
// strips one layer of surrounding braces or quotes, preserving interior
// structure.
func cleanValue(v string) string {
	v = collapseNewlines(v)
	if len(v) >= 2 {
		if v[0] == '"' && v[len(v)-1] == '"' && !escaped(v, len(v)-1) {
			return v[1 : len(v)-1]
		}
		if v[0] == '{' && v[len(v)-1] == '}' && closesAtEnd(v) {
			return v[1 : len(v)-1]
		}
	}
	return v
}

// closesAtEnd reports whether the opening brace at v[0] matches the brace
// at the final position, i.e. the whole value is one braced group.
func closesAtEnd(v string) bool {
	depth := 0
	for i := 0; i < len(v); i++ {
		switch v[i] {
		case '{':
			if !escaped(v, i) {
				depth++
			}
		case '}':
			if !escaped(v, i) {
				depth--
				if depth == 0 {
					return i == len(v)-1
				}
			}
		}
	}
	return false
}

var newlineRun = regexp.MustCompile(`[ \t]*\r?\n[ \t]*`)

func collapseNewlines(s string) string {
	return newlineRun.ReplaceAllString(s, " ")
}

// lineAt returns the 1-based line number of byte offset i.
func lineAt(text string, i int) int {
	return 1 + strings.Count(text[:i], "\n")
}

func snippet(text string, at int) string {
	s := text[at:]
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > snippetLen {
		s = s[:snippetLen-3] + "..."
	}
	return s
}
