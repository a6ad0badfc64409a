package bibtex

import (
	"fmt"
	"strings"
)

// Align is the column-alignment policy for formatted output. It is purely
// a presentation concern and never affects parsed semantics.
type Align int

const (
	// AlignMiddle right-aligns field names so the '=' signs line up,
	// with the longest name indented two spaces.
	AlignMiddle Align = iota
	// AlignLeft indents every field name two spaces, no padding.
	AlignLeft
	// AlignLeftMiddle indents names two spaces and pads after the name
	// so the '=' signs line up.
	AlignLeftMiddle
	// AlignNone writes fields with no indentation or padding.
	AlignNone
)

// ParseAlign parses an alignment name, case-insensitive. "left_middle" is
// accepted as an alias of "left-middle".
func ParseAlign(s string) (Align, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "middle", "":
		return AlignMiddle, nil
	case "left":
		return AlignLeft, nil
	case "left-middle", "left_middle":
		return AlignLeftMiddle, nil
	case "none":
		return AlignNone, nil
	}
	return 0, fmt.Errorf("invalid align %q (want middle, left, left-middle, or none)", s)
}

func (a Align) String() string {
	switch a {
	case AlignMiddle:
		return "middle"
	case AlignLeft:
		return "left"
	case AlignLeftMiddle:
		return "left-middle"
	case AlignNone:
		return "none"
	}
	return fmt.Sprintf("Align(%d)", int(a))
}

// Format renders an entry as BibTeX text under the given alignment.
// Entry type and field names are lowercased, values always braced, every
// field followed by a comma.
func Format(e *Entry, align Align) string {
	var b strings.Builder
	b.WriteString("@")
	b.WriteString(strings.ToLower(e.Type))
	b.WriteString("{")
	b.WriteString(e.Label)
	b.WriteString(",\n")

	maxLen := 0
	for _, f := range e.Fields {
		if len(f.Name) > maxLen {
			maxLen = len(f.Name)
		}
	}

	for _, f := range e.Fields {
		switch align {
		case AlignMiddle:
			b.WriteString(strings.Repeat(" ", 2+maxLen-len(f.Name)))
			b.WriteString(f.Name)
		case AlignLeft:
			b.WriteString("  ")
			b.WriteString(f.Name)
		case AlignLeftMiddle:
			b.WriteString("  ")
			b.WriteString(f.Name)
			b.WriteString(strings.Repeat(" ", maxLen-len(f.Name)))
		case AlignNone:
			b.WriteString(f.Name)
		}
		b.WriteString(" = {")
		b.WriteString(f.Value)
		b.WriteString("},\n")
	}
	b.WriteString("}\n")
	return b.String()
}

// FormatAll renders entries separated by blank lines.
func FormatAll(entries []*Entry, align Align) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = Format(e, align)
	}
	return strings.Join(parts, "\n")
}
