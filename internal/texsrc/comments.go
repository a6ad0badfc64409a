// Package texsrc flattens LaTeX source trees by expanding file-inclusion
// directives, comment-aware, and extracts the citation keys they use.
package texsrc

// Span is a half-open byte range [Start, End) within a source buffer.
type Span struct {
	Start, End int
}

// Intersects reports whether two spans overlap by at least one byte.
func (s Span) Intersects(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// commentSpans computes the comment regions of text by direct character
// scanning: an unescaped '%' starts a comment running to the end of the
// line (newline excluded). "\%" is a literal percent, "\\%" is a comment.
func commentSpans(text string) []Span {
	var spans []Span
	for i := 0; i < len(text); i++ {
		if text[i] != '%' || escaped(text, i) {
			continue
		}
		end := i
		for end < len(text) && text[end] != '\n' {
			end++
		}
		spans = append(spans, Span{Start: i, End: end})
		i = end
	}
	return spans
}

// escaped reports whether the byte at offset i is preceded by an odd
// number of backslashes.
func escaped(text string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && text[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

// inComment reports whether the span intersects any comment span.
func inComment(comments []Span, s Span) bool {
	for _, c := range comments {
		if c.Intersects(s) {
			return true
		}
	}
	return false
}

// stripComments removes the comment regions of text, keeping line
// structure intact.
func stripComments(text string) string {
	spans := commentSpans(text)
	if len(spans) == 0 {
		return text
	}
	out := make([]byte, 0, len(text))
	pos := 0
	for _, s := range spans {
		out = append(out, text[pos:s.Start]...)
		pos = s.End
	}
	out = append(out, text[pos:]...)
	return string(out)
}
