package texsrc

import (
	"regexp"
	"strings"
)

// Citation commands in the natbib/biblatex family, with optional
// bracketed arguments and one braced group of comma-separated keys. The
// match is anchored to the command keyword so preceding text is never
// absorbed.
var citeRe = regexp.MustCompile(`\\(?:paren)?cite(?:alt|alp|author|year|num|t\*?|p\*?)?(?:\[[^\]\n]*\]){0,2}\s*\{([^{}]+)\}`)

// CitedKeys extracts the distinct citation keys referenced by citation
// commands in text, in first-use order. Commands inside comments are
// ignored regardless of whether comment text was retained in the buffer.
func CitedKeys(text string) []string {
	comments := commentSpans(text)
	var keys []string
	seen := make(map[string]bool)
	for _, m := range citeRe.FindAllStringSubmatchIndex(text, -1) {
		if inComment(comments, Span{Start: m[0], End: m[1]}) {
			continue
		}
		for _, key := range strings.Split(text[m[2]:m[3]], ",") {
			key = strings.TrimSpace(key)
			if key != "" && !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}
	}
	return keys
}
