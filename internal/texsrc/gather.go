package texsrc

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// InclusionCycleError reports an inclusion directive that re-enters a
// file already on the current expansion chain. The branch is not
// expanded; gathering continues.
type InclusionCycleError struct {
	Path         string // resolved path that would be re-entered
	IncludedFrom string // file containing the offending directive
}

func (e *InclusionCycleError) Error() string {
	return fmt.Sprintf("inclusion cycle: %s already expanded (included from %s)", e.Path, e.IncludedFrom)
}

// PathResolutionError reports an inclusion argument that could not be
// resolved to an existing file. The branch is skipped; gathering
// continues.
type PathResolutionError struct {
	Arg          string // the braced argument as written
	IncludedFrom string // file containing the directive
	Err          error
}

func (e *PathResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve inclusion %q in %s: %v", e.Arg, e.IncludedFrom, e.Err)
}

func (e *PathResolutionError) Unwrap() error { return e.Err }

// Report collects the non-fatal conditions hit while gathering.
type Report struct {
	Cycles     []*InclusionCycleError
	PathErrors []*PathResolutionError
}

// OK reports whether gathering completed without incident.
func (r *Report) OK() bool {
	return len(r.Cycles) == 0 && len(r.PathErrors) == 0
}

// Options configures gathering.
type Options struct {
	// KeepComments retains comment text verbatim in the flattened
	// output. It affects output retention only: inclusion directives
	// and citation commands inside comments are never honored.
	KeepComments bool
}

// Inclusion directives: the command keyword and its immediately following
// braced argument, nothing before it. The argument accepts the full legal
// path character set, including non-Latin characters; only braces are
// excluded.
var includeRe = regexp.MustCompile(`\\(?:input|include|subfile)\s*\{([^{}]*)\}`)

// currfiledir expands to the directory of the file being processed.
const dirMacro = `\currfiledir`

var macroRe = regexp.MustCompile(`\\[A-Za-z@]+`)

// Gather expands the given source files or directories into one
// flattened text buffer, inlining inclusion directives to arbitrary
// depth. Directories contribute every .tex file under them, in sorted
// order. Cycles and unresolvable paths are reported, not fatal.
func Gather(paths []string, opts Options) (string, *Report, error) {
	report := &Report{}
	var parts []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return "", report, err
		}
		if info.IsDir() {
			files, err := texFilesUnder(p)
			if err != nil {
				return "", report, err
			}
			for _, f := range files {
				text, err := expand(f, map[string]bool{}, opts, report)
				if err != nil {
					return "", report, err
				}
				parts = append(parts, text)
			}
			continue
		}
		text, err := expand(p, map[string]bool{}, opts, report)
		if err != nil {
			return "", report, err
		}
		parts = append(parts, text)
	}
	out := strings.Join(parts, "\n")
	if !opts.KeepComments {
		out = stripComments(out)
	}
	return out, report, nil
}

// GatherToFile writes the flattened buffer to dst. It refuses to
// overwrite an existing file and refuses dst equal to any input.
func GatherToFile(paths []string, dst string, opts Options) (*Report, error) {
	absDst, err := filepath.Abs(dst)
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil && abs == absDst {
			return nil, fmt.Errorf("output file %s is also an input", dst)
		}
	}
	if _, err := os.Stat(dst); err == nil {
		return nil, fmt.Errorf("output file %s already exists: %w", dst, os.ErrExist)
	}
	text, report, err := Gather(paths, opts)
	if err != nil {
		return report, err
	}
	return report, os.WriteFile(dst, []byte(text), 0644)
}

// expand reads one file and splices in its live inclusion directives.
// chain is the set of absolute paths on the current expansion chain;
// re-entering one is a cycle. Comments are kept here regardless of
// options, so directive/comment intersection stays testable on the
// original offsets; stripping happens once at the end of Gather.
func expand(path string, chain map[string]bool, opts Options, report *Report) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", err
	}
	text := string(data)
	chain[abs] = true
	defer delete(chain, abs)

	comments := commentSpans(text)
	matches := includeRe.FindAllStringSubmatchIndex(text, -1)

	var b strings.Builder
	pos := 0
	for _, m := range matches {
		span := Span{Start: m[0], End: m[1]}
		if inComment(comments, span) {
			// Commented-out directives are ignored entirely, not
			// stripped from the output.
			continue
		}
		arg := text[m[2]:m[3]]
		resolved, rerr := resolveInclusion(arg, filepath.Dir(abs))
		if rerr != nil {
			report.PathErrors = append(report.PathErrors, &PathResolutionError{
				Arg: arg, IncludedFrom: abs, Err: rerr,
			})
			b.WriteString(text[pos:span.Start])
			pos = span.End
			continue
		}
		if chain[resolved] {
			report.Cycles = append(report.Cycles, &InclusionCycleError{
				Path: resolved, IncludedFrom: abs,
			})
			b.WriteString(text[pos:span.Start])
			pos = span.End
			continue
		}
		inner, err := expand(resolved, chain, opts, report)
		if err != nil {
			return "", err
		}
		b.WriteString(text[pos:span.Start])
		b.WriteString(inner)
		pos = span.End
	}
	b.WriteString(text[pos:])
	return b.String(), nil
}

// resolveInclusion resolves a directive argument relative to the
// including file's directory. The directory macro \currfiledir expands to
// that directory; any other macro left in the argument is an error rather
// than a silent best-effort substitution. A missing extension defaults to
// .tex.
func resolveInclusion(arg, dir string) (string, error) {
	arg = strings.ReplaceAll(arg, dirMacro+"/", "")
	arg = strings.ReplaceAll(arg, dirMacro, "")
	// TeX consumes the whitespace terminating a macro name, so trim after
	// substitution, not before.
	arg = strings.TrimSpace(arg)
	if m := macroRe.FindString(arg); m != "" {
		return "", fmt.Errorf("unresolved macro %q in path", m)
	}
	if arg == "" {
		return "", fmt.Errorf("empty inclusion path")
	}
	if filepath.Ext(arg) == "" {
		arg += ".tex"
	}
	p := arg
	if !filepath.IsAbs(p) {
		p = filepath.Join(dir, p)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", abs)
	}
	return abs, nil
}

// texFilesUnder returns all .tex files under root, sorted.
func texFilesUnder(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(p, ".tex") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
