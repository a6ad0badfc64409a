package texsrc

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTex(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestGather_InlinesIncludes(t *testing.T) {
	dir := t.TempDir()
	writeTex(t, dir, "intro.tex", "intro body\n")
	writeTex(t, dir, "methods.tex", "methods body\n")
	main := writeTex(t, dir, "main.tex", "before\n\\input{intro}\n\\include{methods}\nafter\n")

	text, report, err := Gather([]string{main}, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.OK() {
		t.Fatalf("report = %+v", report)
	}
	for _, want := range []string{"before", "intro body", "methods body", "after"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, `\input`) || strings.Contains(text, `\include`) {
		t.Errorf("directives left in output:\n%s", text)
	}
	// Inlined content appears where the directive was.
	if strings.Index(text, "intro body") > strings.Index(text, "methods body") {
		t.Error("inclusion order not preserved")
	}
}

func TestGather_NestedIncludes(t *testing.T) {
	dir := t.TempDir()
	writeTex(t, dir, "leaf.tex", "leaf content\n")
	writeTex(t, dir, "mid.tex", "mid before\n\\input{leaf}\nmid after\n")
	main := writeTex(t, dir, "main.tex", "\\subfile{mid}\n")

	text, report, err := Gather([]string{main}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !report.OK() {
		t.Fatalf("report = %+v", report)
	}
	if !strings.Contains(text, "leaf content") {
		t.Errorf("nested include not expanded:\n%s", text)
	}
}

func TestGather_CommentedDirectiveIgnored(t *testing.T) {
	dir := t.TempDir()
	writeTex(t, dir, "live.tex", "live content\n")
	main := writeTex(t, dir, "main.tex", "\\input{live}\n% \\input{live}\n% \\input{ghost}\n")

	text, report, err := Gather([]string{main}, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The second ghost directive names a missing file; since it is inside
	// a comment it must not be resolved at all.
	if len(report.PathErrors) != 0 {
		t.Errorf("commented directive was resolved: %v", report.PathErrors)
	}
	// Only the live copy of the identical directive expands.
	if n := strings.Count(text, "live content"); n != 1 {
		t.Errorf("live content appears %d times:\n%s", n, text)
	}
}

func TestGather_KeepComments(t *testing.T) {
	dir := t.TempDir()
	main := writeTex(t, dir, "main.tex", "body % remark\n")

	text, _, err := Gather([]string{main}, Options{KeepComments: true})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "% remark") {
		t.Errorf("comment dropped despite KeepComments:\n%s", text)
	}

	text, _, err = Gather([]string{main}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(text, "remark") {
		t.Errorf("comment kept without KeepComments:\n%s", text)
	}
}

func TestGather_CycleReportedOnce(t *testing.T) {
	dir := t.TempDir()
	writeTex(t, dir, "a.tex", "content a\n\\input{b}\n")
	writeTex(t, dir, "b.tex", "content b\n\\input{a}\n")
	a := filepath.Join(dir, "a.tex")

	text, report, err := Gather([]string{a}, Options{})
	if err != nil {
		t.Fatalf("gathering a cycle must terminate without error: %v", err)
	}
	if len(report.Cycles) != 1 {
		t.Fatalf("expected 1 cycle report, got %d: %v", len(report.Cycles), report.Cycles)
	}
	c := report.Cycles[0]
	if filepath.Base(c.Path) != "a.tex" || filepath.Base(c.IncludedFrom) != "b.tex" {
		t.Errorf("cycle = %+v", c)
	}
	// Each file's content appears exactly once.
	if n := strings.Count(text, "content a"); n != 1 {
		t.Errorf("content a appears %d times", n)
	}
	if n := strings.Count(text, "content b"); n != 1 {
		t.Errorf("content b appears %d times", n)
	}
}

func TestGather_DiamondIsNotACycle(t *testing.T) {
	dir := t.TempDir()
	writeTex(t, dir, "shared.tex", "shared content\n")
	writeTex(t, dir, "left.tex", "\\input{shared}\n")
	writeTex(t, dir, "right.tex", "\\input{shared}\n")
	main := writeTex(t, dir, "main.tex", "\\input{left}\n\\input{right}\n")

	text, report, err := Gather([]string{main}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Cycles) != 0 {
		t.Errorf("diamond inclusion reported as cycle: %v", report.Cycles)
	}
	if n := strings.Count(text, "shared content"); n != 2 {
		t.Errorf("shared content appears %d times, want 2", n)
	}
}

func TestGather_PathErrorSkipsBranch(t *testing.T) {
	dir := t.TempDir()
	main := writeTex(t, dir, "main.tex", "before\n\\input{missing}\nafter\n")

	text, report, err := Gather([]string{main}, Options{})
	if err != nil {
		t.Fatalf("a bad path must not abort gathering: %v", err)
	}
	if len(report.PathErrors) != 1 {
		t.Fatalf("expected 1 path error, got %d", len(report.PathErrors))
	}
	if report.PathErrors[0].Arg != "missing" {
		t.Errorf("arg = %q", report.PathErrors[0].Arg)
	}
	if !strings.Contains(text, "before") || !strings.Contains(text, "after") {
		t.Errorf("surrounding text lost:\n%s", text)
	}
	if strings.Contains(text, `\input{missing}`) {
		t.Errorf("failed directive left in output:\n%s", text)
	}
}

func TestGather_UnresolvedMacroIsPathError(t *testing.T) {
	dir := t.TempDir()
	main := writeTex(t, dir, "main.tex", `\input{\mymacro/chapter}`)

	_, report, err := Gather([]string{main}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.PathErrors) != 1 {
		t.Fatalf("expected 1 path error, got %d", len(report.PathErrors))
	}
	if !strings.Contains(report.PathErrors[0].Error(), "unresolved macro") {
		t.Errorf("error = %v", report.PathErrors[0])
	}
}

func TestGather_CurrfiledirMacro(t *testing.T) {
	dir := t.TempDir()
	writeTex(t, dir, "sub/chapter.tex", "chapter content\n")
	writeTex(t, dir, "sub/part.tex", `\input{\currfiledir chapter}`)
	main := writeTex(t, dir, "main.tex", `\input{sub/part}`)

	text, report, err := Gather([]string{main}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !report.OK() {
		t.Fatalf("report = %+v", report)
	}
	if !strings.Contains(text, "chapter content") {
		t.Errorf("currfiledir inclusion not expanded:\n%s", text)
	}
}

func TestGather_Directory(t *testing.T) {
	dir := t.TempDir()
	writeTex(t, dir, "b.tex", "bravo\n")
	writeTex(t, dir, "a.tex", "alpha\n")
	writeTex(t, dir, "notes.txt", "not tex\n")

	text, report, err := Gather([]string{dir}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !report.OK() {
		t.Fatalf("report = %+v", report)
	}
	if strings.Contains(text, "not tex") {
		t.Error("non-.tex file included")
	}
	// Sorted order: a.tex before b.tex.
	if strings.Index(text, "alpha") > strings.Index(text, "bravo") {
		t.Errorf("directory files not in sorted order:\n%s", text)
	}
}

func TestGather_MissingInput(t *testing.T) {
	if _, _, err := Gather([]string{filepath.Join(t.TempDir(), "absent.tex")}, Options{}); err == nil {
		t.Error("expected error for missing top-level input")
	}
}

func TestGatherToFile(t *testing.T) {
	dir := t.TempDir()
	main := writeTex(t, dir, "main.tex", "flattened body\n")
	out := filepath.Join(dir, "flat.tex")

	report, err := GatherToFile([]string{main}, out, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.OK() {
		t.Fatalf("report = %+v", report)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "flattened body") {
		t.Errorf("output = %q", data)
	}

	// A second run refuses to overwrite.
	if _, err := GatherToFile([]string{main}, out, Options{}); !errors.Is(err, os.ErrExist) {
		t.Errorf("expected ErrExist, got %v", err)
	}
}

func TestGatherToFile_RefusesInputAsOutput(t *testing.T) {
	dir := t.TempDir()
	main := writeTex(t, dir, "main.tex", "body\n")
	if _, err := GatherToFile([]string{main}, main, Options{}); err == nil {
		t.Error("expected error when output equals an input")
	}
}
