package bibtex

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleEntry = `@article{He2016,
   author = {He, Kaiming and Zhang, Xiangyu},
    title = {Deep Residual Learning for Image Recognition},
  journal = {CVPR},
     year = {2016},
}
`

func TestParse_Single(t *testing.T) {
	entries, malformed := Parse(sampleEntry)
	if len(malformed) != 0 {
		t.Fatalf("unexpected malformed entries: %v", malformed)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	e := entries[0]
	if e.Type != "article" {
		t.Errorf("type = %q", e.Type)
	}
	if e.Label != "He2016" {
		t.Errorf("label = %q", e.Label)
	}
	if len(e.Fields) != 4 {
		t.Fatalf("expected 4 fields, got %d: %v", len(e.Fields), e.Fields)
	}
	if v, _ := e.Get("author"); v != "He, Kaiming and Zhang, Xiangyu" {
		t.Errorf("author = %q", v)
	}
	if v, _ := e.Get("year"); v != "2016" {
		t.Errorf("year = %q", v)
	}
}

func TestParse_NestedBraces(t *testing.T) {
	text := `@article{key,
  title = {The {DNA} of {LaTeX {nested}} groups},
  note = {a, b, {c, d}},
}`
	entries, malformed := Parse(text)
	if len(malformed) != 0 || len(entries) != 1 {
		t.Fatalf("entries=%d malformed=%d", len(entries), len(malformed))
	}
	e := entries[0]
	if v, _ := e.Get("title"); v != "The {DNA} of {LaTeX {nested}} groups" {
		t.Errorf("title = %q", v)
	}
	// The comma inside {c, d} must not split the field.
	if v, _ := e.Get("note"); v != "a, b, {c, d}" {
		t.Errorf("note = %q", v)
	}
}

func TestParse_QuotedValues(t *testing.T) {
	text := `@article{key,
  title = "A Quoted, Title",
  year = 2016,
}`
	entries, malformed := Parse(text)
	if len(malformed) != 0 || len(entries) != 1 {
		t.Fatalf("entries=%d malformed=%d", len(entries), len(malformed))
	}
	e := entries[0]
	if v, _ := e.Get("title"); v != "A Quoted, Title" {
		t.Errorf("title = %q", v)
	}
	if v, _ := e.Get("year"); v != "2016" {
		t.Errorf("year = %q", v)
	}
}

func TestParse_MultilineValue(t *testing.T) {
	text := `@article{key,
  abstract = {First line
              second line
              third line},
}`
	entries, _ := Parse(text)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if v, _ := entries[0].Get("abstract"); v != "First line second line third line" {
		t.Errorf("abstract = %q", v)
	}
}

func TestParse_ContinuesPastMalformed(t *testing.T) {
	text := `@article{good1,
  title = {One},
}

@article{,
  title = {No Label},
}

@article{good2,
  title = {Two},
}
`
	entries, malformed := Parse(text)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Label != "good1" || entries[1].Label != "good2" {
		t.Errorf("labels = %q, %q", entries[0].Label, entries[1].Label)
	}
	if len(malformed) != 1 {
		t.Fatalf("expected 1 malformed entry, got %d", len(malformed))
	}
	if malformed[0].Line != 5 {
		t.Errorf("malformed line = %d, want 5", malformed[0].Line)
	}
}

func TestParse_UnbalancedBraces(t *testing.T) {
	_, malformed := Parse(`@article{key, title = {broken`)
	if len(malformed) != 1 {
		t.Fatalf("expected 1 malformed entry, got %d", len(malformed))
	}
	if malformed[0].Reason != "unbalanced braces" {
		t.Errorf("reason = %q", malformed[0].Reason)
	}
}

func TestParse_CommentedAtSign(t *testing.T) {
	text := `% @article{ghost, title = {Not Real},}
@article{real,
  title = {Real},
}`
	entries, malformed := Parse(text)
	if len(malformed) != 0 {
		t.Fatalf("unexpected malformed entries: %v", malformed)
	}
	if len(entries) != 1 || entries[0].Label != "real" {
		t.Fatalf("entries = %v", entries)
	}
}

func TestParse_RoundTrip(t *testing.T) {
	entries, _ := Parse(sampleEntry)
	if len(entries) != 1 {
		t.Fatal("parse failed")
	}
	out := Format(entries[0], AlignMiddle)

	again, malformed := Parse(out)
	if len(malformed) != 0 || len(again) != 1 {
		t.Fatalf("reparse: entries=%d malformed=%d", len(again), len(malformed))
	}
	if !entries[0].EqualStrict(again[0]) {
		t.Errorf("round trip changed the entry:\n%v\nvs\n%v", entries[0], again[0])
	}
	// Formatting the reparsed entry reproduces the text exactly.
	if out2 := Format(again[0], AlignMiddle); out2 != out {
		t.Errorf("format is not idempotent:\n%q\nvs\n%q", out, out2)
	}
}

func TestParseOne(t *testing.T) {
	e, err := ParseOne(sampleEntry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Label != "He2016" {
		t.Errorf("label = %q", e.Label)
	}

	if _, err := ParseOne("no bibtex here"); err == nil {
		t.Error("expected error for input with no entry")
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "refs.bib")
	content := `@IEEEtranBSTCTL{BSTcontrol,
  CTLuse_forced_etal = {no},
}

@article{He2016,
  title = {Deep Residual Learning},
}
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	entries, malformed, err := ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(malformed) != 0 {
		t.Fatalf("unexpected malformed entries: %v", malformed)
	}
	if len(entries) != 1 {
		t.Fatalf("expected the bstctl entry to be dropped, got %d entries", len(entries))
	}
	if entries[0].Label != "He2016" || entries[0].Line != 5 {
		t.Errorf("entry = %q at line %d", entries[0].Label, entries[0].Line)
	}
}
