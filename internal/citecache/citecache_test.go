package citecache

import (
	"path/filepath"
	"testing"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "sub", "citations.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestPutGet(t *testing.T) {
	c := openTestCache(t)

	if _, ok, err := c.Get("doi:10.1/x"); err != nil || ok {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}

	bib := "@article{x,\n  title = {T},\n}\n"
	if err := c.Put("doi:10.1/x", bib); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok, err := c.Get("doi:10.1/x")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got != bib {
		t.Errorf("got %q", got)
	}
}

func TestPut_Replaces(t *testing.T) {
	c := openTestCache(t)
	if err := c.Put("doi:10.1/x", "old"); err != nil {
		t.Fatal(err)
	}
	if err := c.Put("doi:10.1/x", "new"); err != nil {
		t.Fatal(err)
	}
	got, _, err := c.Get("doi:10.1/x")
	if err != nil {
		t.Fatal(err)
	}
	if got != "new" {
		t.Errorf("got %q", got)
	}

	citations, err := c.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(citations) != 1 {
		t.Errorf("replace left %d rows", len(citations))
	}
}

func TestDelete(t *testing.T) {
	c := openTestCache(t)
	if err := c.Put("doi:10.1/x", "bib"); err != nil {
		t.Fatal(err)
	}
	if err := c.Delete("doi:10.1/x"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Get("doi:10.1/x"); ok {
		t.Error("entry survived Delete")
	}
	// Deleting an absent key is not an error.
	if err := c.Delete("doi:10.1/absent"); err != nil {
		t.Errorf("delete absent: %v", err)
	}
}

func TestClearAndList(t *testing.T) {
	c := openTestCache(t)
	for _, id := range []string{"doi:10.1/a", "doi:10.1/b", "arxiv:2107.07183"} {
		if err := c.Put(id, "bib for "+id); err != nil {
			t.Fatal(err)
		}
	}

	citations, err := c.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(citations) != 3 {
		t.Fatalf("len = %d", len(citations))
	}
	for _, cit := range citations {
		if cit.FetchedAt.IsZero() {
			t.Errorf("%s has zero fetch time", cit.Identifier)
		}
	}

	if err := c.Clear(); err != nil {
		t.Fatal(err)
	}
	citations, err = c.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(citations) != 0 {
		t.Errorf("clear left %d rows", len(citations))
	}
}

func TestOpen_Reopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "citations.db")
	c, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Put("doi:10.1/x", "bib"); err != nil {
		t.Fatal(err)
	}
	c.Close()

	c, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if _, ok, _ := c.Get("doi:10.1/x"); !ok {
		t.Error("entry lost across reopen")
	}
}
