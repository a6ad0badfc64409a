// Package store holds resolved BibTeX entries in insertion order, keyed
// by the identifier they were looked up with, with optional FIFO-bounded
// capacity and append-to-file persistence.
package store

import (
	"fmt"
	"os"
	"strings"

	"github.com/mdunn/bibfetch/internal/bibtex"
)

// NotFoundError indicates a lookup or pop on an absent key or index.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%q not found in store", e.Key)
}

// Options configures a Store.
type Options struct {
	// Limit bounds the number of cached entries; 0 means unbounded.
	// When an Append exceeds the limit, the oldest entry is evicted.
	Limit int

	// Align is the formatting policy used by Save.
	Align bibtex.Align
}

// Store is an ordered, process-local collection of resolved entries. It
// defines no internal locking; callers sharing a Store across goroutines
// must serialize access themselves.
type Store struct {
	opts    Options
	ids     []string
	entries []*bibtex.Entry
	index   map[string]int
}

// New constructs an empty Store.
func New(opts Options) *Store {
	return &Store{opts: opts, index: make(map[string]int)}
}

// Len returns the number of cached entries.
func (s *Store) Len() int { return len(s.entries) }

// Identifiers returns the identifiers in insertion order.
func (s *Store) Identifiers() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Append adds an entry under the given identifier and returns its index.
// Re-appending an existing identifier replaces the entry in place. When a
// capacity limit is set and exceeded, the oldest entry is evicted first.
func (s *Store) Append(id string, e *bibtex.Entry) int {
	if i, ok := s.index[id]; ok {
		s.entries[i] = e
		return i
	}
	if s.opts.Limit > 0 && len(s.entries) >= s.opts.Limit {
		s.removeAt(0)
	}
	s.ids = append(s.ids, id)
	s.entries = append(s.entries, e)
	i := len(s.entries) - 1
	s.index[id] = i
	return i
}

// At returns the entry at the given insertion-order index.
func (s *Store) At(i int) (*bibtex.Entry, error) {
	if i < 0 || i >= len(s.entries) {
		return nil, &NotFoundError{Key: fmt.Sprintf("index %d", i)}
	}
	return s.entries[i], nil
}

// Get returns the entry stored under the given identifier, or, failing
// that, the first entry whose label matches.
func (s *Store) Get(key string) (*bibtex.Entry, error) {
	if i, ok := s.index[key]; ok {
		return s.entries[i], nil
	}
	for _, e := range s.entries {
		if e.Label == key {
			return e, nil
		}
	}
	return nil, &NotFoundError{Key: key}
}

// PopAt removes and returns the entry at the given index.
func (s *Store) PopAt(i int) (*bibtex.Entry, error) {
	e, err := s.At(i)
	if err != nil {
		return nil, err
	}
	s.removeAt(i)
	return e, nil
}

// Pop removes and returns the entry stored under the given identifier or
// label.
func (s *Store) Pop(key string) (*bibtex.Entry, error) {
	if i, ok := s.index[key]; ok {
		e := s.entries[i]
		s.removeAt(i)
		return e, nil
	}
	for i, e := range s.entries {
		if e.Label == key {
			s.removeAt(i)
			return e, nil
		}
	}
	return nil, &NotFoundError{Key: key}
}

// Clear removes all entries.
func (s *Store) Clear() {
	s.ids = nil
	s.entries = nil
	s.index = make(map[string]int)
}

// Save appends the selected entries to the .bib file at path, skipping
// any entry already present in the file (compared with Entry.Equal, so a
// second Save of the same entries is a no-op). Written entries are
// removed from the store. Selection keys are identifiers or labels; a nil
// selection saves everything. Existing file content is never rewritten or
// reordered. It returns the identifiers actually written.
func (s *Store) Save(keys []string, path string) ([]string, error) {
	if !strings.HasSuffix(path, ".bib") {
		return nil, fmt.Errorf("output file must be a .bib file, got %q", path)
	}

	ids := keys
	if ids == nil {
		ids = s.Identifiers()
	}

	existing, _, err := bibtex.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading existing bib file: %w", err)
	}

	var written []string
	var chunks []string
	for _, key := range ids {
		e, err := s.Get(key)
		if err != nil {
			continue // absent keys are skipped, matching save-all semantics
		}
		dup := false
		for _, old := range existing {
			if e.Equal(old) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		chunks = append(chunks, bibtex.Format(e, s.opts.Align))
		written = append(written, key)
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	if err := appendToFile(path, strings.Join(chunks, "\n")); err != nil {
		return nil, err
	}

	// Move semantics: saved entries leave the cache.
	for _, key := range written {
		s.Pop(key)
	}
	return written, nil
}

// appendToFile appends content to path, creating it if needed, separated
// from existing content by a blank line. The handle is released on all
// exit paths.
func appendToFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil && info.Size() > 0 {
		content = "\n" + content
	}
	_, err = f.WriteString(content)
	return err
}

// removeAt deletes the entry at index i and reindexes.
func (s *Store) removeAt(i int) {
	delete(s.index, s.ids[i])
	s.ids = append(s.ids[:i], s.ids[i+1:]...)
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	for j := i; j < len(s.ids); j++ {
		s.index[s.ids[j]] = j
	}
}
