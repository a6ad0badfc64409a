// Package lookup orchestrates a citation lookup: classify the input,
// consult the persistent cache, fetch, parse, normalize, and place the
// entry in the in-memory store.
package lookup

import (
	"context"
	"fmt"
	"strings"

	"github.com/mdunn/bibfetch/internal/bibtex"
	"github.com/mdunn/bibfetch/internal/fetch"
	"github.com/mdunn/bibfetch/internal/identifier"
	"github.com/mdunn/bibfetch/internal/store"
)

// Fetcher is the collaborator surface to the network layer. Failures are
// fetch.ErrNotFound or a network condition; the orchestrator treats any
// successful text identically regardless of origin.
type Fetcher interface {
	Fetch(ctx context.Context, id identifier.ID, format fetch.Format) (string, error)
}

// CitationCache is an optional persistent identifier-to-BibTeX cache.
type CitationCache interface {
	Get(id string) (string, bool, error)
	Put(id, bib string) error
}

// Options configures a Lookuper.
type Options struct {
	IgnoreFields []string // fields dropped from results, case-insensitive
	Ordering     []string // fields moved to the front of each entry
	Cache        CitationCache
}

// Lookuper resolves identifiers into normalized entries.
type Lookuper struct {
	fetcher Fetcher
	store   *store.Store
	opts    Options
}

// New constructs a Lookuper that places results in st.
func New(fetcher Fetcher, st *store.Store, opts Options) *Lookuper {
	return &Lookuper{fetcher: fetcher, store: st, opts: opts}
}

// Store returns the in-memory store results are placed in.
func (l *Lookuper) Store() *store.Store { return l.store }

// LookupOption adjusts a single lookup.
type LookupOption func(*lookupParams)

type lookupParams struct {
	label string
}

// WithLabel overrides the label provided by the source.
func WithLabel(label string) LookupOption {
	return func(p *lookupParams) { p.label = label }
}

// Lookup resolves one raw identifier string to a normalized entry and
// appends it to the store under the classified identifier.
func (l *Lookuper) Lookup(ctx context.Context, raw string, opts ...LookupOption) (*bibtex.Entry, error) {
	var params lookupParams
	for _, opt := range opts {
		opt(&params)
	}

	id, err := identifier.Classify(raw)
	if err != nil {
		return nil, err
	}

	text, cached, err := l.rawCitation(ctx, id)
	if err != nil {
		return nil, err
	}

	entry, err := bibtex.ParseOne(text)
	if err != nil {
		return nil, fmt.Errorf("parsing citation for %s: %w", id, err)
	}

	for _, f := range l.opts.IgnoreFields {
		entry.Delete(f)
	}
	if len(l.opts.Ordering) > 0 {
		entry.Reorder(l.opts.Ordering)
	}
	entry.Normalize()
	if params.label != "" {
		entry.Label = params.label
	}

	l.store.Append(id.String(), entry)
	if l.opts.Cache != nil && !cached {
		// Only clean BibTeX goes in the persistent cache.
		if err := l.opts.Cache.Put(id.String(), bibtex.Format(entry, bibtex.AlignMiddle)); err != nil {
			return entry, fmt.Errorf("caching citation: %w", err)
		}
	}
	return entry, nil
}

// LookupAll resolves a batch of identifiers, continuing past individual
// failures. Errors are reported per input.
func (l *Lookuper) LookupAll(ctx context.Context, raws []string, opts ...LookupOption) ([]*bibtex.Entry, map[string]error) {
	var entries []*bibtex.Entry
	errs := make(map[string]error)
	for _, raw := range raws {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		entry, err := l.Lookup(ctx, raw, opts...)
		if err != nil {
			errs[raw] = err
			continue
		}
		entries = append(entries, entry)
	}
	return entries, errs
}

// rawCitation returns the citation text for an identifier, consulting
// the persistent cache first. The second return reports a cache hit.
func (l *Lookuper) rawCitation(ctx context.Context, id identifier.ID) (string, bool, error) {
	if l.opts.Cache != nil {
		if text, ok, err := l.opts.Cache.Get(id.String()); err == nil && ok {
			return text, true, nil
		}
	}
	text, err := l.fetcher.Fetch(ctx, id, fetch.FormatBibTeX)
	if err != nil {
		return "", false, err
	}
	return text, false, nil
}
