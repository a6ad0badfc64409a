// Package identifier classifies bibliographic identifiers (DOI, arXiv,
// PubMed) from bare, prefixed, or URL forms and normalizes them.
package identifier

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Kind is the category of a classified identifier.
type Kind int

const (
	// DOI is a Digital Object Identifier (10.<registrant>/<suffix>).
	DOI Kind = iota
	// ArXiv is an arXiv identifier, modern (2107.07183v2) or legacy (cs/0012022).
	ArXiv
	// PubMed is a numeric PubMed ID or a PMC ID.
	PubMed
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case DOI:
		return "doi"
	case ArXiv:
		return "arxiv"
	case PubMed:
		return "pubmed"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ID is a classified, normalized identifier.
type ID struct {
	Kind  Kind
	Value string
}

// ErrUnrecognized indicates the input matched none of the known
// identifier grammars.
var ErrUnrecognized = errors.New("unrecognized identifier (none of doi, pmid, pmcid, arxiv)")

// Classification is pure pattern matching; no network access.
// Inputs are lowercased before matching, so normalized values are lowercase.
var (
	doiPrefix = regexp.MustCompile(`^(?:doi\s*:\s*|(?:https?://)?(?:dx\.)?doi\.org/)`)
	doiBody   = regexp.MustCompile(`^10\.[^/\s]+/\S+$`)

	pmPrefix = regexp.MustCompile(`^(?:(?:https?://)?(?:pubmed\.ncbi\.nlm\.nih\.gov/|www\.ncbi\.nlm\.nih\.gov/pubmed/)|pmid\s*:\s*|pmcid\s*:\s*)`)
	pmBody   = regexp.MustCompile(`^(?:\d+|pmc\d+(?:\.\d+)?)/?$`)

	arxivPrefix = regexp.MustCompile(`^(?:(?:https?://)?arxiv\.org/abs/|arxiv\s*:\s*)`)
	arxivBody   = regexp.MustCompile(`^(?:[a-z][\w.-]*/\d{7}|\d{4}\.\d{4,5}(?:v\d+)?)$`)

	arxivVersion = regexp.MustCompile(`v\d+$`)
)

// Classify decides whether s is a DOI, arXiv ID, or PubMed ID (bare,
// prefixed, or URL form) and returns the normalized identifier.
// It returns ErrUnrecognized when no pattern matches.
func Classify(s string) (ID, error) {
	t := strings.ToLower(strings.TrimSpace(s))

	if rest := doiPrefix.ReplaceAllString(t, ""); doiBody.MatchString(strings.TrimSuffix(rest, "/")) {
		return ID{Kind: DOI, Value: strings.TrimSuffix(rest, "/")}, nil
	}
	if rest := pmPrefix.ReplaceAllString(t, ""); pmBody.MatchString(rest) {
		return ID{Kind: PubMed, Value: strings.TrimSuffix(rest, "/")}, nil
	}
	if rest := arxivPrefix.ReplaceAllString(t, ""); arxivBody.MatchString(rest) {
		return ID{Kind: ArXiv, Value: rest}, nil
	}
	return ID{}, fmt.Errorf("%q: %w", s, ErrUnrecognized)
}

// DOI returns the DOI form of the identifier. For arXiv IDs this is the
// DataCite DOI 10.48550/arxiv.<id> with any version suffix stripped.
// PubMed IDs have no derivable DOI and return "".
func (id ID) DOI() string {
	switch id.Kind {
	case DOI:
		return id.Value
	case ArXiv:
		return "10.48550/arxiv." + arxivVersion.ReplaceAllString(id.Value, "")
	}
	return ""
}

// String renders the identifier with its kind prefix, e.g. "doi:10.1/x".
func (id ID) String() string {
	return id.Kind.String() + ":" + id.Value
}

// NormalizeDOI normalizes a DOI for comparison: URL and "doi:" prefixes
// removed, surrounding slashes trimmed, lowercased.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	doi = doiPrefix.ReplaceAllString(strings.ToLower(doi), "")
	return strings.Trim(doi, "/")
}
