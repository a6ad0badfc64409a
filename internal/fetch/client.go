// Package fetch resolves classified identifiers to raw citation text via
// the doi.org, PubMed, and arXiv public endpoints.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mdunn/bibfetch/internal/identifier"
)

const (
	// DOIBaseURL serves citation text via content negotiation.
	DOIBaseURL = "https://doi.org/"

	// PubMedConvURL maps PMIDs/PMCIDs to DOIs.
	PubMedConvURL = "https://www.ncbi.nlm.nih.gov/pmc/utils/idconv/v1.0/"

	// ArxivAPIURL is the arXiv export API (Atom feeds).
	ArxivAPIURL = "https://export.arxiv.org/api/query"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 6 * time.Second

	// RateLimit keeps us well inside the providers' published limits.
	RateLimit = 5.0
)

// Format selects the representation requested from doi.org.
type Format string

const (
	FormatBibTeX Format = "bibtex"
	FormatText   Format = "text"
	FormatRIS    Format = "ris"
	FormatRDFXML Format = "rdf-xml"
	FormatTurtle Format = "turtle"
)

// acceptHeaders maps formats to doi.org content-negotiation types.
var acceptHeaders = map[Format]string{
	FormatBibTeX: "application/x-bibtex",
	FormatText:   "text/x-bibliography",
	FormatRIS:    "application/x-research-info-systems",
	FormatRDFXML: "application/rdf+xml",
	FormatTurtle: "text/turtle",
}

// Client is a rate-limited HTTP client for the citation resolvers. The
// core treats any successful text identically regardless of origin.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	email      string // sent to PubMed per their etiquette guidelines
	style      string // bibliography style for FormatText
	arxiv2doi  bool   // resolve arXiv IDs through their DataCite DOI

	doiBase   string
	pmBase    string
	arxivBase string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithEmail sets the contact email sent to PubMed.
func WithEmail(email string) Option {
	return func(c *Client) { c.email = email }
}

// WithStyle sets the bibliography style used for FormatText lookups.
func WithStyle(style string) Option {
	return func(c *Client) { c.style = style }
}

// WithArxivDirect disables the arXiv-to-DOI indirection and queries the
// arXiv export API directly.
func WithArxivDirect() Option {
	return func(c *Client) { c.arxiv2doi = false }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURLs overrides the service endpoints (for testing). Empty
// strings keep the defaults.
func WithBaseURLs(doi, pm, arxiv string) Option {
	return func(c *Client) {
		if doi != "" {
			c.doiBase = doi
		}
		if pm != "" {
			c.pmBase = pm
		}
		if arxiv != "" {
			c.arxivBase = arxiv
		}
	}
}

// NewClient creates a resolver client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		style:      "apa",
		arxiv2doi:  true,
		doiBase:    DOIBaseURL,
		pmBase:     PubMedConvURL,
		arxivBase:  ArxivAPIURL,
	}
	if email := os.Getenv("BIBFETCH_EMAIL"); email != "" {
		c.email = email
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch resolves a classified identifier to raw citation text in the
// requested format. Failures are ErrNotFound or a network condition.
func (c *Client) Fetch(ctx context.Context, id identifier.ID, format Format) (string, error) {
	switch id.Kind {
	case identifier.DOI:
		return c.fetchDOI(ctx, id.Value, format)
	case identifier.PubMed:
		return c.fetchPubMed(ctx, id.Value, format)
	case identifier.ArXiv:
		if c.arxiv2doi {
			return c.fetchDOI(ctx, id.DOI(), format)
		}
		entry, err := c.fetchArxiv(ctx, id.Value)
		if err != nil {
			return "", err
		}
		return formatSynthesized(entry), nil
	}
	return "", fmt.Errorf("unsupported identifier kind %v", id.Kind)
}

// fetchDOI asks doi.org for the citation via content negotiation.
func (c *Client) fetchDOI(ctx context.Context, doi string, format Format) (string, error) {
	accept, ok := acceptHeaders[format]
	if !ok {
		return "", fmt.Errorf("unsupported format %q", format)
	}
	if format == FormatText {
		accept = fmt.Sprintf("%s; style=%s", accept, c.style)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.doiBase+url.PathEscape(doi), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", accept+"; charset=utf-8")

	body, err := c.do(req, "doi.org")
	if err != nil {
		return "", err
	}
	// doi.org answers some unknown DOIs with a 200 HTML error page.
	if strings.Contains(body, "DOI Not Found") {
		return "", fmt.Errorf("doi %s: %w", doi, ErrNotFound)
	}
	return body, nil
}

// fetchPubMed converts a PMID/PMCID to a DOI, then resolves the DOI.
func (c *Client) fetchPubMed(ctx context.Context, pmid string, format Format) (string, error) {
	q := url.Values{"format": {"json"}, "ids": {pmid}}
	if c.email != "" {
		q.Set("email", c.email)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pmBase+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}

	body, err := c.do(req, "pubmed")
	if err != nil {
		return "", err
	}

	var conv struct {
		Records []struct {
			DOI string `json:"doi"`
		} `json:"records"`
	}
	if err := json.Unmarshal([]byte(body), &conv); err != nil {
		return "", fmt.Errorf("decoding pubmed response: %w", err)
	}
	if len(conv.Records) == 0 || conv.Records[0].DOI == "" {
		return "", fmt.Errorf("pmid %s: %w", pmid, ErrNotFound)
	}
	return c.fetchDOI(ctx, conv.Records[0].DOI, format)
}

// do executes a rate-limited request and maps transport and HTTP
// failures to the error taxonomy.
func (c *Client) do(req *http.Request, service string) (string, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return "", fmt.Errorf("%s: %w", service, ErrTimeout)
		}
		return "", fmt.Errorf("%s: %w", service, ErrNetwork)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("%s: %w", service, ErrNotFound)
	case resp.StatusCode >= 400:
		return "", &StatusError{Service: service, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%s: reading response: %w", service, ErrNetwork)
	}
	return string(body), nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
