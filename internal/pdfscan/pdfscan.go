// Package pdfscan extracts bibliographic identifiers from PDF files so a
// paper's PDF can be used directly as a lookup input.
package pdfscan

import (
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/mdunn/bibfetch/internal/identifier"
)

// Identifiers are almost always printed on the first page; scanning a
// few more handles covers and title pages.
const maxPages = 3

var (
	doiPattern   = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)
	arxivPattern = regexp.MustCompile(`arXiv:(\d{4}\.\d{4,5}(?:v\d+)?)`)
)

// ExtractIdentifier scans the first pages of the PDF at path for a DOI
// or arXiv ID. The second return value is false when none is found; a
// missing identifier is not an error.
func ExtractIdentifier(path string) (identifier.ID, bool, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return identifier.ID{}, false, err
	}
	defer f.Close()

	pages := maxPages
	if r.NumPage() < pages {
		pages = r.NumPage()
	}

	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if id, ok := findIdentifier(text); ok {
			return id, true, nil
		}
	}
	return identifier.ID{}, false, nil
}

// findIdentifier finds the first plausible DOI or arXiv ID in text.
// DataCite DOIs minted for arXiv papers are reported as arXiv IDs.
func findIdentifier(text string) (identifier.ID, bool) {
	for _, match := range doiPattern.FindAllString(text, -1) {
		doi := strings.TrimRight(match, ".,;:)")
		if !validDOI(doi) {
			continue
		}
		if arxivID, ok := strings.CutPrefix(strings.ToLower(doi), "10.48550/arxiv."); ok {
			if id, err := identifier.Classify(arxivID); err == nil {
				return id, true
			}
		}
		id, err := identifier.Classify(doi)
		if err == nil {
			return id, true
		}
	}
	if m := arxivPattern.FindStringSubmatch(text); m != nil {
		id, err := identifier.Classify(m[1])
		if err == nil {
			return id, true
		}
	}
	return identifier.ID{}, false
}

// validDOI performs basic shape validation on a DOI candidate.
func validDOI(doi string) bool {
	if len(doi) < 10 || !strings.HasPrefix(doi, "10.") {
		return false
	}
	slash := strings.Index(doi, "/")
	return slash > 0 && slash < len(doi)-1
}
