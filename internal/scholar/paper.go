package scholar

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Paper is a single search hit as rendered by the browser.
type Paper struct {
	Title    string
	Abstract string
	Year     int
	Authors  []string
	// Link is the canonical location of the paper: a DOI resolver URL when
	// the index knows the DOI, the arXiv PDF otherwise, and the index's own
	// page as a last resort.
	Link *url.URL
}

var (
	arxivIDRegexp        = regexp.MustCompile(`(?i)^[0-9a-z.\-/]+$`)
	extraneousWhitespace = regexp.MustCompile(`\s+`)
)

type apiRecord struct {
	Title       *string         `json:"title"`
	Abstract    *string         `json:"abstract"`
	Year        *int            `json:"year"`
	URL         *string         `json:"url"`
	Authors     []apiAuthor     `json:"authors"`
	ExternalIDs *apiExternalIDs `json:"externalIds"`
}

type apiAuthor struct {
	Name *string `json:"name"`
}

type apiExternalIDs struct {
	DOI   *string `json:"DOI"`
	ArXiv *string `json:"ArXiv"`
}

// decodePaper converts one raw index record. Every failure wraps
// ErrMalformedResult.
func decodePaper(raw json.RawMessage) (Paper, error) {
	var rec apiRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Paper{}, fmt.Errorf("%w: %v", ErrMalformedResult, err)
	}
	if rec.Year == nil {
		return Paper{}, fmt.Errorf("%w: year missing", ErrMalformedResult)
	}
	if rec.Authors == nil {
		return Paper{}, fmt.Errorf("%w: authors missing", ErrMalformedResult)
	}
	link, err := resolveLink(rec)
	if err != nil {
		return Paper{}, err
	}

	authors := make([]string, 0, len(rec.Authors))
	for _, a := range rec.Authors {
		if a.Name == nil {
			continue
		}
		if name := normalizeWhitespace(*a.Name); name != "" {
			authors = append(authors, name)
		}
	}

	return Paper{
		Title:    normalizeWhitespace(deref(rec.Title)),
		Abstract: normalizeWhitespace(deref(rec.Abstract)),
		Year:     *rec.Year,
		Authors:  authors,
		Link:     link,
	}, nil
}

func resolveLink(rec apiRecord) (*url.URL, error) {
	var candidate string
	switch {
	case rec.ExternalIDs != nil && strings.TrimSpace(deref(rec.ExternalIDs.DOI)) != "":
		candidate = DOILink(deref(rec.ExternalIDs.DOI))
	case rec.ExternalIDs != nil && strings.TrimSpace(deref(rec.ExternalIDs.ArXiv)) != "":
		id := extractArxivID(deref(rec.ExternalIDs.ArXiv))
		if id == "" {
			return nil, fmt.Errorf("%w: invalid arXiv identifier %q", ErrMalformedResult, deref(rec.ExternalIDs.ArXiv))
		}
		candidate = ArxivPDFLink(id)
	default:
		candidate = strings.TrimSpace(deref(rec.URL))
	}
	if candidate == "" {
		return nil, fmt.Errorf("%w: no resolvable link", ErrMalformedResult)
	}
	link, err := url.Parse(candidate)
	if err != nil {
		return nil, fmt.Errorf("%w: link %q: %v", ErrMalformedResult, candidate, err)
	}
	if !link.IsAbs() || link.Host == "" {
		return nil, fmt.Errorf("%w: link %q is not absolute", ErrMalformedResult, candidate)
	}
	return link, nil
}

// DOILink returns the doi.org resolver URL for a DOI.
func DOILink(doi string) string {
	return "https://doi.org/" + strings.TrimSpace(doi)
}

// ArxivPDFLink returns the PDF URL for a bare arXiv identifier.
func ArxivPDFLink(id string) string {
	return fmt.Sprintf("https://arxiv.org/pdf/%s.pdf", id)
}

func extractArxivID(input string) string {
	input = strings.TrimSpace(input)
	if len(input) >= len("arxiv:") && strings.EqualFold(input[:len("arxiv:")], "arxiv:") {
		input = input[len("arxiv:"):]
	}
	if len(input) > 4 && strings.EqualFold(input[len(input)-4:], ".pdf") {
		input = input[:len(input)-4]
	}
	if arxivIDRegexp.MatchString(input) {
		return input
	}
	return ""
}

func normalizeWhitespace(s string) string {
	return extraneousWhitespace.ReplaceAllString(strings.TrimSpace(s), " ")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
