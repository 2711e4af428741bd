// Package scholar queries the Semantic Scholar paper index.
package scholar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// DefaultEndpoint is the Semantic Scholar paper search endpoint.
const DefaultEndpoint = "https://api.semanticscholar.org/graph/v1/paper/search"

// Fields is the fixed field selection sent with every search.
const Fields = "title,abstract,authors,year,url,externalIds"

var (
	ErrInvalidQuery    = errors.New("invalid search query")
	ErrNetwork         = errors.New("search request failed")
	ErrDecode          = errors.New("search response could not be decoded")
	ErrMalformedResult = errors.New("malformed search result")
)

// Tolerance decides what a search does with a record it cannot convert.
type Tolerance int

const (
	// FailFast aborts the whole search on the first malformed record.
	FailFast Tolerance = iota
	// SkipMalformed drops malformed records, logs them, and counts them in
	// ResultSet.Skipped.
	SkipMalformed
)

func (t Tolerance) String() string {
	switch t {
	case SkipMalformed:
		return "skip"
	default:
		return "fail-fast"
	}
}

// Client issues one search request per call. It never retries.
type Client struct {
	Endpoint   string
	APIKey     string
	HTTPClient *http.Client
	Tolerance  Tolerance
	Logger     *log.Logger
}

type searchResponse struct {
	Data *[]json.RawMessage `json:"data"`
}

// Search queries the index and returns the hits in index order.
func (c *Client) Search(ctx context.Context, query string, limit int) (*ResultSet, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", ErrInvalidQuery)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidQuery, limit)
	}

	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	params := url.Values{
		"query":  {query},
		"limit":  {strconv.Itoa(limit)},
		"fields": {Fields},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("x-api-key", c.APIKey)
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: index returned %s (%s)", ErrNetwork, resp.Status, strings.TrimSpace(string(body)))
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if payload.Data == nil {
		return nil, fmt.Errorf("%w: response has no data array", ErrDecode)
	}

	records := *payload.Data
	papers := make([]Paper, 0, len(records))
	skipped := 0
	for idx, raw := range records {
		paper, err := decodePaper(raw)
		if err != nil {
			if c.Tolerance == SkipMalformed {
				skipped++
				c.logf("[search] skipping record %d: %v", idx, err)
				continue
			}
			return nil, fmt.Errorf("record %d: %w", idx, err)
		}
		papers = append(papers, paper)
	}
	c.logf("[search] %q returned %d result(s), %d skipped", query, len(papers), skipped)
	return &ResultSet{entries: papers, Skipped: skipped}, nil
}

func (c *Client) logf(format string, args ...any) {
	if c.Logger != nil {
		c.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}
