// Package mirror resolves a paper link to a PDF by scraping a mirror site and
// saves the PDF to disk.
package mirror

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
)

const (
	pdfContentType = "application/pdf"
	// maxPageBytes caps how much of a mirror HTML page is parsed.
	maxPageBytes = 4 << 20
	// DefaultMaxPDFBytes caps a single download.
	DefaultMaxPDFBytes = 256 << 20
)

var (
	ErrFetch            = errors.New("fetch failed")
	ErrResolutionFailed = errors.New("pdf resolution failed")
	ErrIO               = errors.New("saving pdf failed")
)

// Resolver turns a paper link into a PDF on disk. A zero Resolver is not
// usable; Mirror must be set.
type Resolver struct {
	Mirror     *url.URL
	HTTPClient *http.Client
	// Dir receives downloaded files. Empty means the working directory.
	Dir         string
	MaxPDFBytes int64
	Logger      *log.Logger
}

// Resolve runs the two-hop scrape: mirror page, download button, PDF. It
// writes exactly one file on success and none on failure.
func (r *Resolver) Resolve(ctx context.Context, source *url.URL) (*Artifact, error) {
	if r.Mirror == nil {
		return nil, fmt.Errorf("%w: no mirror configured", ErrResolutionFailed)
	}
	if source == nil {
		return nil, fmt.Errorf("%w: no source link", ErrResolutionFailed)
	}

	mirrorURL := MirrorURL(r.Mirror, source)
	r.logf("[mirror] resolving %s via %s", source, mirrorURL)
	page, err := r.fetchPage(ctx, mirrorURL)
	if err != nil {
		return nil, err
	}
	redirect, err := ExtractRedirect(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}
	ref, err := url.Parse(redirect)
	if err != nil {
		return nil, fmt.Errorf("%w: redirect %q: %v", ErrResolutionFailed, redirect, err)
	}
	downloadURL := r.Mirror.ResolveReference(ref)

	body, finalURL, err := r.fetchPDF(ctx, downloadURL)
	if err != nil {
		return nil, err
	}
	name, err := filenameFromURL(finalURL)
	if err != nil {
		return nil, err
	}
	if err := canceled(ctx); err != nil {
		return nil, err
	}
	artifact, err := writeArtifact(ctx, r.Dir, name, body)
	if err != nil {
		return nil, err
	}
	artifact.SourceURL = finalURL.String()
	r.logf("[mirror] saved %s (%d bytes, %d pages)", artifact.Path, artifact.Size, artifact.Pages)
	return artifact, nil
}

func (r *Resolver) fetchPage(ctx context.Context, target *url.URL) ([]byte, error) {
	resp, err := r.get(ctx, target)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	// A missing paper is usually a 404 page without the button, so the status
	// is logged but the page is still scraped.
	if resp.StatusCode >= 400 {
		r.logf("[mirror] %s returned %s", target, resp.Status)
	}
	page, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read mirror page: %v", ErrFetch, err)
	}
	return page, nil
}

func (r *Resolver) fetchPDF(ctx context.Context, target *url.URL) ([]byte, *url.URL, error) {
	resp, err := r.get(ctx, target)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	// The content type decides first: a 404 HTML page means the mirror has no
	// PDF for this paper, not that it could not be reached.
	if got := resp.Header.Get("Content-Type"); got != pdfContentType {
		return nil, nil, fmt.Errorf("%w: %s served %q (%s), not %s", ErrResolutionFailed, target, got, resp.Status, pdfContentType)
	}
	if resp.StatusCode >= 400 {
		return nil, nil, fmt.Errorf("%w: %s returned %s", ErrFetch, target, resp.Status)
	}

	limit := r.MaxPDFBytes
	if limit <= 0 {
		limit = DefaultMaxPDFBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read pdf: %v", ErrFetch, err)
	}
	if int64(len(body)) > limit {
		return nil, nil, fmt.Errorf("%w: pdf exceeds %d bytes", ErrFetch, limit)
	}

	final := target
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL
	}
	return body, final, nil
}

// canceled reports a caller that gave up, so nothing is written after quit.
func canceled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: download canceled: %w", ErrFetch, err)
	}
	return nil
}

func (r *Resolver) get(ctx context.Context, target *url.URL) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	client := r.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	return resp, nil
}

func (r *Resolver) logf(format string, args ...any) {
	if r.Logger != nil {
		r.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}
