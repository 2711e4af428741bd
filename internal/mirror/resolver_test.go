package mirror

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pdfFixture = "%PDF-1.4\n%"

const mirrorPage = `<!doctype html>
<html><body>
<div id="article"><embed src="/viewer"></div>
<div id="buttons">
  <button onclick="location.href='/download/123.pdf'">&darr; save</button>
</div>
</body></html>`

type stubMirror struct {
	server      *httptest.Server
	page        string
	contentType string
	pdf         string
	pdfStatus   int
	// afterPDF runs once the PDF body has been written.
	afterPDF func()
}

func newStubMirror(t *testing.T) *stubMirror {
	t.Helper()
	s := &stubMirror{page: mirrorPage, contentType: "application/pdf", pdf: pdfFixture, pdfStatus: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("/10.1000/xyz123", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(s.page))
	})
	mux.HandleFunc("/download/123.pdf", func(w http.ResponseWriter, r *http.Request) {
		if s.contentType != "" {
			w.Header().Set("Content-Type", s.contentType)
		} else {
			w.Header()["Content-Type"] = nil
		}
		w.WriteHeader(s.pdfStatus)
		w.Write([]byte(s.pdf))
		if s.afterPDF != nil {
			s.afterPDF()
		}
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/download/123.pdf", http.StatusFound)
	})
	s.server = httptest.NewServer(mux)
	t.Cleanup(s.server.Close)
	return s
}

func (s *stubMirror) resolver(t *testing.T, dir string) *Resolver {
	t.Helper()
	origin, err := ParseHost(s.server.URL)
	require.NoError(t, err)
	return &Resolver{Mirror: origin, HTTPClient: s.server.Client(), Dir: dir}
}

func doiLink(t *testing.T) *url.URL {
	t.Helper()
	link, err := url.Parse("https://doi.org/10.1000/xyz123")
	require.NoError(t, err)
	return link
}

// buildPDF returns a minimal well-formed document with the given page count.
func buildPDF(pages int) string {
	var buf bytes.Buffer
	var offsets []int
	object := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	kids := make([]string, pages)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	object("<< /Type /Catalog /Pages 2 0 R >>")
	object(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pages))
	for i := 0; i < pages; i++ {
		object("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.String()
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestResolveWritesPDF(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		pdf   string
		pages int
	}{
		{"unparseable", pdfFixture, 0},
		{"one page", buildPDF(1), 1},
		{"three pages", buildPDF(3), 3},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			stub := newStubMirror(t)
			stub.pdf = tt.pdf
			dir := t.TempDir()
			artifact, err := stub.resolver(t, dir).Resolve(context.Background(), doiLink(t))
			require.NoError(t, err)

			assert.Equal(t, "123.pdf", artifact.Filename)
			assert.Equal(t, int64(len(tt.pdf)), artifact.Size)
			assert.Equal(t, tt.pages, artifact.Pages)
			assert.True(t, strings.HasSuffix(artifact.SourceURL, "/download/123.pdf"))

			data, err := os.ReadFile(filepath.Join(dir, "123.pdf"))
			require.NoError(t, err)
			assert.Equal(t, []byte(tt.pdf), data)
			assert.Equal(t, []string{"123.pdf"}, dirEntries(t, dir))
		})
	}
}

func TestResolveOverwritesExistingFile(t *testing.T) {
	t.Parallel()

	stub := newStubMirror(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "123.pdf"), []byte("stale contents"), 0o644))

	_, err := stub.resolver(t, dir).Resolve(context.Background(), doiLink(t))
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, "123.pdf"))
	require.NoError(t, err)
	assert.Equal(t, pdfFixture, string(data))
}

func TestResolveRejectsNonPDFContentType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		contentType string
	}{
		{"html", "text/html"},
		{"pdf with params", "application/pdf; charset=binary"},
		{"absent", ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			stub := newStubMirror(t)
			stub.contentType = tt.contentType
			dir := t.TempDir()
			_, err := stub.resolver(t, dir).Resolve(context.Background(), doiLink(t))
			assert.ErrorIs(t, err, ErrResolutionFailed)
			assert.Empty(t, dirEntries(t, dir))
		})
	}
}

func TestResolveMissingPDFPage(t *testing.T) {
	t.Parallel()

	stub := newStubMirror(t)
	stub.pdfStatus = http.StatusNotFound
	stub.contentType = "text/html"
	stub.pdf = "<html><body>404 not found</body></html>"
	dir := t.TempDir()
	_, err := stub.resolver(t, dir).Resolve(context.Background(), doiLink(t))
	assert.ErrorIs(t, err, ErrResolutionFailed)
	assert.NotErrorIs(t, err, ErrFetch)
	assert.Empty(t, dirEntries(t, dir))
}

func TestResolveWithoutButtonsMarker(t *testing.T) {
	t.Parallel()

	stub := newStubMirror(t)
	stub.page = `<html><body><p>article not found</p><button onclick="location.href='/x.pdf'">x</button></body></html>`
	dir := t.TempDir()
	_, err := stub.resolver(t, dir).Resolve(context.Background(), doiLink(t))
	assert.ErrorIs(t, err, ErrResolutionFailed)
	assert.Empty(t, dirEntries(t, dir))
}

func TestResolveFollowsRedirectForFilename(t *testing.T) {
	t.Parallel()

	stub := newStubMirror(t)
	stub.page = `<div id="buttons"><button onclick="location.href='/moved'">save</button></div>`
	dir := t.TempDir()
	artifact, err := stub.resolver(t, dir).Resolve(context.Background(), doiLink(t))
	require.NoError(t, err)
	assert.Equal(t, "123.pdf", artifact.Filename)
}

func TestResolveFetchErrors(t *testing.T) {
	t.Parallel()

	stub := newStubMirror(t)
	stub.pdfStatus = http.StatusBadGateway
	dir := t.TempDir()
	_, err := stub.resolver(t, dir).Resolve(context.Background(), doiLink(t))
	assert.ErrorIs(t, err, ErrFetch)
	assert.Empty(t, dirEntries(t, dir))

	closed := newStubMirror(t)
	resolver := closed.resolver(t, dir)
	closed.server.Close()
	_, err = resolver.Resolve(context.Background(), doiLink(t))
	assert.ErrorIs(t, err, ErrFetch)
}

func TestResolveCanceledDuringDownload(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stub := newStubMirror(t)
	stub.afterPDF = cancel

	dir := t.TempDir()
	_, err := stub.resolver(t, dir).Resolve(ctx, doiLink(t))
	assert.ErrorIs(t, err, ErrFetch)
	assert.Empty(t, dirEntries(t, dir))
}

func TestWriteArtifactCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dir := t.TempDir()
	_, err := writeArtifact(ctx, dir, "123.pdf", []byte(pdfFixture))
	assert.ErrorIs(t, err, ErrFetch)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, dirEntries(t, dir))
}

func TestResolveRejectsOversizedPDF(t *testing.T) {
	t.Parallel()

	stub := newStubMirror(t)
	dir := t.TempDir()
	resolver := stub.resolver(t, dir)
	resolver.MaxPDFBytes = 4
	_, err := resolver.Resolve(context.Background(), doiLink(t))
	assert.ErrorIs(t, err, ErrFetch)
	assert.Empty(t, dirEntries(t, dir))
}

func TestResolveIOError(t *testing.T) {
	t.Parallel()

	stub := newStubMirror(t)
	missing := filepath.Join(t.TempDir(), "does", "not", "exist")
	_, err := stub.resolver(t, missing).Resolve(context.Background(), doiLink(t))
	assert.ErrorIs(t, err, ErrIO)
}

func TestResolveRequiresMirror(t *testing.T) {
	t.Parallel()

	_, err := (&Resolver{}).Resolve(context.Background(), doiLink(t))
	assert.ErrorIs(t, err, ErrResolutionFailed)
}

func TestFilenameFromURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"https://mirror.example/download/123.pdf", "123.pdf", false},
		{"https://mirror.example/a/b/paper%20one.pdf", "paper one.pdf", false},
		{"https://mirror.example/download/", "", true},
		{"https://mirror.example", "", true},
	}
	for _, tt := range tests {
		u, err := url.Parse(tt.in)
		require.NoError(t, err)
		got, err := filenameFromURL(u)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrResolutionFailed, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
