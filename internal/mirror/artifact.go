package mirror

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

const partialSuffix = ".part"

// Artifact describes a PDF saved by Resolve. The bytes themselves are not
// retained.
type Artifact struct {
	Filename  string
	Path      string
	Size      int64
	Pages     int
	SourceURL string
}

func filenameFromURL(final *url.URL) (string, error) {
	segment := path.Base(final.Path)
	if strings.HasSuffix(final.Path, "/") {
		segment = ""
	}
	switch segment {
	case "", ".", "/", "..":
		return "", fmt.Errorf("%w: no filename in %s", ErrResolutionFailed, final)
	}
	if strings.ContainsAny(segment, `/\`) || segment != filepath.Base(segment) {
		return "", fmt.Errorf("%w: unsafe filename %q", ErrResolutionFailed, segment)
	}
	return segment, nil
}

// writeArtifact stages body in a .part file and renames it into place, so a
// failed or canceled write never leaves a truncated PDF behind.
func writeArtifact(ctx context.Context, dir, name string, body []byte) (*Artifact, error) {
	if dir == "" {
		dir = "."
	}
	target := filepath.Join(dir, name)
	partial := target + partialSuffix

	file, err := os.OpenFile(partial, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	if _, err := file.Write(body); err != nil {
		file.Close()
		os.Remove(partial)
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(partial)
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := canceled(ctx); err != nil {
		os.Remove(partial)
		return nil, err
	}
	if err := os.Rename(partial, target); err != nil {
		os.Remove(partial)
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}

	return &Artifact{
		Filename: name,
		Path:     target,
		Size:     int64(len(body)),
		Pages:    countPages(body),
	}, nil
}

// countPages returns 0 for anything the pdf reader cannot open.
func countPages(body []byte) (pages int) {
	// The reader panics on some truncated cross-reference tables.
	defer func() {
		if recover() != nil {
			pages = 0
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return 0
	}
	return reader.NumPage()
}
