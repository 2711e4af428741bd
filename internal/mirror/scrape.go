package mirror

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// downloadButtonSelector locates the mirror's download control.
const downloadButtonSelector = "#buttons button"

var redirectPattern = regexp.MustCompile(`location\.href\s*=\s*['"]([^'"]+)['"]`)

// ExtractRedirect parses a mirror page and returns the path its download
// button navigates to. All markup knowledge about the mirror lives here.
func ExtractRedirect(page io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(page)
	if err != nil {
		return "", fmt.Errorf("%w: parse mirror page: %v", ErrResolutionFailed, err)
	}
	button := doc.Find(downloadButtonSelector).First()
	if button.Length() == 0 {
		return "", fmt.Errorf("%w: no download button on mirror page", ErrResolutionFailed)
	}
	onclick, ok := button.Attr("onclick")
	if !ok {
		return "", fmt.Errorf("%w: download button has no onclick handler", ErrResolutionFailed)
	}
	matches := redirectPattern.FindStringSubmatch(onclick)
	if len(matches) < 2 || strings.TrimSpace(matches[1]) == "" {
		return "", fmt.Errorf("%w: unrecognised onclick handler %q", ErrResolutionFailed, onclick)
	}
	return strings.TrimSpace(matches[1]), nil
}
