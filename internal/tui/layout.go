package tui

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/wordwrap"
)

const (
	defaultWindowWidth  = 80
	defaultWindowHeight = 24
	minBodyWidth        = 20
	horizontalPadding   = 4
	minSectionHeight    = 3
)

// pageLayout splits the window into the title block, the abstract and the
// footer at roughly 25/65/10 percent of the height.
type pageLayout struct {
	windowWidth    int
	windowHeight   int
	bodyWidth      int
	titleHeight    int
	abstractHeight int
	footerHeight   int
}

func newPageLayout() pageLayout {
	l := pageLayout{}
	l.Update(defaultWindowWidth, defaultWindowHeight)
	return l
}

func (l *pageLayout) Update(width, height int) {
	if width <= 0 {
		width = defaultWindowWidth
	}
	if height <= 0 {
		height = defaultWindowHeight
	}
	l.windowWidth = width
	l.windowHeight = height

	l.bodyWidth = width - horizontalPadding
	if l.bodyWidth < minBodyWidth {
		l.bodyWidth = minBodyWidth
	}

	l.titleHeight = atLeast(height*25/100, minSectionHeight)
	l.footerHeight = atLeast(height*10/100, 2)
	l.abstractHeight = atLeast(height-l.titleHeight-l.footerHeight, minSectionHeight)
}

func atLeast(v, floor int) int {
	if v < floor {
		return floor
	}
	return v
}

// fitLines pads or truncates text to exactly height lines so sections stay
// anchored while their content changes.
func fitLines(text string, height int) []string {
	lines := splitLinesPreserve(text)
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return lines
}

// abstractWindow wraps text to width and returns at most height lines
// starting at offset. An offset past the end yields no lines.
func abstractWindow(text string, width, height, offset int) []string {
	if strings.TrimSpace(text) == "" || height <= 0 {
		return nil
	}
	lines := strings.Split(wordwrap.String(text, width), "\n")
	if offset < 0 {
		offset = 0
	}
	if offset >= len(lines) {
		return nil
	}
	lines = lines[offset:]
	if len(lines) > height {
		lines = lines[:height]
	}
	return lines
}

func shortenList(items []string, limit int) string {
	if len(items) <= limit {
		return strings.Join(items, ", ")
	}
	return fmt.Sprintf("%s…", strings.Join(items[:limit], ", "))
}

func splitLinesPreserve(content string) []string {
	if content == "" {
		return []string{""}
	}
	return strings.Split(content, "\n")
}
