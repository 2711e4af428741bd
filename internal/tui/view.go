package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/roysti10/paperazzi/internal/scholar"
)

const (
	appName        = "Paperazzi"
	maxAuthors     = 4
	popupWidthPct  = 80
	noResultsLabel = "No results for this query."
)

func (m *model) View() string {
	if m.quitting {
		return ""
	}
	paper, ok := m.nav.current()
	if !ok {
		return joinNonEmpty([]string{
			brandStyle.Render(appName),
			helperStyle.Render(noResultsLabel),
			m.footerView(),
		})
	}

	lines := make([]string, 0, m.layout.windowHeight)
	lines = append(lines, fitLines(m.titleBlock(paper), m.layout.titleHeight)...)
	lines = append(lines, fitLines(m.abstractBlock(paper), m.layout.abstractHeight)...)
	lines = append(lines, fitLines(m.footerView(), m.layout.footerHeight)...)

	if m.nav.overlay != nil {
		lines = overlayLines(lines, m.popupView(), m.layout.windowWidth)
	}
	return strings.Join(lines, "\n")
}

func (m *model) titleBlock(paper scholar.Paper) string {
	width := m.layout.bodyWidth
	header := brandStyle.Render(appName) + "  " + positionStyle.Render(m.positionLabel())
	parts := []string{
		header,
		titleStyle.Render(wordwrap.String(paper.Title, width)),
		metaStyle.Render(fmt.Sprintf("%d", paper.Year)),
	}
	if len(paper.Authors) > 0 {
		parts = append(parts, metaStyle.Render(wordwrap.String(shortenList(paper.Authors, maxAuthors), width)))
	}
	return strings.Join(parts, "\n")
}

func (m *model) abstractBlock(paper scholar.Paper) string {
	// The header line comes out of the section's height.
	window := abstractWindow(paper.Abstract, m.layout.bodyWidth, m.layout.abstractHeight-1, m.nav.scroll)
	body := make([]string, 0, len(window)+1)
	body = append(body, sectionHeaderStyle.Render("Abstract"))
	for _, line := range window {
		body = append(body, abstractStyle.Render(line))
	}
	return strings.Join(body, "\n")
}

func (m *model) positionLabel() string {
	return fmt.Sprintf("result %d/%d", m.nav.index()+1, m.nav.results.Len())
}

func (m *model) footerView() string {
	return m.help.FullHelpView(m.keys.FullHelp())
}

func (m *model) popupView() string {
	overlay := m.nav.overlay
	box, header := popupStyles(overlay.kind)
	width := m.layout.windowWidth * popupWidthPct / 100
	if width < minBodyWidth {
		width = minBodyWidth
	}
	title := overlay.kind.String()
	if m.stage == stageDownloading {
		title = m.spinner.View() + " " + title
	}
	// Border and padding take six columns.
	body := wordwrap.String(overlay.message, width-6)
	return box.Width(width - 2).Render(header.Render(title) + "\n\n" + body)
}

// overlayLines replaces the middle rows of lines with the popup, centred
// horizontally within width.
func overlayLines(lines []string, box string, width int) []string {
	boxLines := strings.Split(box, "\n")
	out := make([]string, len(lines))
	copy(out, lines)
	for len(out) < len(boxLines) {
		out = append(out, "")
	}
	start := (len(out) - len(boxLines)) / 2
	for i, line := range boxLines {
		out[start+i] = lipgloss.PlaceHorizontal(width, lipgloss.Center, line)
	}
	return out
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}
