package tui

import "github.com/roysti10/paperazzi/internal/scholar"

type popupKind int

const (
	popupInfo popupKind = iota
	popupSuccess
	popupError
)

func (k popupKind) String() string {
	switch k {
	case popupSuccess:
		return "Success"
	case popupError:
		return "Error!"
	default:
		return "Info"
	}
}

type popup struct {
	kind    popupKind
	message string
}

// navigation is the cursor over one result set plus the status overlay. It
// is only touched from Update.
type navigation struct {
	results  *scholar.ResultSet
	selected int
	scroll   int
	overlay  *popup
}

func newNavigation(results *scholar.ResultSet) navigation {
	return navigation{results: results}
}

// index returns the selected position clamped to the current result count.
func (n *navigation) index() int {
	count := n.results.Len()
	switch {
	case count == 0:
		return 0
	case n.selected >= count:
		n.selected = count - 1
	case n.selected < 0:
		n.selected = 0
	}
	return n.selected
}

func (n *navigation) current() (scholar.Paper, bool) {
	return n.results.At(n.index())
}

// next moves to the following result. Scroll and popup reset even when the
// cursor is already on the last result.
func (n *navigation) next() bool {
	n.scroll = 0
	n.overlay = nil
	idx := n.index()
	if idx >= n.results.Len()-1 {
		return false
	}
	n.selected = idx + 1
	return true
}

func (n *navigation) previous() bool {
	n.scroll = 0
	n.overlay = nil
	idx := n.index()
	if idx == 0 {
		return false
	}
	n.selected = idx - 1
	return true
}

func (n *navigation) scrollUp() bool {
	if n.scroll == 0 {
		return false
	}
	n.scroll--
	return true
}

// scrollDown is not clamped against the abstract length; the view stops
// drawing lines once the offset runs past the end.
func (n *navigation) scrollDown() {
	n.scroll++
}

func (n *navigation) open(kind popupKind, message string) {
	n.overlay = &popup{kind: kind, message: message}
}

func (n *navigation) dismiss() {
	n.overlay = nil
}

func (n *navigation) popupOpen() bool {
	return n.overlay != nil
}
