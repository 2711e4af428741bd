package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit       key.Binding
	Next       key.Binding
	Previous   key.Binding
	Open       key.Binding
	Download   key.Binding
	Dismiss    key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Next: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next"),
		),
		Previous: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "previous"),
		),
		Open: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "open in browser"),
		),
		Download: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "download paper"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "close popup"),
			key.WithDisabled(),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Previous, k.Next, k.Open, k.Download, k.ScrollDown, k.ScrollUp, k.Dismiss, k.Quit}
}

// FullHelp feeds the footer. Disabled bindings are skipped by the help
// renderer, which is how the dismiss hint only shows with a popup open.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Previous, k.Next},
		{k.ScrollUp, k.ScrollDown},
		{k.Open, k.Download},
		{k.Quit, k.Dismiss},
	}
}
