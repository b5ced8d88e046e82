package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/pders01/mrkt/internal/config"
)

// keyMap holds the configurable bindings. It implements help.KeyMap.
type keyMap struct {
	Search  key.Binding
	Blur    key.Binding
	Next    key.Binding
	Prev    key.Binding
	PageDn  key.Binding
	PageUp  key.Binding
	Select  key.Binding
	Open    key.Binding
	Refresh key.Binding
	Back    key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func newKeyMap(cfg config.KeyConfig) keyMap {
	mod := cfg.Modifier + "+"
	b := cfg.Bindings
	return keyMap{
		Search:  key.NewBinding(key.WithKeys(b.Search), key.WithHelp(b.Search, "search")),
		Blur:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "leave search")),
		Next:    key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "next")),
		Prev:    key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "previous")),
		PageDn:  key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down")),
		PageUp:  key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
		Select:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Open:    key.NewBinding(key.WithKeys(mod+b.Open), key.WithHelp(mod+b.Open, "open in browser")),
		Refresh: key.NewBinding(key.WithKeys(mod+b.Refresh), key.WithHelp(mod+b.Refresh, "refresh feeds")),
		Back:    key.NewBinding(key.WithKeys(b.Back), key.WithHelp(b.Back, "back")),
		Help:    key.NewBinding(key.WithKeys(b.Help), key.WithHelp(b.Help, "more")),
		Quit:    key.NewBinding(key.WithKeys(b.Quit, "ctrl+c"), key.WithHelp(b.Quit, "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Select, k.Open, k.Refresh, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Search, k.Blur, k.Back},
		{k.Next, k.Prev, k.PageDn, k.PageUp, k.Select},
		{k.Open, k.Refresh, k.Help, k.Quit},
	}
}

// searchHelp is shown while the search input has focus.
type searchHelp struct{ keyMap }

func (k searchHelp) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Select, k.Blur, k.Back}
}

// detailHelp is shown in the detail view.
type detailHelp struct{ keyMap }

func (k detailHelp) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Back, k.Quit}
}
