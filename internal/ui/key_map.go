package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	enter   key.Binding
	back    key.Binding
	create  key.Binding
	edit    key.Binding
	remove  key.Binding
	share   key.Binding
	refresh key.Binding
	toggle  key.Binding
	next    key.Binding
	prev    key.Binding
	left    key.Binding
	right   key.Binding
	save    key.Binding
	invite  key.Binding
	yes     key.Binding
	no      key.Binding
	quit    key.Binding
	exit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		create:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		edit:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		remove:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		share:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "share")),
		refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		toggle:  key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle")),
		next:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		prev:    key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev field")),
		left:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev language")),
		right:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next language")),
		save:    key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		invite:  key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "save & share")),
		yes:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:      key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		exit:    key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.create, k.edit, k.remove, k.share, k.refresh},
		{k.next, k.prev, k.save, k.invite},
		{k.toggle, k.yes, k.no, k.quit},
	}
}
