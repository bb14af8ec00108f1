package main

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines every key binding. Bindings carry their help text so the
// help page is generated from the same source of truth.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding

	Open      key.Binding // descend into container / open object detail
	Back      key.Binding // pop to parent
	Root      key.Binding // jump to the navigation root
	Reload    key.Binding
	ClearAll  key.Binding // drop every cached listing
	Filter    key.Binding
	Download  key.Binding
	Preview   key.Binding
	Upload    key.Binding
	Delete    key.Binding
	CopyPath  key.Binding
	CopyETag  key.Binding
	CancelJob key.Binding

	Confirm key.Binding
	Deny    key.Binding
	Cancel  key.Binding

	Help key.Binding
	Quit key.Binding
}

// DefaultKeyMap is the built-in binding set: vim-style movement next to
// arrow keys, like every other terminal file browser.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("ctrl+u", "pgup"),
		key.WithHelp("C-u", "page up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("ctrl+d", "pgdown"),
		key.WithHelp("C-d", "page down"),
	),
	Top: key.NewBinding(
		key.WithKeys("g", "home"),
		key.WithHelp("g", "top"),
	),
	Bottom: key.NewBinding(
		key.WithKeys("G", "end"),
		key.WithHelp("G", "bottom"),
	),
	Open: key.NewBinding(
		key.WithKeys("enter", "l", "right"),
		key.WithHelp("Enter/l", "open"),
	),
	Back: key.NewBinding(
		key.WithKeys("backspace", "h", "left"),
		key.WithHelp("BS/h", "back"),
	),
	Root: key.NewBinding(
		key.WithKeys("~"),
		key.WithHelp("~", "go to root"),
	),
	Reload: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reload"),
	),
	ClearAll: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("C-r", "clear cache"),
	),
	Filter: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "filter"),
	),
	Download: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "download"),
	),
	Preview: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "preview"),
	),
	Upload: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "upload"),
	),
	Delete: key.NewBinding(
		key.WithKeys("D"),
		key.WithHelp("D", "delete object"),
	),
	CopyPath: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy path"),
	),
	CopyETag: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "copy etag"),
	),
	CancelJob: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "cancel transfer"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("y", "Y"),
		key.WithHelp("y", "yes"),
	),
	Deny: key.NewBinding(
		key.WithKeys("n", "N"),
		key.WithHelp("n", "no"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "cancel"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// helpSection is one block on the help page.
type helpSection struct {
	title    string
	bindings []key.Binding
}

// helpSections lays out the help page from the key map.
func (k KeyMap) helpSections() []helpSection {
	return []helpSection{
		{"Navigation", []key.Binding{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom, k.Open, k.Back, k.Root}},
		{"Listing", []key.Binding{k.Reload, k.ClearAll, k.Filter}},
		{"Objects", []key.Binding{k.Download, k.Preview, k.Upload, k.Delete, k.CopyPath, k.CopyETag, k.CancelJob}},
		{"Other", []key.Binding{k.Help, k.Quit}},
	}
}
