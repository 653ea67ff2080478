package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	enter    key.Binding
	back     key.Binding
	next     key.Binding
	prev     key.Binding
	login    key.Binding
	register key.Binding
	favorite key.Binding
	genre    key.Binding
	director key.Binding
	synopsis key.Binding
	profile  key.Binding
	logout   key.Binding
	retry    key.Binding
	edit     key.Binding
	remove   key.Binding
	yes      key.Binding
	no       key.Binding
	quit     key.Binding
	force    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		next:     key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		prev:     key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "previous field")),
		login:    key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "log in")),
		register: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "sign up")),
		favorite: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "favourite")),
		genre:    key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "genre")),
		director: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "director")),
		synopsis: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "synopsis")),
		profile:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "profile")),
		logout:   key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "log out")),
		retry:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
		edit:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		remove:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete account")),
		yes:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:       key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		force:    key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.favorite, k.genre, k.director, k.synopsis},
		{k.profile, k.edit, k.remove, k.logout},
		{k.retry, k.quit},
	}
}
