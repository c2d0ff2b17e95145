// Package keys defines the key bindings of the terminal interface.
package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Item actions
	Complete key.Binding
	Bonus    key.Binding
	Undo     key.Binding
	MoveUp   key.Binding
	MoveDown key.Binding
	Archive  key.Binding
	Void     key.Binding
	Restore  key.Binding
	Calendar key.Binding
	Open     key.Binding
	New      key.Binding
	Edit     key.Binding

	// Detail view
	Toggle      key.Binding
	RemoveEntry key.Binding

	// View
	Collection key.Binding
	Status     key.Binding
	CycleSort  key.Binding
	Search     key.Binding
	Command    key.Binding
	Refresh    key.Binding

	Back key.Binding
	Help key.Binding
	Quit key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Complete: key.NewBinding(
			key.WithKeys("x", "enter"),
			key.WithHelp("x", "complete"),
		),
		Bonus: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "bonus completion"),
		),
		Undo: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "undo last"),
		),
		MoveUp: key.NewBinding(
			key.WithKeys("K", "shift+up"),
			key.WithHelp("K", "move up"),
		),
		MoveDown: key.NewBinding(
			key.WithKeys("J", "shift+down"),
			key.WithHelp("J", "move down"),
		),
		Archive: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "archive"),
		),
		Void: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "void"),
		),
		Restore: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "restore"),
		),
		Calendar: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "calendar"),
		),
		Open: key.NewBinding(
			key.WithKeys("o", "l"),
			key.WithHelp("o", "open details"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new item"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit item"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "x"),
			key.WithHelp("space", "toggle sub-action"),
		),
		RemoveEntry: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "remove ledger entry"),
		),
		Collection: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch collection"),
		),
		Status: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "cycle status filter"),
		),
		CycleSort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "cycle sort"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Complete, k.Undo,
		k.Collection, k.Help, k.Quit,
	}
}

// FullHelp returns all keybindings grouped by category.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.MoveUp, k.MoveDown},
		{k.Complete, k.Bonus, k.Undo, k.Calendar, k.Open},
		{k.New, k.Edit},
		{k.Toggle, k.RemoveEntry},
		{k.Archive, k.Void, k.Restore},
		{k.Collection, k.Status, k.CycleSort, k.Search, k.Command, k.Refresh},
		{k.Back, k.Help, k.Quit},
	}
}
