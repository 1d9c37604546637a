package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Up            key.Binding
	Down          key.Binding
	NextAnnotated key.Binding
	PrevAnnotated key.Binding
	Rerun         key.Binding
	Clear         key.Binding
	Help          key.Binding
	Quit          key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "previous line"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "next line"),
	),
	NextAnnotated: key.NewBinding(
		key.WithKeys("]"),
		key.WithHelp("]", "next line with diagnostics"),
	),
	PrevAnnotated: key.NewBinding(
		key.WithKeys("["),
		key.WithHelp("[", "previous line with diagnostics"),
	),
	Rerun: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "re-run the analyzer"),
	),
	Clear: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "clear annotations"),
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

var _ help.KeyMap = keyMap{}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextAnnotated, k.Rerun, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextAnnotated, k.PrevAnnotated},
		{k.Rerun, k.Clear, k.Help, k.Quit},
	}
}
