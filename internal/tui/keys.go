package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Submit     key.Binding
	NewGame    key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	Help       key.Binding
	Quit       key.Binding
}

var Keys = KeyMap{
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "submit guess"),
	),
	NewGame: key.NewBinding(
		key.WithKeys("ctrl+n"),
		key.WithHelp("C-n", "new game"),
	),
	ScrollUp: key.NewBinding(
		key.WithKeys("pgup", "up"),
		key.WithHelp("↑/pgup", "scroll up"),
	),
	ScrollDown: key.NewBinding(
		key.WithKeys("pgdown", "down"),
		key.WithHelp("↓/pgdn", "scroll down"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("esc", "quit"),
	),
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.NewGame, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.NewGame},
		{k.ScrollUp, k.ScrollDown},
		{k.Help, k.Quit},
	}
}
