package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	NextTab key.Binding
	PrevTab key.Binding
	Up      key.Binding
	Down    key.Binding
	Focus   key.Binding
	Cycle   key.Binding
	Reload  key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		NextTab: key.NewBinding(key.WithKeys("tab", "right", "l"), key.WithHelp("tab", "next tab")),
		PrevTab: key.NewBinding(key.WithKeys("shift+tab", "left", "h"), key.WithHelp("shift-tab", "prev tab")),
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Focus:   key.NewBinding(key.WithKeys("enter", "f"), key.WithHelp("enter", "focus view")),
		Cycle:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "cycle focus")),
		Reload:  key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reload config")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp lists the bindings shown in the help bar.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextTab, k.Up, k.Down, k.Focus, k.Cycle, k.Reload, k.Quit}
}
