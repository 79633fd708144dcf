package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap — клавиши формы.
type KeyMap struct {
	Quit       key.Binding
	Submit     key.Binding
	NextField  key.Binding
	PrevField  key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	SaveToFile key.Binding
	ToggleHelp key.Binding
}

// ShortHelp реализует help.KeyMap интерфейс.
func (km KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{km.Submit, km.NextField, km.SaveToFile, km.ToggleHelp, km.Quit}
}

// FullHelp реализует help.KeyMap интерфейс.
func (km KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{km.Submit, km.NextField, km.PrevField},
		{km.ScrollUp, km.ScrollDown, km.SaveToFile},
		{km.ToggleHelp, km.Quit},
	}
}

// DefaultKeyMap возвращает дефолтный KeyMap.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("Esc", "quit"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "generate itinerary"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("Tab", "next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("Shift+Tab", "previous field"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("ctrl+u", "pgup"),
			key.WithHelp("PgUp", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("ctrl+d", "pgdown"),
			key.WithHelp("PgDn", "scroll down"),
		),
		SaveToFile: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("Ctrl+S", "save itinerary"),
		),
		ToggleHelp: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "toggle help"),
		),
	}
}
