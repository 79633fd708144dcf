package tui

import "github.com/charmbracelet/lipgloss"

// ColorScheme — цвета элементов формы.
type ColorScheme struct {
	Title   lipgloss.Color
	Caption lipgloss.Color
	Label   lipgloss.Color
	Status  lipgloss.Color // строки "✓ ..."
	Spinner lipgloss.Color
	Error   lipgloss.Color
	Border  lipgloss.Color
}

// ColorSchemes — предустановленные схемы.
var ColorSchemes = map[string]ColorScheme{
	"default": {
		Title:   lipgloss.Color("86"),
		Caption: lipgloss.Color("242"),
		Label:   lipgloss.Color("252"),
		Status:  lipgloss.Color("42"),
		Spinner: lipgloss.Color("205"),
		Error:   lipgloss.Color("196"),
		Border:  lipgloss.Color("240"),
	},
	"light": {
		Title:   lipgloss.Color("31"),
		Caption: lipgloss.Color("8"),
		Label:   lipgloss.Color("0"),
		Status:  lipgloss.Color("28"),
		Spinner: lipgloss.Color("130"),
		Error:   lipgloss.Color("1"),
		Border:  lipgloss.Color("8"),
	},
	"dracula": {
		Title:   lipgloss.Color("#8be9fd"),
		Caption: lipgloss.Color("#6272a4"),
		Label:   lipgloss.Color("#f8f8f2"),
		Status:  lipgloss.Color("#50fa7b"),
		Spinner: lipgloss.Color("#ff79c6"),
		Error:   lipgloss.Color("#ff5555"),
		Border:  lipgloss.Color("#44475a"),
	},
}

// GetColorScheme возвращает схему по имени, неизвестное имя = default.
func GetColorScheme(name string) ColorScheme {
	if scheme, ok := ColorSchemes[name]; ok {
		return scheme
	}
	return ColorSchemes["default"]
}

type styles struct {
	title   lipgloss.Style
	caption lipgloss.Style
	label   lipgloss.Style
	status  lipgloss.Style
	spinner lipgloss.Style
	err     lipgloss.Style
	box     lipgloss.Style
}

func newStyles(cs ColorScheme) styles {
	return styles{
		title:   lipgloss.NewStyle().Foreground(cs.Title).Bold(true),
		caption: lipgloss.NewStyle().Foreground(cs.Caption).Italic(true),
		label:   lipgloss.NewStyle().Foreground(cs.Label).Bold(true),
		status:  lipgloss.NewStyle().Foreground(cs.Status),
		spinner: lipgloss.NewStyle().Foreground(cs.Spinner),
		err:     lipgloss.NewStyle().Foreground(cs.Error).Bold(true),
		box:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(cs.Border).Padding(0, 1),
	}
}
