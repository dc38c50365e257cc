package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/robalobadob/codebreaker/internal/config"
)

var (
	// Header
	TitleStyle lipgloss.Style
	RulesStyle lipgloss.Style

	// History rows
	NumberStyle lipgloss.Style
	DigitStyle  lipgloss.Style
	ExactStyle  lipgloss.Style
	ValueStyle  lipgloss.Style
	MissStyle   lipgloss.Style

	// Panels
	HistoryStyle lipgloss.Style
	InputStyle   lipgloss.Style

	// Banners
	WonStyle  lipgloss.Style
	LostStyle lipgloss.Style

	StatusBarStyle lipgloss.Style
	ErrorStyle     lipgloss.Style
	MutedStyle     lipgloss.Style
)

const pegGlyph = "●"

func init() {
	InitStyles(config.DefaultTheme())
}

// InitStyles rebuilds every style from theme. Empty fields fall back to the
// default palette.
func InitStyles(theme config.ThemeConfig) {
	theme = withDefaults(theme)

	TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(theme.Accent))

	RulesStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Muted))

	NumberStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Muted))

	DigitStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(theme.FG))

	ExactStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Exact))

	ValueStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Value))

	MissStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Miss))

	HistoryStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Muted)).
		Padding(0, 1)

	InputStyle = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(theme.Accent)).
		Padding(0, 1)

	WonStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(theme.Exact))

	LostStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(theme.Miss))

	StatusBarStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.StatusFG)).
		Background(lipgloss.Color(theme.StatusBG)).
		Padding(0, 1)

	ErrorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.ErrorText))

	MutedStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Muted))
}

func withDefaults(t config.ThemeConfig) config.ThemeConfig {
	d := config.DefaultTheme()
	pick := func(v, def string) string {
		if v == "" {
			return def
		}
		return v
	}
	return config.ThemeConfig{
		FG:        pick(t.FG, d.FG),
		Accent:    pick(t.Accent, d.Accent),
		Muted:     pick(t.Muted, d.Muted),
		Panel:     pick(t.Panel, d.Panel),
		Exact:     pick(t.Exact, d.Exact),
		Value:     pick(t.Value, d.Value),
		Miss:      pick(t.Miss, d.Miss),
		StatusFG:  pick(t.StatusFG, d.StatusFG),
		StatusBG:  pick(t.StatusBG, d.StatusBG),
		ErrorText: pick(t.ErrorText, d.ErrorText),
	}
}
